package session

import (
	"context"
	"errors"

	"github.com/papercomputeco/kataru/pkg/bookmark"
	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/snapshot"
	"github.com/papercomputeco/kataru/pkg/storage"
)

// SaveSnapshot copies position, call stack, every scope, the current line
// and any pending choices under label, replacing any snapshot with the same
// label.
func (s *Session) SaveSnapshot(label string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.snapshots.Put(&snapshot.Snapshot{
		Label:   label,
		Tracker: s.tracker,
		Scope:   s.scope,
		Current: s.current,
		Pending: s.interp.Checkpoint(),
	})
	s.logger.Debug("snapshot saved", "label", label, "position", s.tracker.Current.String())
	return nil
}

// LoadSnapshot replaces position, call stack and every scope with copies of
// the snapshot under label, and puts back the line and choices it was showing
// so the next Advance answers them. An unknown label fails with
// SnapshotNotFound and leaves the live state unchanged.
func (s *Session) LoadSnapshot(label string) error {
	if err := s.ready(); err != nil {
		return err
	}
	snap, err := s.snapshots.Get(label)
	if err != nil {
		return err
	}
	s.tracker, s.scope = snap.Tracker, snap.Scope
	s.current = snap.Current
	s.interp.Resume(snap.Pending)
	s.logger.Debug("snapshot loaded", "label", label, "position", s.tracker.Current.String())
	return nil
}

// Snapshot returns a copy of the snapshot under label.
func (s *Session) Snapshot(label string) (*snapshot.Snapshot, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.snapshots.Get(label)
}

// Snapshots lists snapshot labels in sorted order.
func (s *Session) Snapshots() []string {
	if s.ready() != nil {
		return nil
	}
	return s.snapshots.Labels()
}

// DeleteSnapshot removes a snapshot. It reports whether one was removed.
func (s *Session) DeleteSnapshot(label string) bool {
	if s.ready() != nil {
		return false
	}
	return s.snapshots.Delete(label)
}

// ExportSnapshot writes the snapshot under label to a storage driver.
func (s *Session) ExportSnapshot(ctx context.Context, driver storage.Driver, label string) error {
	snap, err := s.Snapshot(label)
	if err != nil {
		return err
	}
	rec := &storage.Record{
		Label:   label,
		State:   bookmark.Capture(snap.Tracker, snap.Scope),
		TakenAt: snap.TakenAt,
	}
	if _, err := driver.Put(ctx, rec); err != nil {
		return kerrors.Wrap(kerrors.CodePersistence, "exporting snapshot", label, err)
	}
	s.logger.Debug("snapshot exported", "label", label)
	return nil
}

// ImportSnapshot reads label from a storage driver into the snapshot store.
// It does not change the live state; LoadSnapshot does that.
func (s *Session) ImportSnapshot(ctx context.Context, driver storage.Driver, label string) error {
	if err := s.ready(); err != nil {
		return err
	}
	rec, err := driver.Get(ctx, label)
	if errors.As(err, new(storage.NotFoundError)) {
		return kerrors.Wrap(kerrors.CodeSnapshotMissing, "snapshot not found", label, err)
	}
	if err != nil {
		return kerrors.Wrap(kerrors.CodePersistence, "importing snapshot", label, err)
	}

	tr, sc, err := s.restore(rec.State)
	if err != nil {
		return kerrors.Wrap(kerrors.CodePersistence, "importing snapshot", label, err)
	}
	s.snapshots.Put(&snapshot.Snapshot{Label: label, Tracker: tr, Scope: sc, TakenAt: rec.TakenAt})
	s.logger.Debug("snapshot imported", "label", label)
	return nil
}
