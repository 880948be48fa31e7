// Package snapshot keeps named in-memory checkpoints of session state.
//
// A Snapshot is an independent copy of a position tracker and scope store,
// together with the line the session was showing and the interpreter's
// pending interaction. Copies are taken on the way in and on the way out, so
// neither live state nor a stored snapshot can observe mutations of the
// other.
package snapshot

import (
	"sort"
	"time"

	kerrors "github.com/papercomputeco/kataru/pkg/errors"
	"github.com/papercomputeco/kataru/pkg/interp"
	"github.com/papercomputeco/kataru/pkg/line"
	"github.com/papercomputeco/kataru/pkg/position"
	"github.com/papercomputeco/kataru/pkg/scope"
)

// Snapshot is a labelled copy of position, call stack and every scope.
// Current and Pending are nil and zero for snapshots rebuilt from a
// bookmark.
type Snapshot struct {
	Label   string
	Tracker *position.Tracker
	Scope   *scope.Store
	Current line.Line
	Pending interp.Checkpoint
	TakenAt time.Time
}

// Clone returns a deep copy of s. Lines and story choices are immutable and
// shared.
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		Label:   s.Label,
		Tracker: s.Tracker.Clone(),
		Scope:   s.Scope.Clone(),
		Current: s.Current,
		Pending: s.Pending,
		TakenAt: s.TakenAt,
	}
}

// Store maps labels to snapshots.
type Store struct {
	entries map[string]*Snapshot
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Snapshot),
		now:     time.Now,
	}
}

// Save copies tr and sc under label, replacing any previous snapshot with
// the same label.
func (s *Store) Save(label string, tr *position.Tracker, sc *scope.Store) *Snapshot {
	snap := &Snapshot{
		Label:   label,
		Tracker: tr.Clone(),
		Scope:   sc.Clone(),
		TakenAt: s.now().UTC(),
	}
	s.entries[label] = snap
	return snap.Clone()
}

// Load returns independent copies of the tracker and store saved under
// label. It fails with SnapshotNotFound for unknown labels.
func (s *Store) Load(label string) (*position.Tracker, *scope.Store, error) {
	snap, ok := s.entries[label]
	if !ok {
		return nil, nil, kerrors.SnapshotNotFound(label)
	}
	return snap.Tracker.Clone(), snap.Scope.Clone(), nil
}

// Get returns a copy of the snapshot saved under label.
func (s *Store) Get(label string) (*Snapshot, error) {
	snap, ok := s.entries[label]
	if !ok {
		return nil, kerrors.SnapshotNotFound(label)
	}
	return snap.Clone(), nil
}

// Put stores a copy of snap under its own label, replacing any previous
// snapshot with that label. A zero TakenAt is stamped with the current time.
func (s *Store) Put(snap *Snapshot) {
	c := snap.Clone()
	if c.TakenAt.IsZero() {
		c.TakenAt = s.now().UTC()
	}
	s.entries[snap.Label] = c
}

// Has reports whether label is stored.
func (s *Store) Has(label string) bool {
	_, ok := s.entries[label]
	return ok
}

// Labels returns the stored labels in sorted order.
func (s *Store) Labels() []string {
	labels := make([]string, 0, len(s.entries))
	for label := range s.entries {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Delete removes label. It reports whether anything was removed.
func (s *Store) Delete(label string) bool {
	_, ok := s.entries[label]
	delete(s.entries, label)
	return ok
}

// Len is the number of stored snapshots.
func (s *Store) Len() int {
	return len(s.entries)
}

// Clear removes every snapshot.
func (s *Store) Clear() {
	clear(s.entries)
}
