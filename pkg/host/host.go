// Package host serves many independent sessions of one story to concurrent
// callers, such as HTTP handlers or MCP tools.
//
// Sessions live in a boundary.Registry and are addressed by handle. Each
// session is driven through its Exchange under a per-session lock, and every
// result is copied out before the lock is released, so callers never hold a
// borrowed view. Changes are published to an eventstream.Publisher.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/kataru/pkg/bookmark"
	"github.com/papercomputeco/kataru/pkg/boundary"
	"github.com/papercomputeco/kataru/pkg/eventstream"
	"github.com/papercomputeco/kataru/pkg/eventstream/nop"
	"github.com/papercomputeco/kataru/pkg/logger"
	"github.com/papercomputeco/kataru/pkg/session"
	"github.com/papercomputeco/kataru/pkg/storage"
	"github.com/papercomputeco/kataru/pkg/story"
	"github.com/papercomputeco/kataru/pkg/value"
)

var (
	// ErrUnknownSession is returned for a handle that is not open.
	ErrUnknownSession = errors.New("unknown session")

	// ErrNoArchive is returned by Export and Import without an archive.
	ErrNoArchive = errors.New("no snapshot archive configured")
)

// Host owns the sessions of one story.
type Host struct {
	story     *story.Story
	name      string
	validate  bool
	registry  *boundary.Registry
	publisher eventstream.Publisher
	archive   storage.Driver
	logger    *slog.Logger
	options   []session.Option

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// Option configures a Host.
type Option func(*Host)

// WithValidate validates the story when each session is opened.
func WithValidate(v bool) Option {
	return func(h *Host) {
		h.validate = v
	}
}

// WithName sets the story name reported in events.
func WithName(name string) Option {
	return func(h *Host) {
		h.name = name
	}
}

// WithPublisher receives an event for every change to a session.
func WithPublisher(p eventstream.Publisher) Option {
	return func(h *Host) {
		h.publisher = p
	}
}

// WithArchive enables Export and Import.
func WithArchive(d storage.Driver) Option {
	return func(h *Host) {
		h.archive = d
	}
}

// WithLogger sets the host logger. Sessions log through it too.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// WithSessionOptions applies opts to every session the host opens, after
// the host's own logger.
func WithSessionOptions(opts ...session.Option) Option {
	return func(h *Host) {
		h.options = append(h.options, opts...)
	}
}

// New creates a host for st.
func New(st *story.Story, opts ...Option) *Host {
	h := &Host{
		story:     st,
		publisher: nop.NewPublisher(),
		logger:    logger.Nop(),
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(h)
	}
	sessionOpts := append([]session.Option{session.WithLogger(h.logger)}, h.options...)
	h.registry = boundary.NewRegistry(sessionOpts...)
	return h
}

// Open starts a session from b, or from the story start when b is nil.
func (h *Host) Open(ctx context.Context, b *bookmark.Bookmark) (uuid.UUID, boundary.Record, error) {
	id := h.registry.Open()
	ex, _ := h.registry.Get(id)

	ex.InitStory(h.story, b, h.validate)
	if err := ex.Err(); err != nil {
		h.registry.Close(id)
		return uuid.Nil, boundary.Record{}, err
	}

	h.mu.Lock()
	h.locks[id] = &sync.Mutex{}
	h.mu.Unlock()

	rec := ex.Copy()
	h.logger.Info("session opened", "session", id.String(), "passage", rec.Passage)
	h.publish(ctx, eventstream.NewSessionEvent(eventstream.EventTypeSessionOpened, id.String(), rec))
	return id, rec, nil
}

// Close drops a session.
func (h *Host) Close(ctx context.Context, id uuid.UUID) error {
	var rec boundary.Record
	err := h.with(id, func(ex *boundary.Exchange) error {
		rec = ex.Copy()
		h.registry.Close(id)
		return nil
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	delete(h.locks, id)
	h.mu.Unlock()

	h.logger.Info("session closed", "session", id.String())
	h.publish(ctx, eventstream.NewSessionEvent(eventstream.EventTypeSessionClosed, id.String(), rec))
	return nil
}

// Sessions lists open handles in a stable order.
func (h *Host) Sessions() []uuid.UUID {
	return h.registry.Handles()
}

// Story returns the hosted story.
func (h *Host) Story() *story.Story {
	return h.story
}

// State copies the position and current line.
func (h *Host) State(id uuid.UUID) (boundary.Record, error) {
	var rec boundary.Record
	err := h.with(id, func(ex *boundary.Exchange) error {
		rec = ex.Copy()
		return nil
	})
	return rec, err
}

// Advance moves a session and returns its new state.
func (h *Host) Advance(ctx context.Context, id uuid.UUID, input string) (boundary.Record, error) {
	rec, err := h.change(id, func(ex *boundary.Exchange) error {
		ex.Advance(input)
		return ex.Err()
	})
	if err != nil {
		return rec, err
	}

	event := eventstream.NewSessionEvent(eventstream.EventTypeLineAdvanced, id.String(), rec)
	event.Input = input
	h.publish(ctx, event)
	return rec, nil
}

// Goto jumps a session to a passage.
func (h *Host) Goto(ctx context.Context, id uuid.UUID, passage string) (boundary.Record, error) {
	rec, err := h.change(id, func(ex *boundary.Exchange) error {
		ex.Goto(passage)
		return ex.Err()
	})
	if err != nil {
		return rec, err
	}

	h.publish(ctx, eventstream.NewSessionEvent(eventstream.EventTypePassageEntered, id.String(), rec))
	return rec, nil
}

// Get reads a variable.
func (h *Host) Get(id uuid.UUID, key string) (value.Value, error) {
	var v value.Value
	err := h.with(id, func(ex *boundary.Exchange) error {
		val, _ := ex.Get(key)
		if err := ex.Err(); err != nil {
			return err
		}
		v, _ = val.Get()
		return nil
	})
	return v, err
}

// Set writes a variable.
func (h *Host) Set(ctx context.Context, id uuid.UUID, key string, v value.Value) error {
	rec, err := h.change(id, func(ex *boundary.Exchange) error {
		ex.Set(key, v)
		return ex.Err()
	})
	if err != nil {
		return err
	}

	event := eventstream.NewSessionEvent(eventstream.EventTypeVariableSet, id.String(), rec)
	event.Variable = &eventstream.VariableChange{Key: key, Value: v}
	h.publish(ctx, event)
	return nil
}

// Variables returns every variable visible at the current position.
func (h *Host) Variables(id uuid.UUID) (map[string]value.Value, error) {
	var vars map[string]value.Value
	err := h.with(id, func(ex *boundary.Exchange) error {
		var err error
		vars, err = ex.Session().Visible()
		return err
	})
	return vars, err
}

// SaveSnapshot checkpoints a session under label.
func (h *Host) SaveSnapshot(ctx context.Context, id uuid.UUID, label string) error {
	rec, err := h.change(id, func(ex *boundary.Exchange) error {
		ex.SaveSnapshot(label)
		return ex.Err()
	})
	if err != nil {
		return err
	}

	event := eventstream.NewSessionEvent(eventstream.EventTypeSnapshotSaved, id.String(), rec)
	event.Label = label
	h.publish(ctx, event)
	return nil
}

// LoadSnapshot restores a session to the checkpoint under label.
func (h *Host) LoadSnapshot(ctx context.Context, id uuid.UUID, label string) (boundary.Record, error) {
	rec, err := h.change(id, func(ex *boundary.Exchange) error {
		ex.LoadSnapshot(label)
		return ex.Err()
	})
	if err != nil {
		return rec, err
	}

	event := eventstream.NewSessionEvent(eventstream.EventTypeSnapshotRestored, id.String(), rec)
	event.Label = label
	h.publish(ctx, event)
	return rec, nil
}

// Snapshots lists the snapshot labels of a session.
func (h *Host) Snapshots(id uuid.UUID) ([]string, error) {
	var labels []string
	err := h.with(id, func(ex *boundary.Exchange) error {
		labels = ex.Session().Snapshots()
		return nil
	})
	return labels, err
}

// Bookmark captures the full state of a session.
func (h *Host) Bookmark(id uuid.UUID) (*bookmark.Bookmark, error) {
	var b *bookmark.Bookmark
	err := h.with(id, func(ex *boundary.Exchange) error {
		var err error
		b, err = ex.Session().Bookmark()
		return err
	})
	return b, err
}

// Export copies the snapshot under label to the archive.
func (h *Host) Export(ctx context.Context, id uuid.UUID, label string) error {
	if h.archive == nil {
		return ErrNoArchive
	}
	return h.with(id, func(ex *boundary.Exchange) error {
		return ex.Session().ExportSnapshot(ctx, h.archive, label)
	})
}

// Import copies the archived snapshot under label into a session's
// snapshot store.
func (h *Host) Import(ctx context.Context, id uuid.UUID, label string) error {
	if h.archive == nil {
		return ErrNoArchive
	}
	return h.with(id, func(ex *boundary.Exchange) error {
		return ex.Session().ImportSnapshot(ctx, h.archive, label)
	})
}

// CloseAll drops every session and closes the publisher.
func (h *Host) CloseAll(ctx context.Context) error {
	for _, id := range h.Sessions() {
		if err := h.Close(ctx, id); err != nil && !errors.Is(err, ErrUnknownSession) {
			return err
		}
	}
	return h.publisher.Close()
}

// with runs fn on a session's exchange under its lock.
func (h *Host) with(id uuid.UUID, fn func(*boundary.Exchange) error) error {
	h.mu.Lock()
	lock, ok := h.locks[id]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	lock.Lock()
	defer lock.Unlock()

	ex, ok := h.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return fn(ex)
}

// change runs fn and, on success, copies the resulting state.
func (h *Host) change(id uuid.UUID, fn func(*boundary.Exchange) error) (boundary.Record, error) {
	var rec boundary.Record
	err := h.with(id, func(ex *boundary.Exchange) error {
		if err := fn(ex); err != nil {
			return err
		}
		rec = ex.Copy()
		return nil
	})
	return rec, err
}

// publish sends an event. Failures are logged and not returned.
func (h *Host) publish(ctx context.Context, event *eventstream.SessionEvent) {
	event.Source = eventstream.EventSource{Host: "kataru", Story: h.name}
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("publishing session event", "type", event.EventType, "error", err)
	}
}
