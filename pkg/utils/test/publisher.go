package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/kataru/pkg/eventstream"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.SessionEvent

	// Fail causes Publish to return ErrInjected after recording.
	Fail bool

	// Closed is set once Close is called.
	Closed bool
}

// NewRecordingPublisher creates an empty recording publisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records the event.
func (p *RecordingPublisher) Publish(_ context.Context, event *eventstream.SessionEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	if p.Fail {
		return ErrInjected
	}
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (p *RecordingPublisher) Events() []*eventstream.SessionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.SessionEvent(nil), p.events...)
}

// Types returns the event types in publish order.
func (p *RecordingPublisher) Types() []string {
	events := p.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	return types
}

// Close marks the publisher closed.
func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

var _ eventstream.Publisher = (*RecordingPublisher)(nil)
