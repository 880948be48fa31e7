// Package testutils holds test doubles shared across kataru package tests.
package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/kataru/pkg/storage"
	"github.com/papercomputeco/kataru/pkg/storage/inmemory"
)

// ErrInjected is returned by MockDriver operations configured to fail.
var ErrInjected = errors.New("injected storage failure")

// MockDriver is a storage driver that records calls and can be told to fail.
// Successful calls are served by an in-memory driver.
type MockDriver struct {
	*inmemory.Driver

	// PutLabels accumulates the label of every record passed to Put.
	PutLabels []string

	// FailPut causes Put to return ErrInjected.
	FailPut bool

	// FailGet causes Get to return ErrInjected.
	FailGet bool

	// Closed is set once Close is called.
	Closed bool
}

// NewMockDriver creates a new mock storage driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{Driver: inmemory.NewDriver()}
}

// Put records the call, then stores the record unless FailPut is set.
func (m *MockDriver) Put(ctx context.Context, rec *storage.Record) (bool, error) {
	if rec != nil {
		m.PutLabels = append(m.PutLabels, rec.Label)
	}
	if m.FailPut {
		return false, ErrInjected
	}
	return m.Driver.Put(ctx, rec)
}

// Get returns ErrInjected when FailGet is set.
func (m *MockDriver) Get(ctx context.Context, label string) (*storage.Record, error) {
	if m.FailGet {
		return nil, ErrInjected
	}
	return m.Driver.Get(ctx, label)
}

// Close marks the driver closed.
func (m *MockDriver) Close() error {
	m.Closed = true
	return m.Driver.Close()
}

var _ storage.Driver = (*MockDriver)(nil)
