// Package storage persists labelled snapshots of session state beyond the
// lifetime of a session, so checkpoints can be exported and imported across
// runs.
package storage

import (
	"context"
	"time"

	"github.com/papercomputeco/kataru/pkg/bookmark"
)

// Record is one archived snapshot.
type Record struct {
	// ID is assigned by the driver on first insert and kept on overwrite.
	ID string

	// Label is the snapshot label and the record's unique key.
	Label string

	// State is the saved position, call stack and scopes.
	State *bookmark.Bookmark

	// TakenAt is when the snapshot was taken in the session.
	TakenAt time.Time
}

// Driver defines the interface for persisting and retrieving snapshot
// records in a storage backend.
type Driver interface {
	// Put stores a record under its label, replacing any record with the same
	// label. Returns true if the label was newly inserted.
	Put(ctx context.Context, rec *Record) (bool, error)

	// Get retrieves a record by label.
	Get(ctx context.Context, label string) (*Record, error)

	// Has checks if a record exists by label.
	Has(ctx context.Context, label string) (bool, error)

	// List returns all records ordered by label.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes a record by label.
	Delete(ctx context.Context, label string) error

	// Close closes the store and releases any resources.
	Close() error
}
