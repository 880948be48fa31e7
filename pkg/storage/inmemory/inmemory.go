// Package inmemory provides a map-backed storage driver.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/papercomputeco/kataru/pkg/bookmark"
	"github.com/papercomputeco/kataru/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of records
	mu sync.RWMutex

	// records is the in memory map of records keyed by label
	records map[string]*storage.Record
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*storage.Record),
	}
}

// Put stores a record. Returns true if the label was newly inserted.
func (d *Driver) Put(_ context.Context, rec *storage.Record) (bool, error) {
	if rec == nil || rec.State == nil {
		return false, errors.New("cannot store nil record")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := copyRecord(rec)
	existing, ok := d.records[rec.Label]
	if ok {
		stored.ID = existing.ID
	} else if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	d.records[rec.Label] = stored
	return !ok, nil
}

// Get retrieves a record by label.
func (d *Driver) Get(_ context.Context, label string) (*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[label]
	if !ok {
		return nil, storage.NotFoundError{Label: label}
	}

	return copyRecord(rec), nil
}

// Has checks if a record exists by label.
func (d *Driver) Has(_ context.Context, label string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.records[label]
	return ok, nil
}

// List returns all records ordered by label.
func (d *Driver) List(_ context.Context) ([]*storage.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	records := make([]*storage.Record, 0, len(d.records))
	for _, rec := range d.records {
		records = append(records, copyRecord(rec))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Label < records[j].Label
	})

	return records, nil
}

// Delete removes a record by label.
func (d *Driver) Delete(_ context.Context, label string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.records[label]; !ok {
		return storage.NotFoundError{Label: label}
	}
	delete(d.records, label)
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// copyRecord detaches a record from caller-owned state.
func copyRecord(rec *storage.Record) *storage.Record {
	tr := rec.State.Tracker()
	sc := rec.State.Scope()
	return &storage.Record{
		ID:      rec.ID,
		Label:   rec.Label,
		State:   bookmark.Capture(tr, sc),
		TakenAt: rec.TakenAt,
	}
}
