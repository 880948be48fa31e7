// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/kataru/pkg/bookmark"
	"github.com/papercomputeco/kataru/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id       TEXT PRIMARY KEY,
	label    TEXT NOT NULL UNIQUE,
	state    TEXT NOT NULL,
	taken_at TEXT NOT NULL
)`

// SQLiteDriver implements storage.Driver using SQLite.
type SQLiteDriver struct {
	db *sql.DB
}

// NewSQLiteDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteDriver{db: db}, nil
}

// Put stores a record, replacing any record with the same label while
// keeping its id. Returns true if the label was newly inserted.
func (d *SQLiteDriver) Put(ctx context.Context, rec *storage.Record) (bool, error) {
	if rec == nil || rec.State == nil {
		return false, errors.New("cannot store nil record")
	}

	state, err := json.Marshal(rec.State)
	if err != nil {
		return false, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM snapshots WHERE label = ?`, rec.Label).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshots (id, label, state, taken_at) VALUES (?, ?, ?, ?)`,
			id, rec.Label, string(state), formatTime(rec.TakenAt))
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE snapshots SET state = ?, taken_at = ? WHERE id = ?`,
			string(state), formatTime(rec.TakenAt), existing)
	}
	if err != nil {
		return false, fmt.Errorf("failed to store snapshot %q: %w", rec.Label, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit snapshot %q: %w", rec.Label, err)
	}
	return existing == "", nil
}

// Get retrieves a record by label.
func (d *SQLiteDriver) Get(ctx context.Context, label string) (*storage.Record, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, label, state, taken_at FROM snapshots WHERE label = ?`, label)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Label: label}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %q: %w", label, err)
	}
	return rec, nil
}

// Has checks if a record exists by label.
func (d *SQLiteDriver) Has(ctx context.Context, label string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE label = ?`, label).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot %q: %w", label, err)
	}
	return n > 0, nil
}

// List returns all records ordered by label.
func (d *SQLiteDriver) List(ctx context.Context) ([]*storage.Record, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, label, state, taken_at FROM snapshots ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	records := []*storage.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a record by label.
func (d *SQLiteDriver) Delete(ctx context.Context, label string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM snapshots WHERE label = ?`, label)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", label, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", label, err)
	}
	if n == 0 {
		return storage.NotFoundError{Label: label}
	}
	return nil
}

// Close closes the database.
func (d *SQLiteDriver) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*storage.Record, error) {
	var (
		rec     storage.Record
		state   string
		takenAt string
	)
	if err := s.Scan(&rec.ID, &rec.Label, &state, &takenAt); err != nil {
		return nil, err
	}

	rec.State = &bookmark.Bookmark{}
	if err := json.Unmarshal([]byte(state), rec.State); err != nil {
		return nil, fmt.Errorf("decoding snapshot %q: %w", rec.Label, err)
	}
	t, err := time.Parse(time.RFC3339Nano, takenAt)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %q time: %w", rec.Label, err)
	}
	rec.TakenAt = t
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
