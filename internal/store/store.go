// Package store persists the bot's cursors and a delivery audit log in a
// SQLite database. A cursor is a single named row overwritten on each
// advance; the overwrite is the durability boundary for mention processing.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dstanwick/perch/internal/perr"
)

// Well-known cursor names.
const (
	CursorMentions = "mentions"
	CursorCommits  = "commits"
)

// Delivery records one successfully posted reply or announcement.
type Delivery struct {
	ID       string
	Kind     string // "reply" or "commit"
	Ref      string // mention id or commit sha
	PostedAt time.Time
}

// Store wraps the SQLite state database.
type Store struct {
	*sql.DB
	path string
}

// Open creates or opens the state database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, perr.E(perr.KindStore, "store.open", fmt.Errorf("creating state directory: %w", err))
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, perr.E(perr.KindStore, "store.open", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, perr.E(perr.KindStore, "store.open", fmt.Errorf("pinging database: %w", err))
	}

	s := &Store{DB: sqlDB, path: path}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, perr.E(perr.KindStore, "store.open", fmt.Errorf("running migrations: %w", err))
	}
	return s, nil
}

// OpenMemory creates an in-memory state database (useful for testing).
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, perr.E(perr.KindStore, "store.open", err)
	}
	s := &Store{DB: sqlDB, path: ":memory:"}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, perr.E(perr.KindStore, "store.open", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS cursors (
    name TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS deliveries (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL CHECK(kind IN ('reply','commit')),
    ref TEXT NOT NULL,
    posted_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_deliveries_posted ON deliveries(posted_at);
`

// Cursor returns the persisted value for the named cursor. An absent row is
// not an error: it returns the empty string, meaning "process everything
// currently visible".
func (s *Store) Cursor(ctx context.Context, name string) (string, error) {
	var value string
	err := s.QueryRowContext(ctx, `SELECT value FROM cursors WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", perr.E(perr.KindStore, "store.cursor", err)
	}
	return value, nil
}

// SetCursor overwrites the named cursor with value.
func (s *Store) SetCursor(ctx context.Context, name, value string) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO cursors (name, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value)
	if err != nil {
		return perr.E(perr.KindStore, "store.set_cursor", err)
	}
	return nil
}

// RecordDelivery appends one posted reply or announcement to the audit log.
func (s *Store) RecordDelivery(ctx context.Context, d Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := s.ExecContext(ctx,
		`INSERT INTO deliveries (id, kind, ref) VALUES (?, ?, ?)`,
		d.ID, d.Kind, d.Ref)
	if err != nil {
		return perr.E(perr.KindStore, "store.record_delivery", err)
	}
	return nil
}
