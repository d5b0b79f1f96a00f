package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/five82/pxbrowse/internal/snapshot"
)

// Schema for the snapshots table.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name TEXT PRIMARY KEY,
	id TEXT NOT NULL,
	body TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);
`

// SQLiteStore keeps named snapshots in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, name string, snap snapshot.Snapshot) (Meta, error) {
	if err := validName(name); err != nil {
		return Meta{}, err
	}
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	meta := newMeta()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, id, body, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET id = excluded.id, body = excluded.body, saved_at = excluded.saved_at`,
		name, meta.ID, string(data), meta.SavedAt.UnixMilli())
	if err != nil {
		return Meta{}, fmt.Errorf("%w: save %q: %w", ErrPersistenceFailed, name, err)
	}
	return meta, nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (snapshot.Snapshot, Meta, bool, error) {
	var (
		id      string
		body    string
		savedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, body, saved_at FROM snapshots WHERE name = ?`, name).Scan(&id, &body, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Snapshot{}, Meta{}, false, nil
	}
	if err != nil {
		return snapshot.Snapshot{}, Meta{}, false, fmt.Errorf("%w: load %q: %w", ErrPersistenceFailed, name, err)
	}
	snap, err := snapshot.Unmarshal([]byte(body))
	if err != nil {
		return snapshot.Snapshot{}, Meta{}, false, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return snap, Meta{ID: id, SavedAt: time.UnixMilli(savedAt).UTC()}, true, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("%w: clear %q: %w", ErrPersistenceFailed, name, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
