package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/five82/pxbrowse/internal/snapshot"
)

// ErrPersistenceFailed wraps every backend failure.
var ErrPersistenceFailed = errors.New("persistence failed")

// Adapter saves, loads and clears named snapshots.
type Adapter interface {
	Save(ctx context.Context, name string, snap snapshot.Snapshot) (Meta, error)
	Load(ctx context.Context, name string) (snap snapshot.Snapshot, meta Meta, ok bool, err error)
	Clear(ctx context.Context, name string) error
	Close() error
}

// Meta is backend-owned metadata for one saved snapshot.
type Meta struct {
	ID      string    `json:"id"`
	SavedAt time.Time `json:"saved_at"`
}

func newMeta() Meta {
	return Meta{ID: uuid.NewString(), SavedAt: time.Now().UTC()}
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Open returns the adapter for backend. path is the database file for
// sqlite and the directory for file; memory ignores it.
func Open(backend, path string) (Adapter, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(path)
	case BackendFile:
		return NewFileStore(path), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", backend)
	}
}
