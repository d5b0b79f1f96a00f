package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/five82/pxbrowse/internal/snapshot"
)

// FileStore writes one JSON file per snapshot name into a directory.
type FileStore struct {
	dir string
}

type fileEnvelope struct {
	Meta     Meta            `json:"meta"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(_ context.Context, name string, snap snapshot.Snapshot) (Meta, error) {
	path, err := s.path(name)
	if err != nil {
		return Meta{}, err
	}
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	meta := newMeta()
	bytes, err := json.Marshal(fileEnvelope{Meta: meta, Snapshot: data})
	if err != nil {
		return Meta{}, fmt.Errorf("%w: encode envelope: %w", ErrPersistenceFailed, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Meta{}, fmt.Errorf("%w: create snapshot dir: %w", ErrPersistenceFailed, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return Meta{}, fmt.Errorf("%w: write snapshot: %w", ErrPersistenceFailed, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return Meta{}, fmt.Errorf("%w: replace snapshot: %w", ErrPersistenceFailed, err)
	}
	return meta, nil
}

func (s *FileStore) Load(_ context.Context, name string) (snapshot.Snapshot, Meta, bool, error) {
	path, err := s.path(name)
	if err != nil {
		return snapshot.Snapshot{}, Meta{}, false, err
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot.Snapshot{}, Meta{}, false, nil
		}
		return snapshot.Snapshot{}, Meta{}, false, fmt.Errorf("%w: read snapshot: %w", ErrPersistenceFailed, err)
	}
	var env fileEnvelope
	if err := json.Unmarshal(bytes, &env); err != nil {
		return snapshot.Snapshot{}, Meta{}, false, fmt.Errorf("%w: decode envelope: %w", ErrPersistenceFailed, err)
	}
	snap, err := snapshot.Unmarshal(env.Snapshot)
	if err != nil {
		return snapshot.Snapshot{}, Meta{}, false, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return snap, env.Meta, true, nil
}

func (s *FileStore) Clear(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove snapshot: %w", ErrPersistenceFailed, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+".json"), nil
}

func validName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name {
		return fmt.Errorf("%w: invalid snapshot name %q", ErrPersistenceFailed, name)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid snapshot name %q", ErrPersistenceFailed, name)
	}
	return nil
}
