package persist

import (
	"context"
	"fmt"
	"sync"

	"github.com/five82/pxbrowse/internal/snapshot"
)

// MemoryStore keeps snapshots for the lifetime of the process. Snapshots are
// stored encoded so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	data []byte
	meta Meta
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Save(_ context.Context, name string, snap snapshot.Snapshot) (Meta, error) {
	if err := validName(name); err != nil {
		return Meta{}, err
	}
	data, err := snapshot.Marshal(snap)
	if err != nil {
		return Meta{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	meta := newMeta()
	s.mu.Lock()
	s.records[name] = memoryRecord{data: data, meta: meta}
	s.mu.Unlock()
	return meta, nil
}

func (s *MemoryStore) Load(_ context.Context, name string) (snapshot.Snapshot, Meta, bool, error) {
	s.mu.RLock()
	record, ok := s.records[name]
	s.mu.RUnlock()
	if !ok {
		return snapshot.Snapshot{}, Meta{}, false, nil
	}
	snap, err := snapshot.Unmarshal(record.data)
	if err != nil {
		return snapshot.Snapshot{}, Meta{}, false, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return snap, record.meta, true, nil
}

func (s *MemoryStore) Clear(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.records, name)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
