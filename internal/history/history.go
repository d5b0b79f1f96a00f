package history

import (
	"sync"

	"github.com/five82/pxbrowse/internal/observable"
	"github.com/five82/pxbrowse/internal/snapshot"
)

// Position describes the cursor after a change.
type Position struct {
	Cursor   int
	Len      int
	Snapshot snapshot.Snapshot
	Valid    bool
}

// Store is an append-mostly list of snapshots. New snapshots are accepted
// only at the tip; navigating never errors and is clamped to the valid range.
type Store struct {
	mu        sync.Mutex
	snapshots []snapshot.Snapshot
	cursor    int
	limit     int
	current   *observable.Value[Position]
}

// New returns an empty store. limit caps the number of kept snapshots; zero
// or negative keeps everything.
func New(limit int) *Store {
	return &Store{limit: limit, current: observable.New(Position{})}
}

// AddState appends snap and moves the cursor to it. It is a no-op when the
// cursor is behind the tip or when snap equals the tip snapshot.
func (s *Store) AddState(snap snapshot.Snapshot) bool {
	s.mu.Lock()
	if n := len(s.snapshots); n > 0 {
		if s.cursor != n-1 || s.snapshots[n-1].Equal(snap) {
			s.mu.Unlock()
			return false
		}
	}
	s.snapshots = append(s.snapshots, snap)
	if s.limit > 0 && len(s.snapshots) > s.limit {
		drop := len(s.snapshots) - s.limit
		s.snapshots = append([]snapshot.Snapshot(nil), s.snapshots[drop:]...)
	}
	s.cursor = len(s.snapshots) - 1
	pos := s.positionLocked()
	s.mu.Unlock()

	s.current.Set(pos)
	return true
}

// Current returns the snapshot at the cursor.
func (s *Store) Current() (snapshot.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snapshots) == 0 {
		return snapshot.Snapshot{}, false
	}
	return s.snapshots[s.cursor], true
}

// Position returns the cursor, length and current snapshot.
func (s *Store) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// Cursor returns the cursor index.
func (s *Store) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// CanGoBack reports whether GoBack would move the cursor.
func (s *Store) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots) > 1 && s.cursor > 0
}

// CanGoForward reports whether GoForward would move the cursor.
func (s *Store) CanGoForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots) > 1 && s.cursor+1 < len(s.snapshots)
}

// GoBack moves the cursor one step toward the oldest snapshot.
func (s *Store) GoBack() bool { return s.move(-1) }

// GoForward moves the cursor one step toward the tip.
func (s *Store) GoForward() bool { return s.move(1) }

func (s *Store) move(delta int) bool {
	s.mu.Lock()
	if len(s.snapshots) == 0 {
		s.mu.Unlock()
		return false
	}
	next := min(max(s.cursor+delta, 0), len(s.snapshots)-1)
	if next == s.cursor {
		s.mu.Unlock()
		return false
	}
	s.cursor = next
	pos := s.positionLocked()
	s.mu.Unlock()

	s.current.Set(pos)
	return true
}

// Subscribe registers fn to run whenever the current snapshot changes,
// either by navigation or by a new snapshot at the tip.
func (s *Store) Subscribe(fn func(Position)) (unsubscribe func()) {
	return s.current.Subscribe(fn)
}

func (s *Store) positionLocked() Position {
	if len(s.snapshots) == 0 {
		return Position{}
	}
	return Position{
		Cursor:   s.cursor,
		Len:      len(s.snapshots),
		Snapshot: s.snapshots[s.cursor],
		Valid:    true,
	}
}
