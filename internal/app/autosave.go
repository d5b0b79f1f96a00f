package app

import (
	"context"
	"time"

	"github.com/five82/pxbrowse/internal/persist"
	"github.com/five82/pxbrowse/internal/snapshot"
	"github.com/five82/pxbrowse/internal/state"
)

const maxBackoff = 5 * time.Minute

// StartAutosave launches a background goroutine that saves the live state
// under name whenever it has changed since the last save. It returns
// immediately; a non-positive interval disables it.
func StartAutosave(ctx context.Context, store *state.Store, keeper *persist.Keeper, name string, interval time.Duration) {
	if interval <= 0 {
		return
	}
	a := newAutosaver(store, keeper, name, interval)
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			timer.Reset(a.step(ctx))
		}
	}()
}

type autosaver struct {
	store    *state.Store
	keeper   *persist.Keeper
	name     string
	interval time.Duration
	last     snapshot.Snapshot
	failures int
}

// newAutosaver treats the state at startup as already saved.
func newAutosaver(store *state.Store, keeper *persist.Keeper, name string, interval time.Duration) *autosaver {
	return &autosaver{
		store:    store,
		keeper:   keeper,
		name:     name,
		interval: interval,
		last:     store.Dehydrate(),
	}
}

// step saves once if needed and returns the delay before the next attempt.
func (a *autosaver) step(ctx context.Context) time.Duration {
	snap := a.store.Dehydrate()
	if snap.Equal(a.last) {
		return calculateBackoff(a.failures, a.interval)
	}
	if a.keeper.Save(ctx, a.name, snap) {
		a.last = snap
		a.failures = 0
	} else {
		a.failures++
	}
	return calculateBackoff(a.failures, a.interval)
}

// calculateBackoff doubles interval for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 || interval >= maxBackoff {
		return interval
	}
	backoff := interval
	for range failures {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
