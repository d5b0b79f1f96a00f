// Package timetravel keeps the live store and the history store in step.
//
// Two one-directional subscriptions make up the bridge:
//
//	live change    -> Dehydrate       -> history.AddState
//	history cursor -> current snapshot -> live.Hydrate
//
// Restoring a snapshot is itself a live change, so it flows back into
// AddState. That call is always a no-op: a restored older snapshot leaves
// the cursor behind the tip, and a restored tip snapshot equals the tip.
package timetravel

import (
	"log/slog"
	"sync"

	"github.com/five82/pxbrowse/internal/history"
	"github.com/five82/pxbrowse/internal/state"
)

// Bridge owns the two subscriptions between a live store and a history.
type Bridge struct {
	live    *state.Store
	history *history.Store
	logger  *slog.Logger

	once   sync.Once
	unsubs []func()
}

// Attach wires live and hist together. History is not seeded: the first
// snapshot is recorded on the first live change.
func Attach(live *state.Store, hist *history.Store, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{live: live, history: hist, logger: logger}
	b.unsubs = []func(){
		live.Subscribe(b.record),
		hist.Subscribe(b.restore),
	}
	return b
}

// Detach removes both subscriptions.
func (b *Bridge) Detach() {
	b.once.Do(func() {
		for _, unsubscribe := range b.unsubs {
			unsubscribe()
		}
	})
}

// Back moves the history cursor back; the live store follows.
func (b *Bridge) Back() bool { return b.history.GoBack() }

// Forward moves the history cursor forward; the live store follows.
func (b *Bridge) Forward() bool { return b.history.GoForward() }

func (b *Bridge) record(v state.View) {
	if b.history.AddState(v.Dehydrate()) {
		b.logger.Debug("history recorded", "len", b.history.Len())
	}
}

func (b *Bridge) restore(p history.Position) {
	if !p.Valid {
		return
	}
	if b.live.Hydrate(p.Snapshot) {
		b.logger.Debug("live store restored", "cursor", p.Cursor, "len", p.Len)
	}
}
