package persist

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/pxbrowse/internal/snapshot"
)

const defaultOpTimeout = 5 * time.Second

// Keeper wraps an Adapter for callers that must never fail because of
// persistence. Errors are logged and swallowed; the session carries on with
// in-memory state.
type Keeper struct {
	adapter Adapter
	logger  *slog.Logger
	timeout time.Duration
}

// NewKeeper returns a Keeper over adapter.
func NewKeeper(adapter Adapter, logger *slog.Logger) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Keeper{adapter: adapter, logger: logger, timeout: defaultOpTimeout}
}

// Save stores snap under name. It reports whether the save succeeded.
func (k *Keeper) Save(ctx context.Context, name string, snap snapshot.Snapshot) bool {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	meta, err := k.adapter.Save(ctx, name, snap)
	if err != nil {
		k.logger.Warn("snapshot save failed", "name", name, "error", err)
		return false
	}
	k.logger.Info("snapshot saved", "name", name, "id", meta.ID)
	return true
}

// Load returns the snapshot saved under name, if any.
func (k *Keeper) Load(ctx context.Context, name string) (snapshot.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	snap, meta, ok, err := k.adapter.Load(ctx, name)
	if err != nil {
		k.logger.Warn("snapshot load failed", "name", name, "error", err)
		return snapshot.Snapshot{}, false
	}
	if ok {
		k.logger.Info("snapshot loaded", "name", name, "id", meta.ID, "saved_at", meta.SavedAt)
	}
	return snap, ok
}

// Clear removes the snapshot saved under name.
func (k *Keeper) Clear(ctx context.Context, name string) bool {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	if err := k.adapter.Clear(ctx, name); err != nil {
		k.logger.Warn("snapshot clear failed", "name", name, "error", err)
		return false
	}
	return true
}

// Close closes the underlying adapter, logging any failure.
func (k *Keeper) Close() {
	if err := k.adapter.Close(); err != nil {
		k.logger.Warn("close snapshot store", "error", err)
	}
}
