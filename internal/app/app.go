package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/five82/pxbrowse/internal/config"
	"github.com/five82/pxbrowse/internal/dataset"
	"github.com/five82/pxbrowse/internal/history"
	"github.com/five82/pxbrowse/internal/persist"
	"github.com/five82/pxbrowse/internal/prefs"
	"github.com/five82/pxbrowse/internal/pxweb"
	"github.com/five82/pxbrowse/internal/state"
	"github.com/five82/pxbrowse/internal/timetravel"
	"github.com/five82/pxbrowse/internal/ui"
)

// Options configure the pxbrowse application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/pxbrowse/prefs.toml
	Snapshot   string // empty uses the configured snapshot name
}

// Run boots the pxbrowse TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	userPrefs := prefs.Load(opts.PrefsPath)
	name := snapshotName(cfg, opts.Snapshot)

	session := newSession(cfg, logger)
	defer session.close()

	if cfg.Restore {
		session.restore(ctx, name)
	}
	StartAutosave(ctx, session.store, session.keeper, name, cfg.Autosave)

	logger.Info("pxbrowse starting", "sources", len(cfg.Sources), "backend", cfg.Backend, "snapshot", name)

	return ui.Run(ui.Options{
		Context:      ctx,
		Store:        session.store,
		History:      session.history,
		Bridge:       session.bridge,
		Keeper:       session.keeper,
		Logger:       logger,
		SnapshotName: name,
		ExportPath:   cfg.ExportPath(name),
		Prefs:        userPrefs,
		PrefsPath:    opts.PrefsPath,
	})
}

// session holds the wired stores for one run.
type session struct {
	store   *state.Store
	history *history.Store
	bridge  *timetravel.Bridge
	keeper  *persist.Keeper
	logger  *slog.Logger
}

func newSession(cfg config.Config, logger *slog.Logger) *session {
	store := state.New(dataSources(cfg.Sources), state.Options{
		Fetcher: pxweb.NewClient(cfg.FetchTimeout),
		Logger:  logger,
	})
	hist := history.New(cfg.HistoryLimit)
	return &session{
		store:   store,
		history: hist,
		bridge:  timetravel.Attach(store, hist, logger),
		keeper:  persist.NewKeeper(openAdapter(cfg, logger), logger),
		logger:  logger,
	}
}

// restore hydrates the live store from the named snapshot when one exists.
func (s *session) restore(ctx context.Context, name string) {
	snap, ok := s.keeper.Load(ctx, name)
	if !ok {
		return
	}
	if s.store.Hydrate(snap) {
		s.logger.Info("session restored", "snapshot", name)
	}
}

func (s *session) close() {
	s.bridge.Detach()
	s.keeper.Close()
}

// openAdapter opens the configured backend. A backend that cannot be opened
// is logged and replaced by an in-memory store so the session still starts.
func openAdapter(cfg config.Config, logger *slog.Logger) persist.Adapter {
	adapter, err := persist.Open(cfg.Backend, cfg.StorePath)
	if err != nil {
		logger.Warn("snapshot store unavailable, using memory", "backend", cfg.Backend, "path", cfg.StorePath, "error", err)
		return persist.NewMemoryStore()
	}
	return adapter
}

func dataSources(sources []config.Source) []*dataset.DataSource {
	out := make([]*dataset.DataSource, len(sources))
	for i, src := range sources {
		out[i] = &dataset.DataSource{Name: src.Name, URL: src.URL}
	}
	return out
}

func snapshotName(cfg config.Config, override string) string {
	if override != "" {
		return override
	}
	return cfg.SnapshotName
}
