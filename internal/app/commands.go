package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/five82/pxbrowse/internal/config"
	"github.com/five82/pxbrowse/internal/logtail"
	"github.com/five82/pxbrowse/internal/persist"
	"github.com/five82/pxbrowse/internal/pxweb"
	"github.com/five82/pxbrowse/internal/snapshot"
)

// ErrSnapshotNotFound reports a snapshot name with nothing saved under it.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ShowSnapshot writes the named snapshot to w as indented JSON.
func ShowSnapshot(ctx context.Context, opts Options, w io.Writer) error {
	cfg, adapter, err := openStore(opts)
	if err != nil {
		return err
	}
	defer adapter.Close()

	name := snapshotName(cfg, opts.Snapshot)
	snap, meta, ok, err := adapter.Load(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}
	fmt.Fprintf(w, "# %s saved %s (%s)\n", name, meta.SavedAt.Format("2006-01-02 15:04:05"), meta.ID)
	return snapshot.Export(w, snap)
}

// ClearSnapshot removes the named snapshot. Clearing a missing snapshot is
// not an error.
func ClearSnapshot(ctx context.Context, opts Options) error {
	cfg, adapter, err := openStore(opts)
	if err != nil {
		return err
	}
	defer adapter.Close()

	return adapter.Clear(ctx, snapshotName(cfg, opts.Snapshot))
}

// ExportSnapshot writes the named snapshot to out, or to the configured
// export directory when out is empty. It returns the written path.
func ExportSnapshot(ctx context.Context, opts Options, out string) (string, error) {
	cfg, adapter, err := openStore(opts)
	if err != nil {
		return "", err
	}
	defer adapter.Close()

	name := snapshotName(cfg, opts.Snapshot)
	snap, _, ok, err := adapter.Load(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}

	if out == "" {
		out = cfg.ExportPath(name)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	file, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	if err := snapshot.Export(file, snap); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	return out, nil
}

// ImportSnapshot reads a snapshot file written by export and saves it under
// the snapshot name. It returns that name.
func ImportSnapshot(ctx context.Context, opts Options, in string) (string, error) {
	file, err := os.Open(in)
	if err != nil {
		return "", fmt.Errorf("open import: %w", err)
	}
	defer file.Close()
	snap, err := snapshot.Import(file)
	if err != nil {
		return "", err
	}

	cfg, adapter, err := openStore(opts)
	if err != nil {
		return "", err
	}
	defer adapter.Close()

	name := snapshotName(cfg, opts.Snapshot)
	if _, err := adapter.Save(ctx, name, snap); err != nil {
		return "", err
	}
	return name, nil
}

// ListSources writes the configured sources to w, one per line.
func ListSources(opts Options, w io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, src := range cfg.Sources {
		fmt.Fprintf(w, "%s\t%s\n", src.Name, src.URL)
	}
	return nil
}

// ListTables fetches the named source and writes one line per table with
// its dimension and category counts.
func ListTables(ctx context.Context, opts Options, source string, w io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	url := ""
	for _, src := range cfg.Sources {
		if src.Name == source {
			url = src.URL
			break
		}
	}
	if url == "" {
		return fmt.Errorf("unknown data source %q", source)
	}

	docs, err := pxweb.NewClient(cfg.FetchTimeout).FetchDocuments(ctx, url)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		categories := 0
		for _, levels := range doc.Levels {
			categories += len(levels)
		}
		fmt.Fprintf(w, "%s\t%d dimensions\t%d categories\n", doc.Name, len(doc.Dimensions()), categories)
	}
	return nil
}

// ShowLogs writes the last n log records at or above level to w. With follow
// set it keeps printing new records until ctx is done.
func ShowLogs(ctx context.Context, opts Options, n int, level string, follow bool, w io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var minLevel slog.Level
	if err := minLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	lines, err := logtail.Read(cfg.LogFile, n, minLevel)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	if !follow {
		return nil
	}
	return logtail.Follow(ctx, cfg.LogFile, minLevel, func(line string) {
		fmt.Fprintln(w, line)
	})
}

func openStore(opts Options) (config.Config, persist.Adapter, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	adapter, err := persist.Open(cfg.Backend, cfg.StorePath)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, adapter, nil
}
