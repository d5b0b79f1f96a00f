package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Source is one configured data source.
type Source struct {
	Name string
	URL  string
}

// Config captures everything pxbrowse reads at startup.
type Config struct {
	Sources      []Source
	HistoryLimit int // zero keeps every snapshot
	Backend      string
	StorePath    string
	SnapshotName string
	Autosave     time.Duration // zero disables
	Restore      bool
	LogFile      string
	LogLevel     slog.Level
	FetchTimeout time.Duration
	ExportDir    string
}

const (
	defaultConfigPath   = "~/.config/pxbrowse/config.toml"
	defaultStorePath    = "~/.local/share/pxbrowse/state.db"
	defaultSnapshotDir  = "~/.local/share/pxbrowse/snapshots"
	defaultLogFile      = "~/.local/state/pxbrowse/pxbrowse.log"
	defaultExportDir    = "~/.local/share/pxbrowse/exports"
	defaultBackend      = "sqlite"
	defaultSnapshotName = "state"
	defaultHistoryLimit = 500
	defaultFetchTimeout = 10 * time.Second
)

// DefaultSources is used when the config lists no sources.
func DefaultSources() []Source {
	return []Source{{Name: "My data", URL: "http://localhost:8000/"}}
}

type rawConfig struct {
	Sources []struct {
		Name string `toml:"name" yaml:"name"`
		URL  string `toml:"url" yaml:"url"`
	} `toml:"sources" yaml:"sources"`
	History struct {
		Limit *int `toml:"limit" yaml:"limit"`
	} `toml:"history" yaml:"history"`
	Persistence struct {
		Backend  string `toml:"backend" yaml:"backend"`
		Path     string `toml:"path" yaml:"path"`
		Snapshot string `toml:"snapshot" yaml:"snapshot"`
		Autosave string `toml:"autosave" yaml:"autosave"`
		Restore  bool   `toml:"restore" yaml:"restore"`
	} `toml:"persistence" yaml:"persistence"`
	Log struct {
		File  string `toml:"file" yaml:"file"`
		Level string `toml:"level" yaml:"level"`
	} `toml:"log" yaml:"log"`
	Fetch struct {
		Timeout string `toml:"timeout" yaml:"timeout"`
	} `toml:"fetch" yaml:"fetch"`
	Export struct {
		Dir string `toml:"dir" yaml:"dir"`
	} `toml:"export" yaml:"export"`
}

// Load locates and parses the config, falling back to defaults when missing.
// Paths ending in .yaml or .yml are parsed as YAML, everything else as TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fromRaw(rawConfig{})
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw rawConfig) (Config, error) {
	cfg := Config{
		HistoryLimit: defaultHistoryLimit,
		Backend:      defaultBackend,
		SnapshotName: defaultSnapshotName,
		LogLevel:     slog.LevelInfo,
		FetchTimeout: defaultFetchTimeout,
	}

	seen := make(map[string]bool, len(raw.Sources))
	for i, src := range raw.Sources {
		name := strings.TrimSpace(src.Name)
		url := strings.TrimSpace(src.URL)
		if name == "" || url == "" {
			return Config{}, fmt.Errorf("parse config: sources[%d] needs a name and url", i)
		}
		if seen[name] {
			return Config{}, fmt.Errorf("parse config: duplicate source %q", name)
		}
		seen[name] = true
		cfg.Sources = append(cfg.Sources, Source{Name: name, URL: url})
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}

	if raw.History.Limit != nil {
		if *raw.History.Limit < 0 {
			return Config{}, fmt.Errorf("parse config: history.limit must not be negative")
		}
		cfg.HistoryLimit = *raw.History.Limit
	}

	if backend := strings.ToLower(strings.TrimSpace(raw.Persistence.Backend)); backend != "" {
		switch backend {
		case "sqlite", "file", "memory":
			cfg.Backend = backend
		default:
			return Config{}, fmt.Errorf("parse config: unknown persistence.backend %q", backend)
		}
	}
	cfg.StorePath = strings.TrimSpace(raw.Persistence.Path)
	if cfg.StorePath == "" {
		cfg.StorePath = defaultStorePath
		if cfg.Backend == "file" {
			cfg.StorePath = defaultSnapshotDir
		}
	}
	cfg.StorePath = mustExpand(cfg.StorePath)
	if name := strings.TrimSpace(raw.Persistence.Snapshot); name != "" {
		cfg.SnapshotName = name
	}
	if autosave := strings.TrimSpace(raw.Persistence.Autosave); autosave != "" {
		d, err := time.ParseDuration(autosave)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("parse config: persistence.autosave %q is not a valid duration", autosave)
		}
		cfg.Autosave = d
	}
	cfg.Restore = raw.Persistence.Restore

	cfg.LogFile = strings.TrimSpace(raw.Log.File)
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(cfg.LogFile)
	if level := strings.TrimSpace(raw.Log.Level); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return Config{}, fmt.Errorf("parse config: log.level: %w", err)
		}
	}

	if timeout := strings.TrimSpace(raw.Fetch.Timeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("parse config: fetch.timeout %q is not a positive duration", timeout)
		}
		cfg.FetchTimeout = d
	}

	cfg.ExportDir = strings.TrimSpace(raw.Export.Dir)
	if cfg.ExportDir == "" {
		cfg.ExportDir = defaultExportDir
	}
	cfg.ExportDir = mustExpand(cfg.ExportDir)

	return cfg, nil
}

// ExportPath returns the file an export of the named snapshot is written to.
func (c Config) ExportPath(name string) string {
	dir := c.ExportDir
	if strings.TrimSpace(dir) == "" {
		dir = mustExpand(defaultExportDir)
	}
	return filepath.Join(dir, name+".json")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
