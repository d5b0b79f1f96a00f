package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/pxbrowse/internal/config"
	"github.com/five82/pxbrowse/internal/dataset"
	"github.com/five82/pxbrowse/internal/persist"
	"github.com/five82/pxbrowse/internal/snapshot"
	"github.com/five82/pxbrowse/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingAdapter struct{ persist.Adapter }

func (failingAdapter) Save(context.Context, string, snapshot.Snapshot) (persist.Meta, error) {
	return persist.Meta{}, persist.ErrPersistenceFailed
}

func TestCalculateBackoff(t *testing.T) {
	base := 10 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 10 * time.Second},
		{"negative failures", -1, 10 * time.Second},
		{"one failure", 1, 20 * time.Second},
		{"two failures", 2, 40 * time.Second},
		{"four failures", 4, 160 * time.Second},
		{"five failures capped", 5, maxBackoff},
		{"many failures capped", 40, maxBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateBackoff(tt.failures, base); got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_LongIntervalUnchanged(t *testing.T) {
	if got := calculateBackoff(3, time.Hour); got != time.Hour {
		t.Fatalf("calculateBackoff(3, 1h) = %v, want 1h", got)
	}
}

func newStore() *state.Store {
	return state.New([]*dataset.DataSource{{Name: "A", URL: "http://a/"}}, state.Options{Logger: discardLogger()})
}

func TestAutosaver_SavesOnlyChanges(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	mem := persist.NewMemoryStore()
	a := newAutosaver(store, persist.NewKeeper(mem, discardLogger()), "auto", time.Second)

	if next := a.step(ctx); next != time.Second {
		t.Fatalf("next = %v, want 1s", next)
	}
	if _, _, ok, _ := mem.Load(ctx, "auto"); ok {
		t.Fatal("unchanged startup state was saved")
	}

	if _, err := store.ActivateSource("A"); err != nil {
		t.Fatalf("ActivateSource: %v", err)
	}
	a.step(ctx)
	saved, first, ok, err := mem.Load(ctx, "auto")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if !saved.Equal(store.Dehydrate()) {
		t.Fatal("saved snapshot differs from live state")
	}

	a.step(ctx)
	if _, again, _, _ := mem.Load(ctx, "auto"); again.ID != first.ID {
		t.Fatal("unchanged state was saved again")
	}
}

func TestAutosaver_BacksOffOnFailure(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	a := newAutosaver(store, persist.NewKeeper(failingAdapter{persist.NewMemoryStore()}, discardLogger()), "auto", time.Second)

	if _, err := store.ActivateSource("A"); err != nil {
		t.Fatalf("ActivateSource: %v", err)
	}
	if next := a.step(ctx); next != 2*time.Second {
		t.Fatalf("after one failure next = %v, want 2s", next)
	}
	if next := a.step(ctx); next != 4*time.Second {
		t.Fatalf("after two failures next = %v, want 4s", next)
	}
}

func TestStartAutosave_DisabledIsNoop(t *testing.T) {
	// must return without starting anything
	StartAutosave(context.Background(), newStore(), nil, "auto", 0)
}

func TestSession_RestoresSavedSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Config{
		Sources:      []config.Source{{Name: "A", URL: "http://a/"}, {Name: "B", URL: "http://b/"}},
		Backend:      persist.BackendFile,
		StorePath:    dir,
		FetchTimeout: time.Second,
	}

	saved := snapshot.Snapshot{
		Datasources:  []snapshot.Source{{Name: "A", URL: "http://a/"}, {Name: "B", URL: "http://b/"}},
		ActiveSource: &snapshot.Source{Name: "B", URL: "http://b/"},
	}
	if _, err := persist.NewFileStore(dir).Save(ctx, "state", saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s := newSession(cfg, discardLogger())
	defer s.close()
	s.restore(ctx, "state")

	if src := s.store.View().ActiveSource(); src == nil || src.Name != "B" {
		t.Fatalf("active source = %+v, want B", src)
	}
	if s.history.Len() != 1 {
		t.Fatalf("history len = %d, want the restored state recorded once", s.history.Len())
	}

	s.restore(ctx, "missing")
	if src := s.store.View().ActiveSource(); src == nil || src.Name != "B" {
		t.Fatal("restoring a missing snapshot changed the live state")
	}
}

func TestOpenAdapter_FallsBackToMemory(t *testing.T) {
	cfg := config.Config{Backend: "sqlite", StorePath: filepath.Join(t.TempDir(), "file-not-dir")}
	if err := os.WriteFile(cfg.StorePath, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg.StorePath = filepath.Join(cfg.StorePath, "state.db")

	adapter := openAdapter(cfg, discardLogger())
	defer adapter.Close()
	if _, ok := adapter.(*persist.MemoryStore); !ok {
		t.Fatalf("adapter = %T, want *persist.MemoryStore", adapter)
	}
}

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func fileBackendConfig(t *testing.T) (Options, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := writeTestConfig(t, "[persistence]\nbackend = \"file\"\npath = \""+dir+"\"\nsnapshot = \"work\"\n")
	return Options{ConfigPath: path}, dir
}

func TestSnapshotCommands(t *testing.T) {
	ctx := context.Background()
	opts, dir := fileBackendConfig(t)

	saved := snapshot.Snapshot{Datasources: []snapshot.Source{{Name: "My data", URL: "http://localhost:8000/"}}}
	if _, err := persist.NewFileStore(dir).Save(ctx, "work", saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var out bytes.Buffer
	if err := ShowSnapshot(ctx, opts, &out); err != nil {
		t.Fatalf("ShowSnapshot: %v", err)
	}
	if !strings.Contains(out.String(), "# work saved") || !strings.Contains(out.String(), `"datasources"`) {
		t.Fatalf("ShowSnapshot output = %q", out.String())
	}

	exported := filepath.Join(t.TempDir(), "out", "work.json")
	path, err := ExportSnapshot(ctx, opts, exported)
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got, err := snapshot.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Equal(saved) {
		t.Fatal("exported snapshot differs from saved one")
	}

	if err := ClearSnapshot(ctx, opts); err != nil {
		t.Fatalf("ClearSnapshot: %v", err)
	}
	if err := ShowSnapshot(ctx, opts, io.Discard); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("ShowSnapshot after clear err = %v, want ErrSnapshotNotFound", err)
	}
	if _, err := ExportSnapshot(ctx, opts, ""); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("ExportSnapshot after clear err = %v, want ErrSnapshotNotFound", err)
	}
	if err := ClearSnapshot(ctx, opts); err != nil {
		t.Fatalf("second ClearSnapshot: %v", err)
	}
}

func TestExportSnapshot_DefaultsToExportDir(t *testing.T) {
	ctx := context.Background()
	opts, dir := fileBackendConfig(t)
	opts.Snapshot = "other"

	if _, err := persist.NewFileStore(dir).Save(ctx, "other", snapshot.Snapshot{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path, err := ExportSnapshot(ctx, opts, "")
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	if filepath.Base(path) != "other.json" {
		t.Fatalf("path = %q, want other.json", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Stat: %v", err)
	}
}

func TestImportSnapshot_SavesExportedFile(t *testing.T) {
	ctx := context.Background()
	opts, dir := fileBackendConfig(t)

	src := snapshot.Source{Name: "My data", URL: "http://localhost:8000/"}
	want := snapshot.Snapshot{Datasources: []snapshot.Source{src}, ActiveSource: &src}
	in := filepath.Join(t.TempDir(), "work.json")
	file, err := os.Create(in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := snapshot.Export(file, want); err != nil {
		t.Fatalf("Export: %v", err)
	}
	_ = file.Close()

	name, err := ImportSnapshot(ctx, opts, in)
	if err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if name != "work" {
		t.Fatalf("name = %q, want work", name)
	}
	got, _, ok, err := persist.NewFileStore(dir).Load(ctx, "work")
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if !got.Equal(want) {
		t.Fatal("imported snapshot differs from the file")
	}

	store := newStore()
	store.Hydrate(got)
	if v := store.View(); v.ActiveSource() == nil || v.ActiveSource().Name != "My data" {
		t.Fatal("hydrating the imported snapshot did not restore the active source")
	}

	if _, err := ImportSnapshot(ctx, opts, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("ImportSnapshot of a missing file succeeded")
	}
}

func TestListSourcesAndTables(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"pxdocs":[{"name":"Population","headings":["Year"],"stubs":["Region"],"levels":{"Year":["2020","2021"],"Region":["North","South","East"]}}]}`)
	}))
	defer srv.Close()

	opts := Options{ConfigPath: writeTestConfig(t, "[[sources]]\nname = \"Stats\"\nurl = \""+srv.URL+"/\"\n")}

	var out bytes.Buffer
	if err := ListSources(opts, &out); err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Stats\t"+srv.URL) {
		t.Fatalf("ListSources output = %q", out.String())
	}

	out.Reset()
	if err := ListTables(context.Background(), opts, "Stats", &out); err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if got := out.String(); got != "Population\t2 dimensions\t5 categories\n" {
		t.Fatalf("ListTables output = %q", got)
	}

	if err := ListTables(context.Background(), opts, "Nope", io.Discard); err == nil {
		t.Fatal("ListTables with an unknown source succeeded")
	}
}

func TestOpenLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pxbrowse.log")
	logger, closeLog, err := openLogger(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("openLogger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("load failed", "source", "A")
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Fatal("debug record written at info level")
	}
	if !strings.Contains(string(data), "source=A") {
		t.Fatalf("log = %q, want the source attribute", data)
	}
}

func TestShowLogs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	logFile := filepath.Join(t.TempDir(), "pxbrowse.log")
	body := "time=t level=INFO msg=\"source loaded\"\ntime=t level=WARN msg=\"load failed\" source=A\n"
	if err := os.WriteFile(logFile, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	opts := Options{ConfigPath: writeTestConfig(t, "[log]\nfile = \""+logFile+"\"\n")}

	var out bytes.Buffer
	if err := ShowLogs(context.Background(), opts, 10, "warn", false, &out); err != nil {
		t.Fatalf("ShowLogs: %v", err)
	}
	if got := out.String(); got != "time=t level=WARN msg=\"load failed\" source=A\n" {
		t.Fatalf("ShowLogs output = %q", got)
	}
	if err := ShowLogs(context.Background(), opts, 10, "loud", false, io.Discard); err == nil {
		t.Fatal("ShowLogs with a bad level succeeded")
	}
}
