package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pxbrowse/internal/dataset"
	"github.com/five82/pxbrowse/internal/history"
	"github.com/five82/pxbrowse/internal/persist"
	"github.com/five82/pxbrowse/internal/prefs"
	"github.com/five82/pxbrowse/internal/snapshot"
	"github.com/five82/pxbrowse/internal/state"
	"github.com/five82/pxbrowse/internal/timetravel"
)

type mapFetcher map[string][]dataset.Dataset

func (f mapFetcher) FetchDocuments(_ context.Context, url string) ([]dataset.Dataset, error) {
	docs, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("source %s returned status 500", url)
	}
	return docs, nil
}

func population() dataset.Dataset {
	return dataset.Dataset{
		Name:     "Population",
		Headings: []string{"Year"},
		Stubs:    []string{"Region"},
		Levels: map[string][]string{
			"Year":   {"2020", "2021"},
			"Region": {"North", "South", "East"},
		},
	}
}

type harness struct {
	model   Model
	store   *state.Store
	history *history.Store
}

func newHarness(t *testing.T, fetcher mapFetcher, mutate func(*Options)) *harness {
	t.Helper()
	store := state.New([]*dataset.DataSource{
		{Name: "A", URL: "http://a/"},
		{Name: "B", URL: "http://b/"},
	}, state.Options{Fetcher: fetcher})
	hist := history.New(0)
	bridge := timetravel.Attach(store, hist, nil)
	t.Cleanup(bridge.Detach)

	opts := Options{
		Store:     store,
		History:   hist,
		Bridge:    bridge,
		Keeper:    persist.NewKeeper(persist.NewMemoryStore(), nil),
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	if mutate != nil {
		mutate(&opts)
	}
	h := &harness{model: New(opts), store: store, history: hist}
	h.send(t, tea.WindowSizeMsg{Width: 140, Height: 40})
	return h
}

func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	h.model = m
	return cmd
}

func (h *harness) press(t *testing.T, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = h.send(t, keyMsg(k))
	}
	return cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// loadMsg runs cmd and returns the load result it carries.
func loadMsg(t *testing.T, cmd tea.Cmd) loadedMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	if lm, ok := msg.(loadedMsg); ok {
		return lm
	}
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		t.Fatalf("command returned %T, want load or batch", msg)
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if lm, ok := c().(loadedMsg); ok {
			return lm
		}
	}
	t.Fatal("batch carried no load")
	return loadedMsg{}
}

func TestModel_SelectSourceLoadsTables(t *testing.T) {
	h := newHarness(t, mapFetcher{"http://a/": {population()}}, nil)

	cmd := h.press(t, "enter")
	if got := h.store.View().Status(); got != state.StatusLoading {
		t.Fatalf("status = %v, want loading", got)
	}
	if h.model.focus != PaneTables {
		t.Fatalf("focus = %v, want tables", h.model.focus)
	}
	if !strings.Contains(h.model.View(), "..loading") {
		t.Fatal("view does not show the loading placeholder")
	}

	h.send(t, loadMsg(t, cmd))

	v := h.store.View()
	if v.Status() != state.StatusIdle {
		t.Fatalf("status = %v, want idle", v.Status())
	}
	if src := v.ActiveSource(); src == nil || len(src.Data) != 1 {
		t.Fatalf("active source = %+v, want one table", src)
	}
	if !strings.Contains(h.model.View(), "Population") {
		t.Fatal("view does not list the loaded table")
	}
	if h.history.Len() != 2 {
		t.Fatalf("history len = %d, want 2", h.history.Len())
	}
}

func TestModel_ToggleAndNavigateHistory(t *testing.T) {
	h := newHarness(t, mapFetcher{"http://a/": {population()}}, nil)

	h.send(t, loadMsg(t, h.press(t, "enter")))
	h.press(t, "enter") // activate Population
	if h.model.focus != PaneDimensions {
		t.Fatalf("focus = %v, want dimensions", h.model.focus)
	}

	h.press(t, "enter") // Year/2020
	if !h.store.IsSelected("Year", 0) {
		t.Fatal("Year/0 not selected after toggle")
	}
	if !strings.Contains(h.model.View(), markSelected) {
		t.Fatal("view shows no selected marker")
	}
	tip := h.history.Len()

	h.press(t, "left")
	if h.store.IsSelected("Year", 0) {
		t.Fatal("Year/0 still selected after going back")
	}
	if h.history.Len() != tip {
		t.Fatalf("history grew to %d on navigation, want %d", h.history.Len(), tip)
	}

	h.press(t, "right")
	if !h.store.IsSelected("Year", 0) {
		t.Fatal("Year/0 not restored after going forward")
	}

	h.press(t, "right")
	if !strings.Contains(h.model.flash, "newest") {
		t.Fatalf("flash = %q, want a clamp notice", h.model.flash)
	}
}

func TestModel_CursorMovesWithinPane(t *testing.T) {
	h := newHarness(t, mapFetcher{"http://a/": {population()}}, nil)

	h.send(t, loadMsg(t, h.press(t, "enter")))
	h.press(t, "enter")
	h.press(t, "j", "j", "j", "enter") // Region/North

	if !h.store.IsSelected("Region", 0) {
		t.Fatal("Region/0 not selected")
	}
	h.press(t, "G", "enter")
	if !h.store.IsSelected("Region", 2) {
		t.Fatal("Region/2 not selected after jumping to the bottom")
	}
	h.press(t, "g", "k")
	if h.model.dimRow != 0 {
		t.Fatalf("dimRow = %d, want 0", h.model.dimRow)
	}
}

func TestModel_StaleLoadIsIgnored(t *testing.T) {
	h := newHarness(t, mapFetcher{
		"http://a/": {population()},
		"http://b/": {population(), {Name: "Prices", Levels: map[string][]string{}}},
	}, nil)

	first := h.press(t, "enter")
	h.press(t, "shift+tab", "j")
	second := h.press(t, "enter")

	h.send(t, loadMsg(t, first))
	v := h.store.View()
	if v.ActiveSource().Name != "B" || v.Status() != state.StatusLoading {
		t.Fatalf("stale load changed state: source=%s status=%v", v.ActiveSource().Name, v.Status())
	}

	h.send(t, loadMsg(t, second))
	if got := len(h.store.View().ActiveSource().Data); got != 2 {
		t.Fatalf("B tables = %d, want 2", got)
	}
}

func TestModel_FailedLoadShowsError(t *testing.T) {
	h := newHarness(t, mapFetcher{}, nil)

	h.send(t, loadMsg(t, h.press(t, "enter")))

	if got := h.store.View().Status(); got != state.StatusFailed {
		t.Fatalf("status = %v, want failed", got)
	}
	if !h.model.flashError {
		t.Fatal("flash is not marked as an error")
	}
	if !strings.Contains(h.model.View(), "load failed") {
		t.Fatal("view does not show the failure")
	}

	// retry with r issues a fresh load
	if cmd := h.press(t, "r"); cmd == nil {
		t.Fatal("reload returned no command")
	}
	if got := h.store.View().Status(); got != state.StatusLoading {
		t.Fatalf("status after reload = %v, want loading", got)
	}
}

func TestModel_ReloadWithoutSource(t *testing.T) {
	h := newHarness(t, mapFetcher{}, nil)
	if cmd := h.press(t, "r"); cmd != nil {
		t.Fatal("reload without a source returned a command")
	}
	if h.model.flash == "" {
		t.Fatal("expected a notice")
	}
}

func TestModel_SaveAndLoadSnapshot(t *testing.T) {
	h := newHarness(t, mapFetcher{"http://a/": {population()}}, nil)

	h.send(t, loadMsg(t, h.press(t, "enter")))
	h.press(t, "enter", "enter") // table, Year/2020
	h.press(t, "s")
	saved := h.store.Dehydrate()

	h.press(t, "j", "enter") // Year/2021
	if saved.Equal(h.store.Dehydrate()) {
		t.Fatal("state did not change after second toggle")
	}

	h.press(t, "o")
	if !saved.Equal(h.store.Dehydrate()) {
		t.Fatal("loading the snapshot did not restore the saved state")
	}
	if !strings.Contains(h.model.flash, "loaded") {
		t.Fatalf("flash = %q", h.model.flash)
	}

	h.press(t, "c", "o")
	if !strings.Contains(h.model.flash, "no snapshot") {
		t.Fatalf("flash after clear = %q, want missing notice", h.model.flash)
	}

	p := prefs.Load(h.model.prefsPath)
	if p.LastSnapshot != "state" {
		t.Fatalf("LastSnapshot = %q, want state", p.LastSnapshot)
	}
}

func TestModel_ExportWritesSnapshot(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exports", "state.json")
	h := newHarness(t, mapFetcher{"http://a/": {population()}}, func(o *Options) {
		o.ExportPath = out
	})

	h.send(t, loadMsg(t, h.press(t, "enter")))
	h.press(t, "x")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got, err := snapshot.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Equal(h.store.Dehydrate()) {
		t.Fatal("exported snapshot differs from live state")
	}
}

func TestModel_ImportRestoresExportedState(t *testing.T) {
	out := filepath.Join(t.TempDir(), "state.json")
	h := newHarness(t, mapFetcher{"http://a/": {population()}}, func(o *Options) {
		o.ExportPath = out
	})

	h.press(t, "i")
	if !h.model.flashError || !strings.Contains(h.model.flash, "import failed") {
		t.Fatalf("flash without export file = %q", h.model.flash)
	}

	h.send(t, loadMsg(t, h.press(t, "enter")))
	h.press(t, "enter", "enter")
	exported := h.store.Dehydrate()
	h.press(t, "x")

	h.press(t, "enter")
	if h.store.Dehydrate().Equal(exported) {
		t.Fatal("state did not change after the export")
	}

	h.press(t, "i")
	if h.model.flashError {
		t.Fatalf("import flash = %q", h.model.flash)
	}
	if !h.store.Dehydrate().Equal(exported) {
		t.Fatal("imported state differs from the exported one")
	}
	if tbl := h.store.View().ActiveTable(); tbl == nil || tbl.Selection().Count() != 1 {
		t.Fatal("import lost the active table selection")
	}
}

func TestModel_CycleThemeSavesPrefs(t *testing.T) {
	h := newHarness(t, mapFetcher{}, nil)

	h.press(t, "T")
	if h.model.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", h.model.theme.Name)
	}
	if p := prefs.Load(h.model.prefsPath); p.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", p.Theme)
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	h := newHarness(t, mapFetcher{}, nil)

	h.press(t, "?")
	if !strings.Contains(h.model.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
	if cmd := h.press(t, "q"); cmd != nil {
		t.Fatal("key closing help should not quit")
	}
	if h.model.showHelp {
		t.Fatal("help still shown")
	}
}

func TestModel_QuitAndPlaceholders(t *testing.T) {
	h := newHarness(t, mapFetcher{}, nil)

	view := h.model.View()
	for _, want := range []string{"no source", "no table", "history -"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}

	cmd := h.press(t, "q")
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}

func TestModel_CompactLayoutShowsFocusedPane(t *testing.T) {
	h := newHarness(t, mapFetcher{}, nil)
	h.send(t, tea.WindowSizeMsg{Width: 60, Height: 20})

	view := h.model.View()
	if !strings.Contains(view, "Sources") || strings.Contains(view, "Dimensions") {
		t.Fatal("compact layout should show only the sources pane")
	}
	h.press(t, "tab", "tab")
	if !strings.Contains(h.model.View(), "Dimensions") {
		t.Fatal("compact layout did not follow focus")
	}
}

func TestModel_NotReady(t *testing.T) {
	m := New(Options{})
	if m.View() != "Loading..." {
		t.Fatalf("View = %q before the first resize", m.View())
	}
}
