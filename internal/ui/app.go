package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pxbrowse/internal/history"
	"github.com/five82/pxbrowse/internal/persist"
	"github.com/five82/pxbrowse/internal/prefs"
	"github.com/five82/pxbrowse/internal/snapshot"
	"github.com/five82/pxbrowse/internal/state"
	"github.com/five82/pxbrowse/internal/timetravel"
)

// Pane identifies the focused column.
type Pane int

const (
	PaneSources Pane = iota
	PaneTables
	PaneDimensions
)

const paneCount = 3

// Options configures the UI.
type Options struct {
	Context      context.Context
	Store        *state.Store
	History      *history.Store
	Bridge       *timetravel.Bridge
	Keeper       *persist.Keeper
	Logger       *slog.Logger
	SnapshotName string
	ExportPath   string
	Prefs        prefs.Prefs
	PrefsPath    string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx          context.Context
	store        *state.Store
	history      *history.Store
	bridge       *timetravel.Bridge
	keeper       *persist.Keeper
	logger       *slog.Logger
	snapshotName string
	exportPath   string
	prefs        prefs.Prefs
	prefsPath    string

	// UI state
	theme    Theme
	keys     keyMap
	width    int
	height   int
	ready    bool
	focus    Pane
	showHelp bool
	spinner  spinner.Model

	// Data state
	view state.View

	// Cursors per pane
	sourceRow int
	tableRow  int
	dimRow    int

	dimViewport viewport.Model

	// Transient status line
	flash      string
	flashError bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	snapshotName := opts.SnapshotName
	if strings.TrimSpace(snapshotName) == "" {
		snapshotName = "state"
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:          ctx,
		store:        opts.Store,
		history:      opts.History,
		bridge:       opts.Bridge,
		keeper:       opts.Keeper,
		logger:       logger,
		snapshotName: snapshotName,
		exportPath:   opts.ExportPath,
		prefs:        opts.Prefs,
		prefsPath:    prefsPath,
		theme:        GetTheme(opts.Prefs.Theme),
		keys:         DefaultKeyMap(),
		spinner:      sp,
		dimViewport:  viewport.New(0, 0),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.syncDimensions()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeViewport()
		return m, nil

	case loadedMsg:
		if m.store != nil && m.store.Complete(state.Result(msg)) && msg.Err != nil {
			m.setFlash("load failed, see log", true)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.focus = (m.focus + 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.focus = (m.focus + paneCount - 1) % paneCount
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.bridge == nil || !m.bridge.Back() {
			m.setFlash("already at the oldest state", false)
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Forward):
		if m.bridge == nil || !m.bridge.Forward() {
			m.setFlash("already at the newest state", false)
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		return m.reload()

	case key.Matches(msg, m.keys.Save):
		m.saveSnapshot()
		return m, nil

	case key.Matches(msg, m.keys.Load):
		m.loadSnapshot()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.clearSnapshot()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		m.exportSnapshot()
		return m, nil

	case key.Matches(msg, m.keys.Import):
		m.importSnapshot()
		return m, nil
	}

	return m.handlePaneKey(msg)
}

// handlePaneKey moves the cursor of the focused pane or acts on its row.
func (m Model) handlePaneKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	row, count := m.cursor()
	switch {
	case key.Matches(msg, m.keys.Up):
		if row > 0 {
			row--
		}
	case key.Matches(msg, m.keys.Down):
		if row < count-1 {
			row++
		}
	case key.Matches(msg, m.keys.Top):
		row = 0
	case key.Matches(msg, m.keys.Bottom):
		row = max(count-1, 0)
	case key.Matches(msg, m.keys.Select):
		return m.activate()
	default:
		return m, nil
	}
	m.setCursor(row)
	return m, nil
}

// activate acts on the row under the cursor of the focused pane.
func (m Model) activate() (Model, tea.Cmd) {
	if m.store == nil {
		return m, nil
	}
	switch m.focus {
	case PaneSources:
		if m.sourceRow >= len(m.view.Sources) {
			return m, nil
		}
		ticket, err := m.store.ActivateSource(m.view.Sources[m.sourceRow].Name)
		if err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		m.clearFlash()
		m.refresh()
		m.tableRow = 0
		m.focus = PaneTables
		return m, tea.Batch(loadCmd(m.ctx, m.store, ticket), m.spinner.Tick)

	case PaneTables:
		src := m.view.ActiveSource()
		if src == nil || m.tableRow >= len(src.Data) {
			return m, nil
		}
		if err := m.store.ActivateTable(m.tableRow); err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		m.clearFlash()
		m.refresh()
		m.dimRow = 0
		m.focus = PaneDimensions

	case PaneDimensions:
		rows := m.dimensionRows()
		if m.dimRow >= len(rows) {
			return m, nil
		}
		r := rows[m.dimRow]
		if err := m.store.Toggle(r.dimension, r.index); err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		m.refresh()
	}
	return m, nil
}

func (m Model) reload() (Model, tea.Cmd) {
	if m.store == nil {
		return m, nil
	}
	ticket, err := m.store.Reload()
	if err != nil {
		m.setFlash("select a source first", false)
		return m, nil
	}
	m.clearFlash()
	m.refresh()
	return m, tea.Batch(loadCmd(m.ctx, m.store, ticket), m.spinner.Tick)
}

func (m *Model) saveSnapshot() {
	if m.keeper == nil || m.store == nil {
		m.setFlash("no snapshot store", true)
		return
	}
	if !m.keeper.Save(m.ctx, m.snapshotName, m.store.Dehydrate()) {
		m.setFlash("save failed, see log", true)
		return
	}
	m.prefs.LastSnapshot = m.snapshotName
	m.savePrefs()
	m.setFlash(fmt.Sprintf("saved %q", m.snapshotName), false)
}

func (m *Model) loadSnapshot() {
	if m.keeper == nil || m.store == nil {
		m.setFlash("no snapshot store", true)
		return
	}
	snap, ok := m.keeper.Load(m.ctx, m.snapshotName)
	if !ok {
		m.setFlash(fmt.Sprintf("no snapshot %q", m.snapshotName), false)
		return
	}
	m.store.Hydrate(snap)
	m.refresh()
	m.setFlash(fmt.Sprintf("loaded %q", m.snapshotName), false)
}

func (m *Model) clearSnapshot() {
	if m.keeper == nil {
		m.setFlash("no snapshot store", true)
		return
	}
	if !m.keeper.Clear(m.ctx, m.snapshotName) {
		m.setFlash("clear failed, see log", true)
		return
	}
	m.setFlash(fmt.Sprintf("cleared %q", m.snapshotName), false)
}

func (m *Model) exportSnapshot() {
	if m.store == nil || m.exportPath == "" {
		m.setFlash("no export path configured", true)
		return
	}
	if err := writeExport(m.exportPath, m.store.Dehydrate()); err != nil {
		m.logger.Warn("export failed", "path", m.exportPath, "error", err)
		m.setFlash("export failed, see log", true)
		return
	}
	m.logger.Info("state exported", "path", m.exportPath)
	m.setFlash("exported to "+m.exportPath, false)
}

// importSnapshot hydrates the live store from the export file.
func (m *Model) importSnapshot() {
	if m.store == nil || m.exportPath == "" {
		m.setFlash("no export path configured", true)
		return
	}
	snap, err := readImport(m.exportPath)
	if err != nil {
		m.logger.Warn("import failed", "path", m.exportPath, "error", err)
		m.setFlash("import failed, see log", true)
		return
	}
	m.store.Hydrate(snap)
	m.refresh()
	m.logger.Info("state imported", "path", m.exportPath)
	m.setFlash("imported from "+m.exportPath, false)
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs", "path", m.prefsPath, "error", err)
	}
}

func writeExport(path string, snap snapshot.Snapshot) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	return snapshot.Export(file, snap)
}

// refresh re-reads the committed store state and clamps every cursor.
func (m *Model) refresh() {
	if m.store == nil {
		return
	}
	m.view = m.store.View()
	if m.view.Active >= 0 {
		m.sourceRow = m.view.Active
	}
	if m.view.Table >= 0 {
		m.tableRow = m.view.Table
	}
	m.sourceRow = clamp(m.sourceRow, len(m.view.Sources))
	if src := m.view.ActiveSource(); src != nil {
		m.tableRow = clamp(m.tableRow, len(src.Data))
	} else {
		m.tableRow = 0
	}
	m.dimRow = clamp(m.dimRow, len(m.dimensionRows()))
}

func (m Model) cursor() (row, count int) {
	switch m.focus {
	case PaneSources:
		return m.sourceRow, len(m.view.Sources)
	case PaneTables:
		if src := m.view.ActiveSource(); src != nil {
			return m.tableRow, len(src.Data)
		}
		return 0, 0
	default:
		return m.dimRow, len(m.dimensionRows())
	}
}

func (m *Model) setCursor(row int) {
	switch m.focus {
	case PaneSources:
		m.sourceRow = row
	case PaneTables:
		m.tableRow = row
	default:
		m.dimRow = row
	}
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashError = isErr
}

func (m *Model) clearFlash() {
	m.flash = ""
	m.flashError = false
}

func clamp(row, count int) int {
	if count <= 0 || row < 0 {
		return 0
	}
	return min(row, count-1)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	header := m.renderHeader()
	footer := m.renderCommandBar()
	body := m.renderPanes(m.height - lipgloss.Height(header) - lipgloss.Height(footer))
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// Messages

type loadedMsg state.Result

// Commands

// loadCmd fetches off the update goroutine; the result is committed in Update.
func loadCmd(ctx context.Context, store *state.Store, ticket state.Ticket) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg(store.Fetch(ctx, ticket))
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

func readImport(path string) (snapshot.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("open import: %w", err)
	}
	defer file.Close()
	return snapshot.Import(file)
}
