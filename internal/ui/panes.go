package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pxbrowse/internal/state"
)

const (
	markSelected   = "✓"
	markUnselected = "✗"
	markActive     = "●"
)

// dimRow is one selectable category in the dimensions pane.
type dimRow struct {
	dimension string
	index     int
	label     string
	stub      bool
}

// dimensionRows flattens the active table into headings then stubs, one row
// per category.
func (m Model) dimensionRows() []dimRow {
	tbl := m.view.ActiveTable()
	if tbl == nil {
		return nil
	}
	ds := tbl.Dataset()
	var rows []dimRow
	for i, dim := range ds.Dimensions() {
		for idx, label := range ds.Levels[dim] {
			rows = append(rows, dimRow{dimension: dim, index: idx, label: label, stub: i >= len(ds.Headings)})
		}
	}
	return rows
}

// paneWidths splits the terminal between the three panes. Compact terminals
// show only the focused pane.
func (m Model) paneWidths() (sources, tables, dims int) {
	if m.width < LayoutCompactWidth {
		return m.width, m.width, m.width
	}
	sources = max(m.width/5, PaneMinWidth)
	tables = max(m.width/4, PaneMinWidth)
	dims = max(m.width-sources-tables, PaneMinWidth)
	return sources, tables, dims
}

func (m *Model) resizeViewport() {
	_, _, dims := m.paneWidths()
	m.dimViewport.Width = max(dims-2, 0)
	m.dimViewport.Height = max(m.bodyHeight()-3, 1)
}

// bodyHeight is the height left for the panes after header and command bar.
func (m Model) bodyHeight() int {
	return max(m.height-2, 3)
}

// syncDimensions rebuilds the dimensions pane and scrolls the cursor into view.
func (m *Model) syncDimensions() {
	lines, cursorLine := m.dimensionLines()
	m.dimViewport.SetContent(strings.Join(lines, "\n"))

	h := m.dimViewport.Height
	if h <= 0 {
		return
	}
	switch {
	case cursorLine < m.dimViewport.YOffset:
		m.dimViewport.SetYOffset(cursorLine)
	case cursorLine >= m.dimViewport.YOffset+h:
		m.dimViewport.SetYOffset(cursorLine - h + 1)
	}
}

func (m Model) dimensionLines() (lines []string, cursorLine int) {
	styles := m.theme.Styles()
	tbl := m.view.ActiveTable()
	if tbl == nil {
		return []string{styles.FaintText.Render("no table")}, 0
	}

	width := max(m.dimViewport.Width, 10)
	last := ""
	for i, r := range m.dimensionRows() {
		if r.dimension != last {
			if last != "" {
				lines = append(lines, "")
			}
			kind := "heading"
			if r.stub {
				kind = "stub"
			}
			title := styles.AccentText.Bold(true).Render(truncate(r.dimension, width-10))
			lines = append(lines, title+" "+styles.FaintText.Render(kind))
			last = r.dimension
		}

		mark := styles.DangerText.Render(markUnselected)
		if tbl.IsSelected(r.dimension, r.index) {
			mark = styles.SuccessText.Render(markSelected)
		}
		label := truncate(r.label, width-6)
		line := "  " + mark + " " + label
		if i == m.dimRow {
			cursorLine = len(lines)
			line = "  " + mark + " " + m.cursorStyle(PaneDimensions).Render(label)
		}
		lines = append(lines, line)
	}
	return lines, cursorLine
}

func (m Model) cursorStyle(p Pane) lipgloss.Style {
	styles := m.theme.Styles()
	if m.focus == p {
		return styles.Selected
	}
	return styles.Text.Bold(true)
}

// renderPanes lays the three panes side by side.
func (m Model) renderPanes(height int) string {
	height = max(height, 3)
	srcW, tblW, dimW := m.paneWidths()

	sources := m.renderPane(PaneSources, "Sources", m.sourceLines(), srcW, height)
	tables := m.renderPane(PaneTables, m.tablesTitle(), m.tableLines(), tblW, height)
	dims := m.renderPane(PaneDimensions, m.dimensionsTitle(), strings.Split(m.dimViewport.View(), "\n"), dimW, height)

	if m.width < LayoutCompactWidth {
		switch m.focus {
		case PaneSources:
			return sources
		case PaneTables:
			return tables
		default:
			return dims
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, sources, tables, dims)
}

func (m Model) renderPane(p Pane, title string, lines []string, width, height int) string {
	styles := m.theme.Styles()
	border := m.theme.BorderMuted
	titleStyle := styles.MutedText.Bold(true)
	if m.focus == p {
		border = m.theme.BorderFocus
		titleStyle = styles.AccentText.Bold(true)
	}

	inner := max(height-3, 0)
	if len(lines) > inner {
		lines = lines[:inner]
	}
	body := titleStyle.Render(truncate(title, max(width-4, 1))) + "\n" + strings.Join(lines, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(max(width-2, 0)).
		Height(max(height-2, 0)).
		Render(body)
}

func (m Model) sourceLines() []string {
	styles := m.theme.Styles()
	if len(m.view.Sources) == 0 {
		return []string{styles.FaintText.Render("no sources configured")}
	}
	srcW, _, _ := m.paneWidths()
	lines := make([]string, 0, len(m.view.Sources))
	for i, src := range m.view.Sources {
		mark := " "
		if i == m.view.Active {
			mark = styles.AccentText.Render(markActive)
		}
		name := truncate(src.Name, srcW-6)
		if i == m.sourceRow {
			name = m.cursorStyle(PaneSources).Render(name)
		}
		lines = append(lines, mark+" "+name)
	}
	return lines
}

func (m Model) tablesTitle() string {
	if src := m.view.ActiveSource(); src != nil {
		return "Tables · " + src.Name
	}
	return "Tables"
}

func (m Model) tableLines() []string {
	styles := m.theme.Styles()
	src := m.view.ActiveSource()
	switch {
	case src == nil:
		return []string{styles.FaintText.Render("no source")}
	case m.view.Status() == state.StatusLoading:
		return []string{m.spinner.View() + styles.WarningText.Render("..loading")}
	case m.view.Status() == state.StatusFailed:
		_, tblW, _ := m.paneWidths()
		return []string{
			styles.DangerText.Render("load failed"),
			styles.MutedText.Render(truncate(m.view.Err.Error(), tblW-4)),
			styles.FaintText.Render("press r to retry"),
		}
	case len(src.Data) == 0:
		return []string{styles.FaintText.Render("no tables")}
	}

	_, tblW, _ := m.paneWidths()
	lines := make([]string, 0, len(src.Data))
	for i, tbl := range src.Data {
		mark := " "
		if i == m.view.Table {
			mark = styles.AccentText.Render(markActive)
		}
		name := truncate(tbl.Name(), tblW-10)
		if i == m.tableRow {
			name = m.cursorStyle(PaneTables).Render(name)
		}
		line := mark + " " + name
		if n := tbl.Selection().Count(); n > 0 {
			line += " " + styles.FaintText.Render(fmt.Sprintf("(%d)", n))
		}
		lines = append(lines, line)
	}
	return lines
}

func (m Model) dimensionsTitle() string {
	if tbl := m.view.ActiveTable(); tbl != nil {
		return "Dimensions · " + tbl.Name()
	}
	return "Dimensions"
}
