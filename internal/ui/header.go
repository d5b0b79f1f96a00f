package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// renderHeader renders the status bar: active source, load status, history
// position and the last action message.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	source := "no source"
	if src := m.view.ActiveSource(); src != nil {
		source = src.Name
	}
	status := m.view.Status()

	parts := []string{
		bg.Render("pxbrowse", styles.Logo),
		bg.Render(source, styles.Text),
		styles.StatusStyle(status).Render(strings.ToUpper(status.String())),
		bg.Render(m.historyLabel(), styles.MutedText),
	}
	if m.flash != "" {
		style := styles.InfoText
		if m.flashError {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(m.flash, style))
	}

	return styles.Header.
		Width(m.width).
		MaxHeight(1).
		Render(bg.Join(parts, "  "))
}

func (m Model) historyLabel() string {
	if m.history == nil || m.history.Len() == 0 {
		return "history -"
	}
	return fmt.Sprintf("history %d/%d", m.history.Cursor()+1, m.history.Len())
}

// renderCommandBar renders the key hints below the panes.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	bindings := m.keys.ShortHelp()
	if m.width >= LayoutWideWidth {
		bindings = m.keys.BarHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, m.hint(b, styles, bg))
	}

	return styles.Footer.
		Width(m.width).
		MaxHeight(1).
		Render(bg.Join(parts, "  "))
}

func (m Model) hint(b key.Binding, styles Styles, bg BgStyle) string {
	h := b.Help()
	return bg.Render(h.Key, styles.WarningText) + bg.Space() + bg.Render(h.Desc, styles.MutedText)
}
