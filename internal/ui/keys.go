package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Select key.Binding

	// History
	Back    key.Binding
	Forward key.Binding

	// Data
	Reload key.Binding

	// Snapshots
	Save   key.Binding
	Load   key.Binding
	Clear  key.Binding
	Export key.Binding
	Import key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next pane"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous pane"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "Select"),
		),

		Back: key.NewBinding(
			key.WithKeys("left", "b"),
			key.WithHelp("←/b", "Back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right", "f"),
			key.WithHelp("→/f", "Forward"),
		),

		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload source"),
		),

		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save"),
		),
		Load: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Open saved"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear saved"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Export"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Import"),
		),
	}
}

// ShortHelp returns key bindings for narrow command bars.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Back, k.Forward, k.Help, k.Quit}
}

// BarHelp returns key bindings for the full-width command bar.
func (k keyMap) BarHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Select, k.Back, k.Forward, k.Reload, k.Save, k.Load, k.Export, k.Help, k.Quit}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Up, k.Down, k.Top, k.Bottom, k.Select},
		{k.Back, k.Forward},
		{k.Reload, k.Save, k.Load, k.Clear, k.Export, k.Import},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
