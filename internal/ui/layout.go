package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which only the focused pane
	// is shown.
	LayoutCompactWidth = 80

	// LayoutWideWidth is the minimum width for the full command bar.
	LayoutWideWidth = 120

	// PaneMinWidth is the narrowest a side-by-side pane gets.
	PaneMinWidth = 20
)
