// Package ui is the Bubble Tea front end of pxbrowse.
//
// # Layout
//
// Three panes sit between a one-line header and a command bar:
//
//   - Sources: the configured data sources; the active one is marked
//   - Tables: the tables of the active source, or a placeholder while the
//     source is loading, has failed or none is chosen
//   - Dimensions: every category of the active table grouped by dimension,
//     each with a ✓ or ✗ marker
//
// Below LayoutCompactWidth only the focused pane is drawn.
//
// # Event Flow
//
// All store mutations happen on the Bubble Tea update goroutine. Selecting a
// source calls state.Store.ActivateSource and returns a command that runs
// Fetch off the update goroutine; its result comes back as a message and is
// committed with Complete. The store discards results whose generation is
// stale, so the model never has to track in-flight requests itself.
//
// History navigation goes through timetravel.Bridge; the bridge hydrates the
// live store and the model re-reads the committed View afterwards.
//
// # Snapshots
//
// s, o and c save, open and clear the configured snapshot name through a
// persist.Keeper. x writes the current state as indented JSON to the export
// path and i hydrates the live store from that file. Persistence failures are logged and shown in the header; they never
// end the session.
package ui
