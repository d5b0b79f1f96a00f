// Package app is the composition root of pxbrowse.
//
// # Overview
//
// Run wires configuration, logging, the stores and the UI together and
// blocks until the user quits:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config.toml / config.yaml
//	       ├─────> openLogger()         slog text handler on the log file
//	       ├─────> state.New()          Live store over the configured sources
//	       ├─────> history.New()        Bounded snapshot history
//	       ├─────> timetravel.Attach()  Keep live and history in step
//	       ├─────> persist.Open()       Snapshot backend behind a Keeper
//	       ├─────> StartAutosave()      Optional background saves
//	       └─────> ui.Run()             Start TUI (blocks)
//
// # Error Handling
//
// Only an unreadable config, an unwritable log file and terminal failures
// are returned from Run. A snapshot backend that cannot be opened is logged
// and replaced by an in-memory store; save, load and clear failures are
// logged and the session carries on.
//
// # Autosave
//
// With persistence.autosave set, a goroutine saves the live state under the
// session's snapshot name whenever it changed since the last save.
// Consecutive failures back off exponentially up to five minutes.
//
// # Command Helpers
//
// ShowSnapshot, ClearSnapshot, ExportSnapshot, ImportSnapshot, ListSources
// and ListTables back the non-interactive subcommands. Unlike the TUI they return
// persistence errors to the caller.
package app
