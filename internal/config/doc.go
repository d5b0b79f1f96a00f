// Package config loads the pxbrowse configuration file.
//
// # Configuration Discovery
//
// Load resolves the file in this order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/pxbrowse/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// Files ending in .yaml or .yml are decoded as YAML; anything else is TOML.
// Both formats share the same keys.
//
// # Example
//
//	[[sources]]
//	name = "My data"
//	url  = "http://localhost:8000/"
//
//	[history]
//	limit = 500
//
//	[persistence]
//	backend  = "sqlite"
//	path     = "~/.local/share/pxbrowse/state.db"
//	snapshot = "state"
//	autosave = "30s"
//	restore  = true
//
//	[log]
//	file  = "~/.local/state/pxbrowse/pxbrowse.log"
//	level = "info"
//
//	[fetch]
//	timeout = "10s"
//
//	[export]
//	dir = "~/.local/share/pxbrowse/exports"
//
// When no sources are listed the single source "My data" at
// http://localhost:8000/ is used. A history limit of 0 keeps every snapshot.
// The file backend treats persistence.path as a directory and defaults to
// ~/.local/share/pxbrowse/snapshots. autosave is off unless set; restore
// hydrates the live state from the named snapshot at startup.
//
// # Errors
//
// Load fails for unreadable files, malformed TOML/YAML, sources without a
// name or url, duplicate source names, unknown backends, negative history
// limits, unparseable log levels, bad autosave durations and non-positive
// fetch timeouts. A missing
// file is not an error.
package config
