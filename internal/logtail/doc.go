// Package logtail reads the tail of the pxbrowse log file.
//
// The TUI owns the terminal, so load and persistence failures only show up
// in the log. Read returns the last N slog text records at or above a
// level, in file order, using a ring buffer so memory stays O(N) however
// large the file is:
//
//	lines, err := logtail.Read(cfg.LogFile, 50, slog.LevelWarn)
//
// A missing log file is not an error; Read returns no lines.
//
// Follow streams records appended after it starts, for `pxbrowse logs -f`.
// It watches the log's directory with fsnotify so it survives the file being
// created or replaced while it runs.
package logtail
