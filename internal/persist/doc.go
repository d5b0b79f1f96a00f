// Package persist saves named snapshots to a key-value backend.
//
// Three Adapter implementations are provided: MemoryStore for tests and
// throwaway sessions, FileStore (one JSON file per name) and SQLiteStore
// (a single snapshots table, via modernc.org/sqlite). Every backend error
// wraps ErrPersistenceFailed.
//
// Keeper is what the application uses. It bounds each call with a timeout,
// logs failures and never returns an error, so a full disk or a locked
// database cannot break the live session.
package persist
