// Package state provides the live application state for pxbrowse.
//
// # Overview
//
// The Store holds the configured data sources, the active source, the
// active table, a loading flag and an error marker. It is the single place
// where those fields change, and every change is published to subscribers
// as one immutable View.
//
// # Core Types
//
// Store:
//   - Owns the current View inside an observable.Value
//   - Mutations are copy-on-write: a published View is never modified
//   - Subscribers run on the mutating goroutine, after the commit, with no
//     lock held
//
// View:
//   - Sources, Active and Table indices, Loading, Err, Generation
//   - Dehydrate produces the snapshot.Snapshot used by history and
//     persistence
//
// Ticket / Result:
//   - A Ticket is issued by ActivateSource and carries the generation that
//     was current at dispatch time
//   - A Result is what Fetch returns for a ticket
//
// # Load Coordination
//
// Loading a source is split so the network call never runs under a lock and
// never mutates the store directly:
//
//	ticket, _ := store.ActivateSource("My data")   // active, loading, gen++
//	result := store.Fetch(ctx, ticket)             // network only
//	store.Complete(result)                         // one atomic commit
//
// Load combines Fetch and Complete on the calling goroutine. The Bubble Tea
// UI runs Fetch inside a tea.Cmd and calls Complete from its update loop, so
// all mutations stay on one goroutine.
//
// Complete discards a result when its generation no longer matches or its
// source is no longer active. A discarded result changes nothing.
//
// # Error Handling
//
// Synchronous errors are returned to the caller:
//
//   - ErrUnknownSource: ActivateSource with a name that is not configured
//   - ErrNotInActiveSource: ActivateTable with an index outside the active
//     source's tables
//   - ErrNoActiveTable: Toggle before a table is active
//   - dataset.ErrInvalidIndex / dataset.ErrUnknownDimension from Toggle
//
// A failed fetch never escapes the store. Complete logs it, clears Loading
// and sets Err to an error wrapping ErrLoadFailed, so a View reports
// StatusFailed rather than staying stuck in StatusLoading.
//
// # Hydration
//
// Hydrate rebuilds every source and table from a snapshot. The active source
// is resolved by name among the rebuilt sources. The active table is the
// entry of that source equal to the snapshot's active table, falling back to
// the first one with the same name, so the restored active table is always a member of the active
// source. Hydrating a snapshot equal to the current state is a no-op; any
// other hydrate bumps the generation and therefore abandons in-flight loads.
package state
