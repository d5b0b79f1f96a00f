// Package history stores snapshots of the live store for time travel.
//
// # Rules
//
//   - AddState appends only when the cursor is at the tip (or the store is
//     empty) and the candidate differs from the tip snapshot.
//   - A candidate offered while the cursor is behind the tip is dropped. The
//     forward segment is neither truncated nor branched.
//   - GoBack and GoForward clamp to [0, Len()-1] and never fail.
//
// The duplicate rule and the tip rule together stop the time-travel bridge
// from feeding restored snapshots back into the store.
//
// An optional limit evicts the oldest snapshots once exceeded. Eviction only
// happens on append, when the cursor is at the tip, so the cursor stays on
// the newest snapshot.
package history
