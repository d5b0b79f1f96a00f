// Package snapshot converts between the live data-source objects and their
// serialized form.
//
// Two snapshots are equal when their canonical JSON encodings match. The
// encoder sorts map keys and the package normalizes nil collections to empty
// ones before encoding, so equality does not depend on how a snapshot was
// produced (dehydrated from the live store, decoded from disk, or built by
// hand in a test).
//
// The encoded object has exactly three keys:
//
//	{
//	  "datasources":   [ {"name", "url", "data": [ {"table", "view"} ]} ],
//	  "active_source": {"name", "url", "data"} | null,
//	  "active_table":  {"table", "view"} | null
//	}
package snapshot
