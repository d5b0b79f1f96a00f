// Package dataset models remote hierarchical tables and the per-dimension
// selections made on them.
//
// A Dataset is immutable once decoded: a name, the column dimensions
// (headings), the row dimensions (stubs) and the ordered category labels of
// every dimension. A DataTable owns exactly one Selection, which is only
// changed through Toggle. A DataSource is a named URL plus the tables it
// served on its last successful load.
//
// Toggle is an involution: toggling the same (dimension, index) twice
// restores the previous membership. Out-of-range indices fail with
// ErrInvalidIndex and dimensions missing from Levels fail with
// ErrUnknownDimension.
package dataset
