package dataset

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownDimension reports a dimension that is not a key of Levels.
	ErrUnknownDimension = errors.New("unknown dimension")
	// ErrInvalidIndex reports a category index outside the dimension's levels.
	ErrInvalidIndex = errors.New("invalid category index")
)

// Dataset is the immutable schema of one remote table.
type Dataset struct {
	Name     string              `json:"name"`
	Headings []string            `json:"headings"`
	Stubs    []string            `json:"stubs"`
	Levels   map[string][]string `json:"levels"`
}

// Dimensions returns headings followed by stubs.
func (d Dataset) Dimensions() []string {
	dims := make([]string, 0, len(d.Headings)+len(d.Stubs))
	dims = append(dims, d.Headings...)
	return append(dims, d.Stubs...)
}

// Clone returns a deep copy.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Name:     d.Name,
		Headings: cloneStrings(d.Headings),
		Stubs:    cloneStrings(d.Stubs),
		Levels:   make(map[string][]string, len(d.Levels)),
	}
	for dim, levels := range d.Levels {
		out.Levels[dim] = cloneStrings(levels)
	}
	return out
}

func (d Dataset) checkIndex(dimension string, index int) error {
	levels, ok := d.Levels[dimension]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownDimension, dimension)
	}
	if index < 0 || index >= len(levels) {
		return fmt.Errorf("%w %d for %q (%d levels)", ErrInvalidIndex, index, dimension, len(levels))
	}
	return nil
}

// DataTable pairs a dataset with the selection made on it.
type DataTable struct {
	dataset   Dataset
	selection Selection
}

// NewDataTable returns a table with an empty selection for every dimension.
func NewDataTable(d Dataset) *DataTable {
	return &DataTable{dataset: d, selection: NewSelection(d)}
}

// RestoreDataTable rebuilds a table from a stored selection. Entries that do
// not fit the dataset are dropped.
func RestoreDataTable(d Dataset, view map[string][]int) *DataTable {
	t := NewDataTable(d)
	for dim, indices := range view {
		for _, idx := range indices {
			if d.checkIndex(dim, idx) != nil || t.selection.has(dim, idx) {
				continue
			}
			t.selection[dim] = append(t.selection[dim], idx)
		}
	}
	return t
}

// Name is the dataset name.
func (t *DataTable) Name() string { return t.dataset.Name }

// Dataset returns the table schema. Callers must not mutate it.
func (t *DataTable) Dataset() Dataset { return t.dataset }

// Selection returns a copy of the current selection.
func (t *DataTable) Selection() Selection { return t.selection.Clone() }

// Toggle removes index from the dimension's selection when present and
// appends it otherwise.
func (t *DataTable) Toggle(dimension string, index int) error {
	if err := t.dataset.checkIndex(dimension, index); err != nil {
		return err
	}
	current := t.selection[dimension]
	if pos := slices.Index(current, index); pos >= 0 {
		t.selection[dimension] = slices.Delete(slices.Clone(current), pos, pos+1)
		return nil
	}
	t.selection[dimension] = append(slices.Clone(current), index)
	return nil
}

// IsSelected reports whether index is selected in dimension.
func (t *DataTable) IsSelected(dimension string, index int) bool {
	return t.selection.has(dimension, index)
}

// Clone returns an independent copy sharing no mutable state.
func (t *DataTable) Clone() *DataTable {
	return &DataTable{dataset: t.dataset.Clone(), selection: t.selection.Clone()}
}

// DataSource is a named endpoint serving a list of tables.
type DataSource struct {
	Name string
	URL  string
	Data []*DataTable
}

// Clone returns a deep copy of the source and its tables.
func (s *DataSource) Clone() *DataSource {
	out := &DataSource{Name: s.Name, URL: s.URL, Data: make([]*DataTable, len(s.Data))}
	for i, t := range s.Data {
		out.Data[i] = t.Clone()
	}
	return out
}

// Table returns the index of the table called name, or -1.
func (s *DataSource) Table(name string) int {
	return slices.IndexFunc(s.Data, func(t *DataTable) bool { return t.Name() == name })
}

func cloneStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}
