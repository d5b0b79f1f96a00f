package dataset

import (
	"maps"
	"slices"
)

// Selection maps a dimension to the selected category indices. Order within
// a dimension is insertion order; membership is what matters.
type Selection map[string][]int

// NewSelection returns an empty selection for every dimension of d.
func NewSelection(d Dataset) Selection {
	s := make(Selection, len(d.Levels))
	for dim := range d.Levels {
		s[dim] = []int{}
	}
	return s
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for dim, indices := range s {
		out[dim] = slices.Clone(indices)
		if out[dim] == nil {
			out[dim] = []int{}
		}
	}
	return out
}

// Count returns the number of selected categories across all dimensions.
func (s Selection) Count() int {
	n := 0
	for _, indices := range s {
		n += len(indices)
	}
	return n
}

// Sorted returns the selected indices of dimension in ascending order.
func (s Selection) Sorted(dimension string) []int {
	out := slices.Clone(s[dimension])
	slices.Sort(out)
	return out
}

// Equal compares membership per dimension, ignoring order.
func (s Selection) Equal(other Selection) bool {
	keys := slices.Sorted(maps.Keys(s))
	otherKeys := slices.Sorted(maps.Keys(other))
	if !slices.Equal(keys, otherKeys) {
		return false
	}
	for _, dim := range keys {
		if !slices.Equal(s.Sorted(dim), other.Sorted(dim)) {
			return false
		}
	}
	return true
}

func (s Selection) has(dimension string, index int) bool {
	return slices.Contains(s[dimension], index)
}
