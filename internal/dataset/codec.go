package dataset

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// UnmarshalJSON accepts both the plural keys and the singular "heading" /
// "stub" keys used by px documents.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string              `json:"name"`
		Headings []string            `json:"headings"`
		Heading  []string            `json:"heading"`
		Stubs    []string            `json:"stubs"`
		Stub     []string            `json:"stub"`
		Levels   map[string][]string `json:"levels"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Name = raw.Name
	d.Headings = raw.Headings
	if d.Headings == nil {
		d.Headings = raw.Heading
	}
	d.Stubs = raw.Stubs
	if d.Stubs == nil {
		d.Stubs = raw.Stub
	}
	d.Levels = raw.Levels
	return nil
}

// Validate checks that every heading and stub has a levels entry.
func (d Dataset) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("dataset has no name")
	}
	for _, dim := range d.Dimensions() {
		if _, ok := d.Levels[dim]; !ok {
			return fmt.Errorf("dataset %q: dimension %q has no levels", d.Name, dim)
		}
	}
	return nil
}
