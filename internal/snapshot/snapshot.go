package snapshot

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/five82/pxbrowse/internal/dataset"
)

// Snapshot mirrors the observable live store fields. It carries no object
// identity: ActiveSource and ActiveTable are self-contained copies.
type Snapshot struct {
	Datasources  []Source `json:"datasources"`
	ActiveSource *Source  `json:"active_source"`
	ActiveTable  *Table   `json:"active_table"`
}

// Source is the serialized form of a data source.
type Source struct {
	Name string  `json:"name"`
	URL  string  `json:"url"`
	Data []Table `json:"data"`
}

// Table is the serialized form of a data table.
type Table struct {
	Table dataset.Dataset  `json:"table"`
	View  map[string][]int `json:"view"`
}

// Equal reports whether both snapshots encode to the same canonical JSON.
func (s Snapshot) Equal(other Snapshot) bool {
	a, errA := s.canonical()
	b, errB := other.canonical()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// Equal reports whether both tables encode to the same canonical JSON.
func (t Table) Equal(other Table) bool {
	a, errA := json.Marshal(t.normalize())
	b, errB := json.Marshal(other.normalize())
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// IsZero reports whether the snapshot carries no sources and no selection.
func (s Snapshot) IsZero() bool {
	return len(s.Datasources) == 0 && s.ActiveSource == nil && s.ActiveTable == nil
}

// Marshal encodes the snapshot. Map keys are sorted so equal snapshots
// produce identical bytes.
func Marshal(s Snapshot) ([]byte, error) {
	return s.canonical()
}

// Unmarshal decodes a snapshot produced by Marshal.
func Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s.normalize(), nil
}

// Export writes the snapshot as indented JSON.
func Export(w io.Writer, s Snapshot) error {
	data, err := json.MarshalIndent(s.normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Import reads a snapshot written by Export.
func Import(r io.Reader) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return Unmarshal(data)
}

func (s Snapshot) canonical() ([]byte, error) {
	data, err := json.Marshal(s.normalize())
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// normalize replaces nil collections with empty ones so that nil and empty
// encode identically.
func (s Snapshot) normalize() Snapshot {
	out := Snapshot{Datasources: make([]Source, len(s.Datasources))}
	for i, src := range s.Datasources {
		out.Datasources[i] = src.normalize()
	}
	if s.ActiveSource != nil {
		src := s.ActiveSource.normalize()
		out.ActiveSource = &src
	}
	if s.ActiveTable != nil {
		tbl := s.ActiveTable.normalize()
		out.ActiveTable = &tbl
	}
	return out
}

func (s Source) normalize() Source {
	out := Source{Name: s.Name, URL: s.URL, Data: make([]Table, len(s.Data))}
	for i, t := range s.Data {
		out.Data[i] = t.normalize()
	}
	return out
}

func (t Table) normalize() Table {
	out := Table{Table: t.Table.Clone(), View: make(map[string][]int, len(t.View))}
	for dim, indices := range t.View {
		dup := make([]int, len(indices))
		copy(dup, indices)
		out.View[dim] = dup
	}
	return out
}
