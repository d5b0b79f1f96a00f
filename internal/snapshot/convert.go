package snapshot

import "github.com/five82/pxbrowse/internal/dataset"

// FromSource dehydrates one live data source.
func FromSource(src *dataset.DataSource) Source {
	out := Source{Name: src.Name, URL: src.URL, Data: make([]Table, len(src.Data))}
	for i, t := range src.Data {
		out.Data[i] = FromTable(t)
	}
	return out
}

// FromTable dehydrates one live data table.
func FromTable(t *dataset.DataTable) Table {
	return Table{Table: t.Dataset().Clone(), View: t.Selection()}
}

// Build returns freshly constructed live objects for the source.
func (s Source) Build() *dataset.DataSource {
	out := &dataset.DataSource{Name: s.Name, URL: s.URL, Data: make([]*dataset.DataTable, len(s.Data))}
	for i, t := range s.Data {
		out.Data[i] = t.Build()
	}
	return out
}

// Build returns a freshly constructed live table.
func (t Table) Build() *dataset.DataTable {
	return dataset.RestoreDataTable(t.Table.Clone(), t.View)
}
