package state

import (
	"errors"

	"github.com/five82/pxbrowse/internal/dataset"
	"github.com/five82/pxbrowse/internal/snapshot"
)

// Status summarizes the load state of the active source.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// View is one committed state of the live store. Views are never modified
// after they are published; callers must treat the referenced sources and
// tables as read-only.
type View struct {
	Sources    []*dataset.DataSource
	Active     int // index into Sources, -1 when none
	Table      int // index into the active source's Data, -1 when none
	Loading    bool
	Err        error
	Generation uint64
}

func emptyView(sources []*dataset.DataSource) View {
	return View{Sources: sources, Active: -1, Table: -1}
}

// Status reports idle, loading or failed. A failed load is never reported
// as loading.
func (v View) Status() Status {
	switch {
	case v.Loading:
		return StatusLoading
	case errors.Is(v.Err, ErrLoadFailed):
		return StatusFailed
	default:
		return StatusIdle
	}
}

// ActiveSource returns the active source or nil.
func (v View) ActiveSource() *dataset.DataSource {
	if v.Active < 0 || v.Active >= len(v.Sources) {
		return nil
	}
	return v.Sources[v.Active]
}

// ActiveTable returns the active table or nil.
func (v View) ActiveTable() *dataset.DataTable {
	src := v.ActiveSource()
	if src == nil || v.Table < 0 || v.Table >= len(src.Data) {
		return nil
	}
	return src.Data[v.Table]
}

// Dehydrate serializes the observable fields.
func (v View) Dehydrate() snapshot.Snapshot {
	out := snapshot.Snapshot{Datasources: make([]snapshot.Source, len(v.Sources))}
	for i, src := range v.Sources {
		out.Datasources[i] = snapshot.FromSource(src)
	}
	if src := v.ActiveSource(); src != nil {
		s := snapshot.FromSource(src)
		out.ActiveSource = &s
	}
	if tbl := v.ActiveTable(); tbl != nil {
		t := snapshot.FromTable(tbl)
		out.ActiveTable = &t
	}
	return out
}

func indexOfSource(sources []*dataset.DataSource, name string) int {
	for i, src := range sources {
		if src.Name == name {
			return i
		}
	}
	return -1
}
