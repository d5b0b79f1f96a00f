package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/five82/pxbrowse/internal/dataset"
	"github.com/five82/pxbrowse/internal/observable"
	"github.com/five82/pxbrowse/internal/pxweb"
	"github.com/five82/pxbrowse/internal/snapshot"
)

var (
	ErrUnknownSource     = errors.New("unknown data source")
	ErrNotInActiveSource = errors.New("table is not in the active source")
	ErrNoActiveTable     = errors.New("no active table")
	ErrLoadFailed        = errors.New("load failed")
)

// Ticket identifies one dispatched load. A ticket whose generation no longer
// matches the store's is stale and its result is discarded.
type Ticket struct {
	Source     string
	URL        string
	Generation uint64
}

// Result is the outcome of fetching a ticket.
type Result struct {
	Ticket
	Docs []dataset.Dataset
	Err  error
}

// Options configure a Store.
type Options struct {
	Fetcher pxweb.Fetcher
	Logger  *slog.Logger
}

// Store is the live application state. Every mutation commits one new View
// and notifies subscribers once.
type Store struct {
	fetcher pxweb.Fetcher
	logger  *slog.Logger
	value   *observable.Value[View]
}

// New returns a store over the configured sources. The store takes
// ownership of sources.
func New(sources []*dataset.DataSource, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fetcher: opts.Fetcher,
		logger:  logger,
		value:   observable.New(emptyView(slices.Clone(sources))),
	}
}

// View returns the committed state.
func (s *Store) View() View {
	return s.value.Get()
}

// Subscribe registers fn for every committed change.
func (s *Store) Subscribe(fn func(View)) (unsubscribe func()) {
	return s.value.Subscribe(fn)
}

// ActivateSource makes the named source active, clears the active table and
// marks the store as loading. The returned ticket must be passed to Load (or
// Fetch and Complete) to finish the load.
func (s *Store) ActivateSource(name string) (Ticket, error) {
	var (
		ticket Ticket
		err    error
	)
	s.value.Update(func(cur View) (View, bool) {
		idx := indexOfSource(cur.Sources, name)
		if idx < 0 {
			err = fmt.Errorf("%w %q", ErrUnknownSource, name)
			return cur, false
		}
		next := cur
		next.Active = idx
		next.Table = -1
		next.Loading = true
		next.Err = nil
		next.Generation = cur.Generation + 1
		ticket = Ticket{Source: name, URL: cur.Sources[idx].URL, Generation: next.Generation}
		return next, true
	})
	if err != nil {
		return Ticket{}, err
	}
	s.logger.Debug("source activated", "source", ticket.Source, "generation", ticket.Generation)
	return ticket, nil
}

// Reload dispatches a fresh load of the active source.
func (s *Store) Reload() (Ticket, error) {
	src := s.View().ActiveSource()
	if src == nil {
		return Ticket{}, fmt.Errorf("%w: nothing to reload", ErrUnknownSource)
	}
	return s.ActivateSource(src.Name)
}

// Load fetches and commits the ticket. It reports whether the result was
// applied.
func (s *Store) Load(ctx context.Context, ticket Ticket) bool {
	return s.Complete(s.Fetch(ctx, ticket))
}

// Fetch performs the network request for ticket without touching the store.
// It is safe to call from any goroutine.
func (s *Store) Fetch(ctx context.Context, ticket Ticket) Result {
	if s.fetcher == nil {
		return Result{Ticket: ticket, Err: fmt.Errorf("no fetcher configured")}
	}
	docs, err := s.fetcher.FetchDocuments(ctx, ticket.URL)
	return Result{Ticket: ticket, Docs: docs, Err: err}
}

// Complete commits a fetch result in one update: the source data, the
// loading flag and the error marker change together. Stale results are
// discarded without any mutation.
func (s *Store) Complete(r Result) bool {
	applied := s.value.Update(func(cur View) (View, bool) {
		src := cur.ActiveSource()
		if r.Generation != cur.Generation || src == nil || src.Name != r.Source {
			return cur, false
		}
		next := cur
		next.Loading = false
		if r.Err != nil {
			next.Err = fmt.Errorf("%w: %s: %w", ErrLoadFailed, r.Source, r.Err)
			return next, true
		}
		tables := make([]*dataset.DataTable, len(r.Docs))
		for i, doc := range r.Docs {
			tables[i] = dataset.NewDataTable(doc)
		}
		next.Sources = slices.Clone(cur.Sources)
		next.Sources[cur.Active] = &dataset.DataSource{Name: src.Name, URL: src.URL, Data: tables}
		next.Table = -1
		next.Err = nil
		return next, true
	})

	switch {
	case !applied:
		s.logger.Debug("discarding stale load", "source", r.Source, "generation", r.Generation, "error", r.Err)
	case r.Err != nil:
		s.logger.Warn("load failed", "source", r.Source, "url", r.URL, "generation", r.Generation, "error", r.Err)
	default:
		s.logger.Info("source loaded", "source", r.Source, "tables", len(r.Docs), "generation", r.Generation)
	}
	return applied
}

// ActivateTable makes the table at index in the active source's data
// active. Tables are addressed by position because a source may serve
// several tables with the same name.
func (s *Store) ActivateTable(index int) error {
	var err error
	s.value.Update(func(cur View) (View, bool) {
		src := cur.ActiveSource()
		if src == nil || index < 0 || index >= len(src.Data) {
			err = fmt.Errorf("%w: index %d", ErrNotInActiveSource, index)
			return cur, false
		}
		if cur.Table == index {
			return cur, false
		}
		next := cur
		next.Table = index
		return next, true
	})
	return err
}

// Toggle flips one category of the active table's selection.
func (s *Store) Toggle(dimension string, index int) error {
	var err error
	s.value.Update(func(cur View) (View, bool) {
		tbl := cur.ActiveTable()
		if tbl == nil {
			err = ErrNoActiveTable
			return cur, false
		}
		dup := tbl.Clone()
		if err = dup.Toggle(dimension, index); err != nil {
			return cur, false
		}
		src := cur.ActiveSource()
		replaced := &dataset.DataSource{Name: src.Name, URL: src.URL, Data: slices.Clone(src.Data)}
		replaced.Data[cur.Table] = dup

		next := cur
		next.Sources = slices.Clone(cur.Sources)
		next.Sources[cur.Active] = replaced
		return next, true
	})
	return err
}

// IsSelected queries the active table's selection.
func (s *Store) IsSelected(dimension string, index int) bool {
	tbl := s.View().ActiveTable()
	return tbl != nil && tbl.IsSelected(dimension, index)
}

// Dehydrate serializes the committed state.
func (s *Store) Dehydrate() snapshot.Snapshot {
	return s.View().Dehydrate()
}

// Hydrate replaces sources, active source and active table with objects
// rebuilt from snap. Restoring a snapshot equal to the current state is a
// no-op. Any other restore bumps the generation, which discards in-flight
// loads, and resets the loading flag and error marker.
func (s *Store) Hydrate(snap snapshot.Snapshot) bool {
	var unresolved string
	changed := s.value.Update(func(cur View) (View, bool) {
		if cur.Dehydrate().Equal(snap) {
			return cur, false
		}
		next := emptyView(make([]*dataset.DataSource, len(snap.Datasources)))
		next.Generation = cur.Generation + 1
		for i, src := range snap.Datasources {
			next.Sources[i] = src.Build()
		}
		if snap.ActiveSource != nil {
			next.Active = indexOfSource(next.Sources, snap.ActiveSource.Name)
			if next.Active < 0 {
				unresolved = snap.ActiveSource.Name
			}
		}
		if src := next.ActiveSource(); src != nil && snap.ActiveTable != nil {
			next.Table = resolveTable(src, *snap.ActiveTable)
		}
		return next, true
	})
	if unresolved != "" {
		s.logger.Debug("hydrate dropped unknown active source", "source", unresolved)
	}
	return changed
}

// resolveTable finds want among the source's tables, preferring a
// structurally equal entry over the first one sharing its name.
func resolveTable(src *dataset.DataSource, want snapshot.Table) int {
	idx := slices.IndexFunc(src.Data, func(t *dataset.DataTable) bool {
		return snapshot.FromTable(t).Equal(want)
	})
	if idx >= 0 {
		return idx
	}
	return src.Table(want.Table.Name)
}
