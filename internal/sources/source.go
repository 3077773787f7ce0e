// Package sources defines the data-source contract the pipeline runner
// orchestrates, and the registry sources are looked up from. A source
// declares where its raw tables live; the runner fetches and reads them
// and hands the tables to Parse, which owns the full transform to the
// standardized time series.
package sources

import (
	"context"
	"sort"
	"sync"

	"epipulse/internal/errors"
	"epipulse/internal/table"
	"epipulse/pkg/contracts/domain"
)

// Options carries per-source parse options supplied by the orchestrating
// pipeline, e.g. a country-code override.
type Options map[string]string

// DataSource converts raw registry tables into the standardized table.
// Parse must be pure with respect to its inputs: no I/O, no retained
// state, no mutation visible outside the call.
type DataSource interface {
	// Name returns the unique identifier for this source.
	Name() string

	// URLs returns the remote locations of the raw tables, in the order
	// they are passed to Parse.
	URLs() []string

	// Parse transforms the already-read raw tables (plus auxiliary tables)
	// into standardized time-series records.
	Parse(ctx context.Context, tables []*table.Table, aux map[string]*table.Table, opts Options) ([]domain.TimeSeriesRecord, error)
}

// Registry holds the available data sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]DataSource
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]DataSource)}
}

// Register adds a source, replacing any previous source with the same name.
func (r *Registry) Register(src DataSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.Name()] = src
}

// Get returns the named source.
func (r *Registry) Get(name string) (DataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[name]
	if !ok {
		return nil, errors.NewNotFoundError("data source " + name)
	}
	return src, nil
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered sources ordered by name.
func (r *Registry) All() []DataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	srcs := make([]DataSource, 0, len(r.sources))
	for _, src := range r.sources {
		srcs = append(srcs, src)
	}
	sort.Slice(srcs, func(i, j int) bool { return srcs[i].Name() < srcs[j].Name() })
	return srcs
}
