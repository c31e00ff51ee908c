package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry is the fixed table of backends, built once at startup.
type Registry struct {
	backends map[string]Backend
	order    []string
}

// NewRegistry creates a registry holding backends, ordered by priority.
// Backends missing from priority keep their relative order after the listed ones.
func NewRegistry(priority []string, backends ...Backend) *Registry {
	r := &Registry{
		backends: make(map[string]Backend, len(backends)),
	}

	for _, b := range backends {
		if _, dup := r.backends[b.Name()]; !dup {
			r.order = append(r.order, b.Name())
		}
		r.backends[b.Name()] = b
	}

	rank := make(map[string]int, len(priority))
	for i, name := range priority {
		rank[name] = i
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		return priorityOf(rank, r.order[i]) < priorityOf(rank, r.order[j])
	})

	return r
}

func priorityOf(rank map[string]int, name string) int {
	if p, ok := rank[name]; ok {
		return p
	}
	// Default to lowest priority
	return 999
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	return b, nil
}

// For returns the backend owning record.
func (r *Registry) For(record *Record) (Backend, error) {
	return r.Get(record.Backend)
}

// Names returns the backend names in priority order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every registered backend in priority order.
func (r *Registry) All() []Backend {
	out := make([]Backend, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.backends[name])
	}
	return out
}

// Available returns the backends whose tooling is present.
func (r *Registry) Available() []Backend {
	var out []Backend
	for _, b := range r.All() {
		if b.IsAvailable() {
			out = append(out, b)
		}
	}
	return out
}

// FileImporter returns the first available backend that accepts path.
func (r *Registry) FileImporter(path string) (Backend, bool) {
	for _, b := range r.Available() {
		if b.CanImportFile(path) {
			return b, true
		}
	}
	return nil, false
}

// SearchAll searches every available backend concurrently. Results keep backend
// priority order; a failing backend does not hide the others' results.
func (r *Registry) SearchAll(ctx context.Context, query string) ([]*Record, error) {
	available := r.Available()
	if len(available) == 0 {
		return nil, fmt.Errorf("no backends available")
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  = make([][]*Record, len(available))
		firstErr error
	)

	for i, b := range available {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()

			recs, err := b.Search(ctx, query)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", b.Name(), err)
				}
				mu.Unlock()
				return
			}
			results[i] = recs
		}(i, b)
	}

	wg.Wait()

	var out []*Record
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, firstErr
}
