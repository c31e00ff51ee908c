// Package sources groups records that offer the same application from different
// remotes or branches and tracks which one is active.
package sources

import (
	"context"
	"fmt"
	"sync"

	"shelf/pkg/provider"
)

// ErrSourceNotFound is returned when a source id matches no candidate.
var ErrSourceNotFound = fmt.Errorf("%w: source not found", provider.ErrContract)

// CanonicalBranch is preferred when no candidate is installed.
const CanonicalBranch = "stable"

// Checker re-derives the status of r against its alternates and returns the
// alternate that is installed instead of r, if any.
type Checker interface {
	CheckInstalled(ctx context.Context, r *provider.Record, alts []*provider.Record) (*provider.Record, error)
}

// Option is one entry of a source picker.
type Option struct {
	ID     string
	Label  string
	Record *provider.Record
}

// Group is the set of candidates for one logical application.
type Group struct {
	Backend string
	ID      string

	mu      sync.Mutex
	records []*provider.Record
	active  int
}

// NewGroup creates a group with the preselected record active.
// All records must share backend and id.
func NewGroup(records []*provider.Record) *Group {
	if len(records) == 0 {
		return &Group{}
	}
	return &Group{
		Backend: records[0].Backend,
		ID:      records[0].ID,
		records: records,
		active:  Preselect(records),
	}
}

// GroupRecords groups records by backend and id, keeping first-appearance order.
func GroupRecords(records []*provider.Record) []*Group {
	index := make(map[string]int)
	var buckets [][]*provider.Record
	for _, r := range records {
		k := r.Backend + "/" + r.ID
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], r)
	}

	groups := make([]*Group, 0, len(buckets))
	for _, b := range buckets {
		groups = append(groups, NewGroup(b))
	}
	return groups
}

// Preselect returns the index of the default candidate: an installed source, else
// the canonical branch, else the first record.
func Preselect(records []*provider.Record) int {
	for i, r := range records {
		if r.Status().IsInstalled() {
			return i
		}
	}
	for i, r := range records {
		if r.Source().Branch == CanonicalBranch {
			return i
		}
	}
	return 0
}

// SelectedSource returns the candidate whose source id equals sourceID.
func SelectedSource(records []*provider.Record, sourceID string) (*provider.Record, error) {
	for _, r := range records {
		if r.Source().ID() == sourceID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, sourceID)
}

// Records returns the candidates in their original order.
func (g *Group) Records() []*provider.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*provider.Record(nil), g.records...)
}

// Active returns the active candidate, or nil for an empty group.
func (g *Group) Active() *provider.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.records) == 0 {
		return nil
	}
	return g.records[g.active]
}

// Alternates returns every candidate except r.
func (g *Group) Alternates(r *provider.Record) []*provider.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*provider.Record, 0, len(g.records))
	for _, c := range g.records {
		if c != r {
			out = append(out, c)
		}
	}
	return out
}

// Options lists one entry per distinct source. label maps a remote to its human
// name; the branch is appended when a remote offers several branches.
func (g *Group) Options(label func(remote string) string) []Option {
	records := g.Records()

	branches := make(map[string]map[string]bool)
	for _, r := range records {
		src := r.Source()
		if branches[src.Remote] == nil {
			branches[src.Remote] = make(map[string]bool)
		}
		branches[src.Remote][src.Branch] = true
	}

	seen := make(map[string]bool)
	var out []Option
	for _, r := range records {
		src := r.Source()
		if seen[src.ID()] {
			continue
		}
		seen[src.ID()] = true

		text := src.Remote
		if label != nil {
			text = label(src.Remote)
		}
		if len(branches[src.Remote]) > 1 && src.Branch != "" {
			text += " (" + src.Branch + ")"
		}
		out = append(out, Option{ID: src.ID(), Label: text, Record: r})
	}
	return out
}

// Labels returns Options as a source id to label map.
func (g *Group) Labels(label func(remote string) string) map[string]string {
	opts := g.Options(label)
	out := make(map[string]string, len(opts))
	for _, o := range opts {
		out[o.ID] = o.Label
	}
	return out
}

// Select makes the candidate with sourceID active and re-derives its status.
// The selection stands even when another candidate turns out to be installed.
func (g *Group) Select(ctx context.Context, sourceID string, c Checker) (*provider.Record, error) {
	g.mu.Lock()
	r, err := SelectedSource(g.records, sourceID)
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	for i, cand := range g.records {
		if cand == r {
			g.active = i
		}
	}
	g.mu.Unlock()

	if c == nil {
		return r, nil
	}
	if _, err := c.CheckInstalled(ctx, r, g.Alternates(r)); err != nil {
		return r, err
	}
	return r, nil
}

// Refresh re-derives the status of the active candidate. When an alternate is the
// installed one, it becomes active.
func (g *Group) Refresh(ctx context.Context, c Checker) (*provider.Record, error) {
	r := g.Active()
	if r == nil {
		return nil, nil
	}

	alt, err := c.CheckInstalled(ctx, r, g.Alternates(r))
	if err != nil || alt == nil {
		return r, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for i, cand := range g.records {
		if cand == alt {
			g.active = i
			return alt, nil
		}
	}
	return r, nil
}
