package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"shelf/internal/history"
	"shelf/pkg/provider"
	"shelf/pkg/sources"
)

// ListInstalled refreshes every available backend in parallel and returns the
// tracked installed records, annotated with update availability. Backends that fail
// are reported in the joined error; the others still contribute.
func (c *Coordinator) ListInstalled(ctx context.Context) ([]*provider.Record, error) {
	backends := c.reg.Available()
	results := make([][]*provider.Record, len(backends))
	errs := make([]error, len(backends))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, b := range backends {
		g.Go(func() error {
			scan, err := c.recheckBackend(ctx, b)
			results[i], errs[i] = scan.installed, err
			return nil
		})
	}
	_ = g.Wait()

	var out []*provider.Record
	for _, rs := range results {
		out = append(out, rs...)
	}
	return out, errors.Join(errs...)
}

// Search queries every available backend and groups the results by application.
// A failing backend is reported alongside the others' results.
func (c *Coordinator) Search(ctx context.Context, query string) ([]*sources.Group, error) {
	records, err := c.reg.SearchAll(ctx, query)
	if len(records) == 0 {
		return nil, err
	}
	c.annotateUpdates(ctx, records)
	return sources.GroupRecords(c.Track(records...)), err
}

// annotateUpdates pairs the installed status of fresh records with the update
// check, so that tracking them never lowers StatusUpdateAvailable.
func (c *Coordinator) annotateUpdates(ctx context.Context, records []*provider.Record) {
	for _, r := range records {
		if r.Status() != provider.StatusInstalled {
			continue
		}
		b, err := c.reg.For(r)
		if err != nil {
			continue
		}
		gen := r.Generation()
		if s := c.installedStatus(ctx, b, r.ID); s != provider.StatusInstalled {
			r.ApplyProbe(gen, s)
		}
	}
}

// SourceLabels returns the source picker entries of g.
func (c *Coordinator) SourceLabels(g *sources.Group) []sources.Option {
	b, err := c.reg.Get(g.Backend)
	if err != nil {
		return g.Options(nil)
	}
	return g.Options(b.SourceLabel)
}

// Update is an installed record joined with its pending update.
type Update struct {
	Candidate provider.UpdateCandidate
	// VersionLabel is "<installed> > <target>" when both versions are known.
	VersionLabel string
}

// ListUpdates joins every backend's pending updates with its installed records.
// Backends that fail are reported in the joined error; the others still contribute.
func (c *Coordinator) ListUpdates(ctx context.Context) ([]Update, error) {
	backends := c.reg.Available()
	results := make([][]Update, len(backends))
	errs := make([]error, len(backends))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, b := range backends {
		g.Go(func() error {
			scan, err := c.recheckBackend(ctx, b)
			if err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = scan.updatesErr
			results[i] = join(scan.updates, scan.installed)
			return nil
		})
	}
	_ = g.Wait()

	var out []Update
	for _, us := range results {
		out = append(out, us...)
	}
	return out, errors.Join(errs...)
}

func join(candidates []provider.UpdateCandidate, installed []*provider.Record) []Update {
	byID := make(map[string]*provider.Record, len(installed))
	for _, r := range installed {
		if _, ok := byID[r.ID]; !ok {
			byID[r.ID] = r
		}
	}

	var out []Update
	for _, cand := range candidates {
		r, ok := byID[cand.ID]
		if !ok {
			continue
		}
		cand.Record = r
		out = append(out, Update{Candidate: cand, VersionLabel: versionLabel(r.Version(), cand.TargetVersion)})
	}
	return out
}

func versionLabel(from, to string) string {
	switch {
	case from != "" && to != "" && from != to:
		return from + " > " + to
	case to != "":
		return to
	}
	return from
}

// BackendResult is the outcome of one backend's bulk update.
type BackendResult struct {
	Backend string
	Success bool
	Err     error
}

// UpdateAll runs every available backend's bulk update concurrently. The returned
// channel receives one result per backend and is closed once all have concluded;
// done, if set, is called for each result as well.
func (c *Coordinator) UpdateAll(ctx context.Context, done func(BackendResult)) <-chan BackendResult {
	backends := c.reg.Available()
	out := make(chan BackendResult, len(backends))

	var wg sync.WaitGroup
	for _, b := range backends {
		wg.Add(1)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer wg.Done()
			res := c.updateBackend(ctx, b)
			out <- res
			if done != nil {
				c.callback(func() { done(res) })
			}
			c.publish(Event{Kind: EventBackendUpdated, Backend: res})
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (c *Coordinator) updateBackend(ctx context.Context, b provider.Backend) BackendResult {
	opCtx, cancel := c.operationContext(ctx)
	defer cancel()

	entry := history.NewEntry(provider.OpUpdateAll, b.Name(), nil)
	err := c.call(opCtx, "update-all "+b.Name(), b.UpdateAll)
	b.InvalidateUpdates()
	entry.Finish(err)
	c.record(entry)

	if err != nil {
		c.log.Error().Err(err).Str("backend", b.Name()).Msg("bulk update failed")
	} else {
		c.log.Info().Str("backend", b.Name()).Msg("bulk update finished")
	}

	if _, rerr := c.recheckBackend(opCtx, b); rerr != nil {
		c.log.Warn().Err(rerr).Str("backend", b.Name()).Msg("re-check after bulk update failed")
	}
	return BackendResult{Backend: b.Name(), Success: err == nil, Err: err}
}

// Collect drains an UpdateAll channel and returns the results keyed by backend.
func Collect(results <-chan BackendResult) map[string]BackendResult {
	out := make(map[string]BackendResult)
	for r := range results {
		out[r.Backend] = r
	}
	return out
}

type viewSource []provider.RecordView

func (s viewSource) String(i int) string {
	return s[i].Name + " " + s[i].ID + " " + s[i].Description
}
func (s viewSource) Len() int { return len(s) }

// Filter ranks the tracked records by fuzzy match against query.
func (c *Coordinator) Filter(query string) []provider.RecordView {
	views := c.Snapshot()
	query = strings.TrimSpace(query)
	if query == "" {
		return views
	}

	matches := fuzzy.FindFrom(query, viewSource(views))
	out := make([]provider.RecordView, len(matches))
	for i, m := range matches {
		out[i] = views[m.Index]
	}
	return out
}

// LongDescription returns the backend's long description of r, or "".
func (c *Coordinator) LongDescription(ctx context.Context, r *provider.Record) string {
	b, err := c.reg.For(r)
	if err != nil {
		return ""
	}
	var desc string
	err = c.call(ctx, "describe "+r.Key(), func(ctx context.Context) error {
		desc = b.LongDescription(ctx, r)
		return nil
	})
	if err != nil {
		return ""
	}
	return desc
}

// InstalledFrom describes where r was installed from.
func (c *Coordinator) InstalledFrom(r *provider.Record) string {
	b, err := c.reg.For(r)
	if err != nil {
		return ""
	}
	return b.InstalledFrom(r)
}
