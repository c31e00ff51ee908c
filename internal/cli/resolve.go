package cli

import (
	"context"
	"fmt"
	"strings"

	"shelf/internal/ui"
	"shelf/pkg/coordinator"
	"shelf/pkg/provider"
	"shelf/pkg/sources"
)

// matches reports whether name refers to v by id or by display name.
func matches(v provider.RecordView, name string) bool {
	return v.ID == name || strings.EqualFold(v.Name, name)
}

// inBackend applies the --backend filter.
func inBackend(name string) bool {
	return backend == "" || backend == name
}

// resolveNames resolves aliases and rejects an empty list.
func resolveNames(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, ErrNoPackages
	}
	return cfg.ResolveAliases(args), nil
}

// search runs a search with a spinner. A failing backend is logged as long as
// another one returned results.
func search(ctx context.Context, query string) ([]*sources.Group, error) {
	var groups []*sources.Group
	err := ui.WithSpinner(fmt.Sprintf("Searching for %s", query), func() error {
		var err error
		groups, err = coord.Search(ctx, query)
		return err
	})
	if err != nil && len(groups) == 0 {
		return nil, err
	}
	if err != nil {
		log.Warn().Err(err).Msg("search incomplete")
	}

	out := groups[:0]
	for _, g := range groups {
		if inBackend(g.Backend) {
			out = append(out, g)
		}
	}
	return out, nil
}

// findGroup returns the search group whose id or name equals name.
func findGroup(ctx context.Context, name string) (*sources.Group, error) {
	groups, err := search(ctx, name)
	if err != nil {
		return nil, err
	}

	var found []*sources.Group
	var views []provider.RecordView
	for _, g := range groups {
		a := g.Active()
		if a != nil && matches(a.View(), name) {
			found = append(found, g)
			views = append(views, a.View())
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	i, err := choose(views, fmt.Sprintf("Several applications match %q", name))
	if err != nil {
		return nil, err
	}
	return found[i], nil
}

// findInstalled returns the installed record whose id or name equals name.
func findInstalled(ctx context.Context, name string) (*provider.Record, error) {
	records, err := coord.ListInstalled(ctx)
	if err != nil && len(records) == 0 {
		return nil, err
	}
	if err != nil {
		log.Warn().Err(err).Msg("installed list incomplete")
	}

	var found []*provider.Record
	var views []provider.RecordView
	for _, r := range records {
		v := r.View()
		if inBackend(r.Backend) && matches(v, name) {
			found = append(found, r)
			views = append(views, v)
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}

	i, err := choose(views, fmt.Sprintf("Several installations match %q", name))
	if err != nil {
		return nil, err
	}
	return found[i], nil
}

// choose picks one of several matches. Without a terminal dialog (-y) more than
// one match is an error.
func choose(views []provider.RecordView, prompt string) (int, error) {
	if len(views) == 1 {
		return 0, nil
	}
	if cfg.General.AutoConfirm {
		keys := make([]string, len(views))
		for i, v := range views {
			keys[i] = v.Key
		}
		return -1, fmt.Errorf("%w: %s", ErrAmbiguous, strings.Join(keys, ", "))
	}
	return ui.SelectRecord(views, prompt)
}

// pickSource makes the requested source of g active. Without a request it asks
// the user when g offers several sources and prompts are enabled.
func pickSource(ctx context.Context, g *sources.Group, sourceID string) (*provider.Record, error) {
	if sourceID != "" {
		return g.Select(ctx, sourceID, coord)
	}

	options := coord.SourceLabels(g)
	if len(options) < 2 || cfg.General.AutoConfirm {
		return g.Refresh(ctx, coord)
	}

	opt, err := ui.SelectSource(options, g.Active(), fmt.Sprintf("Source for %s", g.Active().Name))
	if err != nil {
		return nil, err
	}
	return g.Select(ctx, opt.ID, coord)
}

// confirm asks for confirmation unless -y or dry-run is set.
func confirm(prompt string, defaultYes bool) error {
	if cfg.General.AutoConfirm || cfg.General.DryRun {
		return nil
	}
	ok, err := ui.Confirm(prompt, defaultYes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

// starter begins one coordinator operation.
type starter func(ctx context.Context, r *provider.Record, done coordinator.Completion) (<-chan coordinator.Result, error)

// runAll starts op for every record and waits for all results behind a spinner.
// Failures are reported per record.
func runAll(ctx context.Context, verb string, op starter, records []*provider.Record) error {
	failed := make(map[*provider.Record]error)
	finished := make(map[*provider.Record]provider.Status)
	_ = ui.WithSpinner(fmt.Sprintf("%s %d application(s)", verb, len(records)), func() error {
		pending := make(map[*provider.Record]<-chan coordinator.Result, len(records))
		for _, r := range records {
			ch, err := op(ctx, r, nil)
			if err != nil {
				failed[r] = err
				continue
			}
			pending[r] = ch
		}
		for r, ch := range pending {
			res := <-ch
			if res.Err != nil {
				failed[r] = res.Err
				continue
			}
			finished[r] = res.View.Status
		}
		return nil
	})

	for _, r := range records {
		if err, ok := failed[r]; ok {
			ui.ErrorMsg("%s: %v", r.Name, err)
			continue
		}
		ui.SuccessMsg("%s: %s", r.Name, ui.StatusText(finished[r]))
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFailed, len(failed), len(records))
	}
	return nil
}
