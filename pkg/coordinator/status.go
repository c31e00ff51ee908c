package coordinator

import (
	"context"
	"fmt"

	"shelf/pkg/provider"
)

// CheckInstalled re-derives the status of r, and of the alternate installed in its
// place if any, from the backend. Installed records that have a pending update
// become StatusUpdateAvailable. Results are discarded when an operation started
// on the record in the meantime.
func (c *Coordinator) CheckInstalled(ctx context.Context, r *provider.Record, alts []*provider.Record) (*provider.Record, error) {
	b, err := c.reg.For(r)
	if err != nil {
		return nil, err
	}

	gen := r.Generation()
	gens := make(map[*provider.Record]uint64, len(alts))
	for _, a := range alts {
		gens[a] = a.Generation()
	}

	var (
		ok  bool
		alt *provider.Record
	)
	err = c.call(ctx, "is-installed "+r.Key(), func(ctx context.Context) error {
		var err error
		ok, alt, err = b.IsInstalled(ctx, r, alts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", r.Key(), err)
	}

	if !ok {
		c.applyProbe(r, gen, provider.StatusNotInstalled)
		return nil, nil
	}
	if alt == nil {
		c.applyProbe(r, gen, c.installedStatus(ctx, b, r.ID))
		return nil, nil
	}

	c.applyProbe(r, gen, provider.StatusNotInstalled)
	altGen, known := gens[alt]
	if !known {
		altGen = alt.Generation()
	}
	c.applyProbe(alt, altGen, c.installedStatus(ctx, b, alt.ID))
	return alt, nil
}

// installedStatus pairs the install check with the update check.
func (c *Coordinator) installedStatus(ctx context.Context, b provider.Backend, id string) provider.Status {
	var updatable bool
	err := c.call(ctx, "is-updatable "+id, func(ctx context.Context) error {
		var err error
		updatable, err = b.IsUpdatable(ctx, id)
		return err
	})
	if err != nil {
		c.log.Warn().Err(err).Str("id", id).Msg("update check failed")
	}
	if updatable {
		return provider.StatusUpdateAvailable
	}
	return provider.StatusInstalled
}

// backendScan is what one recheck of a backend saw.
type backendScan struct {
	installed []*provider.Record
	updates   []provider.UpdateCandidate
	// updatesErr is set when the update scan failed; installed is still valid.
	updatesErr error
}

// recheckBackend lists what b has installed and what it can update, and applies
// the result to every tracked record of b.
func (c *Coordinator) recheckBackend(ctx context.Context, b provider.Backend) (backendScan, error) {
	tracked := c.trackedRecords(b.Name())
	gens := make([]uint64, len(tracked))
	for i, r := range tracked {
		gens[i] = r.Generation()
	}

	var installed []*provider.Record
	err := c.call(ctx, "list "+b.Name(), func(ctx context.Context) error {
		var err error
		installed, err = b.ListInstalled(ctx)
		return err
	})
	if err != nil {
		return backendScan{}, fmt.Errorf("%s: %w", b.Name(), err)
	}

	var scan backendScan
	var updates []provider.UpdateCandidate
	err = c.call(ctx, "updates "+b.Name(), func(ctx context.Context) error {
		var err error
		updates, err = b.ListUpdatable(ctx)
		return err
	})
	if err != nil {
		c.log.Warn().Err(err).Str("backend", b.Name()).Msg("update scan failed")
		scan.updatesErr = fmt.Errorf("%s: %w", b.Name(), err)
	}
	updatable := make(map[string]bool, len(updates))
	for _, u := range updates {
		updatable[u.ID] = true
	}

	status := func(id string) provider.Status {
		if updatable[id] {
			return provider.StatusUpdateAvailable
		}
		return provider.StatusInstalled
	}

	present := make(map[string]bool, len(installed))
	for _, r := range installed {
		present[r.Key()] = true
	}
	for i, r := range tracked {
		if present[r.Key()] {
			c.applyProbe(r, gens[i], status(r.ID))
		} else if r.Status().IsInstalled() {
			c.applyProbe(r, gens[i], provider.StatusNotInstalled)
		}
	}

	for _, r := range installed {
		if s := status(r.ID); s != r.Status() {
			r.ApplyProbe(r.Generation(), s)
		}
	}
	// Tracked records were probed above with the generations read before listing.
	scan.installed = c.track(installed, false)
	scan.updates = updates
	return scan, nil
}
