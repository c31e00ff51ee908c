// Package providertest provides an in-memory provider.Backend for tests.
package providertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"shelf/pkg/provider"
)

// Extra is the extra-data variant used by fake backends.
type Extra struct {
	Owner  string
	Remote string
	Branch string
	Ver    string
}

func (e *Extra) Backend() string { return e.Owner }
func (e *Extra) Version() string { return e.Ver }

func (e *Extra) Source() provider.Source {
	return provider.Source{Remote: e.Remote, Branch: e.Branch}
}

// Backend is a scriptable in-memory backend. The exported error and panic fields
// may be set before the backend is used concurrently.
type Backend struct {
	name string

	InstallErr   error
	UninstallErr error
	UpdateErr    error
	UpdateAllErr error
	ListErr      error

	// PanicOn makes the given operation panic instead of returning.
	PanicOn provider.Operation

	// Gate, when set, blocks status-changing operations until it is closed.
	Gate chan struct{}

	mu        sync.Mutex
	catalog   []*provider.Record
	installed map[string]bool
	updates   map[string]string
	calls     map[string]int
	cache     *provider.UpdateCache
}

// New creates a fake backend registered under name.
func New(name string) *Backend {
	b := &Backend{
		name:      name,
		installed: make(map[string]bool),
		updates:   make(map[string]string),
		calls:     make(map[string]int),
	}
	b.cache = provider.NewUpdateCache(b.scan)
	return b
}

// Record creates a record owned by this backend.
func (b *Backend) Record(id, name, remote, branch, version string) *provider.Record {
	return provider.NewRecord(b.name, id, name, "", provider.StatusNotInstalled, &Extra{
		Owner:  b.name,
		Remote: remote,
		Branch: branch,
		Ver:    version,
	})
}

// AddCatalog makes records discoverable through Search.
func (b *Backend) AddCatalog(records ...*provider.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalog = append(b.catalog, records...)
}

// SetInstalled marks id from src as installed or not.
func (b *Backend) SetInstalled(id string, src provider.Source, installed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.installed[key(id, src)] = installed
}

// SetUpdate announces an update of id to version. It does not invalidate the cache.
func (b *Backend) SetUpdate(id, version string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates[id] = version
}

// Calls returns how often the named method ran.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// Scans returns how many update scans were executed.
func (b *Backend) Scans() int64 {
	return b.cache.Scans()
}

func key(id string, src provider.Source) string {
	return id + "@" + src.ID()
}

func (b *Backend) count(method string) {
	b.mu.Lock()
	b.calls[method]++
	b.mu.Unlock()
}

func (b *Backend) wait(ctx context.Context, op provider.Operation) error {
	if b.Gate != nil {
		select {
		case <-b.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if b.PanicOn == op {
		panic(fmt.Sprintf("%s: simulated %s crash", b.name, op))
	}
	return nil
}

func (b *Backend) Name() string        { return b.name }
func (b *Backend) DisplayName() string { return strings.ToUpper(b.name) }
func (b *Backend) IsAvailable() bool   { return true }

func (b *Backend) Validate(r *provider.Record) error {
	if _, ok := r.Extra.(*Extra); !ok {
		return fmt.Errorf("%w: %s record without fake extra", provider.ErrContract, b.name)
	}
	return nil
}

func (b *Backend) ListInstalled(_ context.Context) ([]*provider.Record, error) {
	b.count("ListInstalled")
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*provider.Record
	for _, r := range b.catalog {
		if b.installed[key(r.ID, r.Source())] {
			e := r.Extra.(*Extra)
			out = append(out, provider.NewRecord(b.name, r.ID, r.Name, r.Description, provider.StatusInstalled, &Extra{
				Owner: b.name, Remote: e.Remote, Branch: e.Branch, Ver: e.Ver,
			}))
		}
	}
	return out, nil
}

func (b *Backend) IsInstalled(_ context.Context, r *provider.Record, alts []*provider.Record) (bool, *provider.Record, error) {
	b.count("IsInstalled")
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.installed[key(r.ID, r.Source())] {
		return true, nil, nil
	}
	for _, alt := range alts {
		if alt != r && b.installed[key(alt.ID, alt.Source())] {
			return true, alt, nil
		}
	}
	return false, nil, nil
}

func (b *Backend) Search(_ context.Context, query string) ([]*provider.Record, error) {
	b.count("Search")
	b.mu.Lock()
	defer b.mu.Unlock()

	q := strings.ToLower(query)
	var out []*provider.Record
	for _, r := range b.catalog {
		if !strings.Contains(strings.ToLower(r.Name+" "+r.ID), q) {
			continue
		}
		e := r.Extra.(*Extra)
		status := provider.StatusNotInstalled
		if b.installed[key(r.ID, r.Source())] {
			status = provider.StatusInstalled
		}
		out = append(out, provider.NewRecord(b.name, r.ID, r.Name, r.Description, status, &Extra{
			Owner: b.name, Remote: e.Remote, Branch: e.Branch, Ver: e.Ver,
		}))
	}
	return out, nil
}

func (b *Backend) LongDescription(_ context.Context, r *provider.Record) string {
	return r.Description
}

func (b *Backend) InstalledFrom(r *provider.Record) string { return r.Source().ID() }
func (b *Backend) SourceLabel(remote string) string        { return remote }

func (b *Backend) Install(ctx context.Context, r *provider.Record) error {
	b.count("Install")
	if err := b.wait(ctx, provider.OpInstall); err != nil {
		return err
	}
	if b.InstallErr != nil {
		return b.InstallErr
	}
	b.SetInstalled(r.ID, r.Source(), true)
	return nil
}

func (b *Backend) Uninstall(ctx context.Context, r *provider.Record) error {
	b.count("Uninstall")
	if err := b.wait(ctx, provider.OpUninstall); err != nil {
		return err
	}
	if b.UninstallErr != nil {
		return b.UninstallErr
	}
	b.SetInstalled(r.ID, r.Source(), false)
	return nil
}

func (b *Backend) Update(ctx context.Context, r *provider.Record) error {
	b.count("Update")
	if err := b.wait(ctx, provider.OpUpdate); err != nil {
		return err
	}
	if b.UpdateErr != nil {
		return b.UpdateErr
	}
	b.mu.Lock()
	delete(b.updates, r.ID)
	b.mu.Unlock()
	return nil
}

func (b *Backend) UpdateAll(ctx context.Context) error {
	b.count("UpdateAll")
	if err := b.wait(ctx, provider.OpUpdateAll); err != nil {
		return err
	}
	if b.UpdateAllErr != nil {
		return b.UpdateAllErr
	}
	b.mu.Lock()
	b.updates = make(map[string]string)
	b.mu.Unlock()
	return nil
}

func (b *Backend) scan(_ context.Context) ([]provider.UpdateCandidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []provider.UpdateCandidate
	for id, version := range b.updates {
		out = append(out, provider.UpdateCandidate{ID: id, TargetVersion: version})
	}
	return out, nil
}

func (b *Backend) ListUpdatable(ctx context.Context) ([]provider.UpdateCandidate, error) {
	return b.cache.List(ctx)
}

func (b *Backend) IsUpdatable(ctx context.Context, id string) (bool, error) {
	return b.cache.Contains(ctx, id)
}

func (b *Backend) UpdatesNeedRefresh() bool { return b.cache.NeedsRefresh() }
func (b *Backend) InvalidateUpdates()       { b.cache.Invalidate() }

func (b *Backend) Run(_ context.Context, _ *provider.Record) error {
	b.count("Run")
	return nil
}

func (b *Backend) CanImportFile(path string) bool {
	return strings.HasSuffix(path, "."+b.name)
}

func (b *Backend) RecordFromFile(_ context.Context, path string) (*provider.Record, error) {
	return b.Record(path, path, provider.LocalRemote, "", ""), nil
}

func (b *Backend) InstallFile(ctx context.Context, r *provider.Record) error {
	return b.Install(ctx, r)
}
