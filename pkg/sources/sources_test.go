package sources_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/pkg/provider"
	"shelf/pkg/provider/providertest"
	"shelf/pkg/sources"
)

// probe derives statuses straight from the backend.
type probe struct {
	b provider.Backend
}

func (p probe) CheckInstalled(ctx context.Context, r *provider.Record, alts []*provider.Record) (*provider.Record, error) {
	gen := r.Generation()
	ok, alt, err := p.b.IsInstalled(ctx, r, alts)
	if err != nil {
		return nil, err
	}
	status := provider.StatusNotInstalled
	if ok && alt == nil {
		status = provider.StatusInstalled
	}
	r.ApplyProbe(gen, status)
	if alt != nil {
		alt.ApplyProbe(alt.Generation(), provider.StatusInstalled)
	}
	return alt, nil
}

func editorBackend(t *testing.T) *providertest.Backend {
	t.Helper()
	b := providertest.New("flatpak")
	b.AddCatalog(
		b.Record("org.gnome.TextEditor", "Text Editor", "gnome-nightly", "master", "47.alpha"),
		b.Record("org.gnome.TextEditor", "Text Editor", "flathub", "stable", "46.3"),
		b.Record("org.gnome.TextEditor", "Text Editor", "flathub", "beta", "47.beta"),
		b.Record("org.kde.kate", "Kate", "flathub", "stable", "24.02"),
	)
	return b
}

func TestGroupRecords(t *testing.T) {
	b := editorBackend(t)
	records, err := b.Search(context.Background(), "e")
	require.NoError(t, err)

	groups := sources.GroupRecords(records)
	require.Len(t, groups, 2)
	assert.Equal(t, "org.gnome.TextEditor", groups[0].ID)
	assert.Len(t, groups[0].Records(), 3)
	assert.Equal(t, "org.kde.kate", groups[1].ID)
	assert.Equal(t, "flatpak", groups[1].Backend)
}

func TestPreselectInstalledSource(t *testing.T) {
	b := editorBackend(t)
	b.SetInstalled("org.gnome.TextEditor", provider.Source{Remote: "flathub", Branch: "beta"}, true)

	records, err := b.Search(context.Background(), "editor")
	require.NoError(t, err)
	require.Equal(t, "gnome-nightly", records[0].Source().Remote)

	g := sources.NewGroup(records)
	assert.Equal(t, "flathub:beta", g.Active().Source().ID())
}

func TestPreselectCanonicalBranch(t *testing.T) {
	b := editorBackend(t)
	records, err := b.Search(context.Background(), "editor")
	require.NoError(t, err)

	g := sources.NewGroup(records)
	assert.Equal(t, "flathub:stable", g.Active().Source().ID())
}

func TestPreselectFirst(t *testing.T) {
	b := providertest.New("flatpak")
	records := []*provider.Record{
		b.Record("a", "A", "r1", "master", ""),
		b.Record("a", "A", "r2", "devel", ""),
	}
	assert.Equal(t, 0, sources.Preselect(records))
}

func TestLabels(t *testing.T) {
	b := editorBackend(t)
	records, err := b.Search(context.Background(), "editor")
	require.NoError(t, err)

	g := sources.NewGroup(records)
	labels := g.Labels(func(remote string) string {
		if remote == "flathub" {
			return "Flathub"
		}
		return remote
	})
	assert.Equal(t, map[string]string{
		"gnome-nightly:master": "gnome-nightly",
		"flathub:stable":       "Flathub (stable)",
		"flathub:beta":         "Flathub (beta)",
	}, labels)

	opts := g.Options(nil)
	require.Len(t, opts, 3)
	assert.Equal(t, "gnome-nightly:master", opts[0].ID)
	assert.Same(t, records[0], opts[0].Record)
}

func TestSelectedSource(t *testing.T) {
	b := editorBackend(t)
	records, err := b.Search(context.Background(), "editor")
	require.NoError(t, err)

	r, err := sources.SelectedSource(records, "flathub:beta")
	require.NoError(t, err)
	assert.Same(t, records[2], r)

	_, err = sources.SelectedSource(records, "flathub:nope")
	assert.ErrorIs(t, err, sources.ErrSourceNotFound)
	assert.ErrorIs(t, err, provider.ErrContract)
}

func TestSelectReDerivesStatus(t *testing.T) {
	b := editorBackend(t)
	ctx := context.Background()
	b.SetInstalled("org.gnome.TextEditor", provider.Source{Remote: "flathub", Branch: "stable"}, true)

	records, err := b.Search(ctx, "editor")
	require.NoError(t, err)
	g := sources.NewGroup(records)
	p := probe{b: b}

	before := g.Active().View()
	require.Equal(t, provider.StatusInstalled, before.Status)

	// The installed stable status must not leak into the beta selection.
	r, err := g.Select(ctx, "flathub:beta", p)
	require.NoError(t, err)
	assert.Equal(t, provider.StatusNotInstalled, r.Status())
	assert.Same(t, r, g.Active())

	back, err := g.Select(ctx, "flathub:stable", p)
	require.NoError(t, err)
	assert.Equal(t, before, back.View())

	_, err = g.Select(ctx, "missing:x", p)
	assert.ErrorIs(t, err, sources.ErrSourceNotFound)
	assert.Same(t, back, g.Active())
}

func TestRefreshFollowsInstalledAlternate(t *testing.T) {
	b := editorBackend(t)
	ctx := context.Background()

	records, err := b.Search(ctx, "editor")
	require.NoError(t, err)
	g := sources.NewGroup(records)
	require.Equal(t, "flathub:stable", g.Active().Source().ID())

	b.SetInstalled("org.gnome.TextEditor", provider.Source{Remote: "gnome-nightly", Branch: "master"}, true)

	active, err := g.Refresh(ctx, probe{b: b})
	require.NoError(t, err)
	assert.Equal(t, "gnome-nightly:master", active.Source().ID())
	assert.Equal(t, provider.StatusInstalled, active.Status())
	assert.Equal(t, provider.StatusNotInstalled, records[1].Status())
}

func TestEmptyGroup(t *testing.T) {
	g := sources.NewGroup(nil)
	assert.Nil(t, g.Active())
	active, err := g.Refresh(context.Background(), probe{})
	assert.NoError(t, err)
	assert.Nil(t, active)
}
