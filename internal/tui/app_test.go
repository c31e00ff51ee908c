package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/pkg/coordinator"
	"shelf/pkg/provider"
	"shelf/pkg/provider/providertest"
	"shelf/pkg/sources"
)

func newTestApp(t *testing.T) (*App, *providertest.Backend) {
	t.Helper()
	fp := providertest.New("flatpak")
	reg := provider.NewRegistry([]string{"flatpak"}, fp)
	coord := coordinator.New(reg, coordinator.Options{Logger: zerolog.Nop()})
	t.Cleanup(coord.Wait)

	app := NewApp(context.Background(), coord, nil)
	t.Cleanup(app.unsubscribe)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return app, fp
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabsCycle(t *testing.T) {
	m := NewModel(nil, nil)
	assert.Equal(t, ViewInstalled, m.activeView)

	m.NextTab()
	assert.Equal(t, ViewSearch, m.activeView)
	m.PrevTab()
	m.PrevTab()
	assert.Equal(t, ViewHistory, m.activeView)
	m.SetTab(2)
	assert.Equal(t, "Updates", m.CurrentTab().Name)
}

func TestNumberKeysOpenTabs(t *testing.T) {
	app, _ := newTestApp(t)

	require.Len(t, app.keys.Tabs, len(app.tabs))
	assert.Equal(t, "updates", app.keys.Tabs[2].Help().Desc)

	app.Update(press("4"))
	assert.Equal(t, ViewHistory, app.activeView)
	app.Update(press("1"))
	assert.Equal(t, ViewInstalled, app.activeView)
	app.Update(press("j"))
	app.Update(press("G"))
	assert.Equal(t, ViewInstalled, app.activeView)
}

func TestFilterAndCursor(t *testing.T) {
	fp := providertest.New("flatpak")
	m := NewModel(nil, nil)
	m.SetSize(80, 10)
	m.installed = []*provider.Record{
		fp.Record("org.gnome.Maps", "Maps", "flathub", "stable", "46"),
		fp.Record("org.kde.kate", "Kate", "flathub", "stable", "24.02"),
		fp.Record("org.gimp.GIMP", "GIMP", "flathub", "stable", "2.10"),
	}

	assert.Len(t, m.ListItems(), 3)

	m.MoveCursor(10)
	assert.Equal(t, 2, m.Cursor())
	m.MoveCursor(-10)
	assert.Equal(t, 0, m.Cursor())

	m.filterText = "kate"
	items := m.ListItems()
	require.Len(t, items, 1)
	assert.Equal(t, "org.kde.kate", items[0].Record.ID)
	assert.Equal(t, "org.kde.kate", m.SelectedItem().Record.ID)
}

func TestSearchItemsFollowActiveSource(t *testing.T) {
	fp := providertest.New("flatpak")
	m := NewModel(nil, nil)
	m.SetTab(1)
	m.groups = sources.GroupRecords([]*provider.Record{
		fp.Record("org.gnome.TextEditor", "Text Editor", "gnome-nightly", "master", "47.alpha"),
		fp.Record("org.gnome.TextEditor", "Text Editor", "flathub", "stable", "46"),
	})

	items := m.ListItems()
	require.Len(t, items, 1)
	assert.Equal(t, "flathub:stable", items[0].Record.Source().ID())
	assert.NotNil(t, items[0].Group)
}

func TestInstallFromSearchDeliversEvents(t *testing.T) {
	app, fp := newTestApp(t)
	r := fp.Record("org.gnome.Maps", "Maps", "flathub", "stable", "46")
	app.SetTab(1)
	app.groups = sources.GroupRecords([]*provider.Record{r})

	app.Update(press("i"))
	require.True(t, app.showConfirm)
	assert.Contains(t, app.confirmTitle, "Install Maps from flathub:stable")

	app.Update(press("y"))
	assert.Empty(t, app.errorMsg)

	// Drain events until the operation finished.
	deadline := time.After(5 * time.Second)
	for {
		var ev coordinator.Event
		select {
		case ev = <-app.events:
		case <-deadline:
			t.Fatal("no OperationFinished event")
		}
		app.Update(eventMsg(ev))
		if ev.Kind == coordinator.EventOperationFinished {
			break
		}
	}

	assert.Equal(t, provider.StatusInstalled, r.Status())
	assert.Equal(t, "install Maps: done", app.successMsg)
	assert.Contains(t, app.View(), "installed")
}

func TestBusyRecordShowsError(t *testing.T) {
	app, fp := newTestApp(t)
	fp.Gate = make(chan struct{})
	defer close(fp.Gate)

	r := fp.Record("org.gnome.Maps", "Maps", "flathub", "stable", "46")
	_, err := app.coord.Install(context.Background(), r, nil)
	require.NoError(t, err)

	app.start(app.coord.Install(context.Background(), r, nil))
	assert.Equal(t, "Another operation is running for this application", app.errorMsg)
}

func TestBackendUpdatedEndsBulkUpdate(t *testing.T) {
	app, _ := newTestApp(t)
	app.bulkRunning = 1
	app.SetLoading(true, "Updating all...")

	app.Update(eventMsg(coordinator.Event{
		Kind:    coordinator.EventBackendUpdated,
		Backend: coordinator.BackendResult{Backend: "flatpak", Err: errors.New("remote unreachable")},
	}))

	assert.False(t, app.loading)
	assert.Equal(t, 0, app.bulkRunning)
	assert.Equal(t, "flatpak: remote unreachable", app.errorMsg)
}

func TestStaleSearchResultsIgnored(t *testing.T) {
	app, fp := newTestApp(t)
	app.searchQuery = "maps"

	app.Update(searchResultsMsg{query: "old", groups: sources.GroupRecords([]*provider.Record{
		fp.Record("org.kde.kate", "Kate", "flathub", "stable", "24.02"),
	})})
	assert.Empty(t, app.groups)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.True(t, strings.HasSuffix(truncate(strings.Repeat("x", 50), 10), "..."))
}
