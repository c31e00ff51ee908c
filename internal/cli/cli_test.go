package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/internal/config"
	"shelf/internal/history"
	"shelf/pkg/provider"
	"shelf/pkg/provider/providertest"
)

func init() {
	color.NoColor = true
}

type fixture struct {
	flatpak  *providertest.Backend
	appimage *providertest.Backend
}

func setup(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	f := &fixture{
		flatpak:  providertest.New("flatpak"),
		appimage: providertest.New("appimage"),
	}
	f.flatpak.AddCatalog(
		f.flatpak.Record("org.gnome.Maps", "Maps", "gnome-nightly", "master", "47.alpha"),
		f.flatpak.Record("org.gnome.Maps", "Maps", "flathub", "stable", "46"),
		f.flatpak.Record("org.gnome.Weather", "Weather", "flathub", "stable", "46"),
	)

	prev := newRegistry
	newRegistry = func(*config.Config, zerolog.Logger) (*provider.Registry, error) {
		return provider.NewRegistry([]string{"flatpak", "appimage"}, f.flatpak, f.appimage), nil
	}
	t.Cleanup(func() {
		newRegistry = prev
		cfgFile, backend = "", ""
		dryRun, yes, verbose, noColor = false, false, false, false
		installSource, updateAll = "", false
		listLimit, listPattern, searchLimit = 0, "", 0
		historyLimit, historyFailed, historyOp = 10, false, ""
	})
	return f
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return Execute()
}

func installed(t *testing.T, b *providertest.Backend) []string {
	t.Helper()
	records, err := b.ListInstalled(context.Background())
	require.NoError(t, err)
	var keys []string
	for _, r := range records {
		keys = append(keys, r.Key())
	}
	return keys
}

func historyEntries(t *testing.T) []history.Entry {
	t.Helper()
	s, err := history.Open(config.HistoryPath())
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(0)
	require.NoError(t, err)
	return entries
}

func TestInstallPrefersStableBranch(t *testing.T) {
	f := setup(t)

	require.NoError(t, execute("install", "-y", "org.gnome.Maps"))

	assert.Equal(t, []string{"flatpak/org.gnome.Maps@flathub:stable"}, installed(t, f.flatpak))
	entries := historyEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, provider.OpInstall, entries[0].Operation)
	assert.True(t, entries[0].Success)
}

func TestInstallWithSource(t *testing.T) {
	f := setup(t)

	require.NoError(t, execute("install", "-y", "maps", "--source", "gnome-nightly:master"))

	assert.Equal(t, []string{"flatpak/org.gnome.Maps@gnome-nightly:master"}, installed(t, f.flatpak))
}

func TestInstallUnknownSource(t *testing.T) {
	setup(t)

	err := execute("install", "-y", "org.gnome.Maps", "--source", "kde:stable")
	assert.True(t, errors.Is(err, provider.ErrContract), "got %v", err)
}

func TestInstallNotFound(t *testing.T) {
	f := setup(t)

	err := execute("install", "-y", "org.example.Missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	assert.Zero(t, f.flatpak.Calls("Install"))
}

func TestInstallSkipsInstalled(t *testing.T) {
	f := setup(t)
	f.flatpak.SetInstalled("org.gnome.Maps", provider.Source{Remote: "flathub", Branch: "stable"}, true)

	require.NoError(t, execute("install", "-y", "org.gnome.Maps"))
	assert.Zero(t, f.flatpak.Calls("Install"))
}

func TestInstallAmbiguousName(t *testing.T) {
	f := setup(t)
	f.appimage.AddCatalog(f.appimage.Record("maps-appimage", "Maps", provider.LocalRemote, "", "1.0"))

	err := execute("install", "-y", "Maps")
	assert.True(t, errors.Is(err, ErrAmbiguous), "got %v", err)

	// The backend filter resolves the ambiguity.
	require.NoError(t, execute("install", "-y", "-b", "appimage", "Maps"))
	assert.Equal(t, 1, f.appimage.Calls("Install"))
	assert.Zero(t, f.flatpak.Calls("Install"))
}

func TestInstallFailureIsReported(t *testing.T) {
	f := setup(t)
	f.flatpak.InstallErr = errors.New("remote unreachable")

	err := execute("install", "-y", "org.gnome.Maps", "org.gnome.Weather")
	assert.True(t, errors.Is(err, ErrFailed), "got %v", err)
	assert.Equal(t, 2, f.flatpak.Calls("Install"))

	entries := historyEntries(t)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Success)
		assert.Equal(t, "remote unreachable", e.Error)
	}
}

func TestUninstall(t *testing.T) {
	f := setup(t)
	f.flatpak.SetInstalled("org.gnome.Weather", provider.Source{Remote: "flathub", Branch: "stable"}, true)

	require.NoError(t, execute("uninstall", "-y", "Weather"))
	assert.Equal(t, 1, f.flatpak.Calls("Uninstall"))
	assert.Empty(t, installed(t, f.flatpak))
}

func TestUninstallNotInstalled(t *testing.T) {
	setup(t)

	err := execute("uninstall", "-y", "org.gnome.Maps")
	assert.True(t, errors.Is(err, ErrNotInstalled), "got %v", err)
}

func TestUpdatePending(t *testing.T) {
	f := setup(t)
	f.flatpak.SetInstalled("org.gnome.Maps", provider.Source{Remote: "flathub", Branch: "stable"}, true)
	f.flatpak.SetInstalled("org.gnome.Weather", provider.Source{Remote: "flathub", Branch: "stable"}, true)
	f.flatpak.SetUpdate("org.gnome.Maps", "47")

	require.NoError(t, execute("update", "-y"))
	assert.Equal(t, 1, f.flatpak.Calls("Update"))

	require.NoError(t, execute("updates"))
}

func TestUpdateAll(t *testing.T) {
	f := setup(t)
	f.appimage.UpdateAllErr = errors.New("no network")

	err := execute("update", "--all", "-y")
	assert.True(t, errors.Is(err, ErrFailed), "got %v", err)
	assert.Equal(t, 1, f.flatpak.Calls("UpdateAll"))
	assert.Equal(t, 1, f.appimage.Calls("UpdateAll"))

	entries := historyEntries(t)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, provider.OpUpdateAll, e.Operation)
	}
}

func TestImport(t *testing.T) {
	f := setup(t)
	path := filepath.Join(t.TempDir(), "Tool.appimage")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o755))

	require.NoError(t, execute("import", "-y", path))
	assert.Equal(t, 1, f.appimage.Calls("Install"))
	assert.Zero(t, f.flatpak.Calls("Install"))
}

func TestImportUnsupported(t *testing.T) {
	setup(t)

	err := execute("import", "-y", "notes.txt")
	assert.True(t, errors.Is(err, provider.ErrUnsupported), "got %v", err)
}

func TestRunInstalled(t *testing.T) {
	f := setup(t)
	f.flatpak.SetInstalled("org.gnome.Maps", provider.Source{Remote: "flathub", Branch: "stable"}, true)

	require.NoError(t, execute("run", "Maps"))
	assert.Equal(t, 1, f.flatpak.Calls("Run"))
}

func TestReadOnlyCommands(t *testing.T) {
	f := setup(t)
	f.flatpak.SetInstalled("org.gnome.Maps", provider.Source{Remote: "flathub", Branch: "stable"}, true)

	for _, args := range [][]string{
		{"version"},
		{"list"},
		{"list", "-p", "weather"},
		{"search", "gnome"},
		{"info", "org.gnome.Maps"},
		{"info", "Weather"},
		{"sources", "org.gnome.Maps"},
		{"history", "--failed"},
		{"history", "prune", "--older-than", time.Hour.String()},
	} {
		assert.NoError(t, execute(args...), "%v", args)
	}
}

func TestHistoryClear(t *testing.T) {
	setup(t)

	require.NoError(t, execute("install", "-y", "org.gnome.Weather"))
	require.Len(t, historyEntries(t), 1)

	require.NoError(t, execute("history", "clear", "-y"))
	assert.Empty(t, historyEntries(t))
}
