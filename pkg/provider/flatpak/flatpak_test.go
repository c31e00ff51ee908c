package flatpak

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf/pkg/provider"
)

// fakeRunner answers commands by their first argument.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeRunner) record(name string, args []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	sub := f.record(name, args)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outputs[sub], f.errs[sub]
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	sub := f.record(name, args)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[sub]
}

func (f *fakeRunner) Start(_ context.Context, name string, args ...string) error {
	f.record(name, args)
	return nil
}

func (f *fakeRunner) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeRunner) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

const listOutput = "Text Editor\tEdit text files\torg.gnome.TextEditor\t46.3\tstable\tx86_64\torg.gnome.Platform/x86_64/46\tflathub\tsystem\tapp/org.gnome.TextEditor/x86_64/stable\tabc\tabc\t2.1 MB\n" +
	"Builder\tIDE\torg.gnome.Builder\t47.alpha\tmaster\tx86_64\torg.gnome.Sdk/x86_64/master\tgnome-nightly\tuser\tapp/org.gnome.Builder/x86_64/master\tdef\tdef\t120 MB\n"

const searchOutput = "Builder\tIDE\torg.gnome.Builder\t46.0\tstable\tflathub\n" +
	"Builder\tIDE\torg.gnome.Builder\t47.alpha\tmaster\tgnome-nightly\n" +
	"Text Editor\tEdit text files\torg.gnome.TextEditor\t46.3\tstable\tflathub,fedora\n" +
	"Locale\t\torg.gnome.TextEditor.Locale\t\tstable\tflathub\n" +
	"GNOME Platform\t\torg.gnome.Platform\t46\t46\tflathub\n"

func newTestBackend(t *testing.T) (*Backend, *fakeRunner) {
	t.Helper()
	run := newFakeRunner()
	run.outputs["list"] = listOutput
	run.outputs["search"] = searchOutput
	run.outputs["remotes"] = "flathub\tFlathub\thttps://dl.flathub.org/repo/\tsystem\n" +
		"gnome-nightly\t\thttps://nightly.gnome.org/repo/\tuser,no-gpg-verify\n"
	run.outputs["remote-ls"] = "org.gnome.TextEditor\t46.4\tstable\tflathub\t1.0 MB\n"
	return New(DefaultConfig(), run, nil, zerolog.Nop()), run
}

func TestListInstalled(t *testing.T) {
	b, _ := newTestBackend(t)

	records, err := b.ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, "org.gnome.TextEditor", r.ID)
	assert.Equal(t, "Text Editor", r.Name)
	assert.Equal(t, provider.StatusInstalled, r.Status())
	assert.Equal(t, "46.3", r.Version())
	assert.Equal(t, provider.Source{Remote: "flathub", Branch: "stable"}, r.Source())
	require.NotNil(t, r.Size)
	assert.Equal(t, uint64(2_100_000), *r.Size)

	e, err := provider.FlatpakData(records[1])
	require.NoError(t, err)
	assert.Equal(t, "app/org.gnome.Builder/x86_64/master", e.Ref)
	assert.Equal(t, "user", e.Installation)
}

func TestSearch(t *testing.T) {
	b, _ := newTestBackend(t)

	records, err := b.Search(context.Background(), "gnome")
	require.NoError(t, err)
	require.Len(t, records, 4)

	var keys []string
	status := map[string]provider.Status{}
	for _, r := range records {
		keys = append(keys, r.Key())
		status[r.Key()] = r.Status()
	}
	assert.Equal(t, []string{
		"flatpak/org.gnome.Builder@flathub:stable",
		"flatpak/org.gnome.Builder@gnome-nightly:master",
		"flatpak/org.gnome.TextEditor@flathub:stable",
		"flatpak/org.gnome.TextEditor@fedora:stable",
	}, keys)

	assert.Equal(t, provider.StatusNotInstalled, status["flatpak/org.gnome.Builder@flathub:stable"])
	assert.Equal(t, provider.StatusInstalled, status["flatpak/org.gnome.Builder@gnome-nightly:master"])
	assert.Equal(t, provider.StatusInstalled, status["flatpak/org.gnome.TextEditor@flathub:stable"])
	assert.Equal(t, provider.StatusNotInstalled, status["flatpak/org.gnome.TextEditor@fedora:stable"])
}

func TestSearchLimit(t *testing.T) {
	run := newFakeRunner()
	var sb strings.Builder
	for i := 0; i < 150; i++ {
		sb.WriteString("App\tDesc\torg.example.App")
		sb.WriteString(strings.Repeat("x", i))
		sb.WriteString("\t1.0\tstable\tflathub\n")
	}
	run.outputs["search"] = sb.String()
	b := New(Config{}, run, nil, zerolog.Nop())

	records, err := b.Search(context.Background(), "app")
	require.NoError(t, err)
	assert.Len(t, records, 100)
}

func TestSearchNoMatches(t *testing.T) {
	b, run := newTestBackend(t)
	run.outputs["search"] = "No matches found\n"

	records, err := b.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIsInstalledAlternate(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	records, err := b.Search(ctx, "builder")
	require.NoError(t, err)
	stable, nightly := records[0], records[1]

	ok, alt, err := b.IsInstalled(ctx, stable, records)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, nightly, alt)

	ok, alt, err = b.IsInstalled(ctx, nightly, records)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, alt)
}

func TestIsInstalledNot(t *testing.T) {
	b, _ := newTestBackend(t)
	r := provider.NewRecord(Name, "org.example.Nothing", "Nothing", "", provider.StatusUnknown, &provider.FlatpakExtra{Origin: "flathub", Branch: "stable"})

	ok, alt, err := b.IsInstalled(context.Background(), r, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, alt)
}

func TestOperations(t *testing.T) {
	b, run := newTestBackend(t)
	ctx := context.Background()

	r := provider.NewRecord(Name, "org.gnome.Builder", "Builder", "", provider.StatusNotInstalled, &provider.FlatpakExtra{Origin: "flathub", Branch: "stable"})

	require.NoError(t, b.Install(ctx, r))
	assert.Equal(t, "flatpak install -y --noninteractive flathub org.gnome.Builder//stable", run.last())

	installed := provider.NewRecord(Name, "org.gnome.Builder", "Builder", "", provider.StatusInstalled, &provider.FlatpakExtra{
		Origin: "gnome-nightly", Branch: "master", Installation: "user", Ref: "app/org.gnome.Builder/x86_64/master",
	})
	require.NoError(t, b.Uninstall(ctx, installed))
	assert.Equal(t, "flatpak uninstall -y --noninteractive --user app/org.gnome.Builder/x86_64/master", run.last())

	require.NoError(t, b.Update(ctx, installed))
	assert.Equal(t, "flatpak update -y --noninteractive --user app/org.gnome.Builder/x86_64/master", run.last())

	require.NoError(t, b.UpdateAll(ctx))
	assert.Equal(t, "flatpak update -y --noninteractive", run.last())

	require.NoError(t, b.Run(ctx, installed))
	assert.Equal(t, "flatpak run app/org.gnome.Builder/x86_64/master", run.last())
}

func TestOperationContract(t *testing.T) {
	b, run := newTestBackend(t)

	bare := provider.NewRecord(Name, "org.gnome.Builder", "Builder", "", provider.StatusNotInstalled, nil)
	err := b.Install(context.Background(), bare)
	assert.ErrorIs(t, err, provider.ErrContract)

	noOrigin := provider.NewRecord(Name, "org.gnome.Builder", "Builder", "", provider.StatusNotInstalled, &provider.FlatpakExtra{})
	err = b.Install(context.Background(), noOrigin)
	assert.ErrorIs(t, err, provider.ErrContract)

	assert.Equal(t, 0, run.count("flatpak install"))
}

func TestUpdateCache(t *testing.T) {
	b, run := newTestBackend(t)
	ctx := context.Background()

	assert.True(t, b.UpdatesNeedRefresh())

	ok, err := b.IsUpdatable(ctx, "org.gnome.TextEditor")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = b.IsUpdatable(ctx, "org.gnome.Builder")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, b.UpdatesNeedRefresh())
	assert.Equal(t, 1, run.count("flatpak remote-ls"))

	updates, err := b.ListUpdatable(ctx)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "46.4", updates[0].TargetVersion)
	assert.Equal(t, "1.0 MB", updates[0].Size)

	installed := provider.NewRecord(Name, "org.gnome.TextEditor", "Text Editor", "", provider.StatusUpdateAvailable, &provider.FlatpakExtra{Origin: "flathub", Branch: "stable"})
	require.NoError(t, b.Update(ctx, installed))
	assert.True(t, b.UpdatesNeedRefresh())
}

func TestUpdateFailureInvalidates(t *testing.T) {
	b, run := newTestBackend(t)
	ctx := context.Background()
	_, err := b.ListUpdatable(ctx)
	require.NoError(t, err)

	run.errs["update"] = errors.New("exit status 1")
	err = b.UpdateAll(ctx)
	require.Error(t, err)
	assert.True(t, b.UpdatesNeedRefresh())
}

func TestSourceLabels(t *testing.T) {
	b, run := newTestBackend(t)

	assert.Equal(t, "Flathub", b.SourceLabel("flathub"))
	assert.Equal(t, "gnome-nightly", b.SourceLabel("gnome-nightly"))
	assert.Equal(t, "unknown", b.SourceLabel("unknown"))
	assert.Equal(t, 1, run.count("flatpak remotes"))

	r := provider.NewRecord(Name, "org.gnome.TextEditor", "Text Editor", "", provider.StatusInstalled, &provider.FlatpakExtra{Origin: "flathub", Branch: "stable"})
	assert.Equal(t, "Flathub (stable)", b.InstalledFrom(r))

	remotes, err := b.Remotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user", "no-gpg-verify"}, remotes["gnome-nightly"].Options)

	b.InvalidateUpdates()
	b.SourceLabel("flathub")
	assert.Equal(t, 2, run.count("flatpak remotes"))
}

func TestImportFlatpakref(t *testing.T) {
	b, run := newTestBackend(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "org.gnome.Maps.flatpakref")
	require.NoError(t, os.WriteFile(path, []byte(`[Flatpak Ref]
Name=org.gnome.Maps
Branch=stable
Title=Maps
Url=https://dl.flathub.org/repo/
SuggestRemoteName=flathub
IsRuntime=false
`), 0o644))

	assert.True(t, b.CanImportFile(path))
	assert.False(t, b.CanImportFile(filepath.Join(dir, "x.appimage")))

	r, err := b.RecordFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "org.gnome.Maps", r.ID)
	assert.Equal(t, "Maps", r.Name)
	assert.Equal(t, provider.StatusNotInstalled, r.Status())
	assert.Equal(t, provider.Source{Remote: "flathub", Branch: "stable"}, r.Source())

	require.NoError(t, b.InstallFile(context.Background(), r))
	assert.Equal(t, "flatpak install -y --noninteractive --from "+path, run.last())
}

func TestImportBundle(t *testing.T) {
	b, run := newTestBackend(t)
	path := filepath.Join(t.TempDir(), "tool.flatpak")
	require.NoError(t, os.WriteFile(path, []byte("bundle"), 0o644))

	r, err := b.RecordFromFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "tool", r.ID)
	assert.Equal(t, "Local file", b.InstalledFrom(r))

	require.NoError(t, b.InstallFile(context.Background(), r))
	assert.Equal(t, "flatpak install -y --noninteractive --bundle "+path, run.last())
}

func TestImportInvalidRef(t *testing.T) {
	b, _ := newTestBackend(t)
	path := filepath.Join(t.TempDir(), "bad.flatpakref")
	require.NoError(t, os.WriteFile(path, []byte("[Other]\nName=x\n"), 0o644))

	_, err := b.RecordFromFile(context.Background(), path)
	assert.Error(t, err)
}
