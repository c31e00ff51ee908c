// Package flatpak implements the Flatpak backend.
package flatpak

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"shelf/internal/executor"
	"shelf/pkg/provider"
)

// Name is the registry key of the backend.
const Name = "flatpak"

const binary = "flatpak"

var listColumns = []string{
	"name", "description", "application", "version", "branch", "arch",
	"runtime", "origin", "installation", "ref", "active", "latest", "size",
}

var searchColumns = []string{"name", "description", "application", "version", "branch", "remotes"}

var updateColumns = []string{"application", "version", "branch", "origin", "download-size"}

// Config configures the backend.
type Config struct {
	// Installation restricts commands to "user" or "system". Empty means both.
	Installation   string
	DefaultRemote  string
	DefaultBranch  string
	SearchLimit    int
	IgnorePrefixes []string
	IgnoreSuffixes []string
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		DefaultRemote: "flathub",
		DefaultBranch: "stable",
		SearchLimit:   100,
		IgnorePrefixes: []string{
			"org.freedesktop.Platform",
			"org.freedesktop.Sdk",
			"org.gnome.Platform",
			"org.gnome.Sdk",
			"org.kde.Platform",
			"org.kde.Sdk",
			"org.gtk.Gtk3theme.",
			"org.kde.KStyle.",
			"org.kde.PlatformTheme.",
			"org.kde.WaylandDecoration.",
		},
		IgnoreSuffixes: []string{".Locale", ".Debug", ".Sources", ".BaseApp", ".Extension"},
	}
}

// Describer fetches long descriptions from a metadata service.
type Describer interface {
	Description(ctx context.Context, id string) string
}

// Backend drives the flatpak CLI.
type Backend struct {
	cfg  Config
	run  executor.Runner
	meta Describer
	log  zerolog.Logger

	updates *provider.UpdateCache

	remotesMu sync.Mutex
	remotes   map[string]Remote
}

// New creates a Flatpak backend. meta may be nil.
func New(cfg Config, run executor.Runner, meta Describer, log zerolog.Logger) *Backend {
	def := DefaultConfig()
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.DefaultRemote == "" {
		cfg.DefaultRemote = def.DefaultRemote
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = def.DefaultBranch
	}
	b := &Backend{
		cfg:  cfg,
		run:  run,
		meta: meta,
		log:  log.With().Str("backend", Name).Logger(),
	}
	b.updates = provider.NewUpdateCache(b.scanUpdates)
	return b
}

// Name returns the registry key.
func (b *Backend) Name() string { return Name }

// DisplayName returns the human-readable name.
func (b *Backend) DisplayName() string { return "Flatpak" }

// IsAvailable returns true if flatpak can be invoked.
func (b *Backend) IsAvailable() bool {
	if executor.InSandbox() {
		return true
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// Validate checks that r carries Flatpak data usable by the operations.
func (b *Backend) Validate(r *provider.Record) error {
	e, err := provider.FlatpakData(r)
	if err != nil {
		return err
	}
	if r.ID == "" {
		return fmt.Errorf("%w: flatpak record without application id", provider.ErrContract)
	}
	if e.FilePath == "" && e.Origin == "" && e.Ref == "" {
		return fmt.Errorf("%w: flatpak record %q has neither origin nor ref", provider.ErrContract, r.ID)
	}
	return nil
}

// ListInstalled returns the installed applications.
func (b *Backend) ListInstalled(ctx context.Context) ([]*provider.Record, error) {
	args := append([]string{"list", "--app", "--columns=" + strings.Join(listColumns, ",")}, b.scope()...)
	output, err := b.run.Output(ctx, binary, args...)
	if err != nil {
		return nil, fmt.Errorf("flatpak list: %w", err)
	}
	return parseList(output), nil
}

func parseList(output string) []*provider.Record {
	var records []*provider.Record
	for _, fields := range rows(output, 3) {
		col := func(i int) string {
			if i < len(fields) {
				return strings.TrimSpace(fields[i])
			}
			return ""
		}

		r := provider.NewRecord(Name, col(2), col(0), col(1), provider.StatusInstalled, &provider.FlatpakExtra{
			Origin:       col(7),
			Branch:       col(4),
			Arch:         col(5),
			Ref:          col(9),
			AppVersion:   col(3),
			Installation: col(8),
			Runtime:      col(6),
		})
		r.Size = parseSize(col(12))
		records = append(records, r)
	}
	return records
}

// parseSize accepts flatpak's human sizes, which may use a non-breaking space.
func parseSize(s string) *uint64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\u00a0", " ")
	if s == "" {
		return nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return nil
	}
	return &n
}

// IsInstalled reports whether r or one of alts is installed.
func (b *Backend) IsInstalled(ctx context.Context, r *provider.Record, alts []*provider.Record) (bool, *provider.Record, error) {
	installed, err := b.ListInstalled(ctx)
	if err != nil {
		return false, nil, err
	}

	if matchInstalled(installed, r) {
		return true, nil, nil
	}
	for _, alt := range alts {
		if alt == r || alt.ID != r.ID {
			continue
		}
		if matchInstalled(installed, alt) {
			return true, alt, nil
		}
	}
	return false, nil, nil
}

// matchInstalled compares id and, when r knows its source, origin and branch.
func matchInstalled(installed []*provider.Record, r *provider.Record) bool {
	return installedFrom(installed, r.ID, r.Source())
}

func installedFrom(installed []*provider.Record, id string, want provider.Source) bool {
	for _, in := range installed {
		if in.ID != id {
			continue
		}
		if want.Remote == "" || want.Remote == provider.LocalRemote {
			return true
		}
		got := in.Source()
		if got.Remote == want.Remote && (want.Branch == "" || got.Branch == want.Branch) {
			return true
		}
	}
	return false
}

// Search queries the configured remotes. Each remote offering an application yields
// its own record.
func (b *Backend) Search(ctx context.Context, query string) ([]*provider.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	output, err := b.run.Output(ctx, binary, "search", "--columns="+strings.Join(searchColumns, ","), query)
	if err != nil {
		return nil, fmt.Errorf("flatpak search: %w", err)
	}

	installed, err := b.ListInstalled(ctx)
	if err != nil {
		b.log.Warn().Err(err).Msg("cannot annotate search results")
	}

	var records []*provider.Record
	for _, fields := range rows(output, 3) {
		for len(fields) < len(searchColumns) {
			fields = append(fields, "")
		}
		id := strings.TrimSpace(fields[2])
		if b.ignored(id) {
			continue
		}

		for _, remote := range strings.Split(fields[5], ",") {
			remote = strings.TrimSpace(remote)
			if remote == "" {
				continue
			}
			extra := &provider.FlatpakExtra{
				Origin:     remote,
				Branch:     strings.TrimSpace(fields[4]),
				AppVersion: strings.TrimSpace(fields[3]),
			}
			status := provider.StatusNotInstalled
			if installedFrom(installed, id, extra.Source()) {
				status = provider.StatusInstalled
			}
			records = append(records, provider.NewRecord(Name, id, strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]), status, extra))
			if len(records) >= b.cfg.SearchLimit {
				return records, nil
			}
		}
	}
	return records, nil
}

func (b *Backend) ignored(id string) bool {
	if id == "" {
		return true
	}
	for _, p := range b.cfg.IgnorePrefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	for _, s := range b.cfg.IgnoreSuffixes {
		if strings.HasSuffix(id, s) {
			return true
		}
	}
	return false
}

// LongDescription returns the metadata service description, or "".
func (b *Backend) LongDescription(ctx context.Context, r *provider.Record) string {
	if b.meta == nil {
		return ""
	}
	return b.meta.Description(ctx, r.ID)
}

// InstalledFrom describes the origin of r.
func (b *Backend) InstalledFrom(r *provider.Record) string {
	e, err := provider.FlatpakData(r)
	if err != nil {
		return ""
	}
	if e.FilePath != "" && (e.Origin == "" || e.Origin == provider.LocalRemote) {
		return "Local file"
	}
	label := b.SourceLabel(e.Origin)
	if e.Branch != "" {
		label += " (" + e.Branch + ")"
	}
	return label
}

// Install installs r from its origin.
func (b *Backend) Install(ctx context.Context, r *provider.Record) error {
	if err := b.Validate(r); err != nil {
		return err
	}
	defer b.InvalidateUpdates()

	e, _ := provider.FlatpakData(r)
	if e.FilePath != "" {
		return b.installFile(ctx, e)
	}

	args := append([]string{"install", "-y", "--noninteractive"}, b.scope()...)
	args = append(args, e.Origin, b.ref(r, e))
	return b.run.Run(ctx, binary, args...)
}

// Uninstall removes r.
func (b *Backend) Uninstall(ctx context.Context, r *provider.Record) error {
	if err := b.Validate(r); err != nil {
		return err
	}
	defer b.InvalidateUpdates()

	e, _ := provider.FlatpakData(r)
	args := append([]string{"uninstall", "-y", "--noninteractive"}, b.installationOf(e)...)
	args = append(args, b.ref(r, e))
	return b.run.Run(ctx, binary, args...)
}

// Update updates r to the latest commit of its branch.
func (b *Backend) Update(ctx context.Context, r *provider.Record) error {
	if err := b.Validate(r); err != nil {
		return err
	}
	defer b.InvalidateUpdates()

	e, _ := provider.FlatpakData(r)
	args := append([]string{"update", "-y", "--noninteractive"}, b.installationOf(e)...)
	args = append(args, b.ref(r, e))
	return b.run.Run(ctx, binary, args...)
}

// UpdateAll updates every installed application and runtime.
func (b *Backend) UpdateAll(ctx context.Context) error {
	defer b.InvalidateUpdates()

	args := append([]string{"update", "-y", "--noninteractive"}, b.scope()...)
	return b.run.Run(ctx, binary, args...)
}

// ListUpdatable returns the pending updates from the update cache.
func (b *Backend) ListUpdatable(ctx context.Context) ([]provider.UpdateCandidate, error) {
	return b.updates.List(ctx)
}

// IsUpdatable answers from the update cache.
func (b *Backend) IsUpdatable(ctx context.Context, id string) (bool, error) {
	return b.updates.Contains(ctx, id)
}

// UpdatesNeedRefresh reports whether the update cache is dirty.
func (b *Backend) UpdatesNeedRefresh() bool { return b.updates.NeedsRefresh() }

// InvalidateUpdates marks the update cache and the remotes cache dirty.
func (b *Backend) InvalidateUpdates() {
	b.updates.Invalidate()

	b.remotesMu.Lock()
	b.remotes = nil
	b.remotesMu.Unlock()
}

func (b *Backend) scanUpdates(ctx context.Context) ([]provider.UpdateCandidate, error) {
	args := append([]string{"remote-ls", "--updates", "--app", "--columns=" + strings.Join(updateColumns, ",")}, b.scope()...)
	output, err := b.run.Output(ctx, binary, args...)
	if err != nil {
		return nil, fmt.Errorf("flatpak remote-ls --updates: %w", err)
	}

	var out []provider.UpdateCandidate
	for _, fields := range rows(output, 1) {
		for len(fields) < len(updateColumns) {
			fields = append(fields, "")
		}
		id := strings.TrimSpace(fields[0])
		if id == "" {
			continue
		}
		out = append(out, provider.UpdateCandidate{
			ID:            id,
			TargetVersion: strings.TrimSpace(fields[1]),
			Branch:        strings.TrimSpace(fields[2]),
			Origin:        strings.TrimSpace(fields[3]),
			Size:          strings.ReplaceAll(strings.TrimSpace(fields[4]), "\u00a0", " "),
		})
	}
	return out, nil
}

// Run launches the application.
func (b *Backend) Run(ctx context.Context, r *provider.Record) error {
	if err := b.Validate(r); err != nil {
		return err
	}
	e, _ := provider.FlatpakData(r)
	return b.run.Start(ctx, binary, "run", b.ref(r, e))
}

// ref returns the installed ref, or the partial "id//branch" ref for remote records.
func (b *Backend) ref(r *provider.Record, e *provider.FlatpakExtra) string {
	if e.Ref != "" {
		return e.Ref
	}
	if e.Branch == "" {
		return r.ID
	}
	return r.ID + "//" + e.Branch
}

func (b *Backend) scope() []string {
	return installationFlag(b.cfg.Installation)
}

// installationOf prefers the installation the record was found in.
func (b *Backend) installationOf(e *provider.FlatpakExtra) []string {
	if flag := installationFlag(e.Installation); flag != nil {
		return flag
	}
	return b.scope()
}

func installationFlag(installation string) []string {
	switch installation {
	case "user":
		return []string{"--user"}
	case "system":
		return []string{"--system"}
	}
	return nil
}

// rows splits tab-separated CLI output, skipping lines with fewer than min fields.
func rows(output string, min int) [][]string {
	var out [][]string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < min {
			continue
		}
		out = append(out, fields)
	}
	return out
}

func trimExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
