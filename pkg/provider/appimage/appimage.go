// Package appimage implements the backend for local AppImage files.
package appimage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"

	"shelf/pkg/desktop"
	"shelf/pkg/provider"
)

// Name is the registry key of the backend.
const Name = "appimage"

const defaultIcon = "applications-other"

// Runner is the subset of the executor the backend uses.
type Runner interface {
	OutputIn(ctx context.Context, dir, name string, args ...string) (string, error)
	Start(ctx context.Context, name string, args ...string) error
}

// Config configures the backend. All paths must be absolute.
type Config struct {
	// Folder receives installed AppImages.
	Folder string
	// ApplicationsDir receives the desktop files.
	ApplicationsDir string
	// CacheDir holds temporary extractions.
	CacheDir string
}

// Backend manages AppImages in a folder and their desktop files.
type Backend struct {
	cfg Config
	run Runner
	log zerolog.Logger

	updates *provider.UpdateCache

	mu     sync.Mutex
	hashes map[string]hashEntry
}

type hashEntry struct {
	size    int64
	modTime time.Time
	id      string
}

// New creates an AppImage backend.
func New(cfg Config, run Runner, log zerolog.Logger) *Backend {
	b := &Backend{
		cfg:    cfg,
		run:    run,
		log:    log.With().Str("backend", Name).Logger(),
		hashes: make(map[string]hashEntry),
	}
	b.updates = provider.NewUpdateCache(func(context.Context) ([]provider.UpdateCandidate, error) {
		return nil, nil
	})
	return b
}

// Name returns the registry key.
func (b *Backend) Name() string { return Name }

// DisplayName returns the human-readable name.
func (b *Backend) DisplayName() string { return "AppImage" }

// IsAvailable returns true on Linux.
func (b *Backend) IsAvailable() bool { return runtime.GOOS == "linux" }

// Validate checks that r carries a file path.
func (b *Backend) Validate(r *provider.Record) error {
	e, err := provider.AppImageData(r)
	if err != nil {
		return err
	}
	if e.FilePath == "" {
		return fmt.Errorf("%w: appimage record %q has no file path", provider.ErrContract, r.ID)
	}
	return nil
}

// ListInstalled returns the AppImages that have a desktop file pointing into Folder.
func (b *Backend) ListInstalled(ctx context.Context) ([]*provider.Record, error) {
	entries, err := os.ReadDir(b.cfg.ApplicationsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []*provider.Record
	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if de.IsDir() || !desktop.IsDesktopFile(de.Name()) {
			continue
		}
		entry, err := desktop.Load(filepath.Join(b.cfg.ApplicationsDir, de.Name()))
		if err != nil {
			b.log.Warn().Err(err).Msg("skipping desktop file")
			continue
		}

		exec := entry.ExecPath()
		if !within(b.cfg.Folder, exec) {
			continue
		}
		id, err := b.cachedID(exec)
		if err != nil {
			continue
		}

		records = append(records, provider.NewRecord(Name, id, entry.Name, entry.Comment, provider.StatusInstalled, &provider.AppImageExtra{
			FilePath:    exec,
			DesktopFile: entry.Path,
			Desktop:     entry,
			Icon:        entry.Icon,
			AppVersion:  entry.Version,
		}))
	}
	return records, nil
}

// cachedID hashes path, reusing the previous digest while size and mtime are unchanged.
func (b *Backend) cachedID(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	h, ok := b.hashes[path]
	b.mu.Unlock()
	if ok && h.size == info.Size() && h.modTime.Equal(info.ModTime()) {
		return h.id, nil
	}

	id, err := fileID(path)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.hashes[path] = hashEntry{size: info.Size(), modTime: info.ModTime(), id: id}
	b.mu.Unlock()
	return id, nil
}

// IsInstalled compares r's file with the AppImages in Folder. On a match the record's
// file path is moved to the installed copy. AppImages have no alternate sources.
func (b *Backend) IsInstalled(ctx context.Context, r *provider.Record, _ []*provider.Record) (bool, *provider.Record, error) {
	e, err := provider.AppImageData(r)
	if err != nil {
		return false, nil, err
	}
	if e.FilePath == "" {
		return false, nil, nil
	}
	if _, err := os.Stat(e.FilePath); err != nil {
		return false, nil, nil
	}

	entries, err := os.ReadDir(b.cfg.Folder)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}

	for _, de := range entries {
		if err := ctx.Err(); err != nil {
			return false, nil, err
		}
		if de.IsDir() {
			continue
		}
		candidate := filepath.Join(b.cfg.Folder, de.Name())
		if kind, err := Detect(candidate); err != nil || kind == KindNone {
			continue
		}
		same, err := sameContents(candidate, e.FilePath)
		if err != nil || !same {
			continue
		}
		e.FilePath = candidate
		if e.DesktopFile == "" {
			e.DesktopFile = b.desktopFileFor(candidate)
		}
		return true, nil, nil
	}
	return false, nil, nil
}

// desktopFileFor finds the desktop file launching path.
func (b *Backend) desktopFileFor(path string) string {
	entries, err := os.ReadDir(b.cfg.ApplicationsDir)
	if err != nil {
		return ""
	}
	for _, de := range entries {
		if !desktop.IsDesktopFile(de.Name()) {
			continue
		}
		entry, err := desktop.Load(filepath.Join(b.cfg.ApplicationsDir, de.Name()))
		if err == nil && entry.ExecPath() == path {
			return entry.Path
		}
	}
	return ""
}

type recordSource []*provider.Record

func (s recordSource) String(i int) string { return s[i].Name + " " + s[i].Description }
func (s recordSource) Len() int            { return len(s) }

// Search fuzzy-matches the installed AppImages. There is no remote catalogue.
func (b *Backend) Search(ctx context.Context, query string) ([]*provider.Record, error) {
	installed, err := b.ListInstalled(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return installed, nil
	}

	var out []*provider.Record
	for _, m := range fuzzy.FindFrom(query, recordSource(installed)) {
		out = append(out, installed[m.Index])
	}
	return out, nil
}

// LongDescription returns the desktop file comment.
func (b *Backend) LongDescription(_ context.Context, r *provider.Record) string {
	e, err := provider.AppImageData(r)
	if err != nil || e.Desktop == nil {
		return ""
	}
	return e.Desktop.Comment
}

// InstalledFrom always reports a local file.
func (b *Backend) InstalledFrom(*provider.Record) string { return "Local file" }

// SourceLabel always reports a local file.
func (b *Backend) SourceLabel(string) string { return "Local file" }

// Install installs a record that still points at its original file.
func (b *Backend) Install(ctx context.Context, r *provider.Record) error {
	return b.InstallFile(ctx, r)
}

// Uninstall removes the AppImage, its desktop file and its icon.
func (b *Backend) Uninstall(_ context.Context, r *provider.Record) error {
	if err := b.Validate(r); err != nil {
		return err
	}
	defer b.InvalidateUpdates()

	e, _ := provider.AppImageData(r)
	if !within(b.cfg.Folder, e.FilePath) {
		return fmt.Errorf("%s is not managed in %s", e.FilePath, b.cfg.Folder)
	}

	if err := os.Remove(e.FilePath); err != nil {
		return err
	}
	if e.DesktopFile != "" && within(b.cfg.ApplicationsDir, e.DesktopFile) {
		if err := os.Remove(e.DesktopFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if within(filepath.Join(b.cfg.Folder, "icons"), e.Icon) {
		if err := os.Remove(e.Icon); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.log.Warn().Err(err).Msg("icon not removed")
		}
	}

	b.mu.Lock()
	delete(b.hashes, e.FilePath)
	b.mu.Unlock()
	return nil
}

// Update is not supported for AppImages.
func (b *Backend) Update(context.Context, *provider.Record) error {
	return fmt.Errorf("appimage: %w", provider.ErrUnsupported)
}

// UpdateAll succeeds without doing anything.
func (b *Backend) UpdateAll(context.Context) error {
	b.InvalidateUpdates()
	return nil
}

// ListUpdatable is always empty.
func (b *Backend) ListUpdatable(ctx context.Context) ([]provider.UpdateCandidate, error) {
	return b.updates.List(ctx)
}

// IsUpdatable is always false.
func (b *Backend) IsUpdatable(ctx context.Context, id string) (bool, error) {
	return b.updates.Contains(ctx, id)
}

// UpdatesNeedRefresh reports the update cache's dirty flag.
func (b *Backend) UpdatesNeedRefresh() bool { return b.updates.NeedsRefresh() }

// InvalidateUpdates marks the update cache dirty.
func (b *Backend) InvalidateUpdates() { b.updates.Invalidate() }

// Run starts the installed AppImage.
func (b *Backend) Run(ctx context.Context, r *provider.Record) error {
	if err := b.Validate(r); err != nil {
		return err
	}
	e, _ := provider.AppImageData(r)
	if !within(b.cfg.Folder, e.FilePath) {
		return fmt.Errorf("%s is not installed", e.FilePath)
	}
	return b.run.Start(ctx, e.FilePath)
}
