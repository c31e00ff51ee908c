package appimage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shelf/pkg/desktop"
)

// iconExts are tried in order next to the desktop file, per the AppImage layout.
var iconExts = []string{".png", ".svgz", ".svg"}

// extraction is an AppImage unpacked into the cache directory.
type extraction struct {
	container   string // removed by cleanup
	appImage    string // executable copy inside container
	root        string // squashfs-root, empty when extraction produced nothing
	desktopFile string
	entry       *desktop.Entry
	icon        string
}

// extract copies path into a fresh cache folder and runs --appimage-extract there.
func (b *Backend) extract(ctx context.Context, path, id string) (*extraction, error) {
	kind, err := Detect(path)
	if err != nil {
		return nil, err
	}
	if kind == KindISO {
		return nil, fmt.Errorf("%s: legacy AppImage format cannot be extracted", path)
	}

	base := "appimage_" + id
	container := filepath.Join(b.cfg.CacheDir, base)
	if err := os.RemoveAll(container); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(container, 0o755); err != nil {
		return nil, err
	}

	ex := &extraction{container: container, appImage: filepath.Join(container, base)}
	if err := copyFile(path, ex.appImage, 0o755); err != nil {
		b.cleanup(ex)
		return nil, err
	}

	b.log.Info().Str("file", path).Msg("extracting")
	if _, err := b.run.OutputIn(ctx, container, ex.appImage, "--appimage-extract"); err != nil {
		b.cleanup(ex)
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	root := filepath.Join(container, "squashfs-root")
	if _, err := os.Stat(root); err != nil {
		return ex, nil
	}
	ex.root = root

	entries, err := os.ReadDir(root)
	if err != nil {
		return ex, nil
	}
	for _, de := range entries {
		if de.IsDir() || !desktop.IsDesktopFile(de.Name()) {
			continue
		}
		entry, err := desktop.Load(filepath.Join(root, de.Name()))
		if err != nil {
			b.log.Warn().Err(err).Msg("skipping desktop file")
			continue
		}
		ex.desktopFile = entry.Path
		ex.entry = entry
		break
	}

	if ex.entry != nil && ex.entry.Icon != "" {
		for _, ext := range iconExts {
			candidate := filepath.Join(root, ex.entry.Icon+ext)
			if _, err := os.Stat(candidate); err == nil {
				ex.icon = candidate
				break
			}
		}
	}
	return ex, nil
}

// cleanup removes the extraction folder when it lives in the cache directory.
func (b *Backend) cleanup(ex *extraction) {
	if ex == nil || !within(b.cfg.CacheDir, ex.container) {
		return
	}
	if err := os.RemoveAll(ex.container); err != nil {
		b.log.Warn().Err(err).Str("dir", ex.container).Msg("cleanup failed")
	}
}

// displayName is "<Name> (<version>)" when the version is known.
func displayName(entry *desktop.Entry) string {
	if entry.Version == "" {
		return entry.Name
	}
	return fmt.Sprintf("%s (%s)", entry.Name, strings.TrimSpace(entry.Version))
}
