package appimage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shelf/pkg/desktop"
	"shelf/pkg/provider"
)

// CanImportFile accepts AppImage images and files with the .appimage extension.
func (b *Backend) CanImportFile(path string) bool {
	if kind, err := Detect(path); err == nil && kind != KindNone {
		return true
	}
	return hasAppImageExt(path)
}

// RecordFromFile creates a not-installed record for the AppImage at path. Its id
// is the MD5 digest of the file.
func (b *Backend) RecordFromFile(ctx context.Context, path string) (*provider.Record, error) {
	id, err := fileID(path)
	if err != nil {
		return nil, err
	}

	name := nameFromPath(path)
	extra := &provider.AppImageExtra{FilePath: path}
	var comment string

	if kind, _ := Detect(path); kind == KindSquashFS {
		ex, err := b.extract(ctx, path, id)
		if err != nil {
			b.log.Warn().Err(err).Str("file", path).Msg("cannot read embedded metadata")
		} else {
			if ex.entry != nil && ex.entry.Name != "" {
				name = ex.entry.Name
				comment = ex.entry.Comment
				extra.Desktop = ex.entry
				extra.AppVersion = ex.entry.Version
			}
			b.cleanup(ex)
		}
	}

	return provider.NewRecord(Name, id, name, comment, provider.StatusNotInstalled, extra), nil
}

// InstallFile copies the AppImage into Folder with its icon and writes a desktop
// file launching it.
func (b *Backend) InstallFile(ctx context.Context, r *provider.Record) error {
	if err := b.Validate(r); err != nil {
		return err
	}
	defer b.InvalidateUpdates()

	e, _ := provider.AppImageData(r)
	ex, err := b.extract(ctx, e.FilePath, r.ID)
	if err != nil {
		return err
	}
	defer b.cleanup(ex)

	base := filepath.Base(ex.appImage)
	safeName := "shelf_" + base
	if ex.entry != nil && ex.entry.Name != "" {
		safeName = sanitize(ex.entry.Name) + "_" + base
	}

	dest := filepath.Join(b.cfg.Folder, safeName+".appimage")
	if err := copyFile(ex.appImage, dest, 0o755); err != nil {
		return fmt.Errorf("copy to %s: %w", b.cfg.Folder, err)
	}
	b.log.Info().Str("file", dest).Msg("appimage copied")

	icon := defaultIcon
	if ex.icon != "" {
		icon = filepath.Join(b.cfg.Folder, "icons", base+filepath.Ext(ex.icon))
		if err := copyFile(ex.icon, icon, 0o644); err != nil {
			b.log.Warn().Err(err).Msg("icon not copied")
			icon = defaultIcon
		}
	}

	desktopPath := filepath.Join(b.cfg.ApplicationsDir, strings.ReplaceAll(safeName, " ", "_")+".desktop")
	entry, err := b.writeDesktop(ex, desktopPath, dest, icon)
	if err != nil {
		os.Remove(dest)
		return err
	}

	e.FilePath = dest
	e.DesktopFile = entry.Path
	e.Desktop = entry
	e.Icon = icon
	e.AppVersion = entry.Version
	return nil
}

func (b *Backend) writeDesktop(ex *extraction, path, exec, icon string) (*desktop.Entry, error) {
	if ex.desktopFile == "" {
		name := nameFromPath(exec)
		if err := desktop.Write(path, &desktop.Entry{Name: name, Exec: exec, Icon: icon}); err != nil {
			return nil, err
		}
		return desktop.Load(path)
	}

	return desktop.Rewrite(ex.desktopFile, path, map[string]string{
		"Exec": exec,
		"Icon": icon,
		"Name": displayName(ex.entry),
	})
}
