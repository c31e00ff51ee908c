package flatpak

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"shelf/pkg/provider"
)

const (
	refExt    = ".flatpakref"
	bundleExt = ".flatpak"
)

// CanImportFile accepts .flatpakref descriptors and .flatpak bundles.
func (b *Backend) CanImportFile(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, refExt) || strings.HasSuffix(lower, bundleExt)
}

// RecordFromFile creates a not-installed record for a local flatpak file.
func (b *Backend) RecordFromFile(_ context.Context, path string) (*provider.Record, error) {
	if !b.CanImportFile(path) {
		return nil, fmt.Errorf("%s: not a flatpak file", path)
	}

	if strings.HasSuffix(strings.ToLower(path), bundleExt) {
		id := trimExt(path)
		return provider.NewRecord(Name, id, id, "", provider.StatusNotInstalled, &provider.FlatpakExtra{
			Origin:   provider.LocalRemote,
			FilePath: path,
			Bundle:   true,
		}), nil
	}

	ref, err := parseRef(path)
	if err != nil {
		return nil, err
	}
	name := ref.Title
	if name == "" {
		name = ref.Name
	}
	origin := ref.SuggestRemoteName
	if origin == "" {
		origin = provider.LocalRemote
	}
	return provider.NewRecord(Name, ref.Name, name, ref.Comment, provider.StatusNotInstalled, &provider.FlatpakExtra{
		Origin:   origin,
		Branch:   ref.Branch,
		FilePath: path,
	}), nil
}

// InstallFile installs a record created by RecordFromFile.
func (b *Backend) InstallFile(ctx context.Context, r *provider.Record) error {
	e, err := provider.FlatpakData(r)
	if err != nil {
		return err
	}
	if e.FilePath == "" {
		return fmt.Errorf("%w: flatpak record %q has no file", provider.ErrContract, r.ID)
	}
	defer b.InvalidateUpdates()
	return b.installFile(ctx, e)
}

func (b *Backend) installFile(ctx context.Context, e *provider.FlatpakExtra) error {
	args := append([]string{"install", "-y", "--noninteractive"}, b.scope()...)
	if e.Bundle {
		args = append(args, "--bundle", e.FilePath)
	} else {
		args = append(args, "--from", e.FilePath)
	}
	return b.run.Run(ctx, binary, args...)
}

// flatpakRef is the [Flatpak Ref] group of a .flatpakref file.
type flatpakRef struct {
	Name              string `ini:"Name"`
	Branch            string `ini:"Branch"`
	Title             string `ini:"Title"`
	Comment           string `ini:"Comment"`
	URL               string `ini:"Url"`
	SuggestRemoteName string `ini:"SuggestRemoteName"`
	IsRuntime         bool   `ini:"IsRuntime"`
}

func parseRef(path string) (*flatpakRef, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sec, err := cfg.GetSection("Flatpak Ref")
	if err != nil {
		return nil, fmt.Errorf("%s: missing [Flatpak Ref] group", path)
	}

	var ref flatpakRef
	if err := sec.MapTo(&ref); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ref.Name == "" {
		return nil, fmt.Errorf("%s: missing Name", path)
	}
	if ref.IsRuntime {
		return nil, fmt.Errorf("%s: runtimes cannot be installed from here", path)
	}
	return &ref, nil
}
