package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
	"shelf/pkg/provider"
)

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Install local package files",
	Long: `Install AppImages and .flatpakref files from disk. The backend
is chosen by file type.

Examples:
  shelf import ~/Downloads/Obsidian-1.5.3.AppImage
  shelf import ~/Downloads/org.gnome.Maps.flatpakref`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	records := make([]*provider.Record, 0, len(args))
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return err
		}

		var r *provider.Record
		err = ui.WithSpinner("Reading "+filepath.Base(path), func() error {
			var err error
			r, err = coord.RecordFromFile(ctx, path)
			return err
		})
		if err != nil {
			return err
		}
		records = append(records, r)
	}

	ui.InfoMsg("Installation plan:")
	for _, r := range records {
		version := r.Version()
		if version == "" {
			version = "unknown version"
		}
		ui.MutedMsg("  - %s (%s, %s) with %s", r.Name, r.ID, version, r.Backend)
	}
	if err := confirm("Proceed with installation?", true); err != nil {
		return err
	}

	return runAll(ctx, "Installing", coord.InstallFile, records)
}
