package cli

import (
	"context"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
	"shelf/pkg/provider"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall [applications...]",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove one or more applications",
	Long: `Remove installed applications by id or name.

Examples:
  shelf uninstall org.gnome.Maps         # Remove by id
  shelf uninstall -y maps                # Remove without confirmation
  shelf uninstall -b appimage Obsidian   # Remove the AppImage only`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	names, err := resolveNames(args)
	if err != nil {
		return err
	}

	records := make([]*provider.Record, 0, len(names))
	for _, name := range names {
		r, err := findInstalled(ctx, name)
		if err != nil {
			return err
		}
		records = append(records, r)
	}

	ui.InfoMsg("Removing %d application(s)", len(records))
	for _, r := range records {
		ui.MutedMsg("  - %s (%s) from %s", r.Name, r.ID, coord.InstalledFrom(r))
	}
	if err := confirm("Proceed with removal?", false); err != nil {
		return err
	}

	return runAll(ctx, "Removing", coord.Uninstall, records)
}
