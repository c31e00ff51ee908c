package cli

import (
	"context"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
)

var runCmd = &cobra.Command{
	Use:     "run [application]",
	Aliases: []string{"launch"},
	Short:   "Launch an installed application",
	Long: `Start an installed application without waiting for it to exit.

Examples:
  shelf run org.gnome.Maps
  shelf run Obsidian`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	r, err := findInstalled(ctx, cfg.ResolveAlias(args[0]))
	if err != nil {
		return err
	}
	if err := coord.Run(ctx, r); err != nil {
		return err
	}
	ui.SuccessMsg("Launched %s", r.Name)
	return nil
}
