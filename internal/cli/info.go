package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
	"shelf/pkg/provider"
	"shelf/pkg/sources"
)

var infoCmd = &cobra.Command{
	Use:   "info [application]",
	Short: "Show application information",
	Long: `Display details and the long description of an application.
Installed applications are preferred over search results.

Examples:
  shelf info org.gnome.Maps
  shelf info -b appimage Obsidian`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := cfg.ResolveAlias(args[0])

	var (
		r       *provider.Record
		options []sources.Option
	)
	r, err := findInstalled(ctx, name)
	if errors.Is(err, ErrNotInstalled) {
		var g *sources.Group
		g, err = findGroup(ctx, name)
		if err == nil {
			r, err = g.Refresh(ctx, coord)
			options = coord.SourceLabels(g)
		}
	}
	if err != nil {
		return err
	}

	var desc string
	_ = ui.WithSpinner("Fetching description", func() error {
		desc = coord.LongDescription(ctx, r)
		return nil
	})

	ui.PrintRecordInfo(ui.RecordInfo{
		View:          r.View(),
		Description:   desc,
		InstalledFrom: coord.InstalledFrom(r),
		Sources:       options,
	})
	return nil
}
