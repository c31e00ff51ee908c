package cli

import (
	"context"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources [application]",
	Short: "List the sources offering an application",
	Long: `List every remote and branch that offers an application. The
active source is marked with *: the installed one if any, else the
stable branch.

Examples:
  shelf sources org.gnome.Maps`,
	Args: cobra.ExactArgs(1),
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	g, err := findGroup(ctx, cfg.ResolveAlias(args[0]))
	if err != nil {
		return err
	}
	active, err := g.Refresh(ctx, coord)
	if err != nil {
		return err
	}

	t := ui.NewTable([]string{"source", "id", "version", "status", ""})
	for _, o := range coord.SourceLabels(g) {
		mark := ""
		if o.Record == active {
			mark = "*"
		}
		t.AddRow(o.Label, o.ID, o.Record.Version(), ui.StatusText(o.Record.Status()), mark)
	}
	t.Render()
	return nil
}
