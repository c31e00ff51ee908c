package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for applications",
	Long: `Search every backend for applications. Results offered by
several remotes or branches are shown once with their sources; the
preselected source is marked with *.

Examples:
  shelf search maps            # Search everywhere
  shelf search -b flatpak gimp # Search Flatpak remotes only
  shelf search -l 10 editor    # Show the first 10 results`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "limit number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	groups, err := search(context.Background(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if searchLimit > 0 && len(groups) > searchLimit {
		groups = groups[:searchLimit]
	}

	ui.PrintGroups(groups, coord.SourceLabels)
	return nil
}
