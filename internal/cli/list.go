package cli

import (
	"context"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
	"shelf/pkg/provider"
)

var (
	listLimit   int
	listPattern string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed applications",
	Long: `List the installed applications of every backend, or of one
backend with --backend.

Examples:
  shelf list                 # List everything
  shelf list -b appimage     # List AppImages only
  shelf list -p gnome        # Fuzzy filter by name or id
  shelf list -l 20           # Show the first 20`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "limit number of results")
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "", "fuzzy filter by name or id")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var records []*provider.Record
	err := ui.WithSpinner("Listing installed applications", func() error {
		var err error
		records, err = coord.ListInstalled(ctx)
		return err
	})
	if err != nil {
		if len(records) == 0 {
			return err
		}
		ui.WarningMsg("%v", err)
	}

	installed := make(map[string]bool, len(records))
	for _, r := range records {
		installed[r.Key()] = true
	}

	// Filter ranks every tracked record; keep the installed ones.
	var views []provider.RecordView
	for _, v := range coord.Filter(listPattern) {
		if installed[v.Key] && inBackend(v.Backend) {
			views = append(views, v)
		}
	}
	if listLimit > 0 && len(views) > listLimit {
		views = views[:listLimit]
	}

	ui.PrintRecords(views)
	ui.MutedMsg("\nTotal: %d applications", len(views))
	return nil
}
