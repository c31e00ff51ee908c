package cli

import (
	"context"

	"github.com/spf13/cobra"

	"shelf/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal user interface",
	Long: `Launch the interactive terminal user interface (TUI) for shelf.

The TUI provides a visual way to:
  - Browse installed applications
  - Search and pick a source
  - Install, remove and update applications
  - View operation history

Navigation:
  - Use arrow keys or j/k to navigate
  - Press 1-4 to switch tabs
  - Press / to search
  - Press i to install, r to remove, u to update
  - Press ? for help
  - Press q to quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	var hist tui.HistoryLister
	if store != nil {
		hist = store
	}
	return tui.Run(context.Background(), coord, hist)
}
