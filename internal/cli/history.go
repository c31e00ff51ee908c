package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shelf/internal/history"
	"shelf/internal/ui"
	"shelf/pkg/provider"
)

var (
	historyLimit  int
	historyFailed bool
	historyOp     string
	pruneAge      time.Duration
)

// errNoHistory is returned when the history database could not be opened.
var errNoHistory = errors.New("history is unavailable")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show operation history",
	Long: `Display the operations performed by shelf, newest first.

Examples:
  shelf history                 # Show recent history
  shelf history -l 20           # Show the last 20 operations
  shelf history --failed        # Show failed operations only
  shelf history --op uninstall  # Show removals only`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole history",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old history entries",
	Long: `Delete history entries older than --older-than.

Examples:
  shelf history prune --older-than 720h`,
	Args: cobra.NoArgs,
	RunE: runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "show failed operations only")
	historyCmd.Flags().StringVar(&historyOp, "op", "", "show one operation kind (install, uninstall, update, update-all, install-file)")
	historyPruneCmd.Flags().DurationVar(&pruneAge, "older-than", 30*24*time.Hour, "maximum age of kept entries")

	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if store == nil {
		return errNoHistory
	}

	entries, err := store.Filter(historyLimit, func(e history.Entry) bool {
		if historyFailed && e.Success {
			return false
		}
		if historyOp != "" && e.Operation != provider.Operation(historyOp) {
			return false
		}
		return inBackend(e.Backend)
	})
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	ui.PrintHistory(entries)

	total, _ := store.Count() //nolint:errcheck
	ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if store == nil {
		return errNoHistory
	}
	if err := confirm("Delete the whole history?", false); err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	ui.SuccessMsg("History cleared")
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	if store == nil {
		return errNoHistory
	}
	n, err := store.Prune(pruneAge)
	if err != nil {
		return err
	}
	ui.SuccessMsg("Removed %d entries", n)
	return nil
}
