package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
	"shelf/pkg/coordinator"
	"shelf/pkg/provider"
)

var updateAll bool

var updateCmd = &cobra.Command{
	Use:     "update [applications...]",
	Aliases: []string{"upgrade"},
	Short:   "Update applications",
	Long: `Update the named applications, or every application with --all.

Without arguments, the applications with a pending update are listed
and updated after confirmation.

Examples:
  shelf update org.gnome.Maps   # Update one application
  shelf update                  # Update everything that has an update
  shelf update --all            # Run each backend's bulk update`,
	RunE: runUpdate,
}

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "List pending updates",
	Long: `List installed applications that have an update available.

Examples:
  shelf updates
  shelf updates -b flatpak`,
	Args: cobra.NoArgs,
	RunE: runUpdates,
}

func init() {
	updateCmd.Flags().BoolVarP(&updateAll, "all", "a", false, "run the bulk update of every backend")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if updateAll {
		return runBulkUpdate(ctx)
	}

	var records []*provider.Record
	if len(args) == 0 {
		updates, err := pendingUpdates(ctx)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			ui.SuccessMsg("Everything is up to date")
			return nil
		}
		ui.PrintUpdates(updates)
		for _, u := range updates {
			records = append(records, u.Candidate.Record)
		}
	} else {
		for _, name := range cfg.ResolveAliases(args) {
			r, err := findInstalled(ctx, name)
			if err != nil {
				return err
			}
			records = append(records, r)
		}
	}

	if err := confirm(fmt.Sprintf("Update %d application(s)?", len(records)), true); err != nil {
		return err
	}
	return runAll(ctx, "Updating", coord.Update, records)
}

func runBulkUpdate(ctx context.Context) error {
	if err := confirm("Update all applications of every backend?", true); err != nil {
		return err
	}

	var results map[string]coordinator.BackendResult
	_ = ui.WithSpinner("Updating all applications", func() error {
		results = coordinator.Collect(coord.UpdateAll(ctx, nil))
		return nil
	})

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		res := results[name]
		if res.Success {
			ui.SuccessMsg("%s: updated", name)
			continue
		}
		failed++
		ui.ErrorMsg("%s: %v", name, res.Err)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d backends", ErrFailed, failed, len(results))
	}
	return nil
}

func runUpdates(cmd *cobra.Command, args []string) error {
	updates, err := pendingUpdates(context.Background())
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		ui.SuccessMsg("Everything is up to date")
		return nil
	}
	ui.PrintUpdates(updates)
	ui.MutedMsg("\nTotal: %d update(s)", len(updates))
	return nil
}

// pendingUpdates lists updates filtered by --backend.
func pendingUpdates(ctx context.Context) ([]coordinator.Update, error) {
	var updates []coordinator.Update
	err := ui.WithSpinner("Checking for updates", func() error {
		var err error
		updates, err = coord.ListUpdates(ctx)
		return err
	})
	if err != nil {
		if len(updates) == 0 {
			return nil, err
		}
		ui.WarningMsg("%v", err)
	}

	out := updates[:0]
	for _, u := range updates {
		if inBackend(u.Candidate.Record.Backend) {
			out = append(out, u)
		}
	}
	return out, nil
}
