package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"shelf/internal/ui"
	"shelf/pkg/provider"
)

var installSource string

var installCmd = &cobra.Command{
	Use:   "install [applications...]",
	Short: "Install one or more applications",
	Long: `Install applications by id or name.

When an application is offered by several remotes or branches, shelf
asks which one to use. The installed source, then the stable branch,
is preselected. Use --source to pick one without asking.

Examples:
  shelf install org.gnome.Maps                   # Install by id
  shelf install maps                             # Install by name
  shelf install org.gnome.Maps --source flathub:stable
  shelf install -y org.gnome.Maps org.gnome.Weather`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installSource, "source", "", "source id as remote:branch")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	names, err := resolveNames(args)
	if err != nil {
		return err
	}
	if installSource != "" && len(names) > 1 {
		return fmt.Errorf("--source applies to a single application")
	}

	var records []*provider.Record
	for _, name := range names {
		g, err := findGroup(ctx, name)
		if err != nil {
			return err
		}
		r, err := pickSource(ctx, g, installSource)
		if err != nil {
			return err
		}
		if r.Status().IsInstalled() {
			ui.WarningMsg("%s is already installed from %s", r.Name, coord.InstalledFrom(r))
			continue
		}
		if alt := installedAlternate(g.Records(), r); alt != nil {
			ui.WarningMsg("%s is installed from %s; installing %s as well", r.Name, alt.Source().ID(), r.Source().ID())
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return nil
	}

	ui.InfoMsg("Installation plan:")
	for _, r := range records {
		ui.MutedMsg("  - %s (%s) from %s", r.Name, r.ID, r.Source().ID())
	}
	if err := confirm("Proceed with installation?", true); err != nil {
		return err
	}

	return runAll(ctx, "Installing", coord.Install, records)
}

// installedAlternate returns a candidate other than r that is installed.
func installedAlternate(candidates []*provider.Record, r *provider.Record) *provider.Record {
	for _, c := range candidates {
		if c != r && c.Status().IsInstalled() {
			return c
		}
	}
	return nil
}
