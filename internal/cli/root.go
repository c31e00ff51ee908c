// Package cli implements the command-line interface for shelf.
package cli

import (
	"errors"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shelf/internal/config"
	"shelf/internal/executor"
	"shelf/internal/history"
	"shelf/internal/logging"
	"shelf/internal/ui"
	"shelf/pkg/appstream"
	"shelf/pkg/coordinator"
	"shelf/pkg/provider"
	"shelf/pkg/provider/appimage"
	"shelf/pkg/provider/flatpak"
)

var (
	// Global flags
	cfgFile string
	backend string
	dryRun  bool
	yes     bool
	verbose bool
	noColor bool

	// Global state
	cfg   *config.Config
	log   zerolog.Logger
	store *history.Store
	coord *coordinator.Coordinator
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// newRegistry builds the backends. Tests replace it with in-memory backends.
var newRegistry = defaultRegistry

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Manage Flatpak applications and AppImages",
	Long: `Shelf installs, updates and removes desktop applications
from Flatpak remotes and AppImage files with one set of commands.

Examples:
  shelf search maps                      # Search every backend
  shelf install org.gnome.Maps           # Install the preferred source
  shelf install org.gnome.Maps --source flathub:stable
  shelf import ~/Downloads/App.AppImage  # Install a local file
  shelf update --all                     # Update everything`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&backend, "backend", "b", "", "restrict to one backend (flatpak, appimage)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(tuiCmd)
}

// Execute runs the root command and releases the application state.
func Execute() error {
	err := rootCmd.Execute()
	if serr := shutdown(); err == nil {
		err = serr
	}
	if err != nil {
		ui.ErrorMsg("%v", err)
	}
	return err
}

// initializeApp sets up the application state.
func initializeApp() error {
	// Load configuration
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if yes {
		cfg.General.AutoConfirm = true
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}

	ui.Init(cfg.ShouldUseColor(), cfg.Output.Unicode)
	log = logging.New(logging.Options{
		Level:   cfg.General.LogLevel,
		Verbose: cfg.Output.Verbose,
		Color:   cfg.ShouldUseColor(),
	})

	reg, err := newRegistry(cfg, log)
	if err != nil {
		return err
	}

	store, err = history.Open(config.HistoryPath())
	if err != nil {
		// Non-fatal: operations still run, they are just not recorded
		log.Warn().Err(err).Msg("history unavailable")
		store = nil
	}

	opts := coordinator.Options{
		MaxWorkers:       cfg.General.MaxWorkers,
		OperationTimeout: cfg.General.OperationTimeout.Duration,
		Logger:           log,
	}
	if store != nil {
		opts.Recorder = store
	}
	coord = coordinator.New(reg, opts)
	return nil
}

// shutdown waits for running operations and closes the history store.
func shutdown() error {
	if coord != nil {
		coord.Wait()
		coord = nil
	}
	if store != nil {
		err := store.Close()
		store = nil
		return err
	}
	return nil
}

// defaultRegistry wires the real backends from the configuration.
func defaultRegistry(cfg *config.Config, log zerolog.Logger) (*provider.Registry, error) {
	exec := executor.New(executor.Options{
		DryRun:          cfg.General.DryRun,
		Verbose:         cfg.Output.Verbose,
		Timeout:         cfg.General.CommandTimeout.Duration,
		Sandboxed:       executor.InSandbox(),
		AllowedPrograms: []string{"flatpak"},
		AllowedDirs:     []string{cfg.AppImage.Folder, cfg.AppImage.CacheDir},
		Logger:          log,
	})

	var meta flatpak.Describer
	if cfg.Metadata.Enabled {
		meta = appstream.New(appstream.Config{
			BaseURL:   cfg.Metadata.BaseURL,
			Timeout:   cfg.Metadata.Timeout.Duration,
			Retries:   cfg.Metadata.Retries,
			UserAgent: "shelf/" + Version,
		}, log)
	}

	backends := []provider.Backend{flatpak.New(cfg.FlatpakBackend(), exec, meta, log)}
	if cfg.AppImage.Enabled {
		for _, dir := range []string{cfg.AppImage.Folder, cfg.AppImage.ApplicationsDir, cfg.AppImage.CacheDir} {
			if !filepath.IsAbs(dir) {
				return nil, errors.New("appimage directories must be absolute: " + dir)
			}
		}
		backends = append(backends, appimage.New(appimage.Config{
			Folder:          cfg.AppImage.Folder,
			ApplicationsDir: cfg.AppImage.ApplicationsDir,
			CacheDir:        cfg.AppImage.CacheDir,
		}, exec, log))
	}

	return provider.NewRegistry(cfg.General.BackendPriority, backends...), nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print shelf version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("shelf version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
