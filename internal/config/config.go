package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"shelf/pkg/provider/flatpak"
)

// EnvPrefix prefixes every environment override, e.g. SHELF_GENERAL_LOG_LEVEL.
const EnvPrefix = "shelf"

// Config represents the complete shelf configuration.
type Config struct {
	General  GeneralConfig     `toml:"general" envconfig:"general"`
	Flatpak  FlatpakConfig     `toml:"flatpak" envconfig:"flatpak"`
	AppImage AppImageConfig    `toml:"appimage" envconfig:"appimage"`
	Metadata MetadataConfig    `toml:"metadata" envconfig:"metadata"`
	Output   OutputConfig      `toml:"output" envconfig:"output"`
	Aliases  map[string]string `toml:"aliases" envconfig:"aliases"`
}

// GeneralConfig contains general shelf settings.
type GeneralConfig struct {
	// BackendPriority orders search results and file import probing.
	// Valid values: "flatpak", "appimage"
	BackendPriority []string `toml:"backend_priority" envconfig:"backend_priority"`

	// AutoConfirm skips confirmation prompts when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm" envconfig:"auto_confirm"`

	// DryRun prints status-changing commands instead of executing them.
	DryRun bool `toml:"dry_run" envconfig:"dry_run"`

	// MaxWorkers bounds concurrent backend calls.
	MaxWorkers int `toml:"max_workers" envconfig:"max_workers"`

	// CommandTimeout bounds every external command. Zero disables it.
	CommandTimeout Duration `toml:"command_timeout" envconfig:"command_timeout"`

	// OperationTimeout bounds install, uninstall and update operations.
	OperationTimeout Duration `toml:"operation_timeout" envconfig:"operation_timeout"`

	// LogLevel is a zerolog level name.
	LogLevel string `toml:"log_level" envconfig:"log_level"`
}

// FlatpakConfig contains Flatpak backend settings.
type FlatpakConfig struct {
	// Installation restricts commands to "user" or "system". Empty means both.
	Installation   string   `toml:"installation" envconfig:"installation"`
	DefaultRemote  string   `toml:"default_remote" envconfig:"default_remote"`
	DefaultBranch  string   `toml:"default_branch" envconfig:"default_branch"`
	SearchLimit    int      `toml:"search_limit" envconfig:"search_limit"`
	IgnorePrefixes []string `toml:"ignore_prefixes" envconfig:"ignore_prefixes"`
	IgnoreSuffixes []string `toml:"ignore_suffixes" envconfig:"ignore_suffixes"`
}

// AppImageConfig contains AppImage backend settings.
type AppImageConfig struct {
	Enabled         bool   `toml:"enabled" envconfig:"enabled"`
	Folder          string `toml:"folder" envconfig:"folder"`
	ApplicationsDir string `toml:"applications_dir" envconfig:"applications_dir"`
	CacheDir        string `toml:"cache_dir" envconfig:"cache_dir"`
}

// MetadataConfig configures the appstream metadata service used for long
// descriptions.
type MetadataConfig struct {
	Enabled bool     `toml:"enabled" envconfig:"enabled"`
	BaseURL string   `toml:"base_url" envconfig:"base_url"`
	Timeout Duration `toml:"timeout" envconfig:"timeout"`
	Retries int      `toml:"retries" envconfig:"retries"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color" envconfig:"color"`

	// Unicode enables unicode symbols in output.
	Unicode bool `toml:"unicode" envconfig:"unicode"`

	// Verbose enables detailed output.
	Verbose bool `toml:"verbose" envconfig:"verbose"`
}

// Duration is a time.Duration written as "30s" or "5m" in TOML and environment.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	fp := flatpak.DefaultConfig()
	return &Config{
		General: GeneralConfig{
			BackendPriority:  []string{"flatpak", "appimage"},
			AutoConfirm:      false,
			DryRun:           false,
			MaxWorkers:       4,
			CommandTimeout:   Duration{10 * time.Minute},
			OperationTimeout: Duration{30 * time.Minute},
			LogLevel:         "warn",
		},
		Flatpak: FlatpakConfig{
			DefaultRemote:  fp.DefaultRemote,
			DefaultBranch:  fp.DefaultBranch,
			SearchLimit:    fp.SearchLimit,
			IgnorePrefixes: fp.IgnorePrefixes,
			IgnoreSuffixes: fp.IgnoreSuffixes,
		},
		AppImage: AppImageConfig{
			Enabled:         true,
			Folder:          AppImageDir(),
			ApplicationsDir: ApplicationsDir(),
			CacheDir:        CacheDir(),
		},
		Metadata: MetadataConfig{
			Enabled: true,
			BaseURL: "https://flathub.org/api/v2",
			Timeout: Duration{10 * time.Second},
			Retries: 2,
		},
		Output: OutputConfig{
			Color:   true,
			Unicode: true,
			Verbose: false,
		},
		Aliases: map[string]string{},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path and applies environment
// overrides. If the config file doesn't exist, the defaults are used.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ResolveAlias returns the application id for an alias, or the original name if no alias exists.
func (c *Config) ResolveAlias(name string) string {
	if alias, ok := c.Aliases[name]; ok {
		return alias
	}
	return name
}

// ResolveAliases resolves all aliases in a list of names.
func (c *Config) ResolveAliases(names []string) []string {
	resolved := make([]string, len(names))
	for i, name := range names {
		resolved[i] = c.ResolveAlias(name)
	}
	return resolved
}

// FlatpakBackend returns the Flatpak backend configuration.
func (c *Config) FlatpakBackend() flatpak.Config {
	return flatpak.Config{
		Installation:   c.Flatpak.Installation,
		DefaultRemote:  c.Flatpak.DefaultRemote,
		DefaultBranch:  c.Flatpak.DefaultBranch,
		SearchLimit:    c.Flatpak.SearchLimit,
		IgnorePrefixes: c.Flatpak.IgnorePrefixes,
		IgnoreSuffixes: c.Flatpak.IgnoreSuffixes,
	}
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
