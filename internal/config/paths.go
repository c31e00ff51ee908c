package config

import (
	"os"
	"path/filepath"
)

const (
	appName     = "shelf"
	configFile  = "config.toml"
	historyFile = "history.db"
)

// xdgDir returns $env/shelf, or ~/fallback/shelf when env is unset.
func xdgDir(env string, fallback ...string) string {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir() //nolint:errcheck
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...)
}

// ConfigDir returns the configuration directory for shelf.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the data directory for shelf.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// CacheDir returns the cache directory for shelf. AppImage extractions live here.
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// ApplicationsDir returns the per-user directory desktop environments scan for
// desktop entries.
func ApplicationsDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "applications")
	}
	home, _ := os.UserHomeDir() //nolint:errcheck
	return filepath.Join(home, ".local", "share", "applications")
}

// AppImageDir returns the default folder installed AppImages are copied to.
func AppImageDir() string {
	home, _ := os.UserHomeDir() //nolint:errcheck
	return filepath.Join(home, "AppImages")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// HistoryPath returns the full path to the history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), historyFile)
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0755)
}
