package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigPath returns the default config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "openeo-ml", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "openeo-ml")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "openeo-ml")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "openeo-ml")
		}
		return filepath.Join(home, ".config", "openeo-ml")
	}
}

// DefaultCachePath returns the default directory for downloaded model
// artifacts.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "openeo-ml", "cache")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "openeo-ml", "cache")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "openeo-ml")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "openeo-ml")
		}
		return filepath.Join(home, ".cache", "openeo-ml")
	}
}
