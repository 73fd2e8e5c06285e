// Package config loads and watches the library's runtime configuration.
package config

import (
	"os"

	"github.com/jonas-hurst/openeo-ml-go/internal/envvar"
	"github.com/jonas-hurst/openeo-ml-go/internal/xfs"
)

// Config holds the runtime configuration for model loading and prediction.
type Config struct {
	Version  string                    `json:"version"            yaml:"version"`
	Storage  StorageConfig             `json:"storage,omitempty"  yaml:"storage,omitempty"`
	Predict  PredictConfig             `json:"predict,omitempty"  yaml:"predict,omitempty"`
	Backends map[string]map[string]any `json:"backends,omitempty" yaml:"backends,omitempty"`
}

// StorageConfig configures artifact and handle caching.
type StorageConfig struct {
	CacheDir       string `json:"cache_dir,omitempty"        yaml:"cache_dir,omitempty"`
	ModelCacheSize int    `json:"model_cache_size,omitempty" yaml:"model_cache_size,omitempty"`
}

// PredictConfig configures prediction execution.
type PredictConfig struct {
	FallbackBatchSize int `json:"fallback_batch_size,omitempty" yaml:"fallback_batch_size,omitempty"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Version: "1",
	}
}

// ResolveCacheDir returns the artifact cache directory.
// Precedence:
// 1. OPENEO_ML_CACHE_DIR environment variable.
// 2. CacheDir field in the config.
// 3. Default cache path.
func ResolveCacheDir(cfg *Config) string {
	if p := os.Getenv(envvar.CacheDir); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg != nil && cfg.Storage.CacheDir != "" {
		return xfs.ExpandTilde(cfg.Storage.CacheDir)
	}
	return DefaultCachePath()
}
