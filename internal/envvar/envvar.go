// Package envvar lists the environment variables the library reads.
package envvar

const (
	// Env selects the environment ("development" or "production").
	Env = "OPENEO_ML_ENV"

	// ConfigPath overrides the config file location.
	ConfigPath = "OPENEO_ML_CONFIG_PATH"

	// CacheDir overrides the artifact cache directory.
	CacheDir = "OPENEO_ML_CACHE_DIR"
)
