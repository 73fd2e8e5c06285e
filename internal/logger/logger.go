// Package logger builds the slog logger used by the binaries.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jonas-hurst/openeo-ml-go/internal/envvar"
)

// Environment selects the log output format.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// FromEnv reads the environment from OPENEO_ML_ENV.
func FromEnv() Environment {
	if os.Getenv(envvar.Env) == string(Production) {
		return Production
	}
	return Development
}

type options struct {
	logToFile bool
	logFile   string
	level     slog.Level
}

// Option customizes the logger.
type Option func(*options)

// WithLogToFile enables rotated file output in addition to stderr.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the log file path.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = level }
}

// New builds a logger: tinted console output in development, JSON in
// production, optionally duplicated to a rotated log file.
func New(env Environment, opts ...Option) *slog.Logger {
	o := options{
		logFile: "logs/openeo-ml.log",
		level:   slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var w io.Writer = os.Stderr
	if o.logToFile {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   o.logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	if env == Production {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: o.level}))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      o.level,
		TimeFormat: time.Kitchen,
	}))
}
