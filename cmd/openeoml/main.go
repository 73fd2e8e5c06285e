package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/jonas-hurst/openeo-ml-go"
	"github.com/jonas-hurst/openeo-ml-go/internal/config"
	"github.com/jonas-hurst/openeo-ml-go/internal/envvar"
	"github.com/jonas-hurst/openeo-ml-go/internal/logger"
)

func main() {
	defaultConfig := os.Getenv(envvar.ConfigPath)
	if defaultConfig == "" {
		defaultConfig = path.Join(config.DefaultConfigPath(), "config.yaml")
	}

	var (
		flagConfigPath = flag.String("config", defaultConfig, "Path to config file")
		flagURI        = flag.String("uri", "", "URI of the STAC MLM item to load")
		flagAsset      = flag.String("asset", "", "Name of the model asset (empty auto-selects)")
	)
	flag.Parse()

	environment := logger.FromEnv()

	slog.SetDefault(
		logger.New(environment,
			logger.WithLogToFile(true),
			logger.WithLogFile("logs/openeoml.log"),
		),
	)

	if *flagURI == "" {
		slog.Error("No STAC item URI given, use -uri")
		os.Exit(1)
	}

	cfg := config.Default()
	if _, err := os.Stat(*flagConfigPath); err == nil {
		watcher, err := config.NewWatcher(*flagConfigPath, func(_ *config.Config, err error) {
			if err != nil {
				slog.Error("Failed to reload config", "error", err)
				return
			}
			slog.Info("Config reloaded, restart to apply", "config", *flagConfigPath)
		})
		if err != nil {
			slog.Error("Failed to load config", "config", *flagConfigPath, "error", err)
			os.Exit(1)
		}
		cfg = watcher.Snapshot()
		slog.Info("Config loaded successfully", "config", *flagConfigPath)
	}

	processes, err := openeoml.NewFromConfig(cfg)
	if err != nil {
		slog.Error("Failed to initialize processes", "error", err)
		os.Exit(1)
	}
	defer processes.Close()

	handle, err := processes.LoadMLModel(context.Background(), *flagURI, *flagAsset)
	if err != nil {
		slog.Error("Failed to load model", "uri", *flagURI, "error", err)
		os.Exit(1)
	}

	desc := handle.Descriptor()
	slog.Info("Model loaded successfully",
		"id", handle.ID,
		"name", desc.Name,
		"framework", desc.Framework,
		"backend", handle.Kind,
		"asset", handle.Asset,
		"input_axes", strings.Join(desc.Inputs[0].Tensor.DimOrder, ","),
	)
}
