package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"epipulse/internal/config"
	"epipulse/internal/exporter"
	"epipulse/internal/fetch"
	"epipulse/internal/infrastructure"
	"epipulse/internal/pipeline"
	"epipulse/internal/sources"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML configuration file")
	sourceName := flag.String("source", "", "run only the named source (default: all registered sources)")
	inFiles := flag.String("in", "", "comma-separated local input files; skips fetching when set")
	outDir := flag.String("out", "", "output directory (overrides config)")
	listSources := flag.Bool("list", false, "list registered sources and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	registry := sources.NewRegistry()
	registry.Register(sources.NewPhilippinesSource(logger))

	if *listSources {
		for _, name := range registry.Names() {
			fmt.Println(name)
		}
		return
	}

	fetchCfg := fetch.DefaultConfig(cfg.Paths.CacheDir)
	fetchCfg.Timeout = cfg.Fetch.Timeout
	fetchCfg.RequestsPerSecond = cfg.Fetch.RequestsPerSecond
	fetcher := fetch.New(fetchCfg, logger)

	runner := pipeline.NewRunner(logger, fetcher, exporter.New(logger), cfg.Paths.OutputDir)

	logger.Info("Starting case registry pipeline",
		slog.String("output_dir", cfg.Paths.OutputDir),
		slog.String("cache_dir", cfg.Paths.CacheDir))

	ctx := context.Background()

	if *sourceName == "" && *inFiles == "" {
		results, err := runner.RunAll(ctx, registry, nil)
		if err != nil {
			logger.Error("Pipeline run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, result := range results {
			logger.Info("Source completed",
				slog.String("source", result.Source),
				slog.Int("rows", result.Rows),
				slog.Duration("duration", result.Duration))
		}
		return
	}

	name := *sourceName
	if name == "" {
		// Local input without an explicit source only makes sense when a
		// single source is registered.
		names := registry.Names()
		if len(names) != 1 {
			logger.Error("Local input requires -source when multiple sources are registered")
			os.Exit(1)
		}
		name = names[0]
	}

	src, err := registry.Get(name)
	if err != nil {
		logger.Error("Unknown source", slog.String("source", name))
		os.Exit(1)
	}

	var localPaths []string
	if *inFiles != "" {
		for _, path := range strings.Split(*inFiles, ",") {
			if path = strings.TrimSpace(path); path != "" {
				localPaths = append(localPaths, path)
			}
		}
	}

	result, err := runner.RunSource(ctx, src, localPaths, nil)
	if err != nil {
		logger.Error("Source run failed",
			slog.String("source", name),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Source completed",
		slog.String("source", result.Source),
		slog.Int("rows", result.Rows),
		slog.String("output", result.OutputJSON))
}
