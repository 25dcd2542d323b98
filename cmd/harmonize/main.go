package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikeSquared-Agency/harmonize/internal/api"
	"github.com/MikeSquared-Agency/harmonize/internal/batch"
	"github.com/MikeSquared-Agency/harmonize/internal/config"
	"github.com/MikeSquared-Agency/harmonize/internal/events"
	"github.com/MikeSquared-Agency/harmonize/internal/harmony"
	"github.com/MikeSquared-Agency/harmonize/internal/store"
)

func main() {
	input := flag.String("input", "", "input export file or directory (overrides HARMONIZE_INPUT)")
	outDir := flag.String("out", "", "output directory (overrides HARMONIZE_OUT)")
	serve := flag.Bool("serve", false, "run the HTTP conversion API instead of a batch run")
	flag.Parse()

	cfg := config.Load()
	if *input != "" {
		cfg.Input = *input
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}

	setupLogging(cfg.LogLevel)
	slog.Info("harmonize starting", "serve", *serve)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifier := harmony.NewClassifier(harmony.DefaultRules, cfg.DefaultReasoning)
	builder := harmony.NewBuilder(classifier, cfg.Sanitise)
	validator := harmony.NewValidator()

	if *serve {
		srv := api.NewServer(cfg.Port, builder, validator)
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
		return
	}

	if cfg.Input == "" {
		slog.Error("input path is required (-input or HARMONIZE_INPUT)")
		os.Exit(1)
	}

	// Conversion ledger and event stream are both optional; a batch run
	// works fine with neither.
	var db *store.Store
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Warn("database unavailable, running without ledger", "error", err)
		} else {
			defer db.Close()
			slog.Info("database connected")
		}
	}

	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		var err error
		publisher, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Warn("NATS unavailable, running without events", "error", err)
		} else {
			defer publisher.Close()
			slog.Info("NATS connected", "url", cfg.NatsURL)
		}
	}

	runner := batch.NewRunner(batch.Config{
		Input:         cfg.Input,
		OutDir:        cfg.OutDir,
		Recursive:     cfg.Recursive,
		Validate:      cfg.Validate,
		WriteManifest: cfg.WriteManifest,
		ManifestName:  cfg.ManifestName,
	}, builder, validator, db, publisher, slog.Default())

	if err := runner.Run(ctx); err != nil {
		slog.Error("batch run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("harmonize done")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
