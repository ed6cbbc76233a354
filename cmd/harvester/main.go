package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rniirs/news-harvester/internal/app"
	"github.com/rniirs/news-harvester/internal/config"
	"github.com/rniirs/news-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("harvester starting", "startup", map[string]any{
		"run_mode":        cfg.RunMode,
		"dry_run":         cfg.DryRun,
		"sources_file":    cfg.SourcesFile,
		"publishers_file": cfg.PublishersFile,
		"state_type":      cfg.StateType,
		"state_path":      cfg.StatePath,
		"novelty_policy":  cfg.Novelty,
		"backfill_pages":  cfg.Backfill,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harvester, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize harvester", "error", err)
		return err
	}

	if err := harvester.Run(ctx); err != nil {
		return fmt.Errorf("harvester run: %w", err)
	}

	logger.InfoObj("harvester stopped", "run_mode", cfg.RunMode)
	return nil
}
