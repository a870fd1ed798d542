package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"content_publisher/internal/scheduler"
	"content_publisher/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the periodic content maintenance job",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	job := service.NewMaintenanceJob(a.contents, a.orchestrator(cfg.Batch), a.logger, cfg.Batch, cfg.Maintenance)
	sched := scheduler.NewScheduler(job, cfg.Maintenance.Interval, cfg.Maintenance.Timeout, a.logger)

	a.logger.Info("starting content publisher",
		"interval", cfg.Maintenance.Interval,
		"concurrency", cfg.Batch.Concurrency,
		"persist", cfg.Batch.Persist,
		"platforms", len(a.registry.ListActive()),
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
