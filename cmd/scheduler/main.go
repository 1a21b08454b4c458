package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/app"
	"github.com/fouta-app/functions/internal/jobs"
	"github.com/fouta-app/functions/internal/scheduler"
	"github.com/fouta-app/functions/pkg/config"
	"github.com/fouta-app/functions/pkg/logging"
	"github.com/fouta-app/functions/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting job scheduler")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	s := scheduler.New(a.Jobs)
	s.Add(jobs.PublishScheduledPosts, scheduler.Every(cfg.Scheduler.PublishInterval))
	s.Add(jobs.ExpireStories, scheduler.Every(cfg.Scheduler.StoriesInterval))
	s.Add(jobs.DispatchNotifications, scheduler.Every(cfg.Scheduler.DispatchInterval))
	if cfg.Scheduler.RollupEnabled {
		s.Add(jobs.RollupDailyMetrics, scheduler.DailyAt{Hour: 0, Minute: 0})
	}

	logger.Info("Scheduler running, waiting for interrupt...")

	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Scheduler stopped", zap.Error(err))
		return
	}
	logger.Info("Scheduler exited")
}
