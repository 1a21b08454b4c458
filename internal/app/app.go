// Package app wires configuration into the running components shared by
// the scheduler and server binaries
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/cache"
	"github.com/fouta-app/functions/internal/counters"
	"github.com/fouta-app/functions/internal/db"
	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/docstore/memstore"
	"github.com/fouta-app/functions/internal/docstore/pgstore"
	"github.com/fouta-app/functions/internal/flags"
	"github.com/fouta-app/functions/internal/jobs"
	"github.com/fouta-app/functions/internal/notify"
	"github.com/fouta-app/functions/internal/paths"
	"github.com/fouta-app/functions/internal/publisher"
	"github.com/fouta-app/functions/internal/rollup"
	"github.com/fouta-app/functions/internal/safety"
	"github.com/fouta-app/functions/internal/stories"
	"github.com/fouta-app/functions/pkg/config"
	"github.com/fouta-app/functions/pkg/logging"
)

// App holds the wired components
type App struct {
	Config   *config.Config
	Store    docstore.Store
	Cache    *cache.Cache
	Flags    *flags.Flags
	Jobs     *jobs.Registry
	Notifier *notify.Notifier
	Counters *counters.Counters

	database *db.DB
}

// New builds the application from cfg. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	switch cfg.Store.Driver {
	case "postgres":
		database, err := db.New(&cfg.Database, cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, err
		}
		a.database = database
		a.Store = pgstore.New(database.DB)
	case "memory":
		logging.GetLogger().Warn("Using in-memory document store; data is lost on exit")
		a.Store = memstore.New()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cache = redisCache

	layout := paths.New(cfg.Store.AppID)
	pageSize := cfg.Store.PageSize

	a.Flags = flags.New(a.Cache, map[string]bool{
		flags.ScheduledPosts: cfg.Publishing.Enabled,
	}, logging.WithComponent("flags"))
	classifier := safety.NewClassifier(cfg.Publishing.ForbiddenTerms, cfg.Publishing.MaxContentLength)

	a.Notifier = notify.New(a.Store, layout, notify.LogSink{Logger: logging.WithComponent("notify-sink")}, pageSize, logging.WithComponent("notify"))
	a.Counters = counters.New(a.Store, layout, logging.WithComponent("counters"))

	a.Jobs = jobs.NewRegistry(a.Cache, cfg.Scheduler.LockTTL)
	jobs.RegisterAll(a.Jobs, jobs.Deps{
		Publisher: publisher.New(a.Store, layout, classifier, a.Flags, pageSize, logging.WithComponent("publisher")),
		Rollup:    rollup.New(a.Store, layout, pageSize, logging.WithComponent("rollup")),
		Stories:   stories.NewExpirer(a.Store, layout, pageSize, logging.WithComponent("stories")),
		Notifier:  a.Notifier,
	})

	logging.GetLogger().Info("Application wired",
		zap.String("store", cfg.Store.Driver),
		zap.String("app_id", cfg.Store.AppID),
		zap.Bool("redis", a.Cache != nil),
		zap.Bool("scheduled_posts", cfg.Publishing.Enabled),
	)
	return a, nil
}

// HealthChecks returns the dependency checks for the health endpoint
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if a.database != nil {
		checks["database"] = a.database.Health
	}
	if a.Cache != nil {
		checks["redis"] = a.Cache.Health
	}
	return checks
}

// Close releases connections
func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		logging.GetLogger().Error("Failed to close Redis", zap.Error(err))
	}
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			logging.GetLogger().Error("Failed to close database", zap.Error(err))
		}
	}
}
