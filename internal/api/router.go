package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/counters"
	"github.com/fouta-app/functions/internal/notify"
	"github.com/fouta-app/functions/pkg/logging"
	"github.com/fouta-app/functions/pkg/telemetry"
)

// JobRunner runs a named job tick
type JobRunner interface {
	Names() []string
	Run(ctx context.Context, name string, now time.Time) (interface{}, error)
}

// HealthCheck reports the health of one dependency
type HealthCheck = func(ctx context.Context) error

// Router sets up API routes
type Router struct {
	jobs     JobRunner
	notifier *notify.Notifier
	counters *counters.Counters
	flags    FlagStore
	checks   map[string]HealthCheck
	now      func() time.Time
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(runner JobRunner, notifier *notify.Notifier, chatCounters *counters.Counters, flagStore FlagStore, checks map[string]HealthCheck) *Router {
	return &Router{
		jobs:     runner,
		notifier: notifier,
		counters: chatCounters,
		flags:    flagStore,
		checks:   checks,
		now:      time.Now,
		logger:   logging.WithComponent("api-router"),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tasks := engine.Group("/tasks")
	tasks.GET("", r.listTasks)
	tasks.POST("/:job", r.runTask)

	flagRoutes := engine.Group("/flags")
	flagRoutes.GET("/:name", r.getFlag)
	flagRoutes.PUT("/:name", r.setFlag)
	flagRoutes.DELETE("/:name", r.clearFlag)

	events := engine.Group("/events")
	events.POST("/interactions", r.interactionCreated)
	events.POST("/chats/:chatId/messages", r.messageCreated)
	events.POST("/chats/:chatId/updated", r.chatUpdated)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}
	for name, check := range r.checks {
		if err := check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = err.Error()
			continue
		}
		deps[name] = "OK"
	}

	state := "OK"
	if status != http.StatusOK {
		state = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"service":      "fouta-functions",
		"dependencies": deps,
	})
}

func (r *Router) listTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": r.jobs.Names()})
}

// runTask runs one tick of a job for an external scheduler. The tick uses
// the server clock.
func (r *Router) runTask(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "api.runTask")
	defer span.End()

	job := c.Param("job")
	result, err := r.jobs.Run(ctx, job, r.now())
	if err != nil {
		r.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job, "result": result})
}
