// Package jobs names the time-triggered jobs and runs them for both the
// scheduler and the HTTP trigger surface.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/cache"
	"github.com/fouta-app/functions/pkg/logging"
	"github.com/fouta-app/functions/pkg/telemetry"
)

// Job names
const (
	PublishScheduledPosts = "publish-scheduled-posts"
	RollupDailyMetrics    = "rollup-daily-metrics"
	ExpireStories         = "expire-stories"
	DispatchNotifications = "dispatch-notifications"
)

var (
	// ErrUnknownJob is returned by Run for a name nobody registered
	ErrUnknownJob = errors.New("unknown job")
	// ErrJobRunning is returned when the job is already running here or,
	// with Redis configured, on another replica
	ErrJobRunning = errors.New("job already running")
)

var runsTotal = telemetry.NewCounter("job_runs_total", "Job runs by outcome")

// Func runs one tick at now and returns a summary for logs and HTTP callers
type Func func(ctx context.Context, now time.Time) (interface{}, error)

// Locker is a cross-process lock, normally *cache.Cache
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// Registry holds the named jobs
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]Func
	running map[string]*sync.Mutex
	locker  Locker
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewRegistry creates an empty registry. locker may be nil.
func NewRegistry(locker Locker, lockTTL time.Duration) *Registry {
	return &Registry{
		jobs:    make(map[string]Func),
		running: make(map[string]*sync.Mutex),
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logging.WithComponent("jobs"),
	}
}

// Register adds or replaces a job
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[name] = fn
	if _, ok := r.running[name]; !ok {
		r.running[name] = &sync.Mutex{}
	}
}

// Names lists registered jobs in order
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one tick of the named job. Overlapping runs of the same job
// fail with ErrJobRunning instead of waiting.
func (r *Registry) Run(ctx context.Context, name string, now time.Time) (interface{}, error) {
	r.mu.Lock()
	fn, ok := r.jobs[name]
	running := r.running[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if !running.TryLock() {
		return nil, ErrJobRunning
	}
	defer running.Unlock()

	release, err := r.lock(ctx, name)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, span := telemetry.StartSpan(ctx, "job."+name)
	defer span.End()
	span.SetAttributes(attribute.String("job", name))

	logger := logging.WithTraceID(logging.WithJob(name), traceID(span))
	start := time.Now()
	result, err := fn(ctx, now)
	took := time.Since(start)

	if err != nil {
		span.RecordError(err)
		runsTotal.Add(ctx, 1, "job", name, "status", "error")
		logger.Error("Job failed", zap.Duration("took", took), zap.Error(err))
		return result, err
	}

	runsTotal.Add(ctx, 1, "job", name, "status", "ok")
	logger.Info("Job finished", zap.Duration("took", took), zap.Any("result", result))
	return result, nil
}

// lock takes the cross-process lock when Redis is configured
func (r *Registry) lock(ctx context.Context, name string) (func(), error) {
	noop := func() {}
	if r.locker == nil {
		return noop, nil
	}

	key := "job:" + name
	token, err := r.locker.TryLock(ctx, key, r.lockTTL)
	switch {
	case errors.Is(err, cache.ErrCacheDisabled):
		return noop, nil
	case err != nil:
		return nil, fmt.Errorf("lock %s: %w", name, err)
	case token == "":
		return nil, ErrJobRunning
	}

	return func() {
		// The job context may already be cancelled during shutdown
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.locker.Unlock(unlockCtx, key, token); err != nil {
			r.logger.Warn("Failed to release job lock", zap.String("job", name), zap.Error(err))
		}
	}, nil
}

func traceID(span trace.Span) string {
	sc := span.SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
