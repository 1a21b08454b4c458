// Package scheduler fires registered jobs on wall-clock schedules
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fouta-app/functions/internal/jobs"
	"github.com/fouta-app/functions/pkg/logging"
)

// Schedule yields fire times
type Schedule interface {
	// Next returns the first fire time strictly after t
	Next(t time.Time) time.Time
}

// Every fires on multiples of the interval since the Unix epoch, so "every
// 5 minutes" fires at :00, :05, :10 regardless of start time
type Every time.Duration

// Next implements Schedule
func (e Every) Next(t time.Time) time.Time {
	d := time.Duration(e)
	next := t.Truncate(d).Add(d)
	if !next.After(t) {
		next = next.Add(d)
	}
	return next
}

// DailyAt fires once a day at Hour:Minute UTC
type DailyAt struct {
	Hour   int
	Minute int
}

// Next implements Schedule
func (d DailyAt) Next(t time.Time) time.Time {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), d.Hour, d.Minute, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Runner runs jobs
type Runner interface {
	Run(ctx context.Context, name string, now time.Time) (interface{}, error)
}

type entry struct {
	job      string
	schedule Schedule
}

// Scheduler ticks jobs on their schedules
type Scheduler struct {
	runner  Runner
	entries []entry
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a scheduler over runner
func New(runner Runner) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logging.WithComponent("scheduler"),
		now:    time.Now,
	}
}

// Add schedules a job
func (s *Scheduler) Add(job string, schedule Schedule) {
	s.entries = append(s.entries, entry{job: job, schedule: schedule})
}

// Run blocks until ctx is done. Each job runs in its own loop, so a slow job
// delays only its own next tick; ticks that pass while it runs are skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.entries) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range s.entries {
		g.Go(func() error {
			s.loop(gctx, e)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	logger := s.logger.With(zap.String("job", e.job))
	for {
		next := e.schedule.Next(s.now())
		logger.Debug("Next run scheduled", zap.Time("at", next))

		if !s.wait(ctx, next.Sub(s.now())) {
			return
		}

		// Run errors are logged by the job registry
		_, err := s.runner.Run(ctx, e.job, next)
		if errors.Is(err, jobs.ErrJobRunning) {
			logger.Info("Skipping tick, job still running elsewhere")
		}
	}
}

// wait waits for d or until ctx is cancelled, reporting whether the full
// duration passed
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
