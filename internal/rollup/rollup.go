// Package rollup writes the daily metrics record
package rollup

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fouta-app/functions/internal/aggregate"
	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/models"
	"github.com/fouta-app/functions/internal/paths"
	"github.com/fouta-app/functions/pkg/telemetry"
)

// DayLayout formats the metrics record id
const DayLayout = "2006-01-02"

// maxConcurrentCounts bounds the page scans running at once
const maxConcurrentCounts = 2

// createdAtField is the timestamp every tracked collection is counted on
const createdAtField = "createdAt"

// Rollup counts the previous UTC day's activity
type Rollup struct {
	store    docstore.Store
	layout   paths.Layout
	pageSize int
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a rollup
func New(store docstore.Store, layout paths.Layout, pageSize int, logger *zap.Logger) *Rollup {
	return &Rollup{
		store:    store,
		layout:   layout,
		pageSize: pageSize,
		logger:   logger,
		now:      time.Now,
	}
}

// Window returns [midnight of the previous UTC day, midnight of ref's UTC day)
func Window(ref time.Time) (start, end time.Time) {
	ref = ref.UTC()
	end = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -1), end
}

// Run counts users, posts, shorts and purchase intents created in the day
// before ref and merges them into metrics/daily/{day}. Running it again for
// the same day overwrites the counts.
func (r *Rollup) Run(ctx context.Context, ref time.Time) (models.DailyMetrics, error) {
	ctx, span := telemetry.StartSpan(ctx, "rollup.Run")
	defer span.End()

	start, end := Window(ref)
	m := models.DailyMetrics{Day: start.Format(DayLayout)}
	span.SetAttributes(attribute.String("day", m.Day))

	targets := []struct {
		collection string
		dst        *int64
	}{
		{r.layout.Users(), &m.DAU},
		{r.layout.Posts(), &m.Posts},
		{r.layout.Shorts(), &m.ShortViews},
		{r.layout.PurchaseIntents(), &m.PurchaseIntents},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCounts)
	for _, t := range targets {
		g.Go(func() error {
			n, err := aggregate.Count(gctx, r.store, aggregate.CountQuery{
				Collection: t.collection,
				Field:      createdAtField,
				Start:      start,
				End:        end,
			}, r.pageSize)
			if err != nil {
				return fmt.Errorf("count %s: %w", t.collection, err)
			}
			*t.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return models.DailyMetrics{}, err
	}

	m.UpdatedAt = r.now().UTC()
	path := docstore.Join(r.layout.DailyMetrics(), m.Day)
	if err := r.store.Set(ctx, path, m.ToMap(), docstore.SetOptions{Merge: true}); err != nil {
		span.RecordError(err)
		return models.DailyMetrics{}, fmt.Errorf("write %s: %w", path, err)
	}

	r.logger.Info("Rolled up daily metrics",
		zap.String("day", m.Day),
		zap.Int64("dau", m.DAU),
		zap.Int64("posts", m.Posts),
		zap.Int64("short_views", m.ShortViews),
		zap.Int64("purchase_intents", m.PurchaseIntents),
	)
	return m, nil
}
