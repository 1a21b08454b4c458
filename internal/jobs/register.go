package jobs

import (
	"context"
	"time"

	"github.com/fouta-app/functions/internal/notify"
	"github.com/fouta-app/functions/internal/publisher"
	"github.com/fouta-app/functions/internal/rollup"
	"github.com/fouta-app/functions/internal/stories"
)

// Deps are the components behind the standard jobs
type Deps struct {
	Publisher *publisher.Publisher
	Rollup    *rollup.Rollup
	Stories   *stories.Expirer
	Notifier  *notify.Notifier
}

// RegisterAll registers the standard jobs
func RegisterAll(r *Registry, d Deps) {
	r.Register(PublishScheduledPosts, func(ctx context.Context, now time.Time) (interface{}, error) {
		return d.Publisher.PublishDue(ctx, now)
	})
	r.Register(RollupDailyMetrics, func(ctx context.Context, now time.Time) (interface{}, error) {
		return d.Rollup.Run(ctx, now)
	})
	r.Register(ExpireStories, func(ctx context.Context, now time.Time) (interface{}, error) {
		n, err := d.Stories.Expire(ctx, now)
		return map[string]int{"expired": n}, err
	})
	r.Register(DispatchNotifications, func(ctx context.Context, _ time.Time) (interface{}, error) {
		return d.Notifier.Dispatch(ctx)
	})
}
