// Package stories removes expired stories
package stories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/aggregate"
	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/paths"
	"github.com/fouta-app/functions/pkg/telemetry"
)

var expiredTotal = telemetry.NewCounter("stories_expired_total", "Stories deleted after expiry")

// Expirer deletes stories whose expiresAt has passed
type Expirer struct {
	store    docstore.Store
	layout   paths.Layout
	pageSize int
	logger   *zap.Logger
}

// NewExpirer creates an expirer
func NewExpirer(store docstore.Store, layout paths.Layout, pageSize int, logger *zap.Logger) *Expirer {
	return &Expirer{store: store, layout: layout, pageSize: pageSize, logger: logger}
}

// Expire deletes every story with expiresAt strictly before now and returns
// how many it removed
func (e *Expirer) Expire(ctx context.Context, now time.Time) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "stories.Expire")
	defer span.End()

	expired := docstore.Collection(e.layout.Stories()).Where("expiresAt", docstore.OpLess, now.UTC())

	var n int
	err := aggregate.Scan(ctx, e.store, expired, "expiresAt", e.pageSize, func(doc *docstore.Document) error {
		if err := e.store.Delete(ctx, doc.Path); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("delete story %s: %w", doc.ID, err)
		}
		n++
		return nil
	})
	expiredTotal.Add(ctx, int64(n))
	if err != nil {
		span.RecordError(err)
		return n, err
	}

	if n > 0 {
		e.logger.Info("Expired stories", zap.Int("count", n))
	}
	return n, nil
}
