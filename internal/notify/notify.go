// Package notify batches interaction notifications. Interactions are queued
// per recipient and moved to the recipient's inbox on each dispatch tick,
// honoring the recipient's per-type opt-outs.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/aggregate"
	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/models"
	"github.com/fouta-app/functions/internal/paths"
	"github.com/fouta-app/functions/pkg/telemetry"
)

var dispatchedTotal = telemetry.NewCounter("notifications_dispatched_total", "Queued notifications moved to inboxes")

// Sink receives each user's delivered batch, e.g. for push delivery
type Sink interface {
	Deliver(ctx context.Context, uid string, items []models.QueuedNotification) error
}

// LogSink logs delivered batches
type LogSink struct {
	Logger *zap.Logger
}

// Deliver implements Sink
func (s LogSink) Deliver(_ context.Context, uid string, items []models.QueuedNotification) error {
	s.Logger.Info("Sending notifications", zap.String("user", uid), zap.Int("count", len(items)))
	return nil
}

// DispatchResult summarizes one dispatch tick
type DispatchResult struct {
	Users      int
	Delivered  int
	Suppressed int
}

// Notifier queues and dispatches notifications
type Notifier struct {
	store    docstore.Store
	layout   paths.Layout
	sink     Sink
	pageSize int
	logger   *zap.Logger
}

// New creates a notifier
func New(store docstore.Store, layout paths.Layout, sink Sink, pageSize int, logger *zap.Logger) *Notifier {
	return &Notifier{store: store, layout: layout, sink: sink, pageSize: pageSize, logger: logger}
}

// Queue stores in for its target. Interactions without a target are
// dropped and return "".
func (n *Notifier) Queue(ctx context.Context, in models.Interaction, now time.Time) (string, error) {
	if in.TargetUID == "" {
		return "", nil
	}
	item := models.QueuedNotification{
		Type:      in.Type,
		ActorID:   in.ActorID,
		PostID:    in.PostID,
		CommentID: in.CommentID,
		CreatedAt: now.UTC(),
	}
	// Millisecond prefix keeps queue ids in arrival order
	id := strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()[:8]
	path := docstore.Join(paths.QueueItems(in.TargetUID), id)
	if err := n.store.Set(ctx, path, item.ToMap(), docstore.SetOptions{}); err != nil {
		return "", fmt.Errorf("queue notification for %s: %w", in.TargetUID, err)
	}
	return path, nil
}

// Dispatch drains every queue. Allowed items are copied to the inbox under
// their queue id, so a retried dispatch overwrites rather than duplicates;
// suppressed items are dropped.
func (n *Notifier) Dispatch(ctx context.Context) (DispatchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "notify.Dispatch")
	defer span.End()

	var res DispatchResult
	uids, err := n.store.ListDocuments(ctx, paths.NotifQueue)
	if err != nil {
		return res, fmt.Errorf("list notification queues: %w", err)
	}

	for _, uid := range uids {
		delivered, suppressed, err := n.dispatchUser(ctx, uid)
		res.Delivered += len(delivered)
		res.Suppressed += suppressed
		dispatchedTotal.Add(ctx, int64(len(delivered)))
		if len(delivered)+suppressed > 0 {
			res.Users++
		}
		// A failed user still hands over what already reached the inbox
		n.deliver(ctx, uid, delivered)
		if err != nil {
			span.RecordError(err)
			return res, err
		}
	}

	n.logger.Debug("Dispatched notifications",
		zap.Int("users", res.Users),
		zap.Int("delivered", res.Delivered),
		zap.Int("suppressed", res.Suppressed),
	)
	return res, nil
}

// deliver passes a batch to the sink. Items are already in the inbox, so
// delivery is best effort.
func (n *Notifier) deliver(ctx context.Context, uid string, items []models.QueuedNotification) {
	if len(items) == 0 {
		return
	}
	if err := n.sink.Deliver(ctx, uid, items); err != nil {
		n.logger.Warn("Notification sink failed", zap.String("user", uid), zap.Error(err))
	}
}

func (n *Notifier) dispatchUser(ctx context.Context, uid string) ([]models.QueuedNotification, int, error) {
	settings, err := n.store.Doc(ctx, n.layout.NotificationSettings(uid))
	if err != nil {
		return nil, 0, fmt.Errorf("load notification settings of %s: %w", uid, err)
	}
	prefs := models.NotificationPrefsFromDocument(settings)

	var (
		delivered  []models.QueuedNotification
		suppressed int
	)
	queue := docstore.Collection(paths.QueueItems(uid))
	err = aggregate.Scan(ctx, n.store, queue, docstore.DocumentID, n.pageSize, func(doc *docstore.Document) error {
		item := models.QueuedNotificationFromDocument(doc)
		if prefs.Allows(item.Type) {
			inbox := docstore.Join(n.layout.Inbox(uid), item.ID)
			if err := n.store.Set(ctx, inbox, item.InboxMap(), docstore.SetOptions{}); err != nil {
				return fmt.Errorf("deliver %s: %w", doc.Path, err)
			}
			delivered = append(delivered, item)
		} else {
			suppressed++
		}
		if err := n.store.Delete(ctx, doc.Path); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("dequeue %s: %w", doc.Path, err)
		}
		return nil
	})
	return delivered, suppressed, err
}
