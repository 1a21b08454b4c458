// Package publisher moves due scheduled posts to posts or moderation.
//
// A scheduled post is due once publishAt <= now and processedAt is unset.
// Each due post is classified, written out under the key {uid}_{scheduledId}
// and then marked processed. A crash between the two writes leaves the post
// unmarked; the next tick redoes it and overwrites the same document.
package publisher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/aggregate"
	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/flags"
	"github.com/fouta-app/functions/internal/models"
	"github.com/fouta-app/functions/internal/paths"
	"github.com/fouta-app/functions/internal/safety"
	"github.com/fouta-app/functions/pkg/telemetry"
)

var (
	publishedTotal = telemetry.NewCounter("posts_published_total", "Scheduled posts published")
	rejectedTotal  = telemetry.NewCounter("posts_rejected_total", "Scheduled posts sent to moderation")
)

// FlagSource reports feature flags
type FlagSource interface {
	Enabled(ctx context.Context, name string) bool
}

// Classifier judges a payload
type Classifier interface {
	Classify(p models.Payload) safety.Verdict
}

// Result summarizes one tick
type Result struct {
	Users     int
	Published int
	Rejected  int
}

// Publisher publishes due scheduled posts
type Publisher struct {
	store      docstore.Store
	layout     paths.Layout
	classifier Classifier
	flags      FlagSource
	pageSize   int
	logger     *zap.Logger
}

// New creates a publisher
func New(store docstore.Store, layout paths.Layout, classifier Classifier, flagSource FlagSource, pageSize int, logger *zap.Logger) *Publisher {
	return &Publisher{
		store:      store,
		layout:     layout,
		classifier: classifier,
		flags:      flagSource,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// PublishDue handles every scheduled post due at now. The feature flag is
// read once; when it is off the tick does nothing. Store errors abort the
// tick, and posts already marked processed stay marked.
func (p *Publisher) PublishDue(ctx context.Context, now time.Time) (Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "publisher.PublishDue")
	defer span.End()

	var res Result
	if !p.flags.Enabled(ctx, flags.ScheduledPosts) {
		p.logger.Debug("Scheduled posts disabled, skipping tick")
		return res, nil
	}
	now = now.UTC()

	users := docstore.Collection(p.layout.Users())
	err := aggregate.Scan(ctx, p.store, users, docstore.DocumentID, p.pageSize, func(user *docstore.Document) error {
		res.Users++
		return p.publishUser(ctx, user.ID, now, &res)
	})

	span.SetAttributes(
		attribute.Int("users", res.Users),
		attribute.Int("published", res.Published),
		attribute.Int("rejected", res.Rejected),
	)
	if err != nil {
		span.RecordError(err)
		return res, err
	}

	p.logger.Info("Published scheduled posts",
		zap.Int("users", res.Users),
		zap.Int("published", res.Published),
		zap.Int("rejected", res.Rejected),
	)
	return res, nil
}

func (p *Publisher) publishUser(ctx context.Context, uid string, now time.Time, res *Result) error {
	due := docstore.Collection(p.layout.Scheduled(uid)).
		Where("publishAt", docstore.OpLessEqual, now).
		Where("processedAt", docstore.OpEqual, nil)

	return aggregate.Scan(ctx, p.store, due, "publishAt", p.pageSize, func(doc *docstore.Document) error {
		return p.process(ctx, models.ScheduledPostFromDocument(uid, doc), now, res)
	})
}

func (p *Publisher) process(ctx context.Context, sp models.ScheduledPost, now time.Time, res *Result) error {
	verdict := p.classifier.Classify(sp.Payload)

	if verdict.Accepted {
		post := models.Post{
			Content:     sp.Payload.Content,
			Media:       sp.Payload.Media,
			AuthorID:    sp.UserID,
			Visibility:  sp.Payload.Visibility,
			CreatedAt:   now,
			ScheduledID: sp.ID,
		}
		path := docstore.Join(p.layout.Posts(), sp.Key())
		if err := p.store.Set(ctx, path, post.ToMap(), docstore.SetOptions{}); err != nil {
			return fmt.Errorf("publish %s: %w", sp.Path, err)
		}
	} else {
		entry := models.ModerationEntry{
			Payload:     sp.Payload,
			Reason:      string(verdict.Reason),
			CreatedBy:   sp.UserID,
			CreatedAt:   now,
			ScheduledID: sp.ID,
		}
		path := docstore.Join(p.layout.Moderation(), sp.Key())
		if err := p.store.Set(ctx, path, entry.ToMap(), docstore.SetOptions{}); err != nil {
			return fmt.Errorf("quarantine %s: %w", sp.Path, err)
		}
	}

	if err := p.store.Update(ctx, sp.Path, map[string]interface{}{"processedAt": now}); err != nil {
		return fmt.Errorf("mark %s processed: %w", sp.Path, err)
	}

	if verdict.Accepted {
		res.Published++
		publishedTotal.Add(ctx, 1)
		p.logger.Debug("Published scheduled post", zap.String("user", sp.UserID), zap.String("scheduled_id", sp.ID))
	} else {
		res.Rejected++
		rejectedTotal.Add(ctx, 1, "reason", string(verdict.Reason))
		p.logger.Debug("Rejected scheduled post",
			zap.String("user", sp.UserID),
			zap.String("scheduled_id", sp.ID),
			zap.String("reason", string(verdict.Reason)),
		)
	}
	return nil
}
