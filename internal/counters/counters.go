// Package counters keeps unread message counts in step with chat activity.
// Each user document carries unreadMessageCount and each chat document an
// unreadCounts map keyed by participant.
package counters

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/models"
	"github.com/fouta-app/functions/internal/paths"
)

const userUnreadField = "unreadMessageCount"

// Counters reacts to chat events
type Counters struct {
	store  docstore.Store
	layout paths.Layout
	logger *zap.Logger
}

// New creates the chat counter handlers
func New(store docstore.Store, layout paths.Layout, logger *zap.Logger) *Counters {
	return &Counters{store: store, layout: layout, logger: logger}
}

// OnMessageCreated counts a new message against its recipient, the first
// participant other than the sender. Unknown chats and chats without a
// recipient are ignored. It returns the recipient, or "".
func (c *Counters) OnMessageCreated(ctx context.Context, chatID string, msg models.Message) (string, error) {
	chatPath := c.layout.Chat(chatID)
	doc, err := c.store.Doc(ctx, chatPath)
	if err != nil {
		return "", fmt.Errorf("load chat %s: %w", chatID, err)
	}
	if doc == nil {
		c.logger.Info("Chat not found", zap.String("chat", chatID))
		return "", nil
	}

	recipient, ok := models.ChatFromDocument(doc).Recipient(msg.SenderID)
	if !ok {
		c.logger.Info("Recipient not found in chat", zap.String("chat", chatID))
		return "", nil
	}

	err = c.store.Update(ctx, c.layout.User(recipient), map[string]interface{}{
		userUnreadField: docstore.IncrementBy(1),
	})
	if err != nil {
		return "", fmt.Errorf("count message for %s: %w", recipient, err)
	}
	err = c.store.Update(ctx, chatPath, map[string]interface{}{
		"unreadCounts." + recipient: docstore.IncrementBy(1),
	})
	if err != nil {
		return "", fmt.Errorf("count message in chat %s: %w", chatID, err)
	}
	return recipient, nil
}

// OnChatUpdated subtracts a cleared chat from a participant's total when
// their per-chat count drops from positive to zero. The total is left alone
// if it is smaller than the cleared amount. Every participant is checked;
// the number of adjusted users is returned.
func (c *Counters) OnChatUpdated(ctx context.Context, before, after models.Chat) (int, error) {
	var adjusted int
	for _, uid := range after.Participants {
		cleared := before.UnreadCounts[uid]
		if cleared <= 0 || after.UnreadCounts[uid] != 0 {
			continue
		}

		userPath := c.layout.User(uid)
		user, err := c.store.Doc(ctx, userPath)
		if err != nil {
			return adjusted, fmt.Errorf("load user %s: %w", uid, err)
		}
		if user == nil || user.Int(userUnreadField) < cleared {
			continue
		}

		err = c.store.Update(ctx, userPath, map[string]interface{}{
			userUnreadField: docstore.IncrementBy(-cleared),
		})
		if err != nil {
			return adjusted, fmt.Errorf("clear unread for %s: %w", uid, err)
		}
		adjusted++
	}
	return adjusted, nil
}
