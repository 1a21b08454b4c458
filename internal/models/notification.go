package models

import (
	"time"

	"github.com/fouta-app/functions/internal/docstore"
)

// Interaction is a like, comment or similar event aimed at TargetUID
type Interaction struct {
	TargetUID string `json:"targetUid"`
	Type      string `json:"type" binding:"required"`
	ActorID   string `json:"actorId"`
	PostID    string `json:"postId"`
	CommentID string `json:"commentId"`
}

// QueuedNotification waits in notifQueue/{uid}/items until the next dispatch
type QueuedNotification struct {
	ID        string
	Type      string
	ActorID   string
	PostID    string
	CommentID string
	CreatedAt time.Time
}

// QueuedNotificationFromDocument decodes a queue item
func QueuedNotificationFromDocument(doc *docstore.Document) QueuedNotification {
	n := QueuedNotification{
		ID:        doc.ID,
		Type:      doc.String("type"),
		ActorID:   doc.String("actorId"),
		PostID:    doc.String("postId"),
		CommentID: doc.String("commentId"),
	}
	n.CreatedAt, _ = doc.Time("createdAt")
	return n
}

// ToMap renders the queue item as document data
func (n QueuedNotification) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"type":      n.Type,
		"actorId":   n.ActorID,
		"postId":    n.PostID,
		"commentId": n.CommentID,
		"createdAt": n.CreatedAt,
	}
}

// InboxMap renders the item as an unread inbox notification
func (n QueuedNotification) InboxMap() map[string]interface{} {
	m := n.ToMap()
	m["read"] = false
	return m
}

// NotificationPrefs maps notification types to opt-outs. A type is allowed
// unless it is explicitly false.
type NotificationPrefs map[string]bool

// NotificationPrefsFromDocument decodes a settings document; nil allows all
func NotificationPrefsFromDocument(doc *docstore.Document) NotificationPrefs {
	prefs := NotificationPrefs{}
	if doc == nil {
		return prefs
	}
	for k := range doc.Data {
		if v, ok := doc.Bool(k); ok {
			prefs[k] = v
		}
	}
	return prefs
}

// Allows reports whether notifications of typ may be delivered
func (p NotificationPrefs) Allows(typ string) bool {
	v, ok := p[typ]
	return !ok || v
}
