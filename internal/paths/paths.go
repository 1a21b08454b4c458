// Package paths names the document-store collections the jobs touch.
// Application data lives under artifacts/{appID}/public/data; the
// notification queue sits at the store root.
package paths

import (
	"github.com/fouta-app/functions/internal/docstore"
)

// NotifQueue is the root of the per-user notification queues
const NotifQueue = "notifQueue"

// Layout resolves collection paths for one app id
type Layout struct {
	root string
}

// New returns the layout of appID
func New(appID string) Layout {
	return Layout{root: docstore.Join("artifacts", appID, "public", "data")}
}

// Root returns the app data root
func (l Layout) Root() string { return l.root }

func (l Layout) Users() string { return docstore.Join(l.root, "users") }
func (l Layout) User(uid string) string { return docstore.Join(l.Users(), uid) }
func (l Layout) Scheduled(uid string) string { return docstore.Join(l.User(uid), "scheduled") }
func (l Layout) Posts() string { return docstore.Join(l.root, "posts") }
func (l Layout) Moderation() string { return docstore.Join(l.root, "moderation") }
func (l Layout) Shorts() string { return docstore.Join(l.root, "shorts") }
func (l Layout) PurchaseIntents() string { return docstore.Join(l.root, "monetization", "intents") }
func (l Layout) DailyMetrics() string { return docstore.Join(l.root, "metrics", "daily") }
func (l Layout) Stories() string { return docstore.Join(l.root, "stories") }
func (l Layout) Chats() string { return docstore.Join(l.root, "chats") }
func (l Layout) Chat(id string) string { return docstore.Join(l.Chats(), id) }
func (l Layout) Messages(chatID string) string { return docstore.Join(l.Chat(chatID), "messages") }
func (l Layout) Inbox(uid string) string { return docstore.Join(l.root, "notifications", uid, "items") }
func (l Layout) NotificationSettings(uid string) string {
	return docstore.Join(l.User(uid), "settings", "notifications")
}

// QueueItems is the pending notification collection of uid
func QueueItems(uid string) string {
	return docstore.Join(NotifQueue, uid, "items")
}
