package counters

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/docstore/memstore"
	"github.com/fouta-app/functions/internal/models"
	"github.com/fouta-app/functions/internal/paths"
)

var layout = paths.New("test-app")

func set(t *testing.T, store docstore.Store, path string, data map[string]interface{}) {
	t.Helper()
	if err := store.Set(context.Background(), path, data, docstore.SetOptions{}); err != nil {
		t.Fatal(err)
	}
}

func doc(t *testing.T, store docstore.Store, path string) *docstore.Document {
	t.Helper()
	d, err := store.Doc(context.Background(), path)
	if err != nil || d == nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return d
}

func TestOnMessageCreated(t *testing.T) {
	store := memstore.New()
	set(t, store, layout.Chat("c1"), map[string]interface{}{"participants": []interface{}{"alice", "bob"}})
	set(t, store, layout.User("bob"), map[string]interface{}{"unreadMessageCount": 2})
	c := New(store, layout, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		recipient, err := c.OnMessageCreated(ctx, "c1", models.Message{SenderID: "alice", Content: "hi"})
		if err != nil {
			t.Fatalf("OnMessageCreated() error = %v", err)
		}
		if recipient != "bob" {
			t.Errorf("recipient = %q, want bob", recipient)
		}
	}

	if got := doc(t, store, layout.User("bob")).Int("unreadMessageCount"); got != 4 {
		t.Errorf("unreadMessageCount = %d, want 4", got)
	}
	if got := doc(t, store, layout.Chat("c1")).Int("unreadCounts.bob"); got != 2 {
		t.Errorf("unreadCounts.bob = %d, want 2", got)
	}
}

func TestOnMessageCreatedIgnored(t *testing.T) {
	store := memstore.New()
	set(t, store, layout.Chat("solo"), map[string]interface{}{"participants": []interface{}{"alice"}})
	c := New(store, layout, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name   string
		chatID string
	}{
		{"missing chat", "nope"},
		{"no recipient", "solo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipient, err := c.OnMessageCreated(ctx, tt.chatID, models.Message{SenderID: "alice"})
			if err != nil || recipient != "" {
				t.Errorf("OnMessageCreated() = %q, %v", recipient, err)
			}
		})
	}
}

func TestOnMessageCreatedMissingUser(t *testing.T) {
	store := memstore.New()
	set(t, store, layout.Chat("c1"), map[string]interface{}{"participants": []interface{}{"alice", "ghost"}})
	c := New(store, layout, zap.NewNop())

	_, err := c.OnMessageCreated(context.Background(), "c1", models.Message{SenderID: "alice"})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("OnMessageCreated() error = %v, want ErrNotFound", err)
	}
}

func TestOnChatUpdated(t *testing.T) {
	tests := []struct {
		name     string
		stored   int
		before   int64
		after    int64
		want     int64
		adjusted int
	}{
		{"cleared", 5, 3, 0, 2, 1},
		{"cleared everything", 3, 3, 0, 0, 1},
		{"total too small", 1, 3, 0, 1, 0},
		{"still unread", 5, 3, 1, 5, 0},
		{"was already zero", 5, 0, 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			set(t, store, layout.User("bob"), map[string]interface{}{"unreadMessageCount": tt.stored})
			c := New(store, layout, zap.NewNop())

			before := models.Chat{Participants: []string{"alice", "bob"}, UnreadCounts: map[string]int64{"bob": tt.before}}
			after := models.Chat{Participants: []string{"alice", "bob"}, UnreadCounts: map[string]int64{"bob": tt.after}}

			adjusted, err := c.OnChatUpdated(context.Background(), before, after)
			if err != nil {
				t.Fatalf("OnChatUpdated() error = %v", err)
			}
			if adjusted != tt.adjusted {
				t.Errorf("adjusted = %d, want %d", adjusted, tt.adjusted)
			}
			if got := doc(t, store, layout.User("bob")).Int("unreadMessageCount"); got != tt.want {
				t.Errorf("unreadMessageCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOnChatUpdatedChecksEveryParticipant(t *testing.T) {
	store := memstore.New()
	set(t, store, layout.User("alice"), map[string]interface{}{"unreadMessageCount": 4})
	set(t, store, layout.User("bob"), map[string]interface{}{"unreadMessageCount": 7})
	c := New(store, layout, zap.NewNop())

	before := models.Chat{Participants: []string{"alice", "bob", "carol"}, UnreadCounts: map[string]int64{"alice": 1, "bob": 2, "carol": 9}}
	after := models.Chat{Participants: []string{"alice", "bob", "carol"}, UnreadCounts: map[string]int64{}}

	adjusted, err := c.OnChatUpdated(context.Background(), before, after)
	if err != nil {
		t.Fatalf("OnChatUpdated() error = %v", err)
	}
	if adjusted != 2 {
		t.Errorf("adjusted = %d, want 2 (carol has no user document)", adjusted)
	}
	if got := doc(t, store, layout.User("alice")).Int("unreadMessageCount"); got != 3 {
		t.Errorf("alice = %d, want 3", got)
	}
	if got := doc(t, store, layout.User("bob")).Int("unreadMessageCount"); got != 5 {
		t.Errorf("bob = %d, want 5", got)
	}
}
