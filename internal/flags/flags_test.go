package flags

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/cache"
)

func TestEnabledWithoutRedis(t *testing.T) {
	f := New(nil, map[string]bool{ScheduledPosts: true}, zap.NewNop())
	ctx := context.Background()

	if !f.Enabled(ctx, ScheduledPosts) {
		t.Error("configured default should apply")
	}
	if f.Enabled(ctx, "unknown") {
		t.Error("unknown flags should be off")
	}
	if err := f.Set(ctx, ScheduledPosts, false); !errors.Is(err, cache.ErrCacheDisabled) {
		t.Errorf("Set() error = %v, want ErrCacheDisabled", err)
	}
}

func TestEnabledOverride(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := New(cache.NewWithClient(client), map[string]bool{ScheduledPosts: false}, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func()
		want  bool
	}{
		{"default", func() {}, false},
		{"override on", func() { mr.Set("fouta:flags:scheduled_posts", "true") }, true},
		{"override off", func() { mr.Set("fouta:flags:scheduled_posts", "0") }, false},
		{"malformed", func() { mr.Set("fouta:flags:scheduled_posts", "maybe") }, false},
		{"set", func() {
			if err := f.Set(ctx, ScheduledPosts, true); err != nil {
				t.Fatal(err)
			}
		}, true},
		{"cleared", func() {
			if err := f.Clear(ctx, ScheduledPosts); err != nil {
				t.Fatal(err)
			}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			if got := f.Enabled(ctx, ScheduledPosts); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnabledRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	f := New(cache.NewWithClient(client), map[string]bool{ScheduledPosts: true}, zap.NewNop())
	mr.Close()

	if !f.Enabled(context.Background(), ScheduledPosts) {
		t.Error("default should apply when Redis is unreachable")
	}
}

func TestOverrides(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := New(cache.NewWithClient(client), map[string]bool{ScheduledPosts: false}, zap.NewNop())
	ctx := context.Background()

	if !f.Known(ScheduledPosts) || f.Known("unknown") {
		t.Error("Known() should follow the configured defaults")
	}
	if err := f.Set(ctx, "unknown", true); !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("Set(unknown) error = %v, want ErrUnknownFlag", err)
	}
	if err := f.Clear(ctx, "unknown"); !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("Clear(unknown) error = %v, want ErrUnknownFlag", err)
	}

	if on, err := f.Overridden(ctx, ScheduledPosts); err != nil || on {
		t.Errorf("Overridden() = %v, %v before Set", on, err)
	}
	if err := f.Set(ctx, ScheduledPosts, true); err != nil {
		t.Fatal(err)
	}
	if on, err := f.Overridden(ctx, ScheduledPosts); err != nil || !on {
		t.Errorf("Overridden() = %v, %v after Set", on, err)
	}
	if got, _ := mr.Get("fouta:flags:scheduled_posts"); got != "true" {
		t.Errorf("stored override = %q", got)
	}
	if err := f.Clear(ctx, ScheduledPosts); err != nil {
		t.Fatal(err)
	}
	if on, _ := f.Overridden(ctx, ScheduledPosts); on {
		t.Error("Clear() should drop the override")
	}
}
