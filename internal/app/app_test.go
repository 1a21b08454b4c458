package app

import (
	"context"
	"testing"
	"time"

	"github.com/fouta-app/functions/internal/docstore"
	"github.com/fouta-app/functions/internal/docstore/memstore"
	"github.com/fouta-app/functions/internal/flags"
	"github.com/fouta-app/functions/internal/jobs"
	"github.com/fouta-app/functions/internal/paths"
	"github.com/fouta-app/functions/pkg/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store:      config.StoreConfig{Driver: "memory", AppID: "test-app", PageSize: 100},
		Scheduler:  config.SchedulerConfig{LockTTL: time.Minute},
		Publishing: config.PublishingConfig{Enabled: true, ForbiddenTerms: []string{"spam"}, MaxContentLength: 100},
	}
}

func TestNewMemory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if _, ok := a.Store.(*memstore.Store); !ok {
		t.Errorf("Store = %T, want *memstore.Store", a.Store)
	}
	if a.Cache != nil {
		t.Error("Cache should be disabled without a Redis URL")
	}
	if !a.Flags.Enabled(ctx, flags.ScheduledPosts) {
		t.Error("configured publishing flag should apply")
	}
	if len(a.HealthChecks()) != 0 {
		t.Errorf("HealthChecks() = %v", a.HealthChecks())
	}

	layout := paths.New("test-app")
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := a.Store.Set(ctx, layout.User("u1"), map[string]interface{}{}, docstore.SetOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := a.Store.Set(ctx, docstore.Join(layout.Scheduled("u1"), "s1"), map[string]interface{}{
		"publishAt":   now.Add(-time.Minute),
		"payload":     map[string]interface{}{"content": "more spam"},
		"processedAt": nil,
	}, docstore.SetOptions{}); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Jobs.Run(ctx, jobs.PublishScheduledPosts, now); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	entry, _ := a.Store.Doc(ctx, docstore.Join(layout.Moderation(), "u1_s1"))
	if entry == nil || entry.String("reason") != "forbidden-terms" {
		t.Errorf("configured forbidden terms should apply, got %v", entry)
	}
}

func TestNewUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store.Driver = "firestore"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("New() should reject unknown drivers")
	}
}
