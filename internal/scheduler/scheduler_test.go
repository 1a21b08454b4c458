package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestEveryNext(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		every    Every
		t        time.Time
		expected time.Time
	}{
		{"mid interval", Every(5 * time.Minute), base.Add(2 * time.Minute), base.Add(5 * time.Minute)},
		{"on boundary", Every(5 * time.Minute), base, base.Add(5 * time.Minute)},
		{"just before", Every(5 * time.Minute), base.Add(5*time.Minute - time.Nanosecond), base.Add(5 * time.Minute)},
		{"hourly", Every(time.Hour), base.Add(59 * time.Minute), base.Add(time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.every.Next(tt.t); !got.Equal(tt.expected) {
				t.Errorf("Next() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDailyAtNext(t *testing.T) {
	midnight := DailyAt{}

	tests := []struct {
		name     string
		t        time.Time
		expected time.Time
	}{
		{"afternoon", time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC), time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"at midnight", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"year end", time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"other zone", time.Date(2025, 1, 2, 0, 30, 0, 0, time.FixedZone("WAT", 3600)), time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := midnight.Next(tt.t); !got.Equal(tt.expected) {
				t.Errorf("Next() = %v, want %v", got, tt.expected)
			}
		})
	}
}

type countingRunner struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (r *countingRunner) Run(_ context.Context, name string, _ time.Time) (interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[name]++
	return nil, r.err
}

func (r *countingRunner) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func TestRun(t *testing.T) {
	runner := &countingRunner{calls: map[string]int{}, err: errors.New("tick failed")}
	s := New(runner)
	s.Add("fast", Every(5*time.Millisecond))
	s.Add("daily", DailyAt{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for runner.count("fast") < 3 {
		select {
		case <-deadline:
			t.Fatalf("fast job ran %d times", runner.count("fast"))
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if runner.count("daily") != 0 {
		t.Error("daily job should not have fired")
	}
}

func TestRunWithoutJobs(t *testing.T) {
	if err := New(&countingRunner{}).Run(context.Background()); err == nil {
		t.Error("Run() without jobs should fail")
	}
}
