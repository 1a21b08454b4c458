package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Counter is a monotonically increasing job counter
type Counter struct {
	c metric.Int64Counter
}

// NewCounter creates a counter on the global meter. Creation errors fall back
// to a counter that records nothing.
func NewCounter(name, description string) *Counter {
	c, err := Meter().Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return &Counter{}
	}
	return &Counter{c: c}
}

// Add records n with optional string attributes given as key/value pairs
func (c *Counter) Add(ctx context.Context, n int64, kv ...string) {
	if c == nil || c.c == nil || n == 0 {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], kv[i+1]))
	}
	c.c.Add(ctx, n, metric.WithAttributes(attrs...))
}
