package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fouta-app/functions/pkg/config"
)

func newTestFlatLogger(buf *bytes.Buffer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "timestamp",
		LevelKey:      "level",
		MessageKey:    "message",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(NewFlatEncoder(encoderConfig), zapcore.AddSync(buf), zapcore.InfoLevel)
	return zap.New(core)
}

func TestInitLogger(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	for _, cfg := range []config.LoggingConfig{
		{Level: "INFO", Format: "json", FlatFormat: true},
		{Level: "debug", Format: "json"},
		{Level: "bogus", Format: "text"},
	} {
		if err := InitLogger(&cfg); err != nil {
			t.Fatalf("InitLogger(%+v) error: %v", cfg, err)
		}
		if Logger == nil {
			t.Fatalf("InitLogger(%+v) left Logger nil", cfg)
		}
	}
}

func TestFlatEncoder(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestFlatLogger(&buf)

	logger.Info("test message", zap.String("key", "value"), zap.Int("count", 3))

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if logObj["message"] != "test message" {
		t.Errorf("Expected message 'test message', got: %v", logObj["message"])
	}
	if logObj["key"] != "value" {
		t.Errorf("Expected field 'key'='value', got: %v", logObj["key"])
	}
	if logObj["count"] != float64(3) {
		t.Errorf("Expected field 'count'=3, got: %v", logObj["count"])
	}
	if _, ok := logObj["timestamp"]; !ok {
		t.Error("Expected 'timestamp' field in log output")
	}
}

func TestFlatEncoderWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestFlatLogger(&buf).With(
		zap.String("component", "publisher"),
		zap.Bool("enabled", true),
		zap.Duration("took", 1500*time.Millisecond),
	)

	logger.Warn("tick finished")

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if logObj["component"] != "publisher" {
		t.Errorf("Expected component from With(), got: %v", logObj["component"])
	}
	if logObj["enabled"] != true {
		t.Errorf("Expected enabled=true from With(), got: %v", logObj["enabled"])
	}
	if logObj["took"] != "1.5s" {
		t.Errorf("Expected took=1.5s, got: %v", logObj["took"])
	}
	if logObj["level"] != "warn" {
		t.Errorf("Expected level warn, got: %v", logObj["level"])
	}
}

func TestWithTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	if got := WithTraceID(base, ""); got != base {
		t.Error("empty trace id should return the same logger")
	}

	WithTraceID(base, "4bf92f3577b34da6a3ce929d0e0e4736").Info("traced")
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["trace_id"]; got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v", got)
	}
}
