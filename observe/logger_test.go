package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func parseLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}
	return entry
}

// TestLogger_IncludesFields verifies structured fields appear in the output.
func TestLogger_IncludesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "cache miss",
		F("key", "user:42"),
		F("level", "l1"),
		F("attempts", 3),
	)

	entry := parseLine(t, &buf)
	if v, ok := entry["key"].(string); !ok || v != "user:42" {
		t.Errorf("expected key='user:42', got %v", entry["key"])
	}
	if v, ok := entry["level"].(string); !ok || v != "l1" {
		t.Errorf("expected level='l1', got %v", entry["level"])
	}
	if v, ok := entry["attempts"].(float64); !ok || v != 3 {
		t.Errorf("expected attempts=3, got %v", entry["attempts"])
	}
	if v, ok := entry["message"].(string); !ok || v != "cache miss" {
		t.Errorf("expected message='cache miss', got %v", entry["message"])
	}
}

// TestLogger_ErrorField verifies error values serialize via their message.
func TestLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "operation failed",
		F("error", errors.New("connection refused")),
	)

	entry := parseLine(t, &buf)
	if v, ok := entry["error"].(string); !ok || v != "connection refused" {
		t.Errorf("expected error='connection refused', got %v", entry["error"])
	}
}

// TestLogger_LevelFiltering verifies events below the configured level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}

	logger.Warn(ctx, "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected warn output, got: %s", buf.String())
	}
}

// TestLogger_UnknownLevelFallsBackToInfo verifies unknown levels do not panic.
func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("nonsense", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got: %s", buf.String())
	}
	logger.Info(ctx, "info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("expected info output, got: %s", buf.String())
	}
}

// TestLogger_With verifies attached fields appear on every event.
func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).With(F("component", "ratelimit"))

	logger.Info(context.Background(), "limiter added")

	entry := parseLine(t, &buf)
	if v, ok := entry["component"].(string); !ok || v != "ratelimit" {
		t.Errorf("expected component='ratelimit', got %v", entry["component"])
	}
}

// TestNopLogger verifies the no-op logger discards everything without panicking.
func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	ctx := context.Background()

	logger.Debug(ctx, "a")
	logger.Info(ctx, "b", F("k", "v"))
	logger.Warn(ctx, "c")
	logger.Error(ctx, "d", F("error", errors.New("boom")))
	logger.With(F("k", "v")).Info(ctx, "e")
}
