package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if TeeHandler(nil, inner) != inner {
		t.Fatal("expected single handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsPerSinkLevels(t *testing.T) {
	var console, file bytes.Buffer
	h := TeeHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through file sink")
	}

	logger := slog.New(h).With("job_id", "abc")
	logger.Info("segment written")
	logger.Warn("segment failed")

	if strings.Contains(console.String(), "segment written") {
		t.Fatalf("console sink should drop info, got %q", console.String())
	}
	if !strings.Contains(console.String(), "segment failed") {
		t.Fatalf("console sink should keep warnings, got %q", console.String())
	}
	if strings.Count(file.String(), "job_id=abc") != 2 {
		t.Fatalf("file sink should receive both records with attrs, got %q", file.String())
	}
}
