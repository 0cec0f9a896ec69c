package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestJSONHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler("warn", "json", &buf))
	l.Info("hidden")
	l.Warn("shown", "tool", "search_foods")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "shown" || rec["tool"] != "search_foods" {
		t.Errorf("record = %v", rec)
	}
}

func TestConsoleAndTextHandlers(t *testing.T) {
	for _, format := range []string{"console", "text"} {
		var buf bytes.Buffer
		slog.New(NewHandler("debug", format, &buf)).Debug("dataset loaded", "foods", 24)
		if !strings.Contains(buf.String(), "dataset loaded") || !strings.Contains(buf.String(), "24") {
			t.Errorf("%s output = %q", format, buf.String())
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" {
		t.Error("empty context should have no request id")
	}
	ctx = WithRequestID(ctx, "req-1")
	if RequestID(ctx) != "req-1" {
		t.Errorf("RequestID = %q", RequestID(ctx))
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
