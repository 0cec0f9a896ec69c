// Package logger configures the process-wide slog logger and carries the
// request id through contexts so every line of one tool call can be
// correlated.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

type requestIDKey struct{}

// Setup installs the default logger. out defaults to stdout; stdio mode
// passes os.Stderr because stdout carries protocol frames.
func Setup(level, format string, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	slog.SetDefault(slog.New(NewHandler(level, format, out)))
}

// NewHandler builds a handler for format "json", "console" (charmbracelet,
// human readable) or anything else for slog's text output.
func NewHandler(level, format string, out io.Writer) slog.Handler {
	lvl := ParseLevel(level)
	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	case "console":
		return charmlog.NewWithOptions(out, charmlog.Options{
			Level:           charmlog.Level(lvl),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          "taco",
		})
	default:
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	}
}

// ParseLevel accepts slog level names in any case plus "warning"; unknown
// names mean info.
func ParseLevel(s string) slog.Level {
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext is the default logger tagged with ctx's request id.
func FromContext(ctx context.Context) *slog.Logger {
	if id := RequestID(ctx); id != "" {
		return slog.Default().With("request_id", id)
	}
	return slog.Default()
}

func WithComponent(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
