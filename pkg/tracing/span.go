// Package tracing times a tool call and the planner steps under it.
// Sampled calls carry a root span in their context; child spans hang off
// it, and the whole tree is written as a single debug record when the root
// finishes. Every method is a no-op on a nil *Span.
package tracing

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
)

type spanKey struct{}

type Span struct {
	Name    string
	TraceID string

	mu       sync.Mutex
	started  time.Time
	ended    time.Time
	attrs    []slog.Attr
	children []*Span
}

func newSpan(name, traceID string) *Span {
	return &Span{Name: name, TraceID: traceID, started: time.Now()}
}

type Tracer struct {
	enabled bool
	rate    float64
	log     *slog.Logger
}

func NewTracer(cfg config.TracingConfig) *Tracer {
	return &Tracer{enabled: cfg.Enabled, rate: cfg.SampleRate, log: logger.WithComponent("tracing")}
}

func (t *Tracer) sampled() bool {
	return t != nil && t.enabled && (t.rate >= 1 || rand.Float64() < t.rate)
}

// Start opens a root span when the call is sampled; otherwise ctx is
// returned unchanged with a nil span.
func (t *Tracer) Start(ctx context.Context, name, traceID string) (context.Context, *Span) {
	if !t.sampled() {
		return ctx, nil
	}
	s := newSpan(name, traceID)
	return context.WithValue(ctx, spanKey{}, s), s
}

// Finish ends root and logs its tree.
func (t *Tracer) Finish(root *Span) {
	if t == nil || root == nil {
		return
	}
	root.End()
	args := []any{"trace_id", root.TraceID, "span", root.Name, "duration", root.Duration()}
	root.mu.Lock()
	for _, a := range root.attrs {
		args = append(args, a)
	}
	root.mu.Unlock()
	for i, c := range root.Children() {
		args = append(args, c.group(root.started, i))
	}
	t.log.Debug("trace", args...)
}

// StartChildSpan opens a span under the one in ctx. Without a parent it
// returns ctx and a nil span.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	if parent == nil {
		return ctx, nil
	}
	child := newSpan(name, parent.TraceID)
	parent.mu.Lock()
	parent.children = append(parent.children, child)
	parent.mu.Unlock()
	return context.WithValue(ctx, spanKey{}, child), child
}

func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// End is idempotent; the first call fixes the duration.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.ended.IsZero() {
		s.ended = time.Now()
	}
	s.mu.Unlock()
}

func (s *Span) SetAttr(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

// Attr returns the last value set for key.
func (s *Span) Attr(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.attrs) - 1; i >= 0; i-- {
		if s.attrs[i].Key == key {
			return s.attrs[i].Value.Any(), true
		}
	}
	return nil, false
}

// Duration is zero until the span ends.
func (s *Span) Duration() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended.IsZero() {
		return 0
	}
	return s.ended.Sub(s.started)
}

func (s *Span) Children() []*Span {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

// group renders s and its descendants as a nested slog group keyed by
// position, with timings relative to the root start.
func (s *Span) group(origin time.Time, pos int) slog.Attr {
	s.mu.Lock()
	args := []any{
		"name", s.Name,
		"offset", s.started.Sub(origin),
	}
	if !s.ended.IsZero() {
		args = append(args, "duration", s.ended.Sub(s.started))
	}
	for _, a := range s.attrs {
		args = append(args, a)
	}
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()

	for i, c := range children {
		args = append(args, c.group(origin, i))
	}
	return slog.Group(s.Name+"#"+strconv.Itoa(pos), args...)
}
