// Package handler exposes the query planner as seven tools over HTTP and
// stdio. Both transports go through Call, which validates arguments,
// consults the result cache, and records metrics and analytics.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/planner"
	apperrors "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/tracing"
)

// Tracker receives one event per tool call. *analytics.Collector
// satisfies it.
type Tracker interface {
	Track(event analytics.QueryEvent)
}

// Deps are the collaborators of a Handler. Planner and Parser are
// required; the rest may be nil.
type Deps struct {
	Planner   *planner.Planner
	Parser    *parser.Parser
	Cache     *cache.ResultCache
	Tracker   Tracker
	Analytics *analytics.Aggregator
	Metrics   *metrics.Metrics
	Tracer    *tracing.Tracer
	Info      protocol.Implementation
}

type Handler struct {
	planner   *planner.Planner
	parser    *parser.Parser
	cache     *cache.ResultCache
	tracker   Tracker
	analytics *analytics.Aggregator
	metrics   *metrics.Metrics
	tracer    *tracing.Tracer
	info      protocol.Implementation
	logger    *slog.Logger
}

func New(d Deps) *Handler {
	c := d.Cache
	if c == nil {
		c = cache.New(nil, 0)
	}
	return &Handler{
		planner:   d.Planner,
		parser:    d.Parser,
		cache:     c,
		tracker:   d.Tracker,
		analytics: d.Analytics,
		metrics:   d.Metrics,
		tracer:    d.Tracer,
		info:      d.Info,
		logger:    logger.WithComponent("tool-handler"),
	}
}

// Result is the outcome of one tool call. Body is the JSON rendering.
// Value holds the freshly computed payload and is nil when Body came from
// the cache.
type Result struct {
	Tool     string
	Body     []byte
	Value    any
	Results  int
	CacheHit bool
}

// ToolResult wraps r as a CallToolResult with a single JSON text content.
func (r *Result) ToolResult() *protocol.CallToolResult {
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(r.Body),
			},
		},
	}
}

type cacheEntry struct {
	Results int             `json:"results"`
	Body    json.RawMessage `json:"body"`
}

// Call runs one tool. Input mistakes return an error wrapping
// apperrors.ErrInvalidInput; unknown names wrap apperrors.ErrUnknownTool.
// Empty results and unknown ids are successful calls.
func (h *Handler) Call(ctx context.Context, tool string, args map[string]any, transport string) (*Result, error) {
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "tool."+tool, logger.RequestID(ctx))
	defer h.tracer.Finish(span)

	if args == nil {
		args = map[string]any{}
	}
	res, summary, err := h.dispatch(ctx, tool, parser.Args(args))
	span.SetAttr("tool", tool)
	if err != nil {
		span.SetAttr("error", err.Error())
	} else {
		span.SetAttr("results", res.Results)
		span.SetAttr("cache_hit", res.CacheHit)
	}
	h.observe(ctx, tool, summary, transport, start, res, err)
	return res, err
}

func (h *Handler) dispatch(ctx context.Context, tool string, args parser.Args) (*Result, string, error) {
	switch tool {
	case ToolSearchFoods:
		q, err := h.parser.Simple(args)
		if err != nil {
			return nil, "", err
		}
		res, err := h.cached(ctx, tool, q, func() (any, int) {
			foods := h.planner.Search(ctx, q)
			return searchResult{Query: q.Text, foodList: newFoodList(foods)}, len(foods)
		})
		return res, q.Text, err

	case ToolGetFoodByID:
		id, err := h.parser.ID(args)
		if err != nil {
			return nil, "", err
		}
		res, err := h.cached(ctx, tool, map[string]int{"id": id}, func() (any, int) {
			f, ok := h.planner.Lookup(ctx, id)
			if !ok {
				return lookupResult{ID: id}, 0
			}
			return lookupResult{ID: id, Found: true, Food: f}, 1
		})
		return res, fmt.Sprintf("id=%d", id), err

	case ToolListCategories:
		res, err := h.cached(ctx, tool, nil, func() (any, int) {
			cats := h.planner.Categories(ctx)
			return categoriesResult{Count: len(cats), Categories: cats}, len(cats)
		})
		return res, "", err

	case ToolFilterByNutrient:
		q, err := h.parser.Nutrient(args)
		if err != nil {
			return nil, "", err
		}
		res, err := h.cached(ctx, tool, q, func() (any, int) {
			foods := h.planner.FilterByNutrient(ctx, q)
			out := nutrientResult{Nutrient: q.Field, Min: q.Min, Max: q.Max, foodList: newFoodList(foods)}
			if n, ok := food.LookupNutrient(q.Field); ok {
				out.Unit = n.Unit()
			}
			return out, len(foods)
		})
		return res, q.Field, err

	case ToolRandomFood:
		// never cached
		f, ok := h.planner.Random(ctx)
		out := randomResult{Found: ok, Food: f}
		n := 0
		if ok {
			n = 1
		}
		res, err := encodeResult(tool, out, n)
		return res, "", err

	case ToolAdvancedSearch:
		q, err := h.parser.Advanced(args)
		if err != nil {
			return nil, "", err
		}
		res, err := h.cached(ctx, tool, q, func() (any, int) {
			foods := h.planner.Advanced(ctx, q)
			return advancedResult{Criteria: q, foodList: newFoodList(foods)}, len(foods)
		})
		summary := ""
		if q.Text != nil {
			summary = *q.Text
		}
		return res, summary, err

	case ToolBatchQuery:
		items, err := h.parser.Batch(args)
		if err != nil {
			return nil, "", err
		}
		res, err := h.cached(ctx, tool, args, func() (any, int) {
			return newBatchResult(h.planner.Batch(ctx, items))
		})
		return res, fmt.Sprintf("batch(%d)", len(items)), err

	default:
		return nil, "", apperrors.Newf(apperrors.ErrUnknownTool, "unknown tool %q", tool)
	}
}

// cached serves (tool, key) from the result cache or computes it. When a
// concurrent caller computed the entry, Value is left nil like a hit. A
// result computed under an expired context is discarded, not cached.
func (h *Handler) cached(ctx context.Context, tool string, key any, compute func() (any, int)) (*Result, error) {
	var fresh *Result
	data, hit, err := h.cache.GetOrCompute(ctx, tool, key, func() ([]byte, error) {
		value, n := compute()
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Newf(apperrors.ErrTimeout, "%s: %v", tool, err)
		}
		res, err := encodeResult(tool, value, n)
		if err != nil {
			return nil, err
		}
		fresh = res
		return json.Marshal(cacheEntry{Results: n, Body: res.Body})
	})
	if err != nil {
		return nil, err
	}
	if fresh != nil && !hit {
		return fresh, nil
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInternal, "decoding cached %s result: %v", tool, err)
	}
	return &Result{Tool: tool, Body: entry.Body, Results: entry.Results, CacheHit: hit}, nil
}

func encodeResult(tool string, value any, n int) (*Result, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInternal, "encoding %s result: %v", tool, err)
	}
	return &Result{Tool: tool, Body: body, Value: value, Results: n}, nil
}

func outcomeOf(res *Result, err error) analytics.Outcome {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrUnknownTool):
		return analytics.OutcomeInvalid
	case err != nil:
		return analytics.OutcomeError
	case res.Results == 0:
		return analytics.OutcomeEmpty
	default:
		return analytics.OutcomeOK
	}
}

func (h *Handler) observe(ctx context.Context, tool, summary, transport string, start time.Time, res *Result, err error) {
	elapsed := time.Since(start)
	outcome := outcomeOf(res, err)
	results, hit := 0, false
	if res != nil {
		results, hit = res.Results, res.CacheHit
	}

	label := tool
	if !knownTool(tool) {
		label = "unknown"
	}
	if h.metrics != nil {
		h.metrics.ToolCallsTotal.WithLabelValues(label, string(outcome)).Inc()
		if err == nil {
			status := "miss"
			switch {
			case !h.cache.Enabled() || tool == ToolRandomFood:
				status = "bypass"
			case hit:
				status = "hit"
				h.metrics.CacheHitsTotal.Inc()
			default:
				h.metrics.CacheMissesTotal.Inc()
			}
			h.metrics.ToolLatency.WithLabelValues(label, status).Observe(elapsed.Seconds())
			h.metrics.ToolResultsCount.WithLabelValues(label).Observe(float64(results))
		}
	}

	requestID := logger.RequestID(ctx)
	if h.tracker != nil {
		event := analytics.QueryEvent{
			Tool:      label,
			Query:     summary,
			Outcome:   outcome,
			Results:   results,
			LatencyMs: elapsed.Milliseconds(),
			CacheHit:  hit,
			Transport: transport,
			Timestamp: time.Now().UTC(),
			RequestID: requestID,
		}
		if err != nil {
			event.Error = err.Error()
		}
		h.tracker.Track(event)
	}

	log := logger.FromContext(ctx)
	if err != nil {
		level := slog.LevelWarn
		if outcome == analytics.OutcomeError {
			level = slog.LevelError
		}
		log.Log(ctx, level, "tool call failed", "tool", tool, "transport", transport, "error", err)
		return
	}
	log.Info("tool call completed",
		"tool", tool,
		"transport", transport,
		"results", results,
		"cache_hit", hit,
		"latency_ms", elapsed.Milliseconds(),
	)
}
