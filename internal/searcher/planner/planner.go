// Package planner turns typed query descriptors into ordered food lists by
// composing the text matchers, the nutrient filter and the sort/limit
// stage. It is the single entry point for every query tool.
package planner

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/matcher"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/tracing"
)

// SimpleQuery is a ranked free-text search.
type SimpleQuery struct {
	Text  string `json:"query"`
	Limit int    `json:"limit"`
}

// NutrientQuery bounds a single nutrient.
type NutrientQuery struct {
	Field string   `json:"nutrient"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Limit int      `json:"limit"`
}

// AdvancedQuery combines an optional substring match, nutrient ranges and
// an optional sort. An empty SortBy keeps dataset order.
type AdvancedQuery struct {
	Text   *string             `json:"query,omitempty"`
	Ranges []filter.Constraint `json:"ranges,omitempty"`
	SortBy string              `json:"sort_by,omitempty"`
	Order  ranker.Direction    `json:"sort_order,omitempty"`
	Limit  int                 `json:"limit"`
}

// ItemKind tells batch consumers how an item was written by the caller.
type ItemKind string

const (
	KindSimple   ItemKind = "simple"
	KindAdvanced ItemKind = "advanced"
)

// BatchItem is one sub-query of a batch. A simple item is a bare string and
// runs as a substring match with the default limit. Err carries a parse
// failure for this item alone.
type BatchItem struct {
	Kind  ItemKind
	Query AdvancedQuery
	Err   error
}

// BatchResult is the outcome of one batch item, at the item's input index.
type BatchResult struct {
	Index int
	Kind  ItemKind
	Query AdvancedQuery
	Foods []*food.Food
	Err   error
}

// Planner executes queries against one immutable dataset snapshot.
type Planner struct {
	ds               *dataset.Dataset
	ranked           matcher.TextMatcher
	substring        matcher.TextMatcher
	batchConcurrency int
	randIntN         func(n int) int
	logger           *slog.Logger
}

type Option func(*Planner)

// WithRandom replaces the random source used by Random. fn(n) must return
// a value in [0, n).
func WithRandom(fn func(n int) int) Option {
	return func(p *Planner) { p.randIntN = fn }
}

// WithBatchConcurrency bounds how many batch items run at once.
func WithBatchConcurrency(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.batchConcurrency = n
		}
	}
}

func New(ds *dataset.Dataset, idx *index.TextIndex, opts ...Option) *Planner {
	p := &Planner{
		ds:               ds,
		ranked:           matcher.NewIndexed(idx),
		substring:        matcher.NewSubstring(ds),
		batchConcurrency: 4,
		randIntN:         rand.IntN,
		logger:           logger.WithComponent("query-planner"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Search runs a ranked fuzzy search over descriptions and categories.
func (p *Planner) Search(ctx context.Context, q SimpleQuery) []*food.Food {
	start := time.Now()
	_, span := tracing.StartChildSpan(ctx, "planner.search")
	defer span.End()

	out := ranker.Limit(p.ranked.Match(q.Text), q.Limit)

	span.SetAttr("results", len(out))
	p.logExecuted("search", start, len(out), "query", q.Text, "matcher", p.ranked.Name())
	return out
}

// Lookup returns the food with the given id.
func (p *Planner) Lookup(ctx context.Context, id int) (*food.Food, bool) {
	_, span := tracing.StartChildSpan(ctx, "planner.lookup")
	defer span.End()

	f, ok := p.ds.ByID(id)
	span.SetAttr("found", ok)
	return f, ok
}

// Categories lists each category present in the dataset once, in
// first-occurrence order.
func (p *Planner) Categories(ctx context.Context) []food.Category {
	_, span := tracing.StartChildSpan(ctx, "planner.categories")
	defer span.End()
	return p.ds.Categories()
}

// FilterByNutrient keeps foods whose value for q.Field lies within the
// bounds. Unknown fields match nothing.
func (p *Planner) FilterByNutrient(ctx context.Context, q NutrientQuery) []*food.Food {
	start := time.Now()
	_, span := tracing.StartChildSpan(ctx, "planner.filter")
	defer span.End()

	c := filter.Constraint{Field: q.Field, Min: q.Min, Max: q.Max}
	out := ranker.Limit(filter.Apply(p.ds.All(), []filter.Constraint{c}), q.Limit)

	span.SetAttr("results", len(out))
	p.logExecuted("filter", start, len(out), "constraint", c.String())
	return out
}

// Random picks one food uniformly. It reports false on an empty dataset.
func (p *Planner) Random(ctx context.Context) (*food.Food, bool) {
	_, span := tracing.StartChildSpan(ctx, "planner.random")
	defer span.End()

	if p.ds.Len() == 0 {
		return nil, false
	}
	return p.ds.At(p.randIntN(p.ds.Len())), true
}

// Advanced applies, in order: substring match (if Text is set), every
// range constraint, the optional sort, then the limit.
func (p *Planner) Advanced(ctx context.Context, q AdvancedQuery) []*food.Food {
	start := time.Now()
	_, span := tracing.StartChildSpan(ctx, "planner.advanced")
	defer span.End()

	out := p.advanced(q)

	span.SetAttr("results", len(out))
	p.logExecuted("advanced", start, len(out), "ranges", len(q.Ranges), "sort_by", q.SortBy)
	return out
}

func (p *Planner) advanced(q AdvancedQuery) []*food.Food {
	candidates := p.ds.All()
	if q.Text != nil {
		candidates = p.substring.Match(*q.Text)
	}
	candidates = filter.Apply(candidates, q.Ranges)
	if q.SortBy != "" {
		candidates = ranker.SortByNutrient(candidates, q.SortBy, q.Order)
	}
	return ranker.Limit(candidates, q.Limit)
}

// Batch evaluates items independently and concurrently. Results keep input
// order; a failing item yields an error entry and never aborts the rest.
func (p *Planner) Batch(ctx context.Context, items []BatchItem) []BatchResult {
	start := time.Now()
	ctx, span := tracing.StartChildSpan(ctx, "planner.batch")
	defer span.End()

	results := make([]BatchResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.batchConcurrency)
	for i, item := range items {
		g.Go(func() error {
			results[i] = p.runBatchItem(gctx, i, item)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	span.SetAttr("items", len(items))
	span.SetAttr("failed", failed)
	p.logExecuted("batch", start, len(items), "failed", failed)
	return results
}

func (p *Planner) runBatchItem(ctx context.Context, i int, item BatchItem) BatchResult {
	res := BatchResult{Index: i, Kind: item.Kind, Query: item.Query}
	if item.Err != nil {
		res.Err = item.Err
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	_, span := tracing.StartChildSpan(ctx, "planner.batch.item")
	defer span.End()
	res.Foods = p.advanced(item.Query)
	span.SetAttr("index", i)
	span.SetAttr("results", len(res.Foods))
	return res
}

func (p *Planner) logExecuted(op string, start time.Time, results int, attrs ...any) {
	args := append([]any{
		"operation", op,
		"results", results,
		"duration_ms", float64(time.Since(start).Microseconds()) / 1000,
	}, attrs...)
	p.logger.Debug("query executed", args...)
}
