// Package parser validates raw tool arguments and turns them into planner
// query descriptors. Caller mistakes are reported as apperrors.ErrInvalidInput.
package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/planner"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/errors"
)

// Args are the decoded JSON arguments of one tool call.
type Args map[string]any

type Parser struct {
	defaultLimit  int
	maxResults    int
	maxBatchItems int
}

func New(defaultLimit, maxResults, maxBatchItems int) *Parser {
	return &Parser{
		defaultLimit:  defaultLimit,
		maxResults:    maxResults,
		maxBatchItems: maxBatchItems,
	}
}

func (p *Parser) Simple(args Args) (planner.SimpleQuery, error) {
	text, ok, err := stringArg(args, "query")
	if err != nil {
		return planner.SimpleQuery{}, err
	}
	if !ok {
		return planner.SimpleQuery{}, apperrors.Invalidf("query is required")
	}
	limit, err := p.limit(args)
	if err != nil {
		return planner.SimpleQuery{}, err
	}
	return planner.SimpleQuery{Text: text, Limit: limit}, nil
}

func (p *Parser) ID(args Args) (int, error) {
	raw, ok := args["id"]
	if !ok || raw == nil {
		return 0, apperrors.Invalidf("id is required")
	}
	id, err := toInt(raw)
	if err != nil {
		return 0, apperrors.Invalidf("id %v", err)
	}
	return id, nil
}

func (p *Parser) Nutrient(args Args) (planner.NutrientQuery, error) {
	field, ok, err := stringArg(args, "nutrient")
	if err != nil {
		return planner.NutrientQuery{}, err
	}
	if !ok || strings.TrimSpace(field) == "" {
		return planner.NutrientQuery{}, apperrors.Invalidf("nutrient is required")
	}
	q := planner.NutrientQuery{Field: strings.TrimSpace(field)}
	if q.Min, err = floatArg(args, "min"); err != nil {
		return planner.NutrientQuery{}, err
	}
	if q.Max, err = floatArg(args, "max"); err != nil {
		return planner.NutrientQuery{}, err
	}
	if q.Limit, err = p.limit(args); err != nil {
		return planner.NutrientQuery{}, err
	}
	return q, nil
}

func (p *Parser) Advanced(args Args) (planner.AdvancedQuery, error) {
	var q planner.AdvancedQuery
	text, ok, err := stringArg(args, "query")
	if err != nil {
		return q, err
	}
	if ok && strings.TrimSpace(text) != "" {
		q.Text = &text
	}

	for _, n := range food.AdvancedNutrients {
		lo, err := floatArg(args, "min_"+n.Key())
		if err != nil {
			return q, err
		}
		hi, err := floatArg(args, "max_"+n.Key())
		if err != nil {
			return q, err
		}
		if lo != nil || hi != nil {
			q.Ranges = append(q.Ranges, filter.Constraint{Field: n.Key(), Min: lo, Max: hi})
		}
	}

	sortBy, _, err := stringArg(args, "sort_by")
	if err != nil {
		return q, err
	}
	q.SortBy = strings.TrimSpace(sortBy)
	order, _, err := stringArg(args, "sort_order")
	if err != nil {
		return q, err
	}
	if q.Order, err = ranker.ParseDirection(order); err != nil {
		return q, apperrors.Invalidf("%v", err)
	}

	if q.Limit, err = p.limit(args); err != nil {
		return q, err
	}
	return q, nil
}

// Batch parses the queries array. Only a missing or oversized array fails
// the whole call; a malformed element is recorded on its own item.
func (p *Parser) Batch(args Args) ([]planner.BatchItem, error) {
	raw, ok := args["queries"]
	if !ok || raw == nil {
		return nil, apperrors.Invalidf("queries is required")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, apperrors.Invalidf("queries must be an array, got %T", raw)
	}
	if p.maxBatchItems > 0 && len(list) > p.maxBatchItems {
		return nil, apperrors.Invalidf("queries has %d items, at most %d allowed", len(list), p.maxBatchItems)
	}

	items := make([]planner.BatchItem, len(list))
	for i, el := range list {
		switch v := el.(type) {
		case string:
			text := v
			items[i] = planner.BatchItem{
				Kind:  planner.KindSimple,
				Query: planner.AdvancedQuery{Text: &text, Order: ranker.Descending, Limit: p.defaultLimit},
			}
		case map[string]any:
			q, err := p.Advanced(Args(v))
			items[i] = planner.BatchItem{Kind: planner.KindAdvanced, Query: q, Err: err}
		default:
			items[i] = planner.BatchItem{
				Kind: planner.KindAdvanced,
				Err:  apperrors.Invalidf("queries[%d] must be a string or an object, got %T", i, el),
			}
		}
	}
	return items, nil
}

// limit resolves the optional limit argument: absent means the default,
// values above the maximum are capped, and n <= 0 is passed through so the
// planner returns nothing.
func (p *Parser) limit(args Args) (int, error) {
	raw, ok := args["limit"]
	if !ok || raw == nil {
		return p.defaultLimit, nil
	}
	f, err := toFloat(raw)
	if err != nil {
		return 0, apperrors.Invalidf("limit must be an integer: %v", err)
	}
	if f != math.Trunc(f) {
		return 0, apperrors.Invalidf("limit must be an integer, got %v", f)
	}
	// capped as a float so that huge limits clamp instead of overflowing
	ceiling := float64(math.MaxInt32)
	if p.maxResults > 0 {
		ceiling = float64(p.maxResults)
	}
	return int(max(min(f, ceiling), math.MinInt32)), nil
}

func stringArg(args Args, key string) (string, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, apperrors.Invalidf("%s must be a string, got %T", key, raw)
	}
	return s, true, nil
}

func floatArg(args Args, key string) (*float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	f, err := toFloat(raw)
	if err != nil {
		return nil, apperrors.Invalidf("%s %v", key, err)
	}
	return &f, nil
}

func toFloat(raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float32:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", v)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", v)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("must be a number, got %T", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be finite")
	}
	return f, nil
}

func toInt(raw any) (int, error) {
	f, err := toFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer: %w", err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("must be an integer, got %v", f)
	}
	return int(f), nil
}
