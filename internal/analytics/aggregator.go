package analytics

import (
	"cmp"
	"maps"
	"slices"
	"sync"
	"time"
)

const (
	maxLatencySamples = 10000
	topQueriesShown   = 10
)

// ToolStats are the running counts for one tool.
type ToolStats struct {
	Calls     int64 `json:"calls"`
	Empty     int64 `json:"empty"`
	Invalid   int64 `json:"invalid"`
	Errors    int64 `json:"errors"`
	CacheHits int64 `json:"cache_hits"`
}

type AggregatedStats struct {
	TotalCalls        int64                `json:"total_calls"`
	Tools             map[string]ToolStats `json:"tools"`
	Errors            int64                `json:"errors"`
	InvalidCalls      int64                `json:"invalid_calls"`
	ZeroResultCount   int64                `json:"zero_result_count"`
	CacheHits         int64                `json:"cache_hits"`
	CacheMisses       int64                `json:"cache_misses"`
	AvgLatencyMs      float64              `json:"avg_latency_ms"`
	P50LatencyMs      int64                `json:"p50_latency_ms"`
	P95LatencyMs      int64                `json:"p95_latency_ms"`
	P99LatencyMs      int64                `json:"p99_latency_ms"`
	TopQueries        []QueryCount         `json:"top_queries"`
	ZeroResultQueries []QueryCount         `json:"zero_result_queries"`
	QueriesPerMinute  float64              `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds QueryEvents into in-memory totals for the analytics
// endpoint. Latency percentiles cover the last maxLatencySamples calls.
type Aggregator struct {
	mu        sync.Mutex
	tools     map[string]*ToolStats
	queries   map[string]int64
	zeroHits  map[string]int64
	latency   []int64
	ringPos   int
	total     int64
	startTime time.Time
	now       func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		tools:     map[string]*ToolStats{},
		queries:   map[string]int64{},
		zeroHits:  map[string]int64{},
		latency:   make([]int64, 0, 1024),
		startTime: time.Now(),
		now:       time.Now,
	}
}

func (a *Aggregator) Record(ev QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	ts := a.tools[ev.Tool]
	if ts == nil {
		ts = &ToolStats{}
		a.tools[ev.Tool] = ts
	}
	ts.Calls++
	if ev.CacheHit {
		ts.CacheHits++
	}
	switch ev.Outcome {
	case OutcomeEmpty:
		ts.Empty++
		if ev.Query != "" {
			a.zeroHits[ev.Query]++
		}
	case OutcomeInvalid:
		ts.Invalid++
	case OutcomeError:
		ts.Errors++
	}
	if ev.Query != "" {
		a.queries[ev.Query]++
	}

	if len(a.latency) < maxLatencySamples {
		a.latency = append(a.latency, ev.LatencyMs)
		return
	}
	a.latency[a.ringPos] = ev.LatencyMs
	a.ringPos = (a.ringPos + 1) % maxLatencySamples
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := AggregatedStats{
		TotalCalls:        a.total,
		Tools:             make(map[string]ToolStats, len(a.tools)),
		TopQueries:        topN(a.queries, topQueriesShown),
		ZeroResultQueries: topN(a.zeroHits, topQueriesShown),
	}
	for name, ts := range a.tools {
		out.Tools[name] = *ts
		out.Errors += ts.Errors
		out.InvalidCalls += ts.Invalid
		out.ZeroResultCount += ts.Empty
		out.CacheHits += ts.CacheHits
	}
	out.CacheMisses = a.total - out.CacheHits

	if n := len(a.latency); n > 0 {
		sorted := slices.Sorted(slices.Values(a.latency))
		var sum int64
		for _, v := range sorted {
			sum += v
		}
		out.AvgLatencyMs = float64(sum) / float64(n)
		out.P50LatencyMs = sorted[n*50/100]
		out.P95LatencyMs = sorted[min(n*95/100, n-1)]
		out.P99LatencyMs = sorted[min(n*99/100, n-1)]
	}
	if mins := a.now().Sub(a.startTime).Minutes(); mins > 0 {
		out.QueriesPerMinute = float64(a.total) / mins
	}
	return out
}

// topN ranks by count, highest first, breaking ties alphabetically.
func topN(counts map[string]int64, n int) []QueryCount {
	keys := slices.SortedFunc(maps.Keys(counts), func(x, y string) int {
		if c := cmp.Compare(counts[y], counts[x]); c != 0 {
			return c
		}
		return cmp.Compare(x, y)
	})
	out := make([]QueryCount, 0, min(n, len(keys)))
	for _, k := range keys[:min(n, len(keys))] {
		out = append(out, QueryCount{Query: k, Count: counts[k]})
	}
	return out
}
