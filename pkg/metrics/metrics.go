// Package metrics owns the service's Prometheus collectors. Every series is
// prefixed "taco_".
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taco"

var (
	httpBuckets = prometheus.ExponentialBuckets(0.001, 2.5, 10)
	toolBuckets = prometheus.ExponentialBuckets(0.0001, 3, 10)
)

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// ToolCallsTotal is labelled by tool and outcome (ok, empty, invalid, error).
	ToolCallsTotal   *prometheus.CounterVec
	ToolLatency      *prometheus.HistogramVec
	ToolResultsCount *prometheus.HistogramVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	DatasetFoods prometheus.Gauge
	IndexTerms   prometheus.Gauge

	// CircuitBreakerState holds resilience.State values: 0 closed, 1 open,
	// 2 half-open.
	CircuitBreakerState *prometheus.GaugeVec
}

// New registers the collectors with reg. Tests pass a fresh registry so
// repeated calls do not panic on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency.", Buckets: httpBuckets,
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_in_flight",
			Help: "HTTP requests being served.",
		}),

		ToolCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "tool", Name: "calls_total",
			Help: "Tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		ToolLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "tool", Name: "latency_seconds",
			Help: "Tool call latency, split by cache status.", Buckets: toolBuckets,
		}, []string{"tool", "cache_status"}),
		ToolResultsCount: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "tool", Name: "results",
			Help: "Foods returned per tool call.", Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"tool"}),

		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Result cache hits.",
		}),
		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
			Help: "Result cache misses.",
		}),

		DatasetFoods: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "dataset_foods",
			Help: "Food records loaded.",
		}),
		IndexTerms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "index_terms",
			Help: "Distinct terms in the text index.",
		}),

		CircuitBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"name"}),
	}
}

// Handler serves g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}
