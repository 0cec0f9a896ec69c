package analytics

import "time"

type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeEmpty   Outcome = "empty"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
)

// QueryEvent describes one tool call. Query is a short human-readable
// summary of the arguments used for top-query reporting.
type QueryEvent struct {
	Tool      string    `json:"tool"`
	Query     string    `json:"query,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Results   int       `json:"results"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Error     string    `json:"error,omitempty"`
	Transport string    `json:"transport"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
