// Package resilience guards the service's optional backends (Redis cache,
// SQL dataset sources): a circuit breaker, backoff retry and a bounded call.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is a breaker phase. The numeric values are exported as the
// taco_circuit_breaker_state gauge.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when a Breaker trips and recovers. Zero values
// get defaults: 5 failures, 30s cooldown, 1 probe.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the circuit.
	Threshold int
	// Cooldown is how long an open circuit rejects calls before probing.
	Cooldown time.Duration
	// Probes is the number of calls let through while half-open.
	Probes int
	// IsFailure decides which errors count; nil counts every non-nil error.
	IsFailure func(error) bool
	// OnStateChange, if set, is called after every transition, outside the
	// breaker's lock.
	OnStateChange func(name string, from, to State)
}

// BreakerStats is a point-in-time view of a breaker for status endpoints.
type BreakerStats struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	Rejected            int64  `json:"rejected"`
}

type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inFlight int
	rejected int64
}

func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		logger: logger.WithComponent("circuit-breaker").With("name", name),
		now:    time.Now,
	}
}

// Do runs fn unless the circuit is open, and records its outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		Name:                b.name,
		State:               b.state.String(),
		ConsecutiveFailures: b.failures,
		Rejected:            b.rejected,
	}
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	var from State
	changed := false
	defer func() {
		b.mu.Unlock()
		if changed {
			b.notify(from, StateHalfOpen)
		}
	}()

	switch b.state {
	case StateOpen:
		wait := b.cfg.Cooldown - b.now().Sub(b.openedAt)
		if wait > 0 {
			b.rejected++
			return fmt.Errorf("%w: %s (retry in %v)", ErrCircuitOpen, b.name, wait.Round(time.Millisecond))
		}
		from, changed = b.state, true
		b.state = StateHalfOpen
		b.inFlight = 1
		return nil
	case StateHalfOpen:
		if b.inFlight >= b.cfg.Probes {
			b.rejected++
			return fmt.Errorf("%w: %s (probe in progress)", ErrCircuitOpen, b.name)
		}
		b.inFlight++
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	from := b.state
	failed := b.cfg.IsFailure(err)
	switch {
	case !failed:
		if b.state != StateOpen {
			b.failures = 0
			b.state = StateClosed
		}
	case b.state == StateHalfOpen:
		b.failures++
		b.state = StateOpen
		b.openedAt = b.now()
	default:
		b.failures++
		if b.state == StateClosed && b.failures >= b.cfg.Threshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
	if b.state != StateHalfOpen {
		b.inFlight = 0
	}
	to, failures := b.state, b.failures
	b.mu.Unlock()

	if from != to {
		b.notify(from, to)
		if to == StateOpen {
			b.logger.Warn("circuit opened", "consecutive_failures", failures, "cooldown", b.cfg.Cooldown, "error", err)
		}
	}
}

func (b *Breaker) notify(from, to State) {
	b.logger.Info("circuit state changed", "from", from.String(), "to", to.String())
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}
