package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
)

// Publisher ships a batch of events off-process. *kafka.Producer
// satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

const (
	defaultQueue      = 10000
	defaultBatch      = 100
	defaultFlushEvery = 5 * time.Second
	closeFlushTimeout = 5 * time.Second
	// failed batches are retried until this many batches are pending
	maxPendingBatches = 3
)

// Collector takes QueryEvents from request goroutines without blocking
// them. One background goroutine owns the Aggregator writes and the
// pending batch, which is published when full or on every flush tick.
type Collector struct {
	agg        *Aggregator
	pub        Publisher
	queue      chan QueryEvent
	batchSize  int
	flushEvery time.Duration
	log        *slog.Logger

	pending []kafka.Event
	dropped atomic.Int64

	closeOnce sync.Once
	stopped   chan struct{}
}

// NewCollector wires agg and an optional pub. Non-positive sizes take
// defaults.
func NewCollector(agg *Aggregator, pub Publisher, queueSize, batchSize int, flushEvery time.Duration) *Collector {
	if queueSize <= 0 {
		queueSize = defaultQueue
	}
	if batchSize <= 0 {
		batchSize = defaultBatch
	}
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}
	return &Collector{
		agg:        agg,
		pub:        pub,
		queue:      make(chan QueryEvent, queueSize),
		batchSize:  batchSize,
		flushEvery: flushEvery,
		log:        logger.WithComponent("analytics-collector"),
		stopped:    make(chan struct{}),
	}
}

func (c *Collector) Aggregator() *Aggregator { return c.agg }

// Dropped counts events lost to a full queue.
func (c *Collector) Dropped() int64 { return c.dropped.Load() }

// Start runs the consumer until ctx ends or Close is called. Either way
// queued events are folded in and the last batch is published.
func (c *Collector) Start(ctx context.Context) {
	c.log.Info("analytics collector started", "queue", cap(c.queue), "publish", c.pub != nil)
	go func() {
		defer close(c.stopped)
		defer c.shutdown()

		tick := time.NewTicker(c.flushEvery)
		defer tick.Stop()
		for {
			select {
			case ev, open := <-c.queue:
				if !open {
					return
				}
				c.consume(ctx, ev)
			case <-tick.C:
				c.publish(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Track enqueues ev, dropping it when the queue is full.
func (c *Collector) Track(ev QueryEvent) {
	select {
	case c.queue <- ev:
	default:
		// log at 1, 2, 4, 8... drops
		if n := c.dropped.Add(1); n&(n-1) == 0 {
			c.log.Warn("analytics queue full, dropping events", "dropped", n)
		}
	}
}

// Close stops intake and waits for the final publish. Track must not be
// called after Close.
func (c *Collector) Close() {
	c.closeOnce.Do(func() { close(c.queue) })
	<-c.stopped
}

func (c *Collector) consume(ctx context.Context, ev QueryEvent) {
	c.agg.Record(ev)
	if c.pub == nil {
		return
	}
	c.pending = append(c.pending, kafka.Event{Key: ev.Tool, Value: ev})
	if len(c.pending) >= c.batchSize {
		c.publish(ctx)
	}
}

// shutdown folds in whatever is still queued, then publishes with a fresh
// deadline since the run context may already be done.
func (c *Collector) shutdown() {
drain:
	for {
		select {
		case ev, open := <-c.queue:
			if !open {
				break drain
			}
			c.consume(context.Background(), ev)
		default:
			break drain
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
	defer cancel()
	c.publish(ctx)
	c.log.Info("analytics collector stopped", "dropped", c.Dropped(), "unpublished", len(c.pending))
}

func (c *Collector) publish(ctx context.Context) {
	if c.pub == nil || len(c.pending) == 0 {
		return
	}
	batch := c.pending
	c.pending = nil
	if err := c.pub.PublishBatch(ctx, batch); err != nil {
		c.pending = batch
		if limit := maxPendingBatches * c.batchSize; len(c.pending) > limit {
			lost := len(c.pending) - limit
			c.pending = c.pending[lost:]
			c.log.Warn("analytics backlog trimmed", "dropped", lost)
		}
		c.log.Error("analytics publish failed", "events", len(batch), "error", err)
		return
	}
	c.log.Debug("analytics batch published", "events", len(batch))
}
