// Package redis wraps go-redis/v9 for the tool-result cache. Every command
// runs behind a circuit breaker so a dead Redis degrades to uncached
// queries instead of slowing every call down to the dial timeout.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/resilience"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

const (
	scanPage         = 200
	dialCheckTimeout = 5 * time.Second
)

// Client wraps a go-redis client.
type Client struct {
	rdb     *redis.Client
	breaker *resilience.Breaker
}

type options struct {
	observe func(from, to resilience.State)
}

// Option customises a Client.
type Option func(*options)

// WithStateObserver registers fn to be told about every breaker transition.
func WithStateObserver(fn func(from, to resilience.State)) Option {
	return func(o *options) { o.observe = fn }
}

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(cfg config.RedisConfig, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), dialCheckTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: redis ping failed: %v", apperrors.ErrCacheUnavailable, err)
	}
	bc := resilience.BreakerConfig{
		Threshold: 5,
		Cooldown:  30 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, ErrMiss)
		},
	}
	if o.observe != nil {
		bc.OnStateChange = func(_ string, from, to resilience.State) { o.observe(from, to) }
	}
	return &Client{rdb: rdb, breaker: resilience.NewBreaker("redis", bc)}, nil
}

// Get returns the value stored at key, or ErrMiss.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := c.do(func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		data = b
		return err
	})
	return data, err
}

// Set stores a value with the given TTL. A zero TTL keeps the key forever.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.do(func() error {
		return c.rdb.Set(ctx, key, value, ttl).Err()
	})
}

// FlushByPattern removes every key matching the glob pattern and returns
// how many went. Keys are unlinked one SCAN page at a time.
func (c *Client) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var removed int64
	err := c.do(func() error {
		var cursor uint64
		for {
			keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanPage).Result()
			if err != nil {
				return fmt.Errorf("scan %q: %w", pattern, err)
			}
			if len(keys) > 0 {
				n, err := c.rdb.Unlink(ctx, keys...).Result()
				if err != nil {
					return fmt.Errorf("unlink %d keys: %w", len(keys), err)
				}
				removed += n
			}
			if cursor = next; cursor == 0 {
				return nil
			}
		}
	})
	return removed, err
}

// Stats reports the state of the breaker guarding this client.
func (c *Client) Stats() resilience.BreakerStats {
	return c.breaker.Stats()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(func() error {
		return c.rdb.Ping(ctx).Err()
	})
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) do(fn func() error) error {
	err := c.breaker.Do(fn)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %v", apperrors.ErrCacheUnavailable, err)
	}
	return err
}
