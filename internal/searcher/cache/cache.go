// Package cache memoises encoded tool results in Redis. Concurrent misses
// for the same key are collapsed with singleflight, and any store failure
// falls back to computing the result directly.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
	pkgredis "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/redis"
)

const keyPrefix = "taco:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Stats struct {
	Enabled bool    `json:"enabled"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	Total   int64   `json:"total"`
	HitRate float64 `json:"hit_rate"`
}

type ResultCache struct {
	store    Store
	ttl      time.Duration
	group    singleflight.Group
	logger   *slog.Logger
	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// New returns a cache over store. A nil store disables caching: every call
// computes and nothing is counted as a hit.
func New(store Store, ttl time.Duration) *ResultCache {
	return &ResultCache{
		store:  store,
		ttl:    ttl,
		logger: logger.WithComponent("result-cache"),
	}
}

func (c *ResultCache) Enabled() bool { return c.store != nil }

func (c *ResultCache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrMiss) {
			c.failures.Add(1)
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func (c *ResultCache) set(ctx context.Context, key string, data []byte) {
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.failures.Add(1)
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached payload for (tool, args) or runs compute
// and stores its output. The boolean reports a cache hit.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	tool string,
	args any,
	compute func() ([]byte, error),
) ([]byte, bool, error) {
	if c.store == nil {
		data, err := compute()
		return data, false, err
	}
	key, err := BuildKey(tool, args)
	if err != nil {
		c.failures.Add(1)
		data, err := compute()
		return data, false, err
	}
	if data, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		c.logger.Debug("cache hit", "tool", tool, "key", key)
		return data, true, nil
	}

	type lookup struct {
		data []byte
		hit  bool
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		// another flight may have stored the key since the first get
		if data, ok := c.get(ctx, key); ok {
			return lookup{data: data, hit: true}, nil
		}
		data, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, data)
		return lookup{data: data}, nil
	})
	if err != nil {
		c.misses.Add(1)
		return nil, false, err
	}
	res := val.(lookup)
	if res.hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return res.data, res.hit, nil
}

// Invalidate deletes every cached result.
func (c *ResultCache) Invalidate(ctx context.Context) (int64, error) {
	if c.store == nil {
		return 0, nil
	}
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return deleted, nil
}

func (c *ResultCache) Stats() Stats {
	s := Stats{
		Enabled: c.store != nil,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.failures.Load(),
	}
	s.Total = s.Hits + s.Misses
	if s.Total > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Total)
	}
	return s
}

// BuildKey hashes the tool name and the JSON form of args. encoding/json
// sorts map keys, so equal argument maps always produce the same key.
func BuildKey(tool string, args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	hash := sha256.Sum256(append([]byte(tool+"\x00"), raw...))
	return fmt.Sprintf("%s%s:%x", keyPrefix, tool, hash[:16]), nil
}
