package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/redis"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return nil, pkgredis.ErrMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

// lateStore misses the first Get and has the value by the second, as when
// another replica fills the key between the two lookups.
type lateStore struct {
	*memStore
	gets atomic.Int32
}

func (l *lateStore) Get(ctx context.Context, key string) ([]byte, error) {
	if l.gets.Add(1) == 1 {
		_ = l.memStore.Set(ctx, key, []byte(`"filled"`), time.Minute)
		return nil, pkgredis.ErrMiss
	}
	return l.memStore.Get(ctx, key)
}

func TestGetOrComputeRecheckCountsAsHit(t *testing.T) {
	c := New(&lateStore{memStore: newMemStore()}, time.Minute)
	data, hit, err := c.GetOrCompute(context.Background(), "search_foods", map[string]any{"query": "arroz"}, func() ([]byte, error) {
		t.Error("compute should not run when the recheck finds the key")
		return nil, nil
	})
	if err != nil || !hit || string(data) != `"filled"` {
		t.Fatalf("got %s, %v, %v", data, hit, err)
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 0 {
		t.Errorf("stats = %+v, want one hit and no miss", s)
	}
}

func TestGetOrComputeCachesPayload(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	ctx := context.Background()
	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte(`[{"id":1}]`), nil
	}
	args := map[string]any{"query": "arroz", "limit": 5}

	data, hit, err := c.GetOrCompute(ctx, "search_foods", args, compute)
	if err != nil || hit || string(data) != `[{"id":1}]` {
		t.Fatalf("first call = %s, %v, %v", data, hit, err)
	}
	data, hit, err = c.GetOrCompute(ctx, "search_foods", map[string]any{"limit": 5, "query": "arroz"}, compute)
	if err != nil || !hit || string(data) != `[{"id":1}]` {
		t.Fatalf("second call = %s, %v, %v", data, hit, err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Total != 2 || s.HitRate != 0.5 {
		t.Errorf("stats = %+v", s)
	}
}

func TestToolNameIsPartOfKey(t *testing.T) {
	args := map[string]any{"query": "leite"}
	a, _ := BuildKey("search_foods", args)
	b, _ := BuildKey("advanced_search", args)
	if a == b {
		t.Error("different tools must not share a cache key")
	}
}

func TestComputeErrorIsNotCached(t *testing.T) {
	c := New(newMemStore(), time.Minute)
	boom := errors.New("boom")
	if _, _, err := c.GetOrCompute(context.Background(), "t", nil, func() ([]byte, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	data, hit, err := c.GetOrCompute(context.Background(), "t", nil, func() ([]byte, error) { return []byte("ok"), nil })
	if err != nil || hit || string(data) != "ok" {
		t.Errorf("after error = %s, %v, %v", data, hit, err)
	}
}

func TestStoreFailureFallsBackToCompute(t *testing.T) {
	store := newMemStore()
	store.failGet = true
	c := New(store, time.Minute)
	data, hit, err := c.GetOrCompute(context.Background(), "t", "x", func() ([]byte, error) { return []byte("fresh"), nil })
	if err != nil || hit || string(data) != "fresh" {
		t.Fatalf("got %s, %v, %v", data, hit, err)
	}
	if c.Stats().Errors == 0 {
		t.Error("store failure should be counted")
	}
}

func TestDisabledCache(t *testing.T) {
	c := New(nil, 0)
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		_, hit, _ := c.GetOrCompute(context.Background(), "t", "x", func() ([]byte, error) {
			calls.Add(1)
			return []byte("v"), nil
		})
		if hit {
			t.Fatal("disabled cache reported a hit")
		}
	}
	if calls.Load() != 3 {
		t.Errorf("compute calls = %d", calls.Load())
	}
	if n, err := c.Invalidate(context.Background()); n != 0 || err != nil {
		t.Errorf("Invalidate = %d, %v", n, err)
	}
	if c.Stats().Enabled {
		t.Error("stats should report disabled")
	}
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	store.data["unrelated"] = []byte("keep")
	c := New(store, time.Minute)
	ctx := context.Background()
	for _, q := range []string{"a", "b"} {
		_, _, _ = c.GetOrCompute(ctx, "search_foods", q, func() ([]byte, error) { return []byte(q), nil })
	}
	n, err := c.Invalidate(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Invalidate = %d, %v", n, err)
	}
	if _, ok := store.data["unrelated"]; !ok {
		t.Error("keys outside the prefix must survive")
	}
}
