package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/planner"
	pkgredis "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/redis"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *memStore) FlushByPattern(_ context.Context, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.data))
	m.data = map[string][]byte{}
	return n, nil
}

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.QueryEvent
}

func (r *recordingTracker) Track(e analytics.QueryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func mkFood(id int, desc string, cat food.Category, protein float64) *food.Food {
	f := &food.Food{ID: id, Description: desc, Category: cat}
	f.Set(food.Protein, food.Some(protein))
	return f
}

type fixture struct {
	h       *Handler
	tracker *recordingTracker
	agg     *analytics.Aggregator
	server  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ds, err := dataset.New([]*food.Food{
		mkFood(1, "Arroz, integral, cozido", food.CategoryCereals, 2.6),
		mkFood(2, "Frango, peito, sem pele, grelhado", food.CategoryMeat, 32.0),
		mkFood(3, "Feijão, carioca, cozido", food.CategoryLegumes, 4.8),
		mkFood(4, "Leite, de vaca, integral", food.CategoryDairy, 3.0),
	})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	tracker := &recordingTracker{}
	agg := analytics.NewAggregator()
	h := New(Deps{
		Planner:   planner.New(ds, index.Build(ds)),
		Parser:    parser.New(10, 100, 5),
		Cache:     cache.New(&memStore{data: map[string][]byte{}}, time.Minute),
		Tracker:   tracker,
		Analytics: agg,
		Info:      protocol.Implementation{Name: "taco-food-search", Version: "test"},
	})
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &fixture{h: h, tracker: tracker, agg: agg, server: srv}
}

type toolResultJSON struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (f *fixture) callTool(t *testing.T, name string, args map[string]any) (int, map[string]any) {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"name": name, "arguments": args})
	resp, err := http.Post(f.server.URL+"/mcp/tools/call", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return resp.StatusCode, e
	}
	var tr toolResultJSON
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		t.Fatal(err)
	}
	if len(tr.Content) != 1 || tr.Content[0].Type != "text" {
		t.Fatalf("content = %+v", tr.Content)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(tr.Content[0].Text), &payload); err != nil {
		t.Fatalf("text is not JSON: %v", err)
	}
	return resp.StatusCode, payload
}

func TestCallToolSearch(t *testing.T) {
	f := newFixture(t)
	status, payload := f.callTool(t, ToolSearchFoods, map[string]any{"query": "feijao"})
	if status != http.StatusOK {
		t.Fatalf("status = %d: %v", status, payload)
	}
	foods := payload["foods"].([]any)
	if len(foods) != 1 || foods[0].(map[string]any)["id"].(float64) != 3 {
		t.Errorf("foods = %v", foods)
	}
	first := foods[0].(map[string]any)
	if _, ok := first["lipid_g"]; ok {
		t.Error("absent nutrients must be omitted")
	}
	if first["protein_g"].(float64) != 4.8 {
		t.Errorf("protein_g = %v", first["protein_g"])
	}
}

func TestCallToolEachTool(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		tool  string
		args  map[string]any
		check func(map[string]any) error
	}{
		{ToolGetFoodByID, map[string]any{"id": 2}, func(p map[string]any) error {
			if p["found"] != true || p["food"].(map[string]any)["description"] != "Frango, peito, sem pele, grelhado" {
				return fmt.Errorf("lookup = %v", p)
			}
			return nil
		}},
		{ToolGetFoodByID, map[string]any{"id": 999}, func(p map[string]any) error {
			if p["found"] != false || p["food"] != nil {
				return fmt.Errorf("missing id = %v", p)
			}
			return nil
		}},
		{ToolListCategories, nil, func(p map[string]any) error {
			if p["count"].(float64) != 4 || p["categories"].([]any)[0] != string(food.CategoryCereals) {
				return fmt.Errorf("categories = %v", p)
			}
			return nil
		}},
		{ToolFilterByNutrient, map[string]any{"nutrient": "protein_g", "min": 4}, func(p map[string]any) error {
			if p["count"].(float64) != 2 || p["unit"] != "g" {
				return fmt.Errorf("filter = %v", p)
			}
			return nil
		}},
		{ToolRandomFood, nil, func(p map[string]any) error {
			if p["found"] != true {
				return fmt.Errorf("random = %v", p)
			}
			return nil
		}},
		{ToolAdvancedSearch, map[string]any{"query": "cozido", "sort_by": "protein_g", "sort_order": "desc"}, func(p map[string]any) error {
			foods := p["foods"].([]any)
			if len(foods) != 2 || foods[0].(map[string]any)["id"].(float64) != 3 {
				return fmt.Errorf("advanced = %v", p)
			}
			return nil
		}},
		{ToolBatchQuery, map[string]any{"queries": []any{"leite", map[string]any{"min_protein_g": "x"}}}, func(p map[string]any) error {
			results := p["results"].([]any)
			if p["succeeded"].(float64) != 1 || p["failed"].(float64) != 1 || len(results) != 2 {
				return fmt.Errorf("batch = %v", p)
			}
			if results[1].(map[string]any)["error"] == nil {
				return fmt.Errorf("second item should carry an error: %v", results[1])
			}
			return nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			status, payload := f.callTool(t, tt.tool, tt.args)
			if status != http.StatusOK {
				t.Fatalf("status = %d: %v", status, payload)
			}
			if err := tt.check(payload); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestCallToolErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		tool   string
		args   map[string]any
		status int
	}{
		{"unknown tool", "delete_everything", nil, http.StatusNotFound},
		{"missing query", ToolSearchFoods, map[string]any{}, http.StatusBadRequest},
		{"bad id", ToolGetFoodByID, map[string]any{"id": "abc"}, http.StatusBadRequest},
		{"bad sort order", ToolAdvancedSearch, map[string]any{"sort_order": "up"}, http.StatusBadRequest},
		{"batch too large", ToolBatchQuery, map[string]any{"queries": []any{"a", "b", "c", "d", "e", "f"}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, payload := f.callTool(t, tt.tool, tt.args)
			if status != tt.status {
				t.Errorf("status = %d, want %d (%v)", status, tt.status, payload)
			}
			if payload["error"] == nil || payload["error"] == "" {
				t.Errorf("error body = %v", payload)
			}
		})
	}

	resp, err := http.Post(f.server.URL+"/mcp/tools/call", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", resp.StatusCode)
	}
}

func TestCacheHitAndAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	args := map[string]any{"query": "arroz"}

	first, err := f.h.Call(ctx, ToolSearchFoods, args, "test")
	if err != nil || first.CacheHit || first.Value == nil {
		t.Fatalf("first call = %+v, %v", first, err)
	}
	second, err := f.h.Call(ctx, ToolSearchFoods, args, "test")
	if err != nil || !second.CacheHit || second.Value != nil {
		t.Fatalf("second call = %+v, %v", second, err)
	}
	if !bytes.Equal(first.Body, second.Body) || second.Results != first.Results {
		t.Errorf("cached body differs:\n%s\n%s", first.Body, second.Body)
	}

	// random picks are never cached
	for i := 0; i < 2; i++ {
		r, err := f.h.Call(ctx, ToolRandomFood, nil, "test")
		if err != nil || r.CacheHit {
			t.Fatalf("random call = %+v, %v", r, err)
		}
	}

	if len(f.tracker.events) != 4 {
		t.Fatalf("tracked %d events", len(f.tracker.events))
	}
	if e := f.tracker.events[1]; !e.CacheHit || e.Tool != ToolSearchFoods || e.Query != "arroz" || e.Outcome != analytics.OutcomeOK {
		t.Errorf("event = %+v", e)
	}
}

func TestInvokeToolJSONAndMsgpack(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.server.URL+"/api/v1/tools/get_food_by_id", "application/json", strings.NewReader(`{"id":4}`))
	if err != nil {
		t.Fatal(err)
	}
	var lookup map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&lookup)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || lookup["found"] != true || resp.Header.Get("X-Cache") != "MISS" {
		t.Fatalf("json invoke = %d %v %s", resp.StatusCode, lookup, resp.Header.Get("X-Cache"))
	}

	args, _ := msgpack.Marshal(map[string]any{"nutrient": "protein_g", "min": 30})
	for _, wantCache := range []string{"MISS", "HIT"} {
		req, _ := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/tools/filter_by_nutrient", bytes.NewReader(args))
		req.Header.Set("Content-Type", contentTypeMsgpack)
		req.Header.Set("Accept", contentTypeMsgpack)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.Header.Get("Content-Type") != contentTypeMsgpack || resp.Header.Get("X-Cache") != wantCache {
			t.Errorf("headers = %v", resp.Header)
		}
		var out map[string]any
		if err := msgpack.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		foods, _ := out["foods"].([]any)
		if fmt.Sprint(out["count"]) != "1" || len(foods) != 1 {
			t.Fatalf("%s msgpack payload = %v", wantCache, out)
		}
		if fmt.Sprint(foods[0].(map[string]any)["id"]) != "2" {
			t.Errorf("food = %v", foods[0])
		}
	}
}

func TestServiceRoutes(t *testing.T) {
	f := newFixture(t)
	_, _ = f.h.Call(context.Background(), ToolListCategories, nil, "test")

	get := func(path string, into any) int {
		resp, err := http.Get(f.server.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		_ = json.NewDecoder(resp.Body).Decode(into)
		return resp.StatusCode
	}

	var tools struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if get("/mcp/tools", &tools) != http.StatusOK || len(tools.Tools) != 7 {
		t.Errorf("tools = %+v", tools)
	}
	var info struct {
		ServerInfo protocol.Implementation `json:"serverInfo"`
	}
	if get("/mcp", &info) != http.StatusOK || info.ServerInfo.Name != "taco-food-search" {
		t.Errorf("info = %+v", info)
	}
	var stats cache.Stats
	if get("/api/v1/cache/stats", &stats) != http.StatusOK || !stats.Enabled || stats.Misses != 1 {
		t.Errorf("cache stats = %+v", stats)
	}

	f.agg.Record(analytics.QueryEvent{Tool: ToolSearchFoods, Outcome: analytics.OutcomeOK})
	var agg analytics.AggregatedStats
	if get("/api/v1/analytics", &agg) != http.StatusOK || agg.TotalCalls != 1 {
		t.Errorf("analytics = %+v", agg)
	}

	resp, err := http.Post(f.server.URL+"/api/v1/cache/invalidate", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	var inv map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&inv)
	resp.Body.Close()
	if inv["keys_deleted"].(float64) != 1 {
		t.Errorf("invalidate = %v", inv)
	}
}

func TestServeStdio(t *testing.T) {
	f := newFixture(t)
	in := strings.Join([]string{
		`{"name":"get_food_by_id","arguments":{"id":1}}`,
		``,
		`not json`,
		`{"name":"nope","arguments":{}}`,
		`{"name":"search_foods","arguments":{"query":"leite","limit":1}}`,
	}, "\n")
	var out bytes.Buffer
	if err := f.h.ServeStdio(context.Background(), strings.NewReader(in), &out, time.Second); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	var ok toolResultJSON
	if err := json.Unmarshal([]byte(lines[0]), &ok); err != nil || !strings.Contains(ok.Content[0].Text, `"found":true`) {
		t.Errorf("line 0 = %s", lines[0])
	}
	for i, wantCode := range map[int]int{1: 400, 2: 404} {
		var e stdioError
		if err := json.Unmarshal([]byte(lines[i]), &e); err != nil || e.Error.Code != wantCode {
			t.Errorf("line %d = %s", i, lines[i])
		}
	}
	if err := json.Unmarshal([]byte(lines[3]), &ok); err != nil || !strings.Contains(ok.Content[0].Text, `"count":1`) {
		t.Errorf("line 3 = %s", lines[3])
	}
	for _, e := range f.tracker.events {
		if e.Transport != "stdio" || e.RequestID == "" {
			t.Errorf("stdio event = %+v", e)
		}
	}
}
