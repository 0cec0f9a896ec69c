// Command loadtest drives a running food search service with a fixed
// rotation of tool calls and prints throughput, latency percentiles and
// per-tool outcomes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"golang.org/x/sync/errgroup"
)

func main() {
	target := flag.String("url", "http://localhost:8080", "base URL of the food search service")
	workers := flag.Int("concurrency", 10, "number of concurrent workers")
	length := flag.Duration("duration", 30*time.Second, "test duration")
	flag.Parse()

	calls := toolMix()
	bodies := make([][]byte, len(calls))
	for i, c := range calls {
		b, err := json.Marshal(c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encoding %s call: %v\n", c.Name, err)
			os.Exit(1)
		}
		bodies[i] = b
	}

	fmt.Printf("food search load test: %s, %d workers, %s, %d distinct calls\n",
		*target, *workers, *length, len(calls))

	ctx, cancel := context.WithTimeout(context.Background(), *length)
	defer cancel()

	client := &http.Client{
		Timeout:   10 * time.Second,
		Transport: &http.Transport{MaxIdleConnsPerHost: *workers},
	}
	endpoint := *target + "/mcp/tools/call"
	perWorker := make([][]sample, *workers)

	started := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := range *workers {
		g.Go(func() error {
			for i := w; ctx.Err() == nil; i++ {
				k := i % len(calls)
				perWorker[w] = append(perWorker[w], invoke(ctx, client, endpoint, calls[k].Name, bodies[k]))
			}
			return nil
		})
	}
	_ = g.Wait()

	sum := summarize(perWorker, time.Since(started))
	sum.print(os.Stdout)
	if sum.total == 0 {
		fmt.Fprintln(os.Stderr, "no requests completed; is the service running?")
		os.Exit(1)
	}
}

func invoke(ctx context.Context, client *http.Client, endpoint, tool string, body []byte) sample {
	s := sample{tool: tool}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		s.failed = true
		return s
	}
	req.Header.Set("Content-Type", "application/json")

	t0 := time.Now()
	resp, err := client.Do(req)
	s.latency = time.Since(t0)
	if err != nil {
		// requests cut off by the end of the run are not failures
		s.dropped = ctx.Err() != nil
		s.failed = !s.dropped
		return s
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	s.status = resp.StatusCode
	s.cacheHit = resp.Header.Get("X-Cache") == "HIT"
	return s
}

// toolMix is the rotation each worker cycles through, offset by its index.
func toolMix() []protocol.CallToolRequest {
	call := func(name string, args map[string]any) protocol.CallToolRequest {
		return protocol.CallToolRequest{Name: name, Arguments: args}
	}
	return []protocol.CallToolRequest{
		call("search_foods", map[string]any{"query": "arroz"}),
		call("search_foods", map[string]any{"query": "feijão", "limit": 5}),
		call("search_foods", map[string]any{"query": "frango"}),
		call("search_foods", map[string]any{"query": "banana"}),
		call("search_foods", map[string]any{"query": "queijo minas"}),
		call("search_foods", map[string]any{"query": "mandioca"}),
		call("get_food_by_id", map[string]any{"id": 1}),
		call("get_food_by_id", map[string]any{"id": 42}),
		call("list_categories", nil),
		call("filter_by_nutrient", map[string]any{"nutrient": "protein_g", "min": 20}),
		call("filter_by_nutrient", map[string]any{"nutrient": "energy_kcal", "max": 50}),
		call("random_food", nil),
		call("advanced_search", map[string]any{
			"query":         "leite",
			"min_protein_g": 3,
			"sort_by":       "energy_kcal",
			"sort_order":    "asc",
			"limit":         10,
		}),
		call("advanced_search", map[string]any{"query": "frutas", "max_energy_kcal": 60}),
		call("batch_query", map[string]any{"queries": []any{"arroz", "feijão", "ovo"}}),
	}
}
