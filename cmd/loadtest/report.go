package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"
)

type sample struct {
	tool     string
	status   int
	latency  time.Duration
	cacheHit bool
	failed   bool
	dropped  bool
}

func (s sample) ok() bool { return !s.failed && s.status >= 200 && s.status < 300 }

type toolSummary struct {
	calls, ok, hits int
	p50             time.Duration
}

type summary struct {
	elapsed   time.Duration
	total     int
	ok        int
	hits      int
	latencies []time.Duration
	statuses  map[int]int
	tools     map[string]*toolSummary
}

// summarize merges per-worker samples. Requests dropped by the end of the
// run are ignored.
func summarize(perWorker [][]sample, elapsed time.Duration) summary {
	sum := summary{elapsed: elapsed, statuses: map[int]int{}, tools: map[string]*toolSummary{}}
	byTool := map[string][]time.Duration{}
	for _, samples := range perWorker {
		for _, s := range samples {
			if s.dropped {
				continue
			}
			sum.total++
			ts := sum.tools[s.tool]
			if ts == nil {
				ts = &toolSummary{}
				sum.tools[s.tool] = ts
			}
			ts.calls++
			if s.cacheHit {
				sum.hits++
				ts.hits++
			}
			if s.failed {
				continue
			}
			sum.statuses[s.status]++
			sum.latencies = append(sum.latencies, s.latency)
			byTool[s.tool] = append(byTool[s.tool], s.latency)
			if s.ok() {
				sum.ok++
				ts.ok++
			}
		}
	}
	slices.Sort(sum.latencies)
	for tool, ls := range byTool {
		slices.Sort(ls)
		sum.tools[tool].p50 = percentile(ls, 50)
	}
	return sum
}

// percentile uses nearest rank over an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(p / 100 * float64(n))
	if float64(rank) < p/100*float64(n) {
		rank++
	}
	return sorted[min(max(rank-1, 0), n-1)]
}

func (s summary) print(out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	failed := s.total - s.ok
	fmt.Fprintf(tw, "\nrequests\t%d\n", s.total)
	fmt.Fprintf(tw, "ok\t%d\n", s.ok)
	fmt.Fprintf(tw, "failed\t%d\n", failed)
	fmt.Fprintf(tw, "cache hits\t%d\n", s.hits)
	if s.total > 0 {
		fmt.Fprintf(tw, "error rate\t%.2f%%\n", 100*float64(failed)/float64(s.total))
		fmt.Fprintf(tw, "throughput\t%.1f req/s\n", float64(s.total)/s.elapsed.Seconds())
	}

	if n := len(s.latencies); n > 0 {
		fmt.Fprintln(tw, "\nlatency")
		fmt.Fprintf(tw, "  min\t%s\n", s.latencies[0])
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(tw, "  p%g\t%s\n", p, percentile(s.latencies, p))
		}
		fmt.Fprintf(tw, "  max\t%s\n", s.latencies[n-1])
	}

	fmt.Fprintln(tw, "\nstatus\tcount")
	for _, code := range slices.Sorted(maps.Keys(s.statuses)) {
		fmt.Fprintf(tw, "  %d\t%d\n", code, s.statuses[code])
	}

	fmt.Fprintln(tw, "\ntool\tcalls\tok\thits\tp50")
	for _, name := range slices.Sorted(maps.Keys(s.tools)) {
		t := s.tools[name]
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%s\n", name, t.calls, t.ok, t.hits, t.p50)
	}
}
