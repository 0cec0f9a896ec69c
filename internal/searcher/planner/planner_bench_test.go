package planner

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/ranker"
)

func newBenchPlanner(b *testing.B, n int, opts ...Option) *Planner {
	b.Helper()
	names := []string{"Arroz", "Feijão", "Frango", "Leite", "Queijo", "Banana", "Mandioca", "Ovo"}
	cats := food.AllCategories()
	foods := make([]*food.Food, n)
	for i := range foods {
		f := &food.Food{
			ID:          i + 1,
			Description: fmt.Sprintf("%s, variedade %d, cozido", names[i%len(names)], i),
			Category:    cats[i%len(cats)],
		}
		f.Set(food.EnergyKcal, food.Some(float64(50+i%400)))
		f.Set(food.Protein, food.Some(float64(i%35)))
		if i%4 != 0 {
			f.Set(food.Fiber, food.Some(float64(i%12)))
		}
		foods[i] = f
	}
	ds, err := dataset.New(foods)
	if err != nil {
		b.Fatal(err)
	}
	return New(ds, index.Build(ds), opts...)
}

func BenchmarkSearch(b *testing.B) {
	p := newBenchPlanner(b, 600)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		foods := p.Search(ctx, SimpleQuery{Text: "frango cozido", Limit: 10})
		_ = foods
	}
}

func BenchmarkAdvanced(b *testing.B) {
	p := newBenchPlanner(b, 600)
	ctx := context.Background()
	text := "leite"
	cases := []struct {
		name string
		q    AdvancedQuery
	}{
		{"filter_only", AdvancedQuery{
			Ranges: []filter.Constraint{{Field: "protein_g", Min: ptr(20.0)}},
			Limit:  10,
		}},
		{"text_filter_sort", AdvancedQuery{
			Text:   &text,
			Ranges: []filter.Constraint{{Field: "fiber_g", Min: ptr(2.0)}},
			SortBy: "energy_kcal",
			Order:  ranker.Ascending,
			Limit:  10,
		}},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				foods := p.Advanced(ctx, c.q)
				_ = foods
			}
		})
	}
}

// BenchmarkBatch fans the same mix of items out at varying concurrency.
func BenchmarkBatch(b *testing.B) {
	items := make([]BatchItem, 20)
	for i := range items {
		text := []string{"arroz", "feijão", "banana", "queijo"}[i%4]
		items[i] = BatchItem{Kind: KindSimple, Query: AdvancedQuery{Text: &text, Limit: 10}}
	}
	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			p := newBenchPlanner(b, 600, WithBatchConcurrency(workers))
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				results := p.Batch(ctx, items)
				_ = results
			}
		})
	}
}
