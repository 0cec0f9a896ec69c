package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/filter"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/ranker"
)

func ptr[T any](v T) *T { return &v }

func mk(id int, desc string, cat food.Category, protein, fiber *float64) *food.Food {
	f := &food.Food{ID: id, Description: desc, Category: cat}
	if protein != nil {
		f.Set(food.Protein, food.Some(*protein))
	}
	if fiber != nil {
		f.Set(food.Fiber, food.Some(*fiber))
	}
	return f
}

func newTestPlanner(t *testing.T, opts ...Option) *Planner {
	t.Helper()
	ds, err := dataset.New([]*food.Food{
		mk(1, "Leite, de vaca, integral", food.CategoryDairy, ptr(5.0), nil),
		mk(2, "Frango, peito, sem pele, grelhado", food.CategoryMeat, ptr(22.0), nil),
		mk(3, "Carne, bovina, patinho, sem gordura, grelhado", food.CategoryMeat, ptr(30.0), nil),
		mk(4, "Queijo, minas, frescal", food.CategoryDairy, ptr(18.0), nil),
		mk(5, "Atum, fresco, cru", food.CategoryFish, ptr(25.0), nil),
		mk(6, "Feijão, carioca, cozido", food.CategoryLegumes, ptr(4.8), ptr(8.5)),
		mk(7, "Aveia, flocos, crua", food.CategoryCereals, ptr(13.9), ptr(9.1)),
	})
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return New(ds, index.Build(ds), opts...)
}

func idsOf(foods []*food.Food) []int {
	out := make([]int, len(foods))
	for i, f := range foods {
		out[i] = f.ID
	}
	return out
}

func sameIDs(got []*food.Food, want ...int) bool {
	ids := idsOf(got)
	if len(ids) != len(want) {
		return false
	}
	for i := range ids {
		if ids[i] != want[i] {
			return false
		}
	}
	return true
}

func TestSearch(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	got := p.Search(ctx, SimpleQuery{Text: "grelhado", Limit: 10})
	if len(got) != 2 {
		t.Fatalf("Search(grelhado) = %v", idsOf(got))
	}
	if got := p.Search(ctx, SimpleQuery{Text: "grelhado", Limit: 1}); len(got) != 1 {
		t.Errorf("limit not applied: %v", idsOf(got))
	}
	if got := p.Search(ctx, SimpleQuery{Text: "grelhado", Limit: 0}); len(got) != 0 {
		t.Errorf("limit 0 should be empty: %v", idsOf(got))
	}
	if got := p.Search(ctx, SimpleQuery{Text: "", Limit: 10}); len(got) != 0 {
		t.Errorf("empty query should be empty: %v", idsOf(got))
	}
	if got := p.Search(ctx, SimpleQuery{Text: "feijao", Limit: 10}); len(got) == 0 || got[0].ID != 6 {
		t.Errorf("accent-insensitive search = %v", idsOf(got))
	}
}

func TestLookup(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()
	for id := 1; id <= 7; id++ {
		f, ok := p.Lookup(ctx, id)
		if !ok || f.ID != id {
			t.Errorf("Lookup(%d) = %v, %v", id, f, ok)
		}
	}
	if _, ok := p.Lookup(ctx, 42); ok {
		t.Error("unknown id should not be found")
	}
}

func TestCategoriesFirstOccurrence(t *testing.T) {
	p := newTestPlanner(t)
	want := []food.Category{food.CategoryDairy, food.CategoryMeat, food.CategoryFish, food.CategoryLegumes, food.CategoryCereals}
	got := p.Categories(context.Background())
	if len(got) != len(want) {
		t.Fatalf("Categories = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFilterByNutrient(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()

	got := p.FilterByNutrient(ctx, NutrientQuery{Field: "protein_g", Min: ptr(18.0), Max: ptr(25.0), Limit: 10})
	if !sameIDs(got, 2, 4, 5) {
		t.Errorf("FilterByNutrient = %v, want [2 4 5]", idsOf(got))
	}
	for _, f := range got {
		v, ok := f.Get(food.Protein)
		if !ok || v < 18 || v > 25 {
			t.Errorf("food %d protein %v outside bounds", f.ID, v)
		}
	}
	if got := p.FilterByNutrient(ctx, NutrientQuery{Field: "fiber_g", Limit: 10}); !sameIDs(got, 6, 7) {
		t.Errorf("open bounds should keep present values only: %v", idsOf(got))
	}
	if got := p.FilterByNutrient(ctx, NutrientQuery{Field: "bogus", Min: ptr(0.0), Limit: 10}); len(got) != 0 {
		t.Errorf("unknown field should match nothing: %v", idsOf(got))
	}
}

func TestRandom(t *testing.T) {
	p := newTestPlanner(t, WithRandom(func(n int) int { return n - 1 }))
	f, ok := p.Random(context.Background())
	if !ok || f.ID != 7 {
		t.Fatalf("Random = %v, %v; want last food", f, ok)
	}

	p = newTestPlanner(t)
	for i := 0; i < 20; i++ {
		f, ok := p.Random(context.Background())
		if !ok {
			t.Fatal("Random on non-empty dataset reported no data")
		}
		if got, _ := p.Lookup(context.Background(), f.ID); got != f {
			t.Fatalf("Random returned a non-member %v", f)
		}
	}
}

func TestRandomEmptyDataset(t *testing.T) {
	ds, err := dataset.New(nil)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	p := New(ds, index.Build(ds))
	if _, ok := p.Random(context.Background()); ok {
		t.Error("empty dataset should report no data")
	}
}

func TestAdvancedSortsAndLimits(t *testing.T) {
	p := newTestPlanner(t)
	got := p.Advanced(context.Background(), AdvancedQuery{
		Ranges: []filter.Constraint{{Field: "protein_g", Min: ptr(20.0)}},
		SortBy: "protein_g",
		Order:  ranker.Descending,
		Limit:  3,
	})
	var proteins []float64
	for _, f := range got {
		v, _ := f.Get(food.Protein)
		proteins = append(proteins, v)
	}
	if fmt.Sprint(proteins) != "[30 25 22]" {
		t.Errorf("proteins = %v, want [30 25 22]", proteins)
	}
}

func TestAdvancedTextIsSubstring(t *testing.T) {
	p := newTestPlanner(t)
	ctx := context.Background()
	got := p.Advanced(ctx, AdvancedQuery{Text: ptr("GRELHADO"), Limit: 10})
	if !sameIDs(got, 2, 3) {
		t.Errorf("substring match = %v, want [2 3]", idsOf(got))
	}
	// substring matching does not fold accents
	if got := p.Advanced(ctx, AdvancedQuery{Text: ptr("feijao"), Limit: 10}); len(got) != 0 {
		t.Errorf("unexpected accent folding: %v", idsOf(got))
	}
	if got := p.Advanced(ctx, AdvancedQuery{Limit: 10}); len(got) != 7 {
		t.Errorf("no criteria should return everything up to limit, got %d", len(got))
	}
}

func TestAdvancedWithoutSortKeepsDatasetOrder(t *testing.T) {
	p := newTestPlanner(t)
	got := p.Advanced(context.Background(), AdvancedQuery{
		Ranges: []filter.Constraint{{Field: "protein_g", Min: ptr(10.0)}},
		Limit:  10,
	})
	if !sameIDs(got, 2, 3, 4, 5, 7) {
		t.Errorf("Advanced = %v", idsOf(got))
	}
}

func TestBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	p := newTestPlanner(t, WithBatchConcurrency(2))
	parseErr := errors.New("min_protein_g must be a number")
	items := []BatchItem{
		{Kind: KindSimple, Query: AdvancedQuery{Text: ptr("arroz"), Limit: 10}},
		{Kind: KindAdvanced, Query: AdvancedQuery{
			Ranges: []filter.Constraint{{Field: "fiber_g", Min: ptr(5.0)}},
			Limit:  1,
		}},
		{Kind: KindAdvanced, Err: parseErr},
		{Kind: KindSimple, Query: AdvancedQuery{Text: ptr("grelhado"), Limit: 10}},
	}
	results := p.Batch(context.Background(), items)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
	}
	if len(results[0].Foods) != 0 || results[0].Err != nil {
		t.Errorf("first block should be empty without error: %+v", results[0])
	}
	if !sameIDs(results[1].Foods, 6) {
		t.Errorf("second block = %v, want [6]", idsOf(results[1].Foods))
	}
	if !errors.Is(results[2].Err, parseErr) {
		t.Errorf("third block error = %v", results[2].Err)
	}
	if !sameIDs(results[3].Foods, 2, 3) {
		t.Errorf("fourth block = %v", idsOf(results[3].Foods))
	}
}

func TestBatchCancelledContext(t *testing.T) {
	p := newTestPlanner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := p.Batch(ctx, []BatchItem{{Kind: KindSimple, Query: AdvancedQuery{Text: ptr("leite"), Limit: 10}}})
	if len(results) != 1 || !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("cancelled batch item = %+v", results)
	}
}
