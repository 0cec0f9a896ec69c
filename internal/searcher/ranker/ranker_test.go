package ranker

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
)

func withFiber(id int, fiber *float64) *food.Food {
	f := &food.Food{ID: id, Description: "f", Category: food.CategoryVegetables}
	if fiber != nil {
		f.Set(food.Fiber, food.Some(*fiber))
	}
	return f
}

func ptr(v float64) *float64 { return &v }

func idsOf(foods []*food.Food) []int {
	out := make([]int, len(foods))
	for i, f := range foods {
		out[i] = f.ID
	}
	return out
}

func equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func fixture() []*food.Food {
	return []*food.Food{
		withFiber(1, ptr(2)),
		withFiber(2, nil),
		withFiber(3, ptr(8)),
		withFiber(4, ptr(2)),
		withFiber(5, nil),
		withFiber(6, ptr(0)),
	}
}

func TestSortByNutrient(t *testing.T) {
	tests := []struct {
		name  string
		field string
		dir   Direction
		want  []int
	}{
		{"descending, absent last", "fiber_g", Descending, []int{3, 1, 4, 6, 2, 5}},
		{"ascending, absent last", "fiber_g", Ascending, []int{6, 1, 4, 3, 2, 5}},
		{"unknown field keeps order", "nope", Descending, []int{1, 2, 3, 4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idsOf(SortByNutrient(fixture(), tt.field, tt.dir))
			if !equal(got, tt.want) {
				t.Errorf("SortByNutrient = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := fixture()
	_ = SortByNutrient(in, "fiber_g", Descending)
	if !equal(idsOf(in), []int{1, 2, 3, 4, 5, 6}) {
		t.Errorf("input reordered: %v", idsOf(in))
	}
}

func TestLimit(t *testing.T) {
	s := []int{1, 2, 3}
	if got := Limit(s, 0); len(got) != 0 {
		t.Errorf("Limit(0) = %v", got)
	}
	if got := Limit(s, -4); len(got) != 0 {
		t.Errorf("Limit(-4) = %v", got)
	}
	if got := Limit(s, 2); !equal(got, []int{1, 2}) {
		t.Errorf("Limit(2) = %v", got)
	}
	if got := Limit(s, 3); !equal(got, s) {
		t.Errorf("Limit(3) = %v", got)
	}
	if got := Limit(s, 10); !equal(got, s) {
		t.Errorf("Limit(10) = %v", got)
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"": Descending, "desc": Descending, "ASC": Ascending, " asc ": Ascending} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
}
