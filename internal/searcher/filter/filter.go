// Package filter applies nutrient range constraints to food lists.
package filter

import (
	"fmt"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
)

// Constraint bounds one nutrient. A nil bound is open. Both bounds are
// inclusive.
type Constraint struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// Matches reports whether f satisfies c. Absent values and unknown fields
// never match.
func (c Constraint) Matches(f *food.Food) bool {
	v, ok := f.Field(c.Field)
	if !ok {
		return false
	}
	if c.Min != nil && v < *c.Min {
		return false
	}
	if c.Max != nil && v > *c.Max {
		return false
	}
	return true
}

func (c Constraint) String() string {
	lo, hi := "-inf", "+inf"
	if c.Min != nil {
		lo = strconv.FormatFloat(*c.Min, 'f', -1, 64)
	}
	if c.Max != nil {
		hi = strconv.FormatFloat(*c.Max, 'f', -1, 64)
	}
	return fmt.Sprintf("%s in [%s, %s]", c.Field, lo, hi)
}

// Apply keeps the foods satisfying every constraint, in input order. With no
// constraints the input is returned unchanged.
func Apply(foods []*food.Food, constraints []Constraint) []*food.Food {
	if len(constraints) == 0 {
		return foods
	}
	out := make([]*food.Food, 0, len(foods))
	for _, f := range foods {
		if matchesAll(f, constraints) {
			out = append(out, f)
		}
	}
	return out
}

func matchesAll(f *food.Food, constraints []Constraint) bool {
	for _, c := range constraints {
		if !c.Matches(f) {
			return false
		}
	}
	return true
}
