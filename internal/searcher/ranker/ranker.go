// Package ranker orders food lists by a nutrient and truncates them.
package ranker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
)

// Direction is the sort order of a nutrient sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case. An empty string is
// Descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return Descending, nil
	case "asc":
		return Ascending, nil
	default:
		return "", fmt.Errorf("sort order must be asc or desc, got %q", s)
	}
}

// SortByNutrient returns a copy of foods stably ordered by the named
// nutrient. Foods without a value for it come last in either direction.
// An unknown field leaves the order unchanged.
func SortByNutrient(foods []*food.Food, field string, dir Direction) []*food.Food {
	out := make([]*food.Food, len(foods))
	copy(out, foods)
	n, ok := food.LookupNutrient(field)
	if !ok {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, oki := out[i].Get(n)
		vj, okj := out[j].Get(n)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if dir == Ascending {
			return vi < vj
		}
		return vi > vj
	})
	return out
}

// Limit returns the first n elements of s. n <= 0 yields an empty slice.
func Limit[T any](s []T, n int) []T {
	if n <= 0 {
		return []T{}
	}
	if n >= len(s) {
		return s
	}
	return s[:n]
}
