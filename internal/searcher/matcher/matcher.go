// Package matcher holds the two text-matching strategies used by the
// planner: a ranked fuzzy match backed by the text index, and a plain
// case-insensitive substring scan.
package matcher

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/index"
)

// TextMatcher selects the foods matching a free-text query.
type TextMatcher interface {
	Name() string
	Match(text string) []*food.Food
}

// Indexed ranks foods by relevance using the text index. It tolerates
// typos, prefixes and missing accents.
type Indexed struct {
	idx *index.TextIndex
}

func NewIndexed(idx *index.TextIndex) *Indexed {
	return &Indexed{idx: idx}
}

func (m *Indexed) Name() string { return "indexed" }

func (m *Indexed) Match(text string) []*food.Food {
	hits := m.idx.Search(text)
	out := make([]*food.Food, len(hits))
	for i, h := range hits {
		out[i] = h.Food
	}
	return out
}

// Substring keeps foods whose description or category contains the text,
// ignoring case but not accents. Results are in dataset order.
type Substring struct {
	ds *dataset.Dataset
}

func NewSubstring(ds *dataset.Dataset) *Substring {
	return &Substring{ds: ds}
}

func (m *Substring) Name() string { return "substring" }

func (m *Substring) Match(text string) []*food.Food {
	needle := strings.ToLower(text)
	out := make([]*food.Food, 0)
	for _, f := range m.ds.All() {
		if strings.Contains(strings.ToLower(f.Description), needle) ||
			strings.Contains(strings.ToLower(string(f.Category)), needle) {
			out = append(out, f)
		}
	}
	return out
}
