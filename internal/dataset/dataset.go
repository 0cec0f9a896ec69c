// Package dataset loads the food-composition table once at startup and
// exposes it as an immutable, ordered snapshot.
package dataset

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	apperrors "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/errors"
)

// Row is one source record before validation, keyed by wire field name.
type Row map[string]any

// Dataset is the loaded table. It is never mutated after construction and
// is safe for concurrent reads.
type Dataset struct {
	foods      []*food.Food
	byID       map[int]*food.Food
	categories []food.Category
}

// New validates foods and builds the derived lookups. Source order is kept.
func New(foods []*food.Food) (*Dataset, error) {
	ds := &Dataset{
		foods: make([]*food.Food, 0, len(foods)),
		byID:  make(map[int]*food.Food, len(foods)),
	}
	seen := make(map[food.Category]bool)
	for i, f := range foods {
		if f == nil {
			return nil, fmt.Errorf("%w: record %d is nil", apperrors.ErrInvalidDataset, i)
		}
		if strings.TrimSpace(f.Description) == "" {
			return nil, fmt.Errorf("%w: record %d (id %d) has empty description", apperrors.ErrInvalidDataset, i, f.ID)
		}
		if _, ok := food.ParseCategory(string(f.Category)); !ok {
			return nil, fmt.Errorf("%w: record %d (id %d) has unknown category %q", apperrors.ErrInvalidDataset, i, f.ID, f.Category)
		}
		if _, dup := ds.byID[f.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", apperrors.ErrInvalidDataset, f.ID)
		}
		ds.byID[f.ID] = f
		ds.foods = append(ds.foods, f)
		if !seen[f.Category] {
			seen[f.Category] = true
			ds.categories = append(ds.categories, f.Category)
		}
	}
	return ds, nil
}

// FromRows converts raw rows into foods and validates them.
func FromRows(rows []Row) (*Dataset, error) {
	foods := make([]*food.Food, 0, len(rows))
	for i, row := range rows {
		f, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		foods = append(foods, f)
	}
	return New(foods)
}

func parseRow(row Row) (*food.Food, error) {
	rawID, ok := row["id"]
	if !ok {
		return nil, fmt.Errorf("%w: missing id", apperrors.ErrInvalidDataset)
	}
	id, ok := parseID(rawID)
	if !ok {
		return nil, fmt.Errorf("%w: unparsable id %v", apperrors.ErrInvalidDataset, rawID)
	}
	f := &food.Food{
		ID:          id,
		Description: strings.TrimSpace(asString(row["description"])),
		Category:    food.Category(strings.TrimSpace(asString(row["category"]))),
	}
	for _, n := range food.Nutrients() {
		if raw, ok := row[n.Key()]; ok {
			f.Set(n, ParseValue(raw))
		}
	}
	return f, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}

// All returns the foods in source order. Callers must not modify the slice.
func (d *Dataset) All() []*food.Food { return d.foods }

func (d *Dataset) Len() int { return len(d.foods) }

// At returns the i-th food in source order.
func (d *Dataset) At(i int) *food.Food { return d.foods[i] }

// ByID returns the food with the given id.
func (d *Dataset) ByID(id int) (*food.Food, bool) {
	f, ok := d.byID[id]
	return f, ok
}

// Categories returns each category present once, in first-occurrence order.
func (d *Dataset) Categories() []food.Category {
	out := make([]food.Category, len(d.categories))
	copy(out, d.categories)
	return out
}
