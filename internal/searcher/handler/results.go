package handler

import (
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/planner"
)

// Tool result payloads. Each is rendered as the JSON text of the single
// TextContent of a CallToolResult, or returned directly by the REST routes.

type foodList struct {
	Count int          `json:"count"`
	Foods []*food.Food `json:"foods"`
}

func newFoodList(foods []*food.Food) foodList {
	if foods == nil {
		foods = []*food.Food{}
	}
	return foodList{Count: len(foods), Foods: foods}
}

type searchResult struct {
	Query string `json:"query"`
	foodList
}

type lookupResult struct {
	ID    int        `json:"id"`
	Found bool       `json:"found"`
	Food  *food.Food `json:"food,omitempty"`
}

type categoriesResult struct {
	Count      int             `json:"count"`
	Categories []food.Category `json:"categories"`
}

type nutrientResult struct {
	Nutrient string   `json:"nutrient"`
	Unit     string   `json:"unit,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	foodList
}

type randomResult struct {
	Found bool       `json:"found"`
	Food  *food.Food `json:"food,omitempty"`
}

type advancedResult struct {
	Criteria planner.AdvancedQuery `json:"criteria"`
	foodList
}

type batchEntry struct {
	Index    int                    `json:"index"`
	Kind     planner.ItemKind       `json:"kind"`
	Criteria *planner.AdvancedQuery `json:"criteria,omitempty"`
	Count    int                    `json:"count"`
	Foods    []*food.Food           `json:"foods"`
	Error    string                 `json:"error,omitempty"`
}

type batchResult struct {
	Count     int          `json:"count"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []batchEntry `json:"results"`
}

func newBatchResult(results []planner.BatchResult) (batchResult, int) {
	out := batchResult{Count: len(results), Results: make([]batchEntry, len(results))}
	total := 0
	for i, r := range results {
		e := batchEntry{Index: r.Index, Kind: r.Kind, Foods: []*food.Food{}}
		if r.Err != nil {
			e.Error = r.Err.Error()
			out.Failed++
		} else {
			q := r.Query
			e.Criteria = &q
			if r.Foods != nil {
				e.Foods = r.Foods
			}
			e.Count = len(e.Foods)
			total += e.Count
			out.Succeeded++
		}
		out.Results[i] = e
	}
	return out, total
}
