package handler

import (
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
)

const (
	ToolSearchFoods      = "search_foods"
	ToolGetFoodByID      = "get_food_by_id"
	ToolListCategories   = "list_categories"
	ToolFilterByNutrient = "filter_by_nutrient"
	ToolRandomFood       = "random_food"
	ToolAdvancedSearch   = "advanced_search"
	ToolBatchQuery       = "batch_query"
)

// ToolDescriptor is one catalogue entry served by GET /mcp/tools.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

var limitProp = prop("integer", "Maximum number of foods to return")

func advancedProps() map[string]any {
	props := map[string]any{
		"query":      prop("string", "Case-insensitive substring of the description or category"),
		"sort_by":    prop("string", "Nutrient key to sort by, e.g. protein_g"),
		"sort_order": map[string]any{"type": "string", "enum": []string{"asc", "desc"}},
		"limit":      limitProp,
	}
	for _, n := range food.AdvancedNutrients {
		props["min_"+n.Key()] = prop("number", "Minimum "+n.Label()+" ("+n.Unit()+")")
		props["max_"+n.Key()] = prop("number", "Maximum "+n.Label()+" ("+n.Unit()+")")
	}
	return props
}

// Catalogue lists the seven tools in a stable order.
func Catalogue() []ToolDescriptor {
	nutrientKeys := make([]string, 0, food.NutrientCount)
	for _, n := range food.Nutrients() {
		nutrientKeys = append(nutrientKeys, n.Key())
	}
	return []ToolDescriptor{
		{
			Name:        ToolSearchFoods,
			Description: "Ranked, accent- and typo-tolerant search over food descriptions and categories.",
			InputSchema: object(map[string]any{
				"query": prop("string", "Free text, e.g. \"feijao cozido\""),
				"limit": limitProp,
			}, "query"),
		},
		{
			Name:        ToolGetFoodByID,
			Description: "Fetch one food by its TACO id.",
			InputSchema: object(map[string]any{"id": prop("integer", "TACO food id")}, "id"),
		},
		{
			Name:        ToolListCategories,
			Description: "List the food categories present in the table.",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        ToolFilterByNutrient,
			Description: "Foods whose value for one nutrient lies within inclusive bounds.",
			InputSchema: object(map[string]any{
				"nutrient": map[string]any{"type": "string", "enum": nutrientKeys},
				"min":      prop("number", "Inclusive lower bound"),
				"max":      prop("number", "Inclusive upper bound"),
				"limit":    limitProp,
			}, "nutrient"),
		},
		{
			Name:        ToolRandomFood,
			Description: "A uniformly random food.",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        ToolAdvancedSearch,
			Description: "Substring match combined with macronutrient ranges and an optional sort.",
			InputSchema: object(advancedProps()),
		},
		{
			Name:        ToolBatchQuery,
			Description: "Run several searches at once. Each item is a string or an advanced_search object.",
			InputSchema: object(map[string]any{
				"queries": map[string]any{
					"type": "array",
					"items": map[string]any{
						"oneOf": []any{
							map[string]any{"type": "string"},
							object(advancedProps()),
						},
					},
				},
			}, "queries"),
		},
	}
}

func knownTool(name string) bool {
	switch name {
	case ToolSearchFoods, ToolGetFoodByID, ToolListCategories, ToolFilterByNutrient,
		ToolRandomFood, ToolAdvancedSearch, ToolBatchQuery:
		return true
	}
	return false
}
