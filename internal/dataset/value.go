package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
)

// sentinel source tokens that mean "not measured" rather than a number.
var absentTokens = map[string]struct{}{
	"":      {},
	"NA":    {},
	"*":     {},
	"Tr":    {},
	",0,02": {},
}

// ParseValue coerces a raw source cell into a nutrient value. It never
// fails: anything that is not a finite number becomes absent.
func ParseValue(raw any) food.Value {
	switch v := raw.(type) {
	case nil:
		return food.Value{}
	case float64:
		return food.Some(v)
	case float32:
		return food.Some(float64(v))
	case int:
		return food.Some(float64(v))
	case int64:
		return food.Some(float64(v))
	case json.Number:
		return parseNumeric(string(v))
	case []byte:
		return parseNumeric(string(v))
	case string:
		return parseNumeric(v)
	default:
		return food.Value{}
	}
}

func parseNumeric(s string) food.Value {
	s = strings.TrimSpace(s)
	if _, ok := absentTokens[s]; ok {
		return food.Value{}
	}
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return food.Value{}
	}
	return food.Some(f)
}

// parseID accepts integral numbers and numeric strings.
func parseID(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		return parseIDString(string(v))
	case []byte:
		return parseIDString(string(v))
	case string:
		return parseIDString(v)
	default:
		return 0, false
	}
}

func parseIDString(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return id, true
}
