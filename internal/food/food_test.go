package food

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestNutrientRegistry(t *testing.T) {
	if NutrientCount != 66 {
		t.Fatalf("expected 66 nutrients, got %d", NutrientCount)
	}
	seen := make(map[string]bool)
	for _, n := range Nutrients() {
		key := n.Key()
		if key == "" {
			t.Fatalf("nutrient %d has no key", n)
		}
		if seen[key] {
			t.Fatalf("duplicate nutrient key %q", key)
		}
		seen[key] = true
		got, ok := LookupNutrient(key)
		if !ok || got != n {
			t.Errorf("LookupNutrient(%q) = %v, %v; want %v", key, got, ok, n)
		}
	}
	if _, ok := LookupNutrient("vitamin_z"); ok {
		t.Error("unknown nutrient should not resolve")
	}
}

func TestAdvancedNutrientKeys(t *testing.T) {
	want := []string{"energy_kcal", "protein_g", "lipid_g", "carbohydrate_g", "fiber_g"}
	if len(AdvancedNutrients) != len(want) {
		t.Fatalf("expected %d advanced nutrients, got %d", len(want), len(AdvancedNutrients))
	}
	for i, n := range AdvancedNutrients {
		if n.Key() != want[i] {
			t.Errorf("advanced nutrient %d = %q, want %q", i, n.Key(), want[i])
		}
	}
}

func TestParseCategory(t *testing.T) {
	if len(AllCategories()) != 15 {
		t.Fatalf("expected 15 categories, got %d", len(AllCategories()))
	}
	if c, ok := ParseCategory("Frutas e derivados"); !ok || c != CategoryFruits {
		t.Errorf("ParseCategory fruits = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("Frutas"); ok {
		t.Error("partial category name should not parse")
	}
}

func TestValueAbsence(t *testing.T) {
	var zero Value
	if zero.Present() {
		t.Error("zero Value must be absent")
	}
	if v, ok := Some(0).Get(); !ok || v != 0 {
		t.Errorf("Some(0) = %v, %v; want present zero", v, ok)
	}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if Some(bad).Present() {
			t.Errorf("Some(%v) should be absent", bad)
		}
	}
}

func TestFoodGetOutOfRange(t *testing.T) {
	f := &Food{ID: 1}
	f.Set(Protein, Some(2.5))
	if v, ok := f.Get(Protein); !ok || v != 2.5 {
		t.Errorf("Get(Protein) = %v, %v", v, ok)
	}
	if _, ok := f.Get(NutrientCount); ok {
		t.Error("out-of-range nutrient should be absent")
	}
	if _, ok := f.Field("no_such_field"); ok {
		t.Error("unknown field should be absent")
	}
}

func TestFoodMarshalJSONOmitsAbsent(t *testing.T) {
	f := &Food{ID: 3, Description: "Arroz, integral, cozido", Category: CategoryCereals}
	f.Set(EnergyKcal, Some(124))
	f.Set(Protein, Some(2.6))

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if out["description"] != "Arroz, integral, cozido" {
		t.Errorf("description = %v", out["description"])
	}
	if out["energy_kcal"] != 124.0 || out["protein_g"] != 2.6 {
		t.Errorf("nutrients not rendered: %s", data)
	}
	if _, ok := out["fiber_g"]; ok {
		t.Errorf("absent fiber_g should be omitted: %s", data)
	}
	if len(out) != 5 {
		t.Errorf("expected 5 keys, got %d: %s", len(out), data)
	}
}

func TestFoodEncodeMsgpack(t *testing.T) {
	f := &Food{ID: 7, Description: "Banana, prata, crua", Category: CategoryFruits}
	f.Set(Fiber, Some(2))

	data, err := msgpack.Marshal(f)
	if err != nil {
		t.Fatalf("msgpack marshal: %v", err)
	}
	var out map[string]any
	if err := msgpack.Unmarshal(data, &out); err != nil {
		t.Fatalf("msgpack unmarshal: %v", err)
	}
	if len(out) != 4 {
		t.Errorf("expected 4 keys, got %v", out)
	}
	if out["category"] != string(CategoryFruits) {
		t.Errorf("category = %v", out["category"])
	}
}
