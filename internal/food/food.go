// Package food defines the TACO food-composition record: its fixed category
// set, the nutrient registry, and the absent-aware nutrient value.
package food

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// Category is one of the fixed TACO food groups.
type Category string

const (
	CategoryCereals      Category = "Cereais e derivados"
	CategoryVegetables   Category = "Verduras, hortaliças e derivados"
	CategoryFruits       Category = "Frutas e derivados"
	CategoryFats         Category = "Gorduras e óleos"
	CategoryFish         Category = "Pescados e frutos do mar"
	CategoryMeat         Category = "Carnes e derivados"
	CategoryDairy        Category = "Leite e derivados"
	CategoryBeverages    Category = "Bebidas (alcoólicas e não alcoólicas)"
	CategoryEggs         Category = "Ovos e derivados"
	CategorySugary       Category = "Produtos açucarados"
	CategoryMiscellany   Category = "Miscelâneas"
	CategoryIndustrial   Category = "Outros alimentos industrializados"
	CategoryPrepared     Category = "Alimentos preparados"
	CategoryLegumes      Category = "Leguminosas e derivados"
	CategoryNutsAndSeeds Category = "Nozes e sementes"
)

var allCategories = []Category{
	CategoryCereals,
	CategoryVegetables,
	CategoryFruits,
	CategoryFats,
	CategoryFish,
	CategoryMeat,
	CategoryDairy,
	CategoryBeverages,
	CategoryEggs,
	CategorySugary,
	CategoryMiscellany,
	CategoryIndustrial,
	CategoryPrepared,
	CategoryLegumes,
	CategoryNutsAndSeeds,
}

// AllCategories returns the fixed category set in table order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory reports whether s names one of the fixed categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range allCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Value is a nutrient measurement. The zero Value is absent, which is
// distinct from a measured zero.
type Value struct {
	v  float64
	ok bool
}

// Some returns a present Value. Non-finite inputs yield an absent Value.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

func (v Value) Get() (float64, bool) { return v.v, v.ok }

func (v Value) Present() bool { return v.ok }

// Food is one row of the composition table.
type Food struct {
	ID          int
	Description string
	Category    Category
	Nutrients   [NutrientCount]Value
}

// Get returns the value of nutrient n and whether it is present.
func (f *Food) Get(n Nutrient) (float64, bool) {
	if !n.valid() {
		return 0, false
	}
	return f.Nutrients[n].Get()
}

// Set stores v for nutrient n. Out-of-range nutrients are ignored.
func (f *Food) Set(n Nutrient, v Value) {
	if n.valid() {
		f.Nutrients[n] = v
	}
}

// Field resolves a nutrient by wire name. Unknown names report absent.
func (f *Food) Field(key string) (float64, bool) {
	n, ok := LookupNutrient(key)
	if !ok {
		return 0, false
	}
	return f.Get(n)
}

// MarshalJSON renders the record with identity fields first and nutrients
// in table order. Absent nutrients are omitted.
func (f *Food) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.Itoa(f.ID))
	buf.WriteString(`,"description":`)
	desc, err := json.Marshal(f.Description)
	if err != nil {
		return nil, err
	}
	buf.Write(desc)
	buf.WriteString(`,"category":`)
	cat, err := json.Marshal(string(f.Category))
	if err != nil {
		return nil, err
	}
	buf.Write(cat)
	for n := Nutrient(0); n < NutrientCount; n++ {
		v, ok := f.Nutrients[n].Get()
		if !ok {
			continue
		}
		buf.WriteString(`,"`)
		buf.WriteString(n.Key())
		buf.WriteString(`":`)
		buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeMsgpack writes the same field set as MarshalJSON as a msgpack map.
func (f *Food) EncodeMsgpack(enc *msgpack.Encoder) error {
	present := 0
	for _, v := range f.Nutrients {
		if v.ok {
			present++
		}
	}
	if err := enc.EncodeMapLen(3 + present); err != nil {
		return err
	}
	if err := encodePair(enc, "id", f.ID); err != nil {
		return err
	}
	if err := encodePair(enc, "description", f.Description); err != nil {
		return err
	}
	if err := encodePair(enc, "category", string(f.Category)); err != nil {
		return err
	}
	for n := Nutrient(0); n < NutrientCount; n++ {
		v, ok := f.Nutrients[n].Get()
		if !ok {
			continue
		}
		if err := encodePair(enc, n.Key(), v); err != nil {
			return err
		}
	}
	return nil
}

func encodePair(enc *msgpack.Encoder, key string, value any) error {
	if err := enc.EncodeString(key); err != nil {
		return err
	}
	return enc.Encode(value)
}
