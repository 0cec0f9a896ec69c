package food

// Nutrient identifies one of the numeric composition fields of a food.
type Nutrient int

// Group is the section of the composition table a nutrient belongs to.
type Group string

const (
	GroupProximate Group = "proximate"
	GroupMineral   Group = "mineral"
	GroupVitamin   Group = "vitamin"
	GroupFattyAcid Group = "fatty_acid"
	GroupAminoAcid Group = "amino_acid"
)

const (
	Humidity Nutrient = iota
	EnergyKcal
	EnergyKJ
	Protein
	Lipid
	Cholesterol
	Carbohydrate
	Fiber
	Ashes

	Calcium
	Magnesium
	Manganese
	Phosphorus
	Iron
	Sodium
	Potassium
	Copper
	Zinc

	Retinol
	RE
	RAE
	Thiamine
	Riboflavin
	Pyridoxine
	Niacin
	VitaminC

	Saturated
	Monounsaturated
	Polyunsaturated
	FA12_0
	FA14_0
	FA16_0
	FA18_0
	FA20_0
	FA22_0
	FA24_0
	FA14_1
	FA16_1
	FA18_1
	FA20_1
	FA18_2N6
	FA18_3N3
	FA20_4
	FA20_5
	FA22_5
	FA22_6
	FA18_1T
	FA18_2T

	Tryptophan
	Threonine
	Isoleucine
	Leucine
	Lysine
	Methionine
	Cystine
	Phenylalanine
	Tyrosine
	Valine
	Arginine
	Histidine
	Alanine
	AsparticAcid
	GlutamicAcid
	Glycine
	Proline
	Serine

	// NutrientCount is the number of nutrient fields carried by every Food.
	NutrientCount
)

type nutrientInfo struct {
	key   string
	label string
	unit  string
	group Group
}

var nutrientTable = [NutrientCount]nutrientInfo{
	Humidity:     {"humidity_percents", "Umidade", "%", GroupProximate},
	EnergyKcal:   {"energy_kcal", "Energia", "kcal", GroupProximate},
	EnergyKJ:     {"energy_kj", "Energia", "kJ", GroupProximate},
	Protein:      {"protein_g", "Proteína", "g", GroupProximate},
	Lipid:        {"lipid_g", "Lipídeos", "g", GroupProximate},
	Cholesterol:  {"cholesterol_mg", "Colesterol", "mg", GroupProximate},
	Carbohydrate: {"carbohydrate_g", "Carboidrato", "g", GroupProximate},
	Fiber:        {"fiber_g", "Fibra alimentar", "g", GroupProximate},
	Ashes:        {"ashes_g", "Cinzas", "g", GroupProximate},

	Calcium:    {"calcium_mg", "Cálcio", "mg", GroupMineral},
	Magnesium:  {"magnesium_mg", "Magnésio", "mg", GroupMineral},
	Manganese:  {"manganese_mg", "Manganês", "mg", GroupMineral},
	Phosphorus: {"phosphorus_mg", "Fósforo", "mg", GroupMineral},
	Iron:       {"iron_mg", "Ferro", "mg", GroupMineral},
	Sodium:     {"sodium_mg", "Sódio", "mg", GroupMineral},
	Potassium:  {"potassium_mg", "Potássio", "mg", GroupMineral},
	Copper:     {"copper_mg", "Cobre", "mg", GroupMineral},
	Zinc:       {"zinc_mg", "Zinco", "mg", GroupMineral},

	Retinol:    {"retinol_mcg", "Retinol", "mcg", GroupVitamin},
	RE:         {"re_mcg", "RE", "mcg", GroupVitamin},
	RAE:        {"rae_mcg", "RAE", "mcg", GroupVitamin},
	Thiamine:   {"thiamine_mg", "Tiamina", "mg", GroupVitamin},
	Riboflavin: {"riboflavin_mg", "Riboflavina", "mg", GroupVitamin},
	Pyridoxine: {"pyridoxine_mg", "Piridoxina", "mg", GroupVitamin},
	Niacin:     {"niacin_mg", "Niacina", "mg", GroupVitamin},
	VitaminC:   {"vitamin_c_mg", "Vitamina C", "mg", GroupVitamin},

	Saturated:       {"saturated_g", "Saturados", "g", GroupFattyAcid},
	Monounsaturated: {"monounsaturated_g", "Monoinsaturados", "g", GroupFattyAcid},
	Polyunsaturated: {"polyunsaturated_g", "Poli-insaturados", "g", GroupFattyAcid},
	FA12_0:          {"fa_12_0_g", "12:0", "g", GroupFattyAcid},
	FA14_0:          {"fa_14_0_g", "14:0", "g", GroupFattyAcid},
	FA16_0:          {"fa_16_0_g", "16:0", "g", GroupFattyAcid},
	FA18_0:          {"fa_18_0_g", "18:0", "g", GroupFattyAcid},
	FA20_0:          {"fa_20_0_g", "20:0", "g", GroupFattyAcid},
	FA22_0:          {"fa_22_0_g", "22:0", "g", GroupFattyAcid},
	FA24_0:          {"fa_24_0_g", "24:0", "g", GroupFattyAcid},
	FA14_1:          {"fa_14_1_g", "14:1", "g", GroupFattyAcid},
	FA16_1:          {"fa_16_1_g", "16:1", "g", GroupFattyAcid},
	FA18_1:          {"fa_18_1_g", "18:1", "g", GroupFattyAcid},
	FA20_1:          {"fa_20_1_g", "20:1", "g", GroupFattyAcid},
	FA18_2N6:        {"fa_18_2_n6_g", "18:2 n-6", "g", GroupFattyAcid},
	FA18_3N3:        {"fa_18_3_n3_g", "18:3 n-3", "g", GroupFattyAcid},
	FA20_4:          {"fa_20_4_g", "20:4", "g", GroupFattyAcid},
	FA20_5:          {"fa_20_5_g", "20:5", "g", GroupFattyAcid},
	FA22_5:          {"fa_22_5_g", "22:5", "g", GroupFattyAcid},
	FA22_6:          {"fa_22_6_g", "22:6", "g", GroupFattyAcid},
	FA18_1T:         {"fa_18_1t_g", "18:1t", "g", GroupFattyAcid},
	FA18_2T:         {"fa_18_2t_g", "18:2t", "g", GroupFattyAcid},

	Tryptophan:    {"tryptophan_g", "Triptofano", "g", GroupAminoAcid},
	Threonine:     {"threonine_g", "Treonina", "g", GroupAminoAcid},
	Isoleucine:    {"isoleucine_g", "Isoleucina", "g", GroupAminoAcid},
	Leucine:       {"leucine_g", "Leucina", "g", GroupAminoAcid},
	Lysine:        {"lysine_g", "Lisina", "g", GroupAminoAcid},
	Methionine:    {"methionine_g", "Metionina", "g", GroupAminoAcid},
	Cystine:       {"cystine_g", "Cistina", "g", GroupAminoAcid},
	Phenylalanine: {"phenylalanine_g", "Fenilalanina", "g", GroupAminoAcid},
	Tyrosine:      {"tyrosine_g", "Tirosina", "g", GroupAminoAcid},
	Valine:        {"valine_g", "Valina", "g", GroupAminoAcid},
	Arginine:      {"arginine_g", "Arginina", "g", GroupAminoAcid},
	Histidine:     {"histidine_g", "Histidina", "g", GroupAminoAcid},
	Alanine:       {"alanine_g", "Alanina", "g", GroupAminoAcid},
	AsparticAcid:  {"aspartic_acid_g", "Ácido aspártico", "g", GroupAminoAcid},
	GlutamicAcid:  {"glutamic_acid_g", "Ácido glutâmico", "g", GroupAminoAcid},
	Glycine:       {"glycine_g", "Glicina", "g", GroupAminoAcid},
	Proline:       {"proline_g", "Prolina", "g", GroupAminoAcid},
	Serine:        {"serine_g", "Serina", "g", GroupAminoAcid},
}

var nutrientsByKey = func() map[string]Nutrient {
	m := make(map[string]Nutrient, NutrientCount)
	for n := Nutrient(0); n < NutrientCount; n++ {
		m[nutrientTable[n].key] = n
	}
	return m
}()

// AdvancedNutrients are the nutrients accepted as range bounds by the
// advanced search.
var AdvancedNutrients = []Nutrient{EnergyKcal, Protein, Lipid, Carbohydrate, Fiber}

// LookupNutrient resolves a wire field name such as "protein_g".
func LookupNutrient(key string) (Nutrient, bool) {
	n, ok := nutrientsByKey[key]
	return n, ok
}

// Nutrients returns every nutrient in table order.
func Nutrients() []Nutrient {
	out := make([]Nutrient, NutrientCount)
	for i := range out {
		out[i] = Nutrient(i)
	}
	return out
}

func (n Nutrient) valid() bool { return n >= 0 && n < NutrientCount }

// Key returns the wire field name, or "" for an out-of-range value.
func (n Nutrient) Key() string {
	if !n.valid() {
		return ""
	}
	return nutrientTable[n].key
}

func (n Nutrient) Label() string {
	if !n.valid() {
		return ""
	}
	return nutrientTable[n].label
}

func (n Nutrient) Unit() string {
	if !n.valid() {
		return ""
	}
	return nutrientTable[n].unit
}

func (n Nutrient) Group() Group {
	if !n.valid() {
		return ""
	}
	return nutrientTable[n].group
}

func (n Nutrient) String() string { return n.Key() }
