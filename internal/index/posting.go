package index

// Field identifies which part of a food record a term occurred in.
type Field int

const (
	FieldDescription Field = iota
	FieldCategory
	fieldCount
)

// fieldBoost weights description matches above category matches.
var fieldBoost = [fieldCount]float64{
	FieldDescription: 2.0,
	FieldCategory:    1.0,
}

func (f Field) String() string {
	switch f {
	case FieldDescription:
		return "description"
	case FieldCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Posting records one field of one document containing a term. Doc is the
// document's ordinal in the dataset.
type Posting struct {
	Doc       int
	Field     Field
	Frequency int
	Positions []int
}

type PostingList []Posting

// termEntry is the item stored in the trie for each distinct term.
type termEntry struct {
	term     string
	postings PostingList
	docFreq  int
}
