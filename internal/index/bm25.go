package index

import "math"

// okapi holds the BM25 parameters: k1 saturates term frequency and b
// controls how much a long field is penalised.
type okapi struct {
	k1, b float64
}

var defaultOkapi = okapi{k1: 1.2, b: 0.75}

// idf is the non-negative BM25 inverse document frequency of a term found
// in df of n documents.
func (okapi) idf(n, df int) float64 {
	return math.Log1p((float64(n) - float64(df) + 0.5) / (float64(df) + 0.5))
}

// tf is the saturated, length-normalised term frequency. An empty corpus
// field (avg 0) contributes nothing.
func (o okapi) tf(freq, length int, avg float64) float64 {
	if avg == 0 || freq == 0 {
		return 0
	}
	f := float64(freq)
	norm := o.k1 * (1 - o.b + o.b*float64(length)/avg)
	return f * (o.k1 + 1) / (f + norm)
}
