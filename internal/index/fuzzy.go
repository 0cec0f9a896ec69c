package index

import "math"

// Tier is how a query term reached a dictionary term. Higher is better.
type Tier int

const (
	TierFuzzy Tier = iota + 1
	TierPrefix
	TierExact
)

const (
	fuzzyEditRatio = 0.2
	prefixBase     = 0.8
	fuzzyBase      = 0.6
)

// maxEdits is the edit budget for a query term of n runes.
func maxEdits(n int) int {
	return int(math.Round(float64(n) * fuzzyEditRatio))
}

// prefixWeight scores a dictionary term that extends the query term.
// It is always below the exact-match weight of 1 and decays as the
// completion gets longer.
func prefixWeight(queryLen, termLen int) float64 {
	return prefixBase * float64(queryLen) / float64(termLen)
}

func fuzzyWeight(queryLen, distance int) float64 {
	return fuzzyBase * float64(queryLen) / float64(queryLen+distance)
}

// levenshtein returns the edit distance between a and b, or limit+1 as
// soon as it is known to exceed limit.
func levenshtein(a, b []rune, limit int) int {
	if abs(len(a)-len(b)) > limit {
		return limit + 1
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > limit {
			return limit + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
