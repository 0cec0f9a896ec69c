// Package index builds a read-only text index over food descriptions and
// categories. Terms live in a patricia trie so that exact, prefix and
// fuzzy lookups share one dictionary.
package index

import (
	"math"
	"sort"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/food"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/index/tokenizer"
)

// Hit is a scored search result. Tier is the best match tier any query
// term reached in the food.
type Hit struct {
	Food  *food.Food
	Tier  Tier
	Score float64
}

// TextIndex is immutable once built and safe for concurrent Search calls.
type TextIndex struct {
	trie     *patricia.Trie
	docs     []*food.Food
	fieldLen [fieldCount][]int
	avgLen   [fieldCount]float64
	terms    int
}

// Build indexes every food of ds.
func Build(ds *dataset.Dataset) *TextIndex {
	idx := &TextIndex{
		trie: patricia.NewTrie(),
		docs: ds.All(),
	}
	for f := range idx.fieldLen {
		idx.fieldLen[f] = make([]int, len(idx.docs))
	}

	entries := make(map[string]*termEntry)
	var totals [fieldCount]int
	for doc, fd := range idx.docs {
		idx.addField(entries, doc, FieldDescription, fd.Description, &totals)
		idx.addField(entries, doc, FieldCategory, string(fd.Category), &totals)
	}
	if n := len(idx.docs); n > 0 {
		for f := range idx.avgLen {
			idx.avgLen[f] = float64(totals[f]) / float64(n)
		}
	}

	for term, entry := range entries {
		seen := make(map[int]struct{}, len(entry.postings))
		for _, p := range entry.postings {
			seen[p.Doc] = struct{}{}
		}
		entry.docFreq = len(seen)
		idx.trie.Insert(patricia.Prefix(term), entry)
	}
	idx.terms = len(entries)
	return idx
}

func (idx *TextIndex) addField(entries map[string]*termEntry, doc int, field Field, text string, totals *[fieldCount]int) {
	tokens := tokenizer.Tokenize(text)
	idx.fieldLen[field][doc] = len(tokens)
	totals[field] += len(tokens)

	termData := make(map[string]*Posting)
	order := make([]string, 0, len(tokens))
	for _, token := range tokens {
		p, exists := termData[token.Term]
		if !exists {
			p = &Posting{
				Doc:       doc,
				Field:     field,
				Positions: make([]int, 0, 2),
			}
			termData[token.Term] = p
			order = append(order, token.Term)
		}
		p.Frequency++
		p.Positions = append(p.Positions, token.Position)
	}
	for _, term := range order {
		entry, ok := entries[term]
		if !ok {
			entry = &termEntry{term: term}
			entries[term] = entry
		}
		entry.postings = append(entry.postings, *termData[term])
	}
}

// TermCount returns the number of distinct indexed terms.
func (idx *TextIndex) TermCount() int { return idx.terms }

// DocCount returns the number of indexed foods.
func (idx *TextIndex) DocCount() int { return len(idx.docs) }

// Search returns foods matching any term of text, best first. Ties keep
// dataset order. A query with no usable terms matches nothing.
func (idx *TextIndex) Search(text string) []Hit {
	terms := tokenizer.Terms(text)
	if len(terms) == 0 || len(idx.docs) == 0 {
		return nil
	}

	type scored struct {
		doc   int
		tier  Tier
		score float64
	}
	byDoc := make(map[int]*scored)
	for _, q := range terms {
		for entry, m := range idx.expand(q) {
			idf := defaultOkapi.idf(len(idx.docs), entry.docFreq)
			for _, p := range entry.postings {
				tf := defaultOkapi.tf(p.Frequency, idx.fieldLen[p.Field][p.Doc], idx.avgLen[p.Field])
				s := byDoc[p.Doc]
				if s == nil {
					s = &scored{doc: p.Doc}
					byDoc[p.Doc] = s
				}
				s.tier = max(s.tier, m.tier)
				s.score += m.weight * fieldBoost[p.Field] * idf * tf
			}
		}
	}

	ranked := make([]*scored, 0, len(byDoc))
	for _, s := range byDoc {
		s.score = math.Round(s.score*10000) / 10000
		ranked = append(ranked, s)
	}
	// tier first so a common exact term is never outranked by a rare
	// completion
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.tier != b.tier {
			return a.tier > b.tier
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.doc < b.doc
	})

	hits := make([]Hit, len(ranked))
	for i, r := range ranked {
		hits[i] = Hit{Food: idx.docs[r.doc], Tier: r.tier, Score: r.score}
	}
	return hits
}

type match struct {
	tier   Tier
	weight float64
}

// expand maps a query term to the dictionary terms it matches and the
// best tier for each: exact, then prefix, then fuzzy.
func (idx *TextIndex) expand(q string) map[*termEntry]match {
	matches := make(map[*termEntry]match)
	keep := func(e *termEntry, t Tier, w float64) {
		if cur, ok := matches[e]; !ok || t > cur.tier || (t == cur.tier && w > cur.weight) {
			matches[e] = match{tier: t, weight: w}
		}
	}

	qr := []rune(q)
	if item := idx.trie.Get(patricia.Prefix(q)); item != nil {
		keep(item.(*termEntry), TierExact, 1.0)
	}
	idx.trie.VisitSubtree(patricia.Prefix(q), func(p patricia.Prefix, item patricia.Item) error {
		e := item.(*termEntry)
		if e.term != q {
			keep(e, TierPrefix, prefixWeight(len(qr), len([]rune(e.term))))
		}
		return nil
	})

	limit := maxEdits(len(qr))
	if limit == 0 {
		return matches
	}
	idx.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		e := item.(*termEntry)
		if e.term == q {
			return nil
		}
		tr := []rune(e.term)
		if d := levenshtein(qr, tr, limit); d <= limit {
			keep(e, TierFuzzy, fuzzyWeight(len(qr), d))
		}
		return nil
	})
	return matches
}
