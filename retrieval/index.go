// Package retrieval builds a lexical index over document chunks and
// answers keyword queries with ranked, citeable passages.
package retrieval

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tbellem/finrep/model"
)

// stopwords are common English function words excluded from indexing
// and queries.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

var wordToken = regexp.MustCompile(`\w+`)

// tokenize lowercases text, splits it into word tokens, and drops
// stopwords.
func tokenize(text string) []string {
	raw := wordToken.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, stop := stopwords[t]; !stop {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Index is an inverse-document-frequency index over a fixed chunk
// collection. It holds no shared mutable state; a built Index is
// read-only and safe for concurrent queries.
type Index struct {
	chunks    []model.Chunk
	tokenSets []map[string]struct{}
	idf       map[string]float64
}

// NewIndex tokenizes every chunk and computes smoothed IDF weights:
// idf(t) = ln((1+N)/(1+df(t))) + 1, always positive and strictly
// decreasing as document frequency grows.
func NewIndex(chunks []model.Chunk) *Index {
	ix := &Index{
		chunks:    chunks,
		tokenSets: make([]map[string]struct{}, len(chunks)),
		idf:       make(map[string]float64),
	}

	docFreq := make(map[string]int)
	for i, ch := range chunks {
		set := make(map[string]struct{})
		for _, t := range tokenize(ch.Text) {
			set[t] = struct{}{}
		}
		ix.tokenSets[i] = set
		for t := range set {
			docFreq[t]++
		}
	}

	total := len(chunks)
	if total < 1 {
		total = 1
	}
	for t, df := range docFreq {
		ix.idf[t] = math.Log(float64(1+total)/float64(1+df)) + 1.0
	}
	return ix
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// IDF returns the inverse document frequency of a token, or 0 when the
// token does not occur in the collection.
func (ix *Index) IDF(token string) float64 { return ix.idf[token] }

// Retrieve answers a free-text question with at most topK matches,
// ranked by descending summed IDF over the tokens shared between the
// question and each chunk. Scoring uses term presence only, not term
// frequency within a chunk. Ties keep original chunk order. A query
// that is empty after stopword removal yields no matches.
func (ix *Index) Retrieve(question string, topK int) []model.Match {
	if topK <= 0 {
		topK = 3
	}

	query := make(map[string]struct{})
	for _, t := range tokenize(question) {
		query[t] = struct{}{}
	}
	if len(query) == 0 {
		return nil
	}

	var matches []model.Match
	for i, set := range ix.tokenSets {
		score := 0.0
		hit := false
		for t := range query {
			if _, ok := set[t]; ok {
				score += ix.idf[t]
				hit = true
			}
		}
		if hit {
			matches = append(matches, model.Match{Chunk: ix.chunks[i], Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}
