package index

import (
	"math"
	"strings"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Lexical is a BM25 index over whitespace-tokenized chunk text. Tokenization
// is case-sensitive with no stemming or stop words, matching the corpus as
// stored. Built once; immutable.
type Lexical struct {
	termFreqs []map[string]int
	docLens   []int
	docFreq   map[string]int
	avgDocLen float64
}

// BuildLexical computes term and document frequency statistics for every
// document text, in catalog order.
func BuildLexical(texts []string) *Lexical {
	lx := &Lexical{
		termFreqs: make([]map[string]int, len(texts)),
		docLens:   make([]int, len(texts)),
		docFreq:   make(map[string]int),
	}

	var totalLen int
	for i, text := range texts {
		tokens := Tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		for token := range tf {
			lx.docFreq[token]++
		}
		lx.termFreqs[i] = tf
		lx.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}
	if len(texts) > 0 {
		lx.avgDocLen = float64(totalLen) / float64(len(texts))
	}
	return lx
}

func (lx *Lexical) Len() int { return len(lx.termFreqs) }

// Scores returns one BM25 score per document. Documents containing none of
// the query terms score 0. The scale is unbounded above, so callers must
// normalize before combining with other signals.
func (lx *Lexical) Scores(queryTokens []string) []float64 {
	scores := make([]float64, len(lx.termFreqs))
	if len(queryTokens) == 0 || len(lx.termFreqs) == 0 {
		return scores
	}

	n := float64(len(lx.termFreqs))
	for _, token := range queryTokens {
		df, ok := lx.docFreq[token]
		if !ok {
			continue
		}
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
		for i, tf := range lx.termFreqs {
			freq := float64(tf[token])
			if freq == 0 {
				continue
			}
			norm := bm25K1 * (1 - bm25B + bm25B*float64(lx.docLens[i])/lx.avgDocLen)
			scores[i] += idf * (freq * (bm25K1 + 1)) / (freq + norm)
		}
	}
	return scores
}

// Tokenize splits on any whitespace, mirroring the corpus tokenization used
// at build time.
func Tokenize(text string) []string {
	return strings.Fields(text)
}
