package index

import (
	"math"
	"sort"

	"github.com/dkarmanov/docuchat/internal/core/domain"
)

// defaultDimension keeps an empty-corpus index queryable instead of failing.
const defaultDimension = 384

// Dense is a flat inner-product index over L2-normalized embeddings. Entry i
// always corresponds to the chunk at catalog position i. Search is exact.
type Dense struct {
	dim     int
	vectors [][]float32
}

// Hit pairs a raw similarity score with a catalog position.
type Hit struct {
	Position int
	Score    float64
}

// BuildDense copies and L2-normalizes every chunk embedding. Dimensionality
// comes from the first embedding; an empty corpus yields a zero-entry index
// of the default dimensionality.
func BuildDense(chunks []domain.Chunk) *Dense {
	if len(chunks) == 0 {
		return &Dense{dim: defaultDimension}
	}

	d := &Dense{
		dim:     len(chunks[0].Embedding),
		vectors: make([][]float32, len(chunks)),
	}
	for i, chunk := range chunks {
		row := make([]float32, len(chunk.Embedding))
		copy(row, chunk.Embedding)
		l2Normalize(row)
		d.vectors[i] = row
	}
	return d
}

func (d *Dense) Len() int       { return len(d.vectors) }
func (d *Dense) Dimension() int { return d.dim }

// Search returns up to k nearest neighbors by inner product, scores
// descending. The query is L2-normalized, so scores are cosine similarities
// in [-1, 1]. k is clamped to the index size.
func (d *Dense) Search(query []float32, k int) []Hit {
	if len(d.vectors) == 0 || len(query) != d.dim || k <= 0 {
		return nil
	}
	if k > len(d.vectors) {
		k = len(d.vectors)
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	l2Normalize(normalized)

	hits := make([]Hit, len(d.vectors))
	for i, row := range d.vectors {
		hits[i] = Hit{Position: i, Score: dot(normalized, row)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits[:k]
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func l2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
