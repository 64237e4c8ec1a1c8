package usecase

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/dkarmanov/docuchat/internal/core/domain"
	"github.com/dkarmanov/docuchat/internal/index"
)

// normalizeEpsilon guards min-max normalization against near-constant score
// arrays, including the all-zero case.
const normalizeEpsilon = 1e-12

// AlphaCell holds the process-wide fusion weight. Reads are lock-free and
// never torn; writes validate the range before publishing.
type AlphaCell struct {
	bits atomic.Uint64
}

func NewAlphaCell(initial float64) *AlphaCell {
	cell := &AlphaCell{}
	if initial < 0 || initial > 1 || math.IsNaN(initial) {
		initial = 0.6
	}
	cell.bits.Store(math.Float64bits(initial))
	return cell
}

func (c *AlphaCell) Alpha() float64 {
	return math.Float64frombits(c.bits.Load())
}

// SetAlpha rejects values outside [0,1] without touching the live weight.
func (c *AlphaCell) SetAlpha(value float64) error {
	if value < 0 || value > 1 || math.IsNaN(value) {
		return domain.ErrInvalidAlpha
	}
	c.bits.Store(math.Float64bits(value))
	return nil
}

// Retriever runs a query against both indices and fuses the scores into one
// ranked candidate list.
type Retriever struct {
	catalog    *index.Catalog
	alpha      *AlphaCell
	candidateK int
	finalK     int
}

func NewRetriever(catalog *index.Catalog, alpha *AlphaCell, candidateK, finalK int) *Retriever {
	if candidateK <= 0 {
		candidateK = 100
	}
	if finalK <= 0 {
		finalK = 8
	}
	return &Retriever{
		catalog:    catalog,
		alpha:      alpha,
		candidateK: candidateK,
		finalK:     finalK,
	}
}

// Retrieve fuses dense and lexical signals for one query. An empty catalog
// yields an explicit empty result instead of a wall of zero scores.
func (r *Retriever) Retrieve(queryVector []float32, queryText string) []domain.RetrievedChunk {
	total := r.catalog.Len()
	if total == 0 {
		return nil
	}

	// Dense hits are scattered into a corpus-length array so both signals
	// stay aligned to catalog positions before normalization.
	dense := make([]float64, total)
	for _, hit := range r.catalog.Dense().Search(queryVector, r.candidateK) {
		dense[hit.Position] = hit.Score
	}
	lexical := r.catalog.Lexical().Scores(index.Tokenize(queryText))

	denseNorm := normalizeScores(dense)
	lexicalNorm := normalizeScores(lexical)

	alpha := r.alpha.Alpha()
	fused := make([]float64, total)
	for i := range fused {
		fused[i] = alpha*denseNorm[i] + (1-alpha)*lexicalNorm[i]
	}

	positions := make([]int, total)
	for i := range positions {
		positions[i] = i
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return fused[positions[i]] > fused[positions[j]]
	})
	if len(positions) > r.finalK {
		positions = positions[:r.finalK]
	}

	results := make([]domain.RetrievedChunk, 0, len(positions))
	for _, pos := range positions {
		// A non-positive fused score means neither signal found the chunk
		// relevant; it must never be surfaced or cited.
		if fused[pos] <= 0 {
			continue
		}
		chunk := r.catalog.Chunk(pos)
		results = append(results, domain.RetrievedChunk{
			SourceID:     chunk.SourceID,
			ChunkID:      chunk.ChunkID,
			PageNumber:   chunk.PageNumber,
			Text:         chunk.Text,
			Score:        fused[pos],
			DenseScore:   denseNorm[pos],
			LexicalScore: lexicalNorm[pos],
		})
	}

	// Selection and final ordering stay separate steps; the stable sort
	// keeps loader order as the implicit tie-break.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// normalizeScores min-max normalizes to [0,1]. A near-constant array
// collapses to all zeros rather than dividing by a vanishing range.
func normalizeScores(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	minVal, maxVal := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < minVal {
			minVal = s
		}
		if s > maxVal {
			maxVal = s
		}
	}
	if maxVal-minVal < normalizeEpsilon {
		return out
	}
	for i, s := range scores {
		out[i] = (s - minVal) / (maxVal - minVal)
	}
	return out
}
