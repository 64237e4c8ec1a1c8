package domain

// SentinelAnswer is the fixed response for questions the corpus cannot
// ground. The prompt instructs the model to emit it verbatim and the
// retrieval gate produces it directly when confidence is too low.
const SentinelAnswer = "Data not found"

// Chunk is one retrievable fragment of the corpus. Chunks are loaded once
// at startup and never mutated afterwards.
type Chunk struct {
	SourceID   string
	ChunkID    int
	PageNumber *int
	Text       string
	Embedding  []float32
}

// LoadSkip records a row or table the loader dropped while building the
// corpus snapshot. Loading stays best-effort; skips are only observable.
type LoadSkip struct {
	Table  string
	Reason string
	Rows   int
}

// RetrievedChunk is a per-query retrieval result. Text holds the full chunk
// text; display truncation happens only in the caller-facing payload.
type RetrievedChunk struct {
	SourceID     string
	ChunkID      int
	PageNumber   *int
	Text         string
	Score        float64
	DenseScore   float64
	LexicalScore float64
}

// SourceRef is the caller-facing evidence payload for one surfaced result.
type SourceRef struct {
	SourceID     string  `json:"table"`
	ChunkID      int     `json:"chunk_id"`
	Page         *int    `json:"page"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	DenseScore   float64 `json:"dense_score"`
	LexicalScore float64 `json:"lexical_score"`
}

// AnswerOutcome labels how an answer was produced.
type AnswerOutcome string

const (
	OutcomeCacheHit          AnswerOutcome = "cache_hit"
	OutcomeGated             AnswerOutcome = "gated"
	OutcomeAnswered          AnswerOutcome = "answered"
	OutcomeGenerationFailure AnswerOutcome = "generation_failure"
)

type Answer struct {
	Text      string        `json:"answer"`
	SessionID int64         `json:"session_id"`
	Sources   []SourceRef   `json:"sources"`
	FromCache bool          `json:"from_cache"`
	Outcome   AnswerOutcome `json:"-"`
}
