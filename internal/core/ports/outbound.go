package ports

import (
	"context"

	"github.com/dkarmanov/docuchat/internal/core/domain"
)

// ChunkSource reads the full corpus snapshot from storage.
type ChunkSource interface {
	LoadChunks(ctx context.Context) ([]domain.Chunk, []domain.LoadSkip, error)
}

// Embedder turns the incoming query into a vector. Corpus embeddings are
// precomputed and come from the ChunkSource, never from here.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CompletionClient produces the raw answer text for a composed prompt.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SessionStore persists chat sessions and their append-only transcripts.
type SessionStore interface {
	CreateSession(ctx context.Context, name string) (int64, error)
	ListSessions(ctx context.Context) ([]domain.SessionInfo, error)
	ListMessages(ctx context.Context, sessionID int64) ([]domain.Message, error)
	RecentMessages(ctx context.Context, sessionID int64, limit int) ([]domain.Message, error)
	DeleteSession(ctx context.Context, sessionID int64) error

	// AppendExchange writes the user question and the assistant answer in
	// one transaction; both land or neither does.
	AppendExchange(ctx context.Context, sessionID int64, question, answer string) error
}

// AnswerCache is an exact-match question/answer cache.
type AnswerCache interface {
	Lookup(ctx context.Context, question string) (string, bool, error)
	Save(ctx context.Context, question, answer string) error
}
