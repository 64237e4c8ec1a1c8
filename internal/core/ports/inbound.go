package ports

import (
	"context"

	"github.com/dkarmanov/docuchat/internal/core/domain"
)

// ChatService is the inbound contract for answering questions.
type ChatService interface {
	Ask(ctx context.Context, sessionID int64, question string, useCache bool) (*domain.Answer, error)
}

// SessionService is the inbound contract for session management.
type SessionService interface {
	CreateSession(ctx context.Context, name string) (int64, error)
	ListSessions(ctx context.Context) ([]domain.SessionInfo, error)
	ListMessages(ctx context.Context, sessionID int64) ([]domain.Message, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}

// RetrievalTuner exposes the runtime-tunable fusion weight.
type RetrievalTuner interface {
	Alpha() float64
	SetAlpha(value float64) error
}
