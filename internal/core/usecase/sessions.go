package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkarmanov/docuchat/internal/core/domain"
	"github.com/dkarmanov/docuchat/internal/core/ports"
)

const defaultSessionName = "New Chat"

// SessionUseCase fronts the session store for the transport layer.
type SessionUseCase struct {
	store ports.SessionStore
}

func NewSessionUseCase(store ports.SessionStore) *SessionUseCase {
	return &SessionUseCase{store: store}
}

func (uc *SessionUseCase) CreateSession(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		name = defaultSessionName
	}
	id, err := uc.store.CreateSession(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (uc *SessionUseCase) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	sessions, err := uc.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (uc *SessionUseCase) ListMessages(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	messages, err := uc.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (uc *SessionUseCase) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := uc.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
