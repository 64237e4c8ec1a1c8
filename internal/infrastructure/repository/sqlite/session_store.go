package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dkarmanov/docuchat/internal/core/domain"
)

// SessionStore persists chat sessions and their append-only transcripts in
// the reserved tables of the corpus database.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// EnsureSchema creates the reserved management tables if missing. Content
// tables are owned by the corpus producer and never touched here.
func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			session_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			session_id INTEGER NOT NULL REFERENCES chat_sessions(session_id),
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS question_cache (
			question TEXT PRIMARY KEY,
			answer TEXT NOT NULL,
			saved_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SessionStore) CreateSession(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

func (s *SessionStore) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT s.session_id, s.name, s.created_at, COUNT(m.id)
FROM chat_sessions s
LEFT JOIN chat_messages m ON s.session_id = m.session_id
GROUP BY s.session_id
ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionInfo
	for rows.Next() {
		var info domain.SessionInfo
		if err := rows.Scan(&info.SessionID, &info.Name, &info.CreatedAt, &info.MessageCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *SessionStore) ListMessages(ctx context.Context, sessionID int64) ([]domain.Message, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM chat_sessions WHERE session_id = ?`, sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, role, message, created_at
FROM chat_messages
WHERE session_id = ?
ORDER BY rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *SessionStore) RecentMessages(ctx context.Context, sessionID int64, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, role, message, created_at
FROM chat_messages
WHERE session_id = ?
ORDER BY rowid DESC
LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	out, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	// Returned newest-first from SQL; reverse to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, sessionID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return tx.Commit()
}

// AppendExchange writes the user question and assistant answer in one
// transaction so the transcript never shows half an exchange.
func (s *SessionStore) AppendExchange(ctx context.Context, sessionID int64, question, answer string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exchange: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, msg := range []struct {
		role, text string
	}{
		{domain.RoleUser, question},
		{domain.RoleAssistant, answer},
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (id, session_id, role, message, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), sessionID, msg.role, msg.text, now); err != nil {
			return fmt.Errorf("append %s message: %w", msg.role, err)
		}
	}
	return tx.Commit()
}

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var out []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}
