package domain

import "time"

type SessionInfo struct {
	SessionID    int64     `json:"session_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

type Message struct {
	ID        string    `json:"-"`
	SessionID int64     `json:"-"`
	Role      string    `json:"role"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
