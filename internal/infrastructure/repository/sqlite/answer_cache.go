package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AnswerCache is the exact-match question cache. Keys are raw question text
// with no normalization: near-duplicate questions are deliberate misses.
type AnswerCache struct {
	db *sql.DB
}

func NewAnswerCache(db *sql.DB) *AnswerCache {
	return &AnswerCache{db: db}
}

func (c *AnswerCache) Lookup(ctx context.Context, question string) (string, bool, error) {
	var answer string
	err := c.db.QueryRowContext(ctx,
		`SELECT answer FROM question_cache WHERE question = ?`, question).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return answer, true, nil
}

// Save overwrites any prior entry for the exact question text.
func (c *AnswerCache) Save(ctx context.Context, question, answer string) error {
	_, err := c.db.ExecContext(ctx, `
INSERT INTO question_cache (question, answer, saved_at) VALUES (?, ?, ?)
ON CONFLICT(question) DO UPDATE SET answer = excluded.answer, saved_at = excluded.saved_at`,
		question, answer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	return nil
}
