package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/dkarmanov/docuchat/internal/core/domain"
)

// reservedTables hold chat state and cache entries inside the corpus
// database; they are never scanned for chunks.
var reservedTables = map[string]struct{}{
	"sqlite_sequence":   {},
	"chat_sessions":     {},
	"chat_messages":     {},
	"question_cache":    {},
	"schema_migrations": {},
}

// ChunkLoader reads every content table of the corpus database into an
// in-memory chunk catalog. Loading is best-effort per row and per table: a
// malformed table or embedding never aborts the rest of the load.
type ChunkLoader struct {
	db *sql.DB
}

func NewChunkLoader(db *sql.DB) *ChunkLoader {
	return &ChunkLoader{db: db}
}

func (l *ChunkLoader) LoadChunks(ctx context.Context) ([]domain.Chunk, []domain.LoadSkip, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, nil, fmt.Errorf("scan table name: %w", err)
		}
		if _, reserved := reservedTables[name]; reserved {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate tables: %w", err)
	}

	var (
		chunks    []domain.Chunk
		skips     []domain.LoadSkip
		dimension int
	)
	for _, table := range tables {
		loaded, skip := l.loadTable(ctx, table, &dimension)
		chunks = append(chunks, loaded...)
		if skip != nil {
			skips = append(skips, *skip)
			slog.Warn("corpus_load_skip", "table", skip.Table, "reason", skip.Reason, "rows", skip.Rows)
		}
	}
	return chunks, skips, nil
}

// loadTable scans one content table. A table that cannot be queried (for
// example, missing the expected columns) is skipped whole; individual rows
// with undecodable embeddings are skipped and counted.
func (l *ChunkLoader) loadTable(ctx context.Context, table string, dimension *int) ([]domain.Chunk, *domain.LoadSkip) {
	rows, err := l.db.QueryContext(ctx, fmt.Sprintf(`SELECT chunk_id, page_number, chunk_text, embedding FROM %q`, table))
	if err != nil {
		return nil, &domain.LoadSkip{Table: table, Reason: fmt.Sprintf("query failed: %v", err)}
	}
	defer rows.Close()

	var (
		chunks  []domain.Chunk
		skipped int
	)
	for rows.Next() {
		var (
			chunkID int
			page    sql.NullInt64
			text    sql.NullString
			blob    []byte
		)
		if err := rows.Scan(&chunkID, &page, &text, &blob); err != nil {
			skipped++
			continue
		}
		if blob == nil {
			// Rows without an embedding are not corpus rows.
			continue
		}

		embedding, err := decodeEmbedding(blob)
		if err != nil {
			skipped++
			continue
		}
		if *dimension == 0 {
			*dimension = len(embedding)
		}
		if len(embedding) != *dimension {
			skipped++
			continue
		}

		chunk := domain.Chunk{
			SourceID:  table,
			ChunkID:   chunkID,
			Text:      text.String,
			Embedding: embedding,
		}
		if page.Valid {
			p := int(page.Int64)
			chunk.PageNumber = &p
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return chunks, &domain.LoadSkip{Table: table, Reason: fmt.Sprintf("iterate failed: %v", err), Rows: skipped}
	}
	if skipped > 0 {
		return chunks, &domain.LoadSkip{Table: table, Reason: "undecodable embedding rows", Rows: skipped}
	}
	return chunks, nil
}

// decodeEmbedding accepts a JSON float array or a packed little-endian
// float32 blob.
func decodeEmbedding(blob []byte) ([]float32, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 {
		return nil, errors.New("empty embedding payload")
	}

	if trimmed[0] == '[' {
		var vector []float32
		if err := json.Unmarshal(trimmed, &vector); err != nil {
			return nil, fmt.Errorf("json embedding: %w", err)
		}
		if len(vector) == 0 {
			return nil, errors.New("empty json embedding")
		}
		return vector, nil
	}

	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("binary embedding length %d not a float32 multiple", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		value := math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
		if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
			return nil, errors.New("non-finite embedding value")
		}
		vector[i] = value
	}
	return vector, nil
}
