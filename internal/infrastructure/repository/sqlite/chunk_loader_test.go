package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"testing"
)

func newCorpusDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenMemoryDB()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createContentTable(t *testing.T, db *sql.DB, name string) {
	t.Helper()
	_, err := db.Exec(`CREATE TABLE ` + name + ` (
		chunk_id INTEGER,
		page_number INTEGER,
		chunk_text TEXT,
		embedding BLOB
	)`)
	if err != nil {
		t.Fatalf("create table %s: %v", name, err)
	}
}

func packFloat32(values ...float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func TestChunkLoaderReadsJSONAndBinaryEmbeddings(t *testing.T) {
	db := newCorpusDB(t)
	createContentTable(t, db, "a_manual")

	if _, err := db.Exec(
		`INSERT INTO a_manual (chunk_id, page_number, chunk_text, embedding) VALUES (1, 3, 'json chunk', ?)`,
		[]byte("[0.1, 0.2]")); err != nil {
		t.Fatalf("insert json row: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO a_manual (chunk_id, page_number, chunk_text, embedding) VALUES (2, NULL, 'binary chunk', ?)`,
		packFloat32(0.3, 0.4)); err != nil {
		t.Fatalf("insert binary row: %v", err)
	}

	chunks, skips, err := NewChunkLoader(db).LoadChunks(context.Background())
	if err != nil {
		t.Fatalf("LoadChunks() error = %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("expected no skips, got %+v", skips)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].SourceID != "a_manual" || chunks[0].ChunkID != 1 {
		t.Fatalf("unexpected first chunk %+v", chunks[0])
	}
	if chunks[0].PageNumber == nil || *chunks[0].PageNumber != 3 {
		t.Fatalf("expected page 3, got %v", chunks[0].PageNumber)
	}
	if chunks[1].PageNumber != nil {
		t.Fatalf("expected nil page for unpaginated row")
	}
	if len(chunks[1].Embedding) != 2 || chunks[1].Embedding[0] != 0.3 {
		t.Fatalf("binary embedding decoded wrong: %v", chunks[1].Embedding)
	}
}

func TestChunkLoaderSkipsBadRowsAndKeepsGood(t *testing.T) {
	db := newCorpusDB(t)
	createContentTable(t, db, "a_manual")

	rows := []struct {
		id   int
		blob []byte
	}{
		{1, []byte("[0.1, 0.2]")}, // good
		{2, nil},                  // null embedding: not a corpus row
		{3, []byte("bogus")},      // 5 bytes: neither JSON nor float32-aligned
		{4, []byte("[0.5]")},      // dimension mismatch against first valid
		{5, []byte("[0.7, 0.8]")}, // good
	}
	for _, r := range rows {
		if _, err := db.Exec(
			`INSERT INTO a_manual (chunk_id, page_number, chunk_text, embedding) VALUES (?, NULL, 'text', ?)`,
			r.id, r.blob); err != nil {
			t.Fatalf("insert row %d: %v", r.id, err)
		}
	}

	chunks, skips, err := NewChunkLoader(db).LoadChunks(context.Background())
	if err != nil {
		t.Fatalf("LoadChunks() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 good chunks, got %d", len(chunks))
	}
	if chunks[0].ChunkID != 1 || chunks[1].ChunkID != 5 {
		t.Fatalf("wrong surviving chunks: %d, %d", chunks[0].ChunkID, chunks[1].ChunkID)
	}
	if len(skips) != 1 || skips[0].Rows != 2 {
		t.Fatalf("expected one skip record covering 2 rows, got %+v", skips)
	}
}

func TestChunkLoaderSkipsMalformedTable(t *testing.T) {
	db := newCorpusDB(t)
	createContentTable(t, db, "a_manual")
	if _, err := db.Exec(
		`INSERT INTO a_manual (chunk_id, page_number, chunk_text, embedding) VALUES (1, 1, 'ok', ?)`,
		[]byte("[1.0, 0.0]")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE broken (id INTEGER)`); err != nil {
		t.Fatalf("create broken table: %v", err)
	}

	chunks, skips, err := NewChunkLoader(db).LoadChunks(context.Background())
	if err != nil {
		t.Fatalf("a malformed table must not abort the load: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected the healthy table to load, got %d chunks", len(chunks))
	}
	if len(skips) != 1 || skips[0].Table != "broken" {
		t.Fatalf("expected a skip for the broken table, got %+v", skips)
	}
}

func TestChunkLoaderIgnoresReservedTables(t *testing.T) {
	db := newCorpusDB(t)
	store := NewSessionStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	createContentTable(t, db, "faq")
	if _, err := db.Exec(
		`INSERT INTO faq (chunk_id, page_number, chunk_text, embedding) VALUES (1, NULL, 'entry', ?)`,
		[]byte("[0.5, 0.5]")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	chunks, skips, err := NewChunkLoader(db).LoadChunks(context.Background())
	if err != nil {
		t.Fatalf("LoadChunks() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].SourceID != "faq" {
		t.Fatalf("expected only the faq table to be scanned, got %+v", chunks)
	}
	if len(skips) != 0 {
		t.Fatalf("reserved tables must not surface as skips, got %+v", skips)
	}
}
