package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // SQLite driver
)

// OpenDB opens the corpus database. The file must already exist: the corpus
// is produced upstream, and starting against a missing database would mean
// silently serving an empty index.
func OpenDB(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("corpus database %q: %w", path, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// OpenMemoryDB opens a fresh in-memory database, used by tests.
func OpenMemoryDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory sqlite: %w", err)
	}
	// The in-memory database vanishes with its connection; keep exactly one.
	db.SetMaxOpenConns(1)
	return db, nil
}
