// Package sqlite implements the persistence.Store contract on top of
// SQLite, following the teacher's pkg/core/store_init.go connection
// setup (WAL journal mode, busy timeout, foreign keys) and
// pkg/core/store_crud.go operation shapes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver

	"github.com/liliang-cn/vectordb/internal/corelog"
	"github.com/liliang-cn/vectordb/internal/persistence"
)

// Store is a SQLite-backed persistence.Store.
type Store struct {
	db     *sql.DB
	logger corelog.Logger
}

// Open opens (creating if needed) the SQLite database at path, applies
// pragmas tuned for a single-process server, and ensures the schema
// exists.
func Open(ctx context.Context, path string, logger corelog.Logger) (*Store, error) {
	if logger == nil {
		logger = corelog.Nop()
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-2000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrapErr("open", fmt.Errorf("open database: %w", err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(2 * time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, wrapErr("open", fmt.Errorf("enable foreign keys: %w", err))
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, wrapErr("open", err)
	}

	logger.Info("sqlite store opened", "path", path)
	return s, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS libraries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		dims INTEGER NOT NULL,
		index_type TEXT NOT NULL,
		metadata TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		library_id TEXT NOT NULL,
		title TEXT,
		metadata TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (library_id) REFERENCES libraries(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_documents_library_id ON documents(library_id);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		library_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		metadata TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (library_id) REFERENCES libraries(id) ON DELETE CASCADE,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_library_id ON chunks(library_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Libraries returns the libraries collection.
func (s *Store) Libraries() persistence.Libraries { return &LibraryStore{db: s.db} }

// Documents returns the documents collection.
func (s *Store) Documents() persistence.Documents { return &DocumentStore{db: s.db} }

// Chunks returns the chunks collection.
func (s *Store) Chunks() persistence.Chunks { return &ChunkStore{db: s.db} }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}
