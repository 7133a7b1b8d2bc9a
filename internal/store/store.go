package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the method index.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  package         TEXT NOT NULL DEFAULT '',
  hash            TEXT,
  line_count      INTEGER NOT NULL DEFAULT 0,
  has_errors      BOOLEAN DEFAULT FALSE,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS methods (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  owner           TEXT NOT NULL,
  name            TEXT NOT NULL,
  descriptor      TEXT NOT NULL,
  params          TEXT NOT NULL DEFAULT '[]',
  return_type     TEXT NOT NULL,
  is_constructor  BOOLEAN DEFAULT FALSE,
  start_line      INTEGER,
  start_col       INTEGER,
  end_line        INTEGER,
  end_col         INTEGER
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_methods_file ON methods(file_id);
CREATE INDEX IF NOT EXISTS idx_methods_name ON methods(name);
CREATE INDEX IF NOT EXISTS idx_methods_owner ON methods(owner);
CREATE INDEX IF NOT EXISTS idx_methods_descriptor ON methods(descriptor);
`

// DeleteFile removes a file record together with its methods.
func (s *Store) DeleteFile(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM methods WHERE file_id = ?",
		"DELETE FROM files WHERE id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteFilesNotIn removes every file record whose path is not in keep and
// returns how many were removed. Used to drop files that disappeared from
// the indexed tree.
func (s *Store) DeleteFilesNotIn(root string, keep []string) (int, error) {
	files, err := s.Files()
	if err != nil {
		return 0, err
	}
	keepSet := make(map[string]bool, len(keep))
	for _, p := range keep {
		keepSet[p] = true
	}
	removed := 0
	for _, f := range files {
		if keepSet[f.Path] || !underRoot(f.Path, root) {
			continue
		}
		if err := s.DeleteFile(f.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
