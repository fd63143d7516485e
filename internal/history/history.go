// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists a record of every acquisition attempt so past
// runs can be inspected and repeated downloads detected.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-finder/pkg/types"
)

// Store manages the acquisition history SQLite database.
type Store struct {
	db *sql.DB
}

// Entry is one recorded acquisition outcome.
type Entry struct {
	ID         string
	Reference  string
	Identity   types.Identity
	Success    bool
	Source     string
	Filepath   string
	Error      string
	Attempts   map[string]string
	AcquiredAt time.Time
}

// DefaultPath returns the history database location in the user's home
// directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paper-finder-history.db"
	}
	return filepath.Join(home, ".paper-finder-history.db")
}

// Open opens or creates the history database at path, creating the schema
// when missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS acquisitions (
			id TEXT PRIMARY KEY,
			reference TEXT NOT NULL,
			identity_type TEXT,
			identity_value TEXT,
			success INTEGER NOT NULL,
			source TEXT,
			filepath TEXT,
			error TEXT,
			attempts TEXT,
			acquired_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_acquisitions_identity ON acquisitions(identity_value)`,
		`CREATE INDEX IF NOT EXISTS idx_acquisitions_time ON acquisitions(acquired_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores one acquisition outcome.
func (s *Store) Record(e Entry) error {
	attempts, err := json.Marshal(e.Attempts)
	if err != nil {
		return fmt.Errorf("marshaling attempts: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO acquisitions
		 (id, reference, identity_type, identity_value, success, source, filepath, error, attempts, acquired_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Reference, string(e.Identity.Type), e.Identity.Normalized,
		boolToInt(e.Success), e.Source, e.Filepath, e.Error,
		string(attempts), e.AcquiredAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting acquisition: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first, up to limit.
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, reference, identity_type, identity_value, success, source, filepath, error, attempts, acquired_at
		 FROM acquisitions ORDER BY acquired_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying acquisitions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FindByIdentity returns past entries for a normalized identifier, newest
// first.
func (s *Store) FindByIdentity(normalized string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, reference, identity_type, identity_value, success, source, filepath, error, attempts, acquired_at
		 FROM acquisitions WHERE identity_value = ? ORDER BY acquired_at DESC`, normalized)
	if err != nil {
		return nil, fmt.Errorf("querying acquisitions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e          Entry
		idType     string
		success    int
		attempts   string
		acquiredAt string
	)
	if err := rows.Scan(&e.ID, &e.Reference, &idType, &e.Identity.Normalized,
		&success, &e.Source, &e.Filepath, &e.Error, &attempts, &acquiredAt); err != nil {
		return Entry{}, fmt.Errorf("scanning row: %w", err)
	}

	e.Identity.Type = types.IdentifierType(idType)
	e.Success = success != 0
	if attempts != "" {
		if err := json.Unmarshal([]byte(attempts), &e.Attempts); err != nil {
			return Entry{}, fmt.Errorf("parsing attempts: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339, acquiredAt); err == nil {
		e.AcquiredAt = t
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
