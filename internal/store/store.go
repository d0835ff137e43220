// Package store persists plans, revision history, students, and the
// model call log in a single SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the database handle and hands out repositories.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn, applies recommended
// pragmas, and runs migration.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// PlanRepo returns the plan repository backed by this store.
func (s *Store) PlanRepo() *PlanRepo {
	return &PlanRepo{db: s.db}
}

// RevisionRepo returns the revision repository backed by this store.
func (s *Store) RevisionRepo() *RevisionRepo {
	return &RevisionRepo{db: s.db}
}

// StudentRepo returns the student repository backed by this store.
func (s *Store) StudentRepo() *StudentRepo {
	return &StudentRepo{db: s.db}
}

// CallRepo returns the model call log backed by this store.
func (s *Store) CallRepo() *CallRepo {
	return &CallRepo{db: s.db}
}

// applyPragmas configures SQLite for single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS students (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			grade      TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS plans (
			id         TEXT PRIMARY KEY,
			student_id TEXT NOT NULL REFERENCES students(id),
			status     TEXT NOT NULL,
			doc        TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_plans_student ON plans(student_id);

		CREATE TABLE IF NOT EXISTS revisions (
			id                 TEXT PRIMARY KEY,
			plan_id            TEXT NOT NULL REFERENCES plans(id),
			section_kind       TEXT NOT NULL,
			content            TEXT NOT NULL,
			rationale          TEXT NOT NULL DEFAULT '',
			revision_number    INTEGER NOT NULL,
			generation_version INTEGER NOT NULL,
			feedback           TEXT NOT NULL DEFAULT '',
			manual_edit        INTEGER NOT NULL DEFAULT 0,
			created_at         TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_revisions_section
			ON revisions(plan_id, section_kind, generation_version, revision_number);

		CREATE TABLE IF NOT EXISTS llm_calls (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			provider      TEXT NOT NULL,
			model         TEXT NOT NULL,
			purpose       TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			latency_ms    INTEGER NOT NULL DEFAULT 0,
			success       INTEGER NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			request_body  TEXT NOT NULL DEFAULT '',
			response_body TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. BIPKIT_DB environment variable
// 2. $XDG_DATA_HOME/bipkit/bipkit.db
// 3. ~/.local/share/bipkit/bipkit.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("BIPKIT_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "bipkit", "bipkit.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
