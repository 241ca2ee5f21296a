// Package history persists one row per dispatcher invocation in SQLite,
// so `docmake history` can answer what ran, when, and how it exited.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one dispatcher invocation.
type Record struct {
	ID         string        `json:"id"`
	Target     string        `json:"target"`
	Argv       []string      `json:"argv"`
	ExitCode   int           `json:"exit_code"`
	Duration   time.Duration `json:"duration"`
	StartedAt  time.Time     `json:"started_at"`
	Commit     string        `json:"commit,omitempty"`
}

// Stats aggregates the stored invocations.
type Stats struct {
	Total    int64            `json:"total"`
	Failed   int64            `json:"failed"`
	ByTarget map[string]int64 `json:"by_target"`
}

// Store is a SQLite-backed invocation history.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		argv TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		commit_hash TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_started_at ON invocations(started_at);
	CREATE INDEX IF NOT EXISTS idx_target ON invocations(target);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a new invocation record to the store.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	argvJSON, err := json.Marshal(rec.Argv)
	if err != nil {
		return fmt.Errorf("marshal argv: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO invocations (id, target, argv, exit_code, duration_ms, started_at, commit_hash) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Target, string(argvJSON), rec.ExitCode, rec.Duration.Milliseconds(), rec.StartedAt.Unix(), rec.Commit,
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}

	return nil
}

// Recent returns up to n invocations, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, target, argv, exit_code, duration_ms, started_at, commit_hash FROM invocations ORDER BY started_at DESC, id LIMIT ?",
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			argvJSON   string
			durationMs int64
			startedAt  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Target, &argvJSON, &rec.ExitCode, &durationMs, &startedAt, &rec.Commit); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		if err := json.Unmarshal([]byte(argvJSON), &rec.Argv); err != nil {
			return nil, fmt.Errorf("unmarshal argv: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.StartedAt = time.Unix(startedAt, 0)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetStats aggregates invocation counts over the whole store.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{ByTarget: make(map[string]int64)}

	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN exit_code != 0 THEN 1 ELSE 0 END), 0) FROM invocations")
	if err := row.Scan(&stats.Total, &stats.Failed); err != nil {
		return stats, fmt.Errorf("scan totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT target, COUNT(*) FROM invocations GROUP BY target")
	if err != nil {
		return stats, fmt.Errorf("query by target: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var target string
		var count int64
		if err := rows.Scan(&target, &count); err != nil {
			return stats, fmt.Errorf("scan target count: %w", err)
		}
		stats.ByTarget[target] = count
	}

	return stats, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
