// Package history keeps a sqlite log of enrichment runs in the vault state
// directory.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Outcome string

const (
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
	Failed    Outcome = "failed"
)

// Run is one enrichment of one document.
type Run struct {
	ID        string
	Path      string
	Provider  string
	Model     string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   Outcome
	// Applied lists the frontmatter keys the run changed.
	Applied []string
	Error   string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	provider    TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	outcome     TEXT NOT NULL,
	applied     TEXT NOT NULL DEFAULT '[]',
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_path_started ON runs(path, started_at);
`

const busyTimeoutMS = 5000

// Store is an open history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS),
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("history %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record inserts run, assigning an ID when it has none, and returns the ID.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	applied := run.Applied
	if applied == nil {
		applied = []string{}
	}
	appliedJSON, err := json.Marshal(applied)
	if err != nil {
		return "", fmt.Errorf("encode applied keys: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, path, provider, model, started_at, duration_ms, outcome, applied, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Path, run.Provider, run.Model,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(), string(run.Outcome), string(appliedJSON), run.Error,
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return run.ID, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	return s.query(ctx,
		`SELECT id, path, provider, model, started_at, duration_ms, outcome, applied, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limitOrAll(limit))
}

// ForPath returns up to limit runs for one document, newest first.
func (s *Store) ForPath(ctx context.Context, path string, limit int) ([]Run, error) {
	return s.query(ctx,
		`SELECT id, path, provider, model, started_at, duration_ms, outcome, applied, error
		 FROM runs WHERE path = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`, path, limitOrAll(limit))
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			started    string
			durationMS int64
			outcome    string
			applied    string
		)
		if err := rows.Scan(&r.ID, &r.Path, &r.Provider, &r.Model, &started, &durationMS, &outcome, &applied, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad started_at %q: %w", r.ID, started, err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Outcome = Outcome(outcome)
		if err := json.Unmarshal([]byte(applied), &r.Applied); err != nil {
			return nil, fmt.Errorf("run %s: bad applied keys: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// limitOrAll maps a non-positive limit to sqlite's "no limit".
func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
