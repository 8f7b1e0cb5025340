// Package history records every analysis run in a SQLite database.
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

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Run kinds.
const (
	KindInit   = "init"
	KindUpdate = "update"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded analysis.
type Run struct {
	ID           string    `json:"id"`
	At           time.Time `json:"at"`
	Kind         string    `json:"kind"`
	Runtime      int       `json:"runtimeDependencies"`
	Dev          int       `json:"devDependencies"`
	HotFiles     int       `json:"hotFiles"`
	TotalCommits int       `json:"totalCommits"`
	Diff         []string  `json:"diff"`
}

// NewRun summarizes an assembled context.
func NewRun(kind string, c *repoctx.Context, diff []string) Run {
	if diff == nil {
		diff = []string{}
	}
	return Run{
		ID:           uuid.NewString(),
		At:           time.Now().UTC(),
		Kind:         kind,
		Runtime:      len(c.Dependencies.Runtime),
		Dev:          len(c.Dependencies.Dev),
		HotFiles:     len(c.Churn.HotFiles),
		TotalCommits: c.Churn.TotalCommitCount,
		Diff:         diff,
	}
}

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open creates (or opens) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		kind TEXT NOT NULL,
		runtime_deps INTEGER,
		dev_deps INTEGER,
		hot_files INTEGER,
		total_commits INTEGER,
		diff TEXT
	);`)
	return err
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	diff, err := json.Marshal(run.Diff)
	if err != nil {
		return fmt.Errorf("marshaling diff: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs
		(id, timestamp, kind, runtime_deps, dev_deps, hot_files, total_commits, diff)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.At.UTC().Format(timeLayout),
		run.Kind,
		run.Runtime,
		run.Dev,
		run.HotFiles,
		run.TotalCommits,
		string(diff),
	)
	if err != nil {
		return fmt.Errorf("recording run in %s: %w", s.path, err)
	}
	return nil
}

// Runs returns recorded runs, newest first. A non-positive limit returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT id, timestamp, kind, runtime_deps, dev_deps, hot_files, total_commits, diff FROM runs ORDER BY timestamp DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs in %s: %w", s.path, err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var ts, diff string
		if err := rows.Scan(&run.ID, &ts, &run.Kind, &run.Runtime, &run.Dev, &run.HotFiles, &run.TotalCommits, &diff); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(timeLayout, ts); err == nil {
			run.At = t
		}
		if err := json.Unmarshal([]byte(diff), &run.Diff); err != nil || run.Diff == nil {
			run.Diff = []string{}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
