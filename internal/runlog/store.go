package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status classifies a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusNoContent Status = "no_content"
	StatusFailed    Status = "failed"
)

// Stage names the pipeline stage a run last reached.
const (
	StageAuth    = "auth"
	StageHarvest = "harvest"
	StageMerge   = "merge"
	StagePublish = "publish"
	StageNotify  = "notify"
	StageDone    = "done"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID         int64
	TargetDate string
	Status     Status
	Stage      string
	ClipCount  int
	ObjectKey  string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store records run history in SQLite. History is observability only; the
// pipeline never reads it to decide behavior.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run history database.
func Open(stateDir string) (*Store, error) {
	dbPath := filepath.Join(stateDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applyMigrations(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    target_date TEXT NOT NULL,
    status TEXT NOT NULL,
    stage TEXT NOT NULL,
    clip_count INTEGER NOT NULL DEFAULT 0,
    object_key TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,
    finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Begin records a new running entry for the given target date.
func (s *Store) Begin(ctx context.Context, targetDate time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (target_date, status, stage, started_at) VALUES (?, ?, ?, ?)`,
		targetDate.Format("2006-01-02"),
		StatusRunning,
		StageAuth,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// SetStage updates the stage a running entry has reached.
func (s *Store) SetStage(ctx context.Context, id int64, stage string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET stage = ? WHERE id = ?`, stage, id,
	); err != nil {
		return fmt.Errorf("update run stage: %w", err)
	}
	return nil
}

// Outcome captures the final state of a run.
type Outcome struct {
	Status    Status
	ClipCount int
	ObjectKey string
	Err       error
}

// Finish closes out a run entry.
func (s *Store) Finish(ctx context.Context, id int64, outcome Outcome) error {
	errText := ""
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, clip_count = ?, object_key = ?, error = ?, finished_at = ? WHERE id = ?`,
		outcome.Status,
		outcome.ClipCount,
		outcome.ObjectKey,
		errText,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target_date, status, stage, clip_count, object_key, error, started_at, finished_at
         FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.TargetDate, &run.Status, &run.Stage,
			&run.ClipCount, &run.ObjectKey, &run.Error, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(startedAt)
		if finishedAt.Valid {
			run.FinishedAt = parseTimestamp(finishedAt.String)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetByID fetches one run entry.
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, target_date, status, stage, clip_count, object_key, error, started_at, finished_at
         FROM runs WHERE id = ?`, id)

	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
	)
	err := row.Scan(&run.ID, &run.TargetDate, &run.Status, &run.Stage,
		&run.ClipCount, &run.ObjectKey, &run.Error, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &run, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
