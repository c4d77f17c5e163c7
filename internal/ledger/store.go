package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id          TEXT PRIMARY KEY,
    phase           TEXT NOT NULL,
    started_at      TEXT NOT NULL,
    finished_at     TEXT,
    outcome         TEXT NOT NULL DEFAULT 'running',
    dates_total     INTEGER NOT NULL DEFAULT 0,
    dates_done      INTEGER NOT NULL DEFAULT 0,
    files_succeeded INTEGER NOT NULL DEFAULT 0,
    files_failed    INTEGER NOT NULL DEFAULT 0,
    error           TEXT
);

CREATE TABLE IF NOT EXISTS batches (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    day         TEXT NOT NULL,
    batch_size  INTEGER NOT NULL,
    succeeded   INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    released_at TEXT NOT NULL,
    resolved_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_batches_run ON batches(run_id);
`

// timestampLayout pads fractional seconds so the stored strings sort
// lexicographically in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a new run row in the running state.
func (s *Store) BeginRun(ctx context.Context, runID, phase string, datesTotal int) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, phase, started_at, outcome, dates_total)
         VALUES (?, ?, ?, ?, ?)`,
		runID,
		phase,
		time.Now().UTC().Format(timestampLayout),
		OutcomeRunning,
		datesTotal,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ReleaseBatch records that one day's batch was restored into the watched
// folders and returns the batch row ID.
func (s *Store) ReleaseBatch(ctx context.Context, runID, day string, size int) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO batches (run_id, day, batch_size, released_at) VALUES (?, ?, ?, ?)`,
		runID,
		day,
		size,
		time.Now().UTC().Format(timestampLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ResolveBatch records the final per-file counts once a batch closes.
func (s *Store) ResolveBatch(ctx context.Context, batchID int64, succeeded, failed int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE batches SET succeeded = ?, failed = ?, resolved_at = ? WHERE id = ?`,
		succeeded,
		failed,
		time.Now().UTC().Format(timestampLayout),
		batchID,
	)
	if err != nil {
		return fmt.Errorf("resolve batch: %w", err)
	}
	return nil
}

// FinishRun records the run's terminal outcome and totals.
func (s *Store) FinishRun(ctx context.Context, runID string, outcome Outcome, datesDone, filesSucceeded, filesFailed int, runErr error) error {
	var message sql.NullString
	if runErr != nil {
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET finished_at = ?, outcome = ?, dates_done = ?, files_succeeded = ?, files_failed = ?, error = ?
         WHERE run_id = ?`,
		time.Now().UTC().Format(timestampLayout),
		outcome,
		datesDone,
		filesSucceeded,
		filesFailed,
		message,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, phase, started_at, finished_at, outcome,
                dates_total, dates_done, files_succeeded, files_failed, error
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// BatchesForRun returns a run's released batches in release order.
func (s *Store) BatchesForRun(ctx context.Context, runID string) ([]Batch, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, day, batch_size, succeeded, failed, released_at, resolved_at
         FROM batches WHERE run_id = ? ORDER BY released_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var (
			batch      Batch
			releasedAt string
			resolvedAt sql.NullString
		)
		if err := rows.Scan(&batch.ID, &batch.RunID, &batch.Day, &batch.BatchSize,
			&batch.Succeeded, &batch.Failed, &releasedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if batch.ReleasedAt, err = parseTimestamp(releasedAt); err != nil {
			return nil, err
		}
		if resolvedAt.Valid {
			ts, err := parseTimestamp(resolvedAt.String)
			if err != nil {
				return nil, err
			}
			batch.ResolvedAt = &ts
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		outcome    string
		message    sql.NullString
	)
	err := rows.Scan(&run.RunID, &run.Phase, &startedAt, &finishedAt, &outcome,
		&run.DatesTotal, &run.DatesDone, &run.FilesSucceeded, &run.FilesFailed, &message)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Outcome = Outcome(outcome)
	if run.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return Run{}, err
	}
	if finishedAt.Valid {
		ts, err := parseTimestamp(finishedAt.String)
		if err != nil {
			return Run{}, err
		}
		run.FinishedAt = &ts
	}
	if message.Valid {
		run.Error = message.String
	}
	return run, nil
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errors.Join(fmt.Errorf("parse timestamp %q", value), err)
	}
	return ts, nil
}
