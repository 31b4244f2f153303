package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"docsync/internal/report"
)

// RunStore persists run summaries to a local SQLite database so past
// synchronizations can be inspected with `docsync history`.
type RunStore struct {
	db *sql.DB
}

// RunRecord is one row of run history.
type RunRecord struct {
	RunID      string
	Mode       string
	FinishedAt time.Time
	New        int
	Updated    int
	Unchanged  int
	Removed    int
	Errors     int
	Warnings   int
}

// NewRunStore creates or opens the history database.
func NewRunStore(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &RunStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *RunStore) Close() error {
	return s.db.Close()
}

func (s *RunStore) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		mode TEXT,
		finished_at TEXT,
		new_count INTEGER,
		updated_count INTEGER,
		unchanged_count INTEGER,
		removed_count INTEGER,
		error_count INTEGER,
		warning_count INTEGER,
		report JSON
	);`)
	return err
}

// SaveRun stores a finalized run report, full JSON included.
func (s *RunStore) SaveRun(ctx context.Context, r *report.RunReport) error {
	r.Finalize()
	blob, err := json.Marshal(r)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, mode, finished_at, new_count, updated_count, unchanged_count, removed_count, error_count, warning_count, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			finished_at=excluded.finished_at,
			report=excluded.report`,
		r.RunID, r.Mode, r.GeneratedAt,
		r.Summary.New, r.Summary.Updated, r.Summary.Unchanged, r.Summary.Removed,
		r.Summary.Errors, r.Summary.Warnings, string(blob))
	return err
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, mode, finished_at, new_count, updated_count, unchanged_count, removed_count, error_count, warning_count
		FROM runs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var finished string
		if err := rows.Scan(&rec.RunID, &rec.Mode, &finished,
			&rec.New, &rec.Updated, &rec.Unchanged, &rec.Removed,
			&rec.Errors, &rec.Warnings); err != nil {
			return nil, err
		}
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LoadReport retrieves the full stored report for one run.
func (s *RunStore) LoadReport(ctx context.Context, runID string) (*report.RunReport, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE run_id = ?`, runID).Scan(&blob)
	if err != nil {
		return nil, err
	}
	var r report.RunReport
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
