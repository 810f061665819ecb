// Package store persists the run history of pipeline operations in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spending-forecast/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// ErrRunNotFound is returned when a run ID is unknown
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	operation TEXT NOT NULL,
	status TEXT NOT NULL,
	detail TEXT,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS run_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	stage TEXT,
	entity TEXT,
	metric TEXT,
	message TEXT,
	created_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_run_errors_run ON run_errors(run_id);
CREATE TABLE IF NOT EXISTS pipeline_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	stage TEXT,
	level TEXT,
	message TEXT,
	fields TEXT,
	created_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_pipeline_logs_run ON pipeline_logs(run_id);
`

// Store wraps the SQLite connection
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies the schema
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun stores a new run in the running state
func (s *Store) CreateRun(ctx context.Context, runID, operation string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation, status, detail, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, operation, model.RunRunning, "", now, now)
	return err
}

// FinishRun sets the final status and a JSON detail of the outcome
func (s *Store) FinishRun(ctx context.Context, runID, status string, detail interface{}) error {
	var detailJSON []byte
	if detail != nil {
		var err error
		if detailJSON, err = json.Marshal(detail); err != nil {
			return err
		}
	}

	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ?, detail = ?, updated_at = ? WHERE id = ?`,
		status, string(detailJSON), time.Now().UTC(), runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// SaveRunErrors records per-entity failures for a run
func (s *Store) SaveRunErrors(ctx context.Context, runID string, errs []model.RunError) error {
	if len(errs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_errors (run_id, stage, entity, metric, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range errs {
		if _, err := stmt.ExecContext(ctx, runID, e.Stage, e.Entity, e.Metric, e.Message, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SavePipelineLog records a stage log line for a run
func (s *Store) SavePipelineLog(ctx context.Context, runID, stage, level, message string, fields map[string]interface{}) error {
	var fieldsJSON []byte
	if len(fields) > 0 {
		var err error
		if fieldsJSON, err = json.Marshal(fields); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_logs (run_id, stage, level, message, fields, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, level, message, string(fieldsJSON), time.Now().UTC())
	return err
}

// ListRuns returns the most recent runs first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operation, status, detail, created_at, updated_at FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]model.Run, 0)
	for rows.Next() {
		var r model.Run
		var detail sql.NullString
		if err := rows.Scan(&r.ID, &r.Operation, &r.Status, &detail, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Detail = detail.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches one run
func (s *Store) GetRun(ctx context.Context, runID string) (model.Run, error) {
	var r model.Run
	var detail sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, operation, status, detail, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &r.Operation, &r.Status, &detail, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, ErrRunNotFound
	}
	if err != nil {
		return model.Run{}, err
	}
	r.Detail = detail.String
	return r, nil
}

// GetRunErrors returns the per-entity failures of a run in insertion order
func (s *Store) GetRunErrors(ctx context.Context, runID string) ([]model.RunError, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, stage, entity, metric, message, created_at FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errs := make([]model.RunError, 0)
	for rows.Next() {
		var e model.RunError
		var entity, metric sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &entity, &metric, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Entity, e.Metric = entity.String, metric.String
		errs = append(errs, e)
	}
	return errs, rows.Err()
}

// GetPipelineLogs returns up to limit log lines of a run in insertion order
func (s *Store) GetPipelineLogs(ctx context.Context, runID string, limit int) ([]model.PipelineLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, stage, level, message, fields, created_at FROM pipeline_logs WHERE run_id = ? ORDER BY id LIMIT ?`,
		runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]model.PipelineLog, 0)
	for rows.Next() {
		var l model.PipelineLog
		var fields sql.NullString
		if err := rows.Scan(&l.ID, &l.RunID, &l.Stage, &l.Level, &l.Message, &fields, &l.CreatedAt); err != nil {
			return nil, err
		}
		if fields.String != "" {
			if err := json.Unmarshal([]byte(fields.String), &l.Fields); err != nil {
				return nil, fmt.Errorf("log %d has malformed fields: %w", l.ID, err)
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteRun removes a run together with its errors and logs
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}
