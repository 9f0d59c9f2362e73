// Package history persists validation runs and per-attempt status records in
// SQLite, so endpoint health can be inspected across runs and not just from
// the latest artifact on disk.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iptvscan/iptvscan/internal/endpoints"
)

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies the schema.
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

// Run is one validation pass over the configured endpoints.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Total      int
	Alive      int
	Dead       int
}

// BeginRun records the start of a validation pass.
func (s *Store) BeginRun(ctx context.Context, id string, total int) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, started_at, total) VALUES (?, ?, ?)`,
		id,
		time.Now().UTC().Format(time.RFC3339Nano),
		total,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun closes out a run with its alive and dead URL counts.
func (s *Store) FinishRun(ctx context.Context, id string, alive, dead int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET finished_at = ?, alive = ?, dead = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		alive,
		dead,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// AppendStatus stores one attempt outcome for a URL within a run.
func (s *Store) AppendStatus(ctx context.Context, runID, url string, rec endpoints.StatusRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO status_records (
            run_id, url, checked_at, ok, status_code,
            response_time_ms, error_kind, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		url,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		boolToInt(rec.OK),
		nullableInt(rec.StatusCode),
		rec.ResponseTimeMs,
		nullableString(rec.ErrorKind),
		nullableString(rec.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("insert status record: %w", err)
	}
	return nil
}

// HistoryForURL returns attempt records for a URL across all runs, oldest
// first.
func (s *Store) HistoryForURL(ctx context.Context, url string) ([]endpoints.StatusRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT checked_at, ok, status_code, response_time_ms, error_kind, error_message
         FROM status_records WHERE url = ? ORDER BY id`,
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []endpoints.StatusRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Runs returns completed and in-flight runs, newest first, up to limit.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, started_at, finished_at, total, alive, dead
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run         Run
			startedRaw  string
			finishedRaw sql.NullString
			alive       sql.NullInt64
			dead        sql.NullInt64
		)
		if err := rows.Scan(&run.ID, &startedRaw, &finishedRaw, &run.Total, &alive, &dead); err != nil {
			return nil, err
		}
		if started, err := parseTimeString(startedRaw); err == nil {
			run.StartedAt = started
		}
		if finishedRaw.Valid {
			if finished, err := parseTimeString(finishedRaw.String); err == nil {
				run.FinishedAt = &finished
			}
		}
		run.Alive = int(alive.Int64)
		run.Dead = int(dead.Int64)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (endpoints.StatusRecord, error) {
	var (
		checkedRaw   string
		ok           int
		statusCode   sql.NullInt64
		responseMs   int64
		errorKind    sql.NullString
		errorMessage sql.NullString
	)
	if err := scanner.Scan(&checkedRaw, &ok, &statusCode, &responseMs, &errorKind, &errorMessage); err != nil {
		return endpoints.StatusRecord{}, err
	}

	rec := endpoints.StatusRecord{
		OK:             ok != 0,
		StatusCode:     int(statusCode.Int64),
		ResponseTimeMs: responseMs,
		ErrorKind:      errorKind.String,
		ErrorMessage:   errorMessage.String,
	}
	if checked, err := parseTimeString(checkedRaw); err == nil {
		rec.Timestamp = checked
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
