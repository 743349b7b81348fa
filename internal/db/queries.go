package db

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/hpungsan/agenda/internal/errors"
)

// Run is one recorded analyze/export invocation.
type Run struct {
	ID             string  `json:"id"`
	Operation      string  `json:"operation"`
	Source         string  `json:"source"`
	TotalRecords   int     `json:"total_records"`
	DroppedRecords int     `json:"dropped_records"`
	ValidEntries   int     `json:"valid_entries"`
	CSVRows        int     `json:"csv_rows"`
	ICSEvents      int     `json:"ics_events"`
	ErrorCode      *string `json:"error_code,omitempty"`
	DurationMS     int64   `json:"duration_ms"`
	CreatedAt      int64   `json:"created_at"`
}

const runColumns = `id, operation, source, total_records, dropped_records, valid_entries,
	csv_rows, ics_events, error_code, duration_ms, created_at`

// InsertRun stores a run record.
func InsertRun(ctx context.Context, db *sql.DB, r *Run) error {
	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, query,
		r.ID, r.Operation, r.Source, r.TotalRecords, r.DroppedRecords, r.ValidEntries,
		r.CSVRows, r.ICSEvents, toNullString(r.ErrorCode), r.DurationMS, r.CreatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetRun retrieves a run by its ULID.
func GetRun(ctx context.Context, db *sql.DB, id string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	r, err := scanRun(db.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// ListRuns returns runs newest first. An empty operation matches all.
func ListRuns(ctx context.Context, db *sql.DB, operation string, limit, offset int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := []any{}
	if operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, operation)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return runs, nil
}

// CountRuns returns the number of runs matching operation (all when empty).
func CountRuns(ctx context.Context, db *sql.DB, operation string) (int, error) {
	query := `SELECT COUNT(*) FROM runs`
	args := []any{}
	if operation != "" {
		query += ` WHERE operation = ?`
		args = append(args, operation)
	}

	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var errorCode sql.NullString
	err := s.Scan(
		&r.ID, &r.Operation, &r.Source, &r.TotalRecords, &r.DroppedRecords, &r.ValidEntries,
		&r.CSVRows, &r.ICSEvents, &errorCode, &r.DurationMS, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ErrorCode = fromNullString(errorCode)
	return &r, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
