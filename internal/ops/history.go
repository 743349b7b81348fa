package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/agenda/internal/db"
	"github.com/hpungsan/agenda/internal/errors"
)

// ExecuteInput contains parameters for the Execute operation.
type ExecuteInput struct {
	ProcessInput
	Source Source // which boundary handled the request
}

// ExecuteOutput is a ProcessOutput plus the id of its history row.
type ExecuteOutput struct {
	*ProcessOutput
	RunID string `json:"run_id,omitempty"`
}

// Execute runs Process and records the outcome in the run history.
// A nil database disables history. Failing to record is logged, never returned.
func Execute(ctx context.Context, logger *slog.Logger, database *sql.DB, input ExecuteInput) (*ExecuteOutput, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	start := time.Now()
	out, procErr := Process(ctx, logger, input.ProcessInput)
	elapsed := time.Since(start)

	result := &ExecuteOutput{ProcessOutput: out}
	if database == nil {
		return result, procErr
	}

	run := &db.Run{
		Operation:  joinOperations(input.Operations),
		Source:     string(input.Source),
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  start.Unix(),
	}
	if out != nil {
		run.TotalRecords = out.TotalRecords
		run.DroppedRecords = out.DroppedRecords
		run.ValidEntries = out.ValidEntries
		run.CSVRows = out.CSVRows
		run.ICSEvents = out.ICSEvents
	}
	if procErr != nil {
		aErr := errors.As(procErr)
		code := string(aErr.Code)
		run.ErrorCode = &code
		if total, ok := aErr.Details["total_records"].(int); ok {
			run.TotalRecords = total
		}
		if dropped, ok := aErr.Details["dropped_records"].(int); ok {
			run.DroppedRecords = dropped
		}
	}

	id := generateULID()
	run.ID = id

	// Record even when the caller has gone away.
	if err := db.InsertRun(context.WithoutCancel(ctx), database, run); err != nil {
		logger.Warn("run history: insert failed", "error", err)
		return result, procErr
	}
	result.RunID = id

	return result, procErr
}

// ListRunsInput contains parameters for the ListRuns operation.
type ListRunsInput struct {
	Operation string // optional filter
	Limit     int    // default: 20, max: 100
	Offset    int    // default: 0
}

// ListRunsOutput contains the result of the ListRuns operation.
type ListRunsOutput struct {
	Items      []db.Run   `json:"items"`
	Pagination Pagination `json:"pagination"`
	Sort       string     `json:"sort"`
}

// ListRuns retrieves recorded runs, newest first, with pagination.
func ListRuns(ctx context.Context, database *sql.DB, input ListRunsInput) (*ListRunsOutput, error) {
	if database == nil {
		return nil, errors.NewInvalidRequest("run history is disabled")
	}

	operation := ""
	if input.Operation != "" {
		op, err := ParseOperation(input.Operation)
		if err != nil {
			return nil, err
		}
		operation = string(op)
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	// Ensure offset is non-negative
	offset := max(input.Offset, 0)

	runs, err := db.ListRuns(ctx, database, operation, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.CountRuns(ctx, database, operation)
	if err != nil {
		return nil, err
	}

	return &ListRunsOutput{
		Items: runs,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(runs) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}

// generateULID generates a new ULID. IDs from one process sort in creation order.
func generateULID() string {
	return ulid.Make().String()
}
