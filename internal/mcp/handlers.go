package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/agenda/internal/config"
	"github.com/hpungsan/agenda/internal/errors"
	"github.com/hpungsan/agenda/internal/ops"
	"github.com/hpungsan/agenda/internal/schedule"
)

// File names suggested for exported content.
const (
	csvFilename = "GoogleAgenda.csv"
	icsFilename = "ThunderbirdAgenda.ics"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{db: db, cfg: cfg, logger: logger}
}

// ScheduleRequest represents the arguments shared by the schedule tools.
type ScheduleRequest struct {
	Schedule any    `json:"schedule"`
	Subject  string `json:"subject,omitempty"`
	Location string `json:"location,omitempty"`
}

// RunsRequest represents the arguments for schedule_runs.
type RunsRequest struct {
	Operation string `json:"operation,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// AnalyzeResult is the payload of schedule_analyze.
type AnalyzeResult struct {
	RunID          string          `json:"run_id,omitempty"`
	TotalRecords   int             `json:"total_records"`
	DroppedRecords int             `json:"dropped_records"`
	ValidEntries   int             `json:"valid_entries"`
	Statistics     *schedule.Stats `json:"statistics"`
}

// ExportResult is the payload of the export tools.
type ExportResult struct {
	RunID    string `json:"run_id,omitempty"`
	Filename string `json:"filename"`
	Count    int    `json:"count"` // CSV rows or ICS events
	Content  string `json:"content"`
}

// HandleAnalyze handles the schedule_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.execute(ctx, req, ops.OpAnalyze)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(AnalyzeResult{
		RunID:          out.RunID,
		TotalRecords:   out.TotalRecords,
		DroppedRecords: out.DroppedRecords,
		ValidEntries:   out.ValidEntries,
		Statistics:     out.Statistics,
	})
}

// HandleExportCSV handles the schedule_export_csv tool call.
func (h *Handlers) HandleExportCSV(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.execute(ctx, req, ops.OpExportCSV)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ExportResult{
		RunID:    out.RunID,
		Filename: csvFilename,
		Count:    out.CSVRows,
		Content:  out.CSV,
	})
}

// HandleExportICS handles the schedule_export_ics tool call.
func (h *Handlers) HandleExportICS(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.execute(ctx, req, ops.OpExportICS)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ExportResult{
		RunID:    out.RunID,
		Filename: icsFilename,
		Count:    out.ICSEvents,
		Content:  out.ICS,
	})
}

// HandleReport handles the schedule_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.execute(ctx, req, ops.OpAnalyze)
	if err != nil {
		return errorResult(err), nil
	}

	return mcp.NewToolResultText(ops.Report(out.Statistics)), nil
}

// HandleRuns handles the schedule_runs tool call.
func (h *Handlers) HandleRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RunsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListRuns(ctx, h.db, ops.ListRunsInput{
		Operation: input.Operation,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// execute decodes the schedule arguments and runs one operation, recording
// it in the run history.
func (h *Handlers) execute(ctx context.Context, req mcp.CallToolRequest, op ops.Operation) (*ops.ExecuteOutput, error) {
	input, err := decode[ScheduleRequest](req)
	if err != nil {
		return nil, err
	}

	raw, err := scheduleDocument(input.Schedule)
	if err != nil {
		return nil, err
	}

	return ops.Execute(ctx, h.logger.With("tool", req.Params.Name), h.db, ops.ExecuteInput{
		ProcessInput: ops.ProcessInput{
			Raw:        raw,
			Operations: []ops.Operation{op},
			Filter: schedule.Filter{
				Subject:  input.Subject,
				Location: input.Location,
			},
		},
		Source: ops.SourceMCP,
	})
}

// scheduleDocument accepts the schedule as an object, or as a string
// holding the JSON text of one.
func scheduleDocument(v any) (any, error) {
	switch doc := v.(type) {
	case nil:
		return nil, errors.NewInvalidRequest("schedule is required")
	case string:
		var raw any
		if err := json.Unmarshal([]byte(doc), &raw); err != nil {
			return nil, errors.NewInvalidRequest("schedule is not valid JSON")
		}
		return raw, nil
	default:
		return doc, nil
	}
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	aErr := errors.As(err)

	errorObj := map[string]any{
		"code":    aErr.Code,
		"message": aErr.Message,
		"status":  aErr.Status,
	}
	if aErr.Code != errors.ErrInternal && aErr.Details != nil {
		errorObj["details"] = aErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
