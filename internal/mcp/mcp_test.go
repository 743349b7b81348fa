package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/agenda/internal/config"
	"github.com/hpungsan/agenda/internal/db"
	"github.com/hpungsan/agenda/internal/errors"
)

const mathSchedule = `{"data":{"SHorarioAluno":[` +
	`{"NOME":"Math","DATAINICIAL":"2025-03-10T00:00:00","HORAINICIAL":"08:00:00","HORAFINAL":"10:00:00","PREDIO":"Campus"},` +
	`{"NOME":"Physics","DATAINICIAL":"2025-03-11T00:00:00","HORAINICIAL":"10:00:00","HORAFINAL":"12:00:00","PREDIO":"Annex"}]}}`

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database, config.DefaultConfig()
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// scheduleArgs returns tool arguments carrying the given schedule document.
func scheduleArgs(t *testing.T, doc string) map[string]any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		t.Fatalf("invalid test JSON: %v", err)
	}
	return map[string]any{"schedule": v}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

// errorCode extracts the error code from an error result.
func errorCode(t *testing.T, result *mcp.CallToolResult) (string, map[string]any) {
	t.Helper()
	if !result.IsError {
		t.Fatalf("expected error result, got %s", resultText(t, result))
	}
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &payload); err != nil {
		t.Fatalf("error payload: %v", err)
	}
	return payload.Error.Code, payload.Error.Details
}

func TestToolRegistry_Definitions(t *testing.T) {
	names := AllToolNames()
	want := []string{"schedule_analyze", "schedule_export_csv", "schedule_export_ics", "schedule_report", "schedule_runs"}
	if !slices.Equal(names, want) {
		t.Fatalf("AllToolNames = %v, want %v", names, want)
	}

	for name, entry := range toolRegistry {
		if entry.def.Name != name {
			t.Errorf("tool %q is registered under %q", entry.def.Name, name)
		}
		if entry.def.Description == "" {
			t.Errorf("tool %q has no description", name)
		}
		if name != "schedule_runs" && !slices.Contains(entry.def.InputSchema.Required, "schedule") {
			t.Errorf("tool %q should require schedule", name)
		}
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"schedule_report", "schedule_delete", "nope"})
	if !slices.Equal(unknown, []string{"schedule_delete", "nope"}) {
		t.Errorf("unknown = %v", unknown)
	}
	if got := ValidateDisabledTools(nil); len(got) != 0 {
		t.Errorf("unknown = %v, want empty", got)
	}
}

func TestNewServer_DisabledTools(t *testing.T) {
	database, cfg := testSetup(t)
	cfg.DisabledTools = []string{"schedule_report"}

	s := NewServer(database, cfg, nil, "test")
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	listing := string(b)

	if strings.Contains(listing, `"schedule_report"`) {
		t.Error("disabled tool schedule_report was registered")
	}
	for _, name := range []string{"schedule_analyze", "schedule_export_csv", "schedule_export_ics", "schedule_runs"} {
		if !strings.Contains(listing, `"`+name+`"`) {
			t.Errorf("tool %s missing from tools/list", name)
		}
	}
}

func TestHandleAnalyze(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)

	result, err := h.HandleAnalyze(context.Background(), makeRequest(scheduleArgs(t, mathSchedule)))
	if err != nil {
		t.Fatalf("HandleAnalyze: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}

	var out struct {
		RunID        string `json:"run_id"`
		TotalRecords int    `json:"total_records"`
		ValidEntries int    `json:"valid_entries"`
		Statistics   struct {
			Statistics struct {
				TotalEntries   int `json:"total_entries"`
				UniqueSubjects int `json:"unique_subjects"`
			} `json:"statistics"`
			Subjects map[string]int `json:"subjects"`
		} `json:"statistics"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.RunID == "" {
		t.Error("run_id is empty")
	}
	if out.TotalRecords != 2 || out.ValidEntries != 2 {
		t.Errorf("total=%d valid=%d, want 2/2", out.TotalRecords, out.ValidEntries)
	}
	if out.Statistics.Statistics.UniqueSubjects != 2 {
		t.Errorf("unique_subjects = %d, want 2", out.Statistics.Statistics.UniqueSubjects)
	}
	if out.Statistics.Subjects["Math"] != 1 {
		t.Errorf("subjects = %v", out.Statistics.Subjects)
	}
}

func TestHandleAnalyze_ScheduleAsString(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)

	result, err := h.HandleAnalyze(context.Background(), makeRequest(map[string]any{"schedule": mathSchedule}))
	if err != nil {
		t.Fatalf("HandleAnalyze: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}
}

func TestHandleAnalyze_Errors(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)

	tests := []struct {
		name     string
		args     map[string]any
		wantCode errors.ErrorCode
		wantKey  string
	}{
		{
			name:     "missing schedule",
			args:     map[string]any{},
			wantCode: errors.ErrInvalidRequest,
		},
		{
			name:     "schedule string is not JSON",
			args:     map[string]any{"schedule": "{not json"},
			wantCode: errors.ErrInvalidRequest,
		},
		{
			name:     "subject has wrong type",
			args:     map[string]any{"schedule": map[string]any{}, "subject": 42},
			wantCode: errors.ErrInvalidRequest,
		},
		{
			name:     "missing data key",
			args:     scheduleArgs(t, `{"other":{}}`),
			wantCode: errors.ErrInvalidStructure,
			wantKey:  "data",
		},
		{
			name:     "missing entries key",
			args:     scheduleArgs(t, `{"data":{}}`),
			wantCode: errors.ErrInvalidStructure,
			wantKey:  "SHorarioAluno",
		},
		{
			name:     "no valid entries",
			args:     scheduleArgs(t, `{"data":{"SHorarioAluno":["junk",3]}}`),
			wantCode: errors.ErrNoValidEntries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleAnalyze(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("HandleAnalyze: %v", err)
			}
			code, details := errorCode(t, result)
			if code != string(tt.wantCode) {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
			if tt.wantKey != "" && details["missing_key"] != tt.wantKey {
				t.Errorf("missing_key = %v, want %s", details["missing_key"], tt.wantKey)
			}
		})
	}
}

func TestHandleExportCSV_WithFilter(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)

	args := scheduleArgs(t, mathSchedule)
	args["subject"] = "phys"
	result, err := h.HandleExportCSV(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("HandleExportCSV: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}

	var out ExportResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Filename != "GoogleAgenda.csv" {
		t.Errorf("filename = %q", out.Filename)
	}
	if out.Count != 1 {
		t.Errorf("count = %d, want 1", out.Count)
	}
	if !strings.HasPrefix(out.Content, `"Subject","Start Date"`) {
		t.Errorf("content does not start with the CSV header:\n%s", out.Content)
	}
	if strings.Contains(out.Content, "Math") || !strings.Contains(out.Content, "Physics") {
		t.Errorf("filter not applied:\n%s", out.Content)
	}
}

func TestHandleExportICS(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)

	result, err := h.HandleExportICS(context.Background(), makeRequest(scheduleArgs(t, mathSchedule)))
	if err != nil {
		t.Fatalf("HandleExportICS: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}

	var out ExportResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Filename != "ThunderbirdAgenda.ics" || out.Count != 2 {
		t.Errorf("filename=%q count=%d", out.Filename, out.Count)
	}
	if !strings.HasPrefix(out.Content, "BEGIN:VCALENDAR\n") {
		t.Errorf("content is not a calendar:\n%s", out.Content)
	}
	if strings.Count(out.Content, "BEGIN:VEVENT") != 2 {
		t.Errorf("want 2 events:\n%s", out.Content)
	}
}

func TestHandleReport(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)

	result, err := h.HandleReport(context.Background(), makeRequest(scheduleArgs(t, mathSchedule)))
	if err != nil {
		t.Fatalf("HandleReport: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}

	text := resultText(t, result)
	if !strings.HasPrefix(text, "# Schedule report") {
		t.Errorf("report heading missing:\n%s", text)
	}
	if !strings.Contains(text, "| Math | 1 |") {
		t.Errorf("subject row missing:\n%s", text)
	}
}

func TestHandleRuns(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()

	if _, err := h.HandleAnalyze(ctx, makeRequest(scheduleArgs(t, mathSchedule))); err != nil {
		t.Fatal(err)
	}
	if _, err := h.HandleExportCSV(ctx, makeRequest(scheduleArgs(t, mathSchedule))); err != nil {
		t.Fatal(err)
	}
	if _, err := h.HandleAnalyze(ctx, makeRequest(map[string]any{"schedule": map[string]any{}})); err != nil {
		t.Fatal(err)
	}

	result, err := h.HandleRuns(ctx, makeRequest(map[string]any{"operation": "analyze"}))
	if err != nil {
		t.Fatalf("HandleRuns: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}

	var out struct {
		Items []struct {
			Operation string  `json:"operation"`
			Source    string  `json:"source"`
			ErrorCode *string `json:"error_code"`
		} `json:"items"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if out.Pagination.Total != 2 || len(out.Items) != 2 {
		t.Fatalf("total=%d items=%d, want 2/2", out.Pagination.Total, len(out.Items))
	}
	// Newest first: the failed run
	if out.Items[0].ErrorCode == nil || *out.Items[0].ErrorCode != string(errors.ErrInvalidStructure) {
		t.Errorf("newest run error_code = %v, want INVALID_STRUCTURE", out.Items[0].ErrorCode)
	}
	for _, item := range out.Items {
		if item.Source != "mcp" || item.Operation != "analyze" {
			t.Errorf("item = %+v", item)
		}
	}
}

func TestHandleRuns_Errors(t *testing.T) {
	database, cfg := testSetup(t)

	tests := []struct {
		name     string
		db       *sql.DB
		args     map[string]any
		wantCode errors.ErrorCode
	}{
		{name: "unknown operation", db: database, args: map[string]any{"operation": "delete"}, wantCode: errors.ErrInvalidRequest},
		{name: "fractional limit", db: database, args: map[string]any{"limit": 1.5}, wantCode: errors.ErrInvalidRequest},
		{name: "history disabled", db: nil, args: map[string]any{}, wantCode: errors.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(tt.db, cfg, nil)
			result, err := h.HandleRuns(context.Background(), makeRequest(tt.args))
			if err != nil {
				t.Fatalf("HandleRuns: %v", err)
			}
			if code, _ := errorCode(t, result); code != string(tt.wantCode) {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestHandlers_NoHistory(t *testing.T) {
	h := NewHandlers(nil, config.DefaultConfig(), nil)

	result, err := h.HandleAnalyze(context.Background(), makeRequest(scheduleArgs(t, mathSchedule)))
	if err != nil {
		t.Fatalf("HandleAnalyze: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}
	if strings.Contains(resultText(t, result), "run_id") {
		t.Error("run_id should be omitted without a history database")
	}
}

func TestErrorResult_HidesInternalDetails(t *testing.T) {
	result := errorResult(errors.NewInternal(sql.ErrConnDone))
	code, details := errorCode(t, result)
	if code != string(errors.ErrInternal) {
		t.Errorf("code = %s", code)
	}
	if details != nil {
		t.Errorf("internal details leaked: %v", details)
	}
	if strings.Contains(resultText(t, result), "connection") {
		t.Error("cause leaked into the message")
	}
}
