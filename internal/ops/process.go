package ops

import (
	"context"
	"log/slog"
	"slices"

	"github.com/hpungsan/agenda/internal/errors"
	"github.com/hpungsan/agenda/internal/schedule"
)

// KeyData is the top-level key wrapping the entries list.
const KeyData = "data"

// ProcessInput contains parameters for the Process operation.
type ProcessInput struct {
	Raw        any                  // decoded JSON document, required
	Operations []Operation          // at least one
	Filter     schedule.Filter      // optional
	Encoder    *schedule.ICSEncoder // optional, default: schedule.NewICSEncoder()
}

// ProcessOutput contains the result of the Process operation.
// Only the parts requested by ProcessInput.Operations are populated.
type ProcessOutput struct {
	TotalRecords   int `json:"total_records"`
	DroppedRecords int `json:"dropped_records"`
	ValidEntries   int `json:"valid_entries"`

	// Entries is the number of entries left after filtering
	Entries int `json:"entries"`

	Statistics *schedule.Stats `json:"statistics,omitempty"`

	CSV     string `json:"csv,omitempty"`
	CSVRows int    `json:"csv_rows"`

	ICS       string `json:"ics,omitempty"`
	ICSEvents int    `json:"ics_events"`
}

// ExtractRecords validates the top-level shape {"data": {"SHorarioAluno": [...]}}
// and returns the raw records.
func ExtractRecords(raw any) ([]any, error) {
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.NewInvalidStructure(KeyData, "invalid JSON structure: expected an object with a 'data' key")
	}
	data, ok := root[KeyData].(map[string]any)
	if !ok {
		return nil, errors.NewInvalidStructure(KeyData, "invalid JSON structure: missing 'data' key")
	}
	value, present := data[schedule.KeyEntries]
	if !present {
		return nil, errors.NewInvalidStructure(schedule.KeyEntries, "invalid JSON structure: missing 'SHorarioAluno' key")
	}
	records, ok := value.([]any)
	if !ok {
		return nil, errors.NewInvalidStructure(schedule.KeyEntries, "invalid JSON structure: 'SHorarioAluno' must be a list")
	}
	return records, nil
}

// Process validates a raw schedule, normalizes it, applies the filter and
// produces every requested output.
//
// Structural problems fail with INVALID_STRUCTURE before anything else runs.
// A schedule whose normalized set is empty fails with NO_VALID_ENTRIES.
// Entries that an exporter cannot represent are skipped, never reported.
func Process(ctx context.Context, logger *slog.Logger, input ProcessInput) (*ProcessOutput, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(input.Operations) == 0 {
		return nil, errors.NewInvalidRequest("at least one operation is required")
	}
	for _, op := range input.Operations {
		if _, err := ParseOperation(string(op)); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("process")
	}

	records, err := ExtractRecords(input.Raw)
	if err != nil {
		return nil, err
	}

	normalized := schedule.Normalize(records)
	if normalized.Dropped > 0 {
		logger.Warn("dropped malformed records", "dropped", normalized.Dropped, "total", len(records))
	}
	if len(normalized.Entries) == 0 {
		return nil, errors.NewNoValidEntries(len(records), normalized.Dropped)
	}

	entries := input.Filter.Apply(normalized.Entries)

	out := &ProcessOutput{
		TotalRecords:   len(records),
		DroppedRecords: normalized.Dropped,
		Entries:        len(entries),
	}
	for i := range entries {
		if entries[i].Valid() {
			out.ValidEntries++
		}
	}

	if slices.Contains(input.Operations, OpAnalyze) {
		out.Statistics = schedule.Aggregate(entries)
	}

	if slices.Contains(input.Operations, OpExportCSV) {
		out.CSV = schedule.ToCSV(entries)
		out.CSVRows = countCSVRows(entries)
	}

	if slices.Contains(input.Operations, OpExportICS) {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("process")
		}
		enc := input.Encoder
		if enc == nil {
			enc = schedule.NewICSEncoder()
		}
		out.ICS = enc.Encode(entries)
		out.ICSEvents = countICSEvents(entries)
	}

	logger.Info("processed schedule",
		"operations", joinOperations(input.Operations),
		"total", out.TotalRecords,
		"entries", out.Entries,
		"valid", out.ValidEntries,
		"csv_rows", out.CSVRows,
		"ics_events", out.ICSEvents,
	)

	return out, nil
}

// Analyze returns schedule statistics.
func Analyze(ctx context.Context, logger *slog.Logger, raw any, filter schedule.Filter) (*schedule.Stats, error) {
	out, err := Process(ctx, logger, ProcessInput{Raw: raw, Operations: []Operation{OpAnalyze}, Filter: filter})
	if err != nil {
		return nil, err
	}
	return out.Statistics, nil
}

// ExportCSV returns the Google Calendar CSV for a schedule.
func ExportCSV(ctx context.Context, logger *slog.Logger, raw any, filter schedule.Filter) (string, error) {
	out, err := Process(ctx, logger, ProcessInput{Raw: raw, Operations: []Operation{OpExportCSV}, Filter: filter})
	if err != nil {
		return "", err
	}
	return out.CSV, nil
}

// ExportICS returns the VCALENDAR document for a schedule.
func ExportICS(ctx context.Context, logger *slog.Logger, raw any, filter schedule.Filter) (string, error) {
	out, err := Process(ctx, logger, ProcessInput{Raw: raw, Operations: []Operation{OpExportICS}, Filter: filter})
	if err != nil {
		return "", err
	}
	return out.ICS, nil
}

func countCSVRows(entries []schedule.Entry) int {
	n := 0
	for i := range entries {
		if _, ok := schedule.CSVRow(&entries[i]); ok {
			n++
		}
	}
	return n
}

func countICSEvents(entries []schedule.Entry) int {
	n := 0
	for i := range entries {
		if schedule.ICSExportable(&entries[i]) {
			n++
		}
	}
	return n
}
