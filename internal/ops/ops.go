package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/agenda/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Operation names one thing Process can produce from a schedule.
type Operation string

const (
	OpAnalyze   Operation = "analyze"
	OpExportCSV Operation = "export-csv"
	OpExportICS Operation = "export-ics"
)

// Operations lists every operation in dispatch order.
var Operations = []Operation{OpAnalyze, OpExportCSV, OpExportICS}

// ParseOperation validates an operation name.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Operations {
		if op == known {
			return op, nil
		}
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown operation %q: must be one of analyze, export-csv, export-ics", s))
}

// joinOperations renders a set of operations for logs and run history.
func joinOperations(ops []Operation) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = string(op)
	}
	return strings.Join(parts, ",")
}

// Source identifies which boundary handled a run.
type Source string

const (
	SourceCLI  Source = "cli"
	SourceHTTP Source = "http"
	SourceMCP  Source = "mcp"
)
