package web

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/agenda/internal/config"
	"github.com/hpungsan/agenda/internal/ops"
)

// Download names of the export endpoints.
const (
	csvFilename = "GoogleAgenda.csv"
	icsFilename = "ThunderbirdAgenda.ics"
)

// Handlers contains HTTP route handlers for the API.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	logger   *slog.Logger
	renderer *Renderer
	limits   *limiters
}

func newHandlers(db *sql.DB, cfg *config.Config, logger *slog.Logger, version string) (*Handlers, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create template sub-FS: %w", err)
	}
	renderer, err := NewRenderer(templateSub, version, logger)
	if err != nil {
		return nil, err
	}

	limits, err := newLimiters(cfg)
	if err != nil {
		return nil, err
	}

	return &Handlers{
		db:       db,
		cfg:      cfg,
		logger:   logger,
		renderer: renderer,
		limits:   limits,
	}, nil
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

// HandleAnalyze handles POST /analyze: statistics wrapped in an envelope.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	out, err := h.process(w, r, ops.OpAnalyze)
	if err != nil {
		writeError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, ops.Succeed(out.Statistics))
}

// HandleExportCSV handles POST /export/csv: Google Calendar CSV download.
func (h *Handlers) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	out, err := h.process(w, r, ops.OpExportCSV)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", csvFilename, out.CSV)
}

// HandleExportICS handles POST /export/ics: iCalendar download.
func (h *Handlers) HandleExportICS(w http.ResponseWriter, r *http.Request) {
	out, err := h.process(w, r, ops.OpExportICS)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttachment(w, "text/calendar; charset=utf-8", icsFilename, out.ICS)
}

// HandleReport handles POST /report: statistics as an HTML page, or as
// Markdown when the client asks for text/markdown.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	out, err := h.process(w, r, ops.OpAnalyze)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	report := ops.Report(out.Statistics)

	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(report))
		return
	}

	h.renderer.renderPage(w, "report", ReportPageData{
		PageData: PageData{
			Title:   "Schedule report",
			Version: h.renderer.version,
			Nav:     "report",
		},
		RunID:        out.RunID,
		RenderedHTML: renderMarkdown(report),
	})
}

// HandleRuns handles GET /runs: recent processing runs.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	input := ops.ListRunsInput{
		Operation: r.URL.Query().Get("operation"),
		Limit:     parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:    parseIntParam(r, "offset", 0),
	}

	result, err := ops.ListRuns(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, ops.Succeed(result))
		return
	}

	h.renderer.renderPage(w, "runs", RunsPageData{
		PageData: PageData{
			Title:   "Runs",
			Version: h.renderer.version,
			Nav:     "runs",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Operation:  input.Operation,
	})
}

// process reads the request's schedule and runs one operation on it,
// recording the run in the history.
func (h *Handlers) process(w http.ResponseWriter, r *http.Request, op ops.Operation) (*ops.ExecuteOutput, error) {
	raw, err := readSchedule(w, r, h.cfg.MaxFileSizeMB)
	if err != nil {
		h.logger.Warn("rejected schedule upload", "path", r.URL.Path, "error", err)
		return nil, err
	}

	logger := h.logger.With("path", r.URL.Path, "remote", clientIP(r))
	return ops.Execute(r.Context(), logger, h.db, ops.ExecuteInput{
		ProcessInput: ops.ProcessInput{
			Raw:        raw,
			Operations: []ops.Operation{op},
			Filter:     readFilter(r),
		},
		Source: ops.SourceHTTP,
	})
}

// writeAttachment sends body as a file download.
func writeAttachment(w http.ResponseWriter, contentType, filename, body string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// wantsJSON reports whether the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
