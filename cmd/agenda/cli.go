package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/agenda/internal/config"
	"github.com/hpungsan/agenda/internal/errors"
	"github.com/hpungsan/agenda/internal/files"
	"github.com/hpungsan/agenda/internal/ops"
	"github.com/hpungsan/agenda/internal/schedule"
	"github.com/hpungsan/agenda/internal/web"
)

// Default paths, relative to the working directory.
const (
	defaultInput  = "data/QuadroHorarioAluno.json"
	defaultCSVOut = "output/GoogleAgenda.csv"
	defaultICSOut = "output/ThunderbirdAgenda.ics"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	app := &cli.App{
		Name:    "agenda",
		Usage:   "Class schedule statistics and calendar export",
		Version: Version,
		Commands: []*cli.Command{
			analyzeCmd(db, cfg, logger),
			exportCmd(db, cfg, logger),
			reportCmd(db, cfg, logger),
			verifyCmd(cfg),
			serveCmd(db, cfg, logger),
			historyCmd(db),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// Flags shared by the commands that read a schedule.
func inputFlag() cli.Flag {
	return &cli.StringFlag{Name: "input", Aliases: []string{"i"}, Value: defaultInput, Usage: "Schedule JSON file"}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Only classes whose subject contains this text"},
		&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Usage: "Only classes whose building contains this text"},
	}
}

// analyzeCmd creates the analyze command.
func analyzeCmd(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Print schedule statistics",
		Flags: append([]cli.Flag{
			inputFlag(),
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|markdown"},
		}, filterFlags()...),
		Action: func(c *cli.Context) error {
			format := c.String("format")
			if format != "json" && format != "markdown" {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q: use json or markdown", format)))
			}

			out, err := run(c, db, cfg, logger, ops.OpAnalyze)
			if err != nil {
				return outputError(err)
			}

			if format == "markdown" {
				_, err := io.WriteString(c.App.Writer, ops.Report(out.Statistics))
				return err
			}
			return outputJSON(c.App.Writer, out.Statistics)
		},
	}
}

// ExportSummary is printed by the export command.
type ExportSummary struct {
	RunID          string `json:"run_id,omitempty"`
	TotalRecords   int    `json:"total_records"`
	DroppedRecords int    `json:"dropped_records"`
	ValidEntries   int    `json:"valid_entries"`
	CSVPath        string `json:"csv_path,omitempty"`
	CSVRows        int    `json:"csv_rows"`
	ICSPath        string `json:"ics_path,omitempty"`
	ICSEvents      int    `json:"ics_events"`
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the schedule as a Google Calendar CSV and an iCalendar file",
		Flags: append([]cli.Flag{
			inputFlag(),
			&cli.StringFlag{Name: "csv", Value: defaultCSVOut, Usage: "CSV output path"},
			&cli.StringFlag{Name: "ics", Value: defaultICSOut, Usage: "ICS output path"},
			&cli.BoolFlag{Name: "no-csv", Usage: "Skip the CSV export"},
			&cli.BoolFlag{Name: "no-ics", Usage: "Skip the ICS export"},
		}, filterFlags()...),
		Action: func(c *cli.Context) error {
			var operations []ops.Operation
			csvPath, icsPath := "", ""
			if !c.Bool("no-csv") {
				csvPath = c.String("csv")
				if err := files.ValidatePath(csvPath, files.ModeWrite, ".csv"); err != nil {
					return outputError(err)
				}
				operations = append(operations, ops.OpExportCSV)
			}
			if !c.Bool("no-ics") {
				icsPath = c.String("ics")
				if err := files.ValidatePath(icsPath, files.ModeWrite, ".ics"); err != nil {
					return outputError(err)
				}
				operations = append(operations, ops.OpExportICS)
			}
			if len(operations) == 0 {
				return outputError(errors.NewInvalidRequest("nothing to export: --no-csv and --no-ics are both set"))
			}

			out, err := run(c, db, cfg, logger, operations...)
			if err != nil {
				return outputError(err)
			}

			if csvPath != "" {
				if err := files.WriteAtomic(csvPath, []byte(out.CSV)); err != nil {
					return outputError(err)
				}
				logger.Info("wrote CSV", "path", csvPath, "rows", out.CSVRows)
			}
			if icsPath != "" {
				if err := files.WriteAtomic(icsPath, []byte(out.ICS)); err != nil {
					return outputError(err)
				}
				logger.Info("wrote ICS", "path", icsPath, "events", out.ICSEvents)
			}

			return outputJSON(c.App.Writer, ExportSummary{
				RunID:          out.RunID,
				TotalRecords:   out.TotalRecords,
				DroppedRecords: out.DroppedRecords,
				ValidEntries:   out.ValidEntries,
				CSVPath:        csvPath,
				CSVRows:        out.CSVRows,
				ICSPath:        icsPath,
				ICSEvents:      out.ICSEvents,
			})
		},
	}
}

// reportCmd creates the report command.
func reportCmd(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Write schedule statistics as a Markdown report",
		Flags: append([]cli.Flag{
			inputFlag(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Markdown output path (default stdout)"},
		}, filterFlags()...),
		Action: func(c *cli.Context) error {
			path := c.String("output")
			if path != "" {
				if err := files.ValidatePath(path, files.ModeWrite, ".md", ".markdown"); err != nil {
					return outputError(err)
				}
			}

			out, err := run(c, db, cfg, logger, ops.OpAnalyze)
			if err != nil {
				return outputError(err)
			}
			report := ops.Report(out.Statistics)

			if path == "" {
				_, err := io.WriteString(c.App.Writer, report)
				return err
			}
			if err := files.WriteAtomic(path, []byte(report)); err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{"path": path})
		},
	}
}

// verifyCmd creates the verify command.
func verifyCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check that an ICS file parses and count its events",
		ArgsUsage: "[file.ics]",
		Action: func(c *cli.Context) error {
			path := defaultICSOut
			if c.NArg() > 0 {
				path = c.Args().First()
			}
			if err := files.ValidatePath(path, files.ModeRead, ".ics"); err != nil {
				return outputError(err)
			}
			data, err := files.ReadLimited(path, int64(cfg.MaxFileSizeMB)<<20)
			if err != nil {
				return outputError(err)
			}

			events, err := schedule.VerifyICS(string(data))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return outputJSON(c.App.Writer, map[string]any{"path": path, "events": events})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Interface to listen on (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("bind") {
				cfg.Bind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}

			srv, err := web.NewServer(db, cfg, logger, Version)
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return web.Run(srv, logger)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent processing runs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "operation", Usage: "Filter by operation: analyze|export-csv|export-ics"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Maximum runs to list"},
			&cli.IntFlag{Name: "offset", Usage: "Runs to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListRuns(c.Context, db, ops.ListRunsInput{
				Operation: c.String("operation"),
				Limit:     c.Int("limit"),
				Offset:    c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// Helper functions

// run reads the --input schedule and executes operations on it.
func run(c *cli.Context, db *sql.DB, cfg *config.Config, logger *slog.Logger, operations ...ops.Operation) (*ops.ExecuteOutput, error) {
	path := c.String("input")
	raw, err := readSchedule(path, cfg.MaxFileSizeMB)
	if err != nil {
		return nil, err
	}

	return ops.Execute(c.Context, logger.With("input", path), db, ops.ExecuteInput{
		ProcessInput: ops.ProcessInput{
			Raw:        raw,
			Operations: operations,
			Filter: schedule.Filter{
				Subject:  c.String("subject"),
				Location: c.String("location"),
			},
		},
		Source: ops.SourceCLI,
	})
}

// readSchedule loads and decodes a schedule JSON file of at most maxMB.
func readSchedule(path string, maxMB int) (any, error) {
	if err := files.ValidatePath(path, files.ModeRead, ".json"); err != nil {
		return nil, err
	}
	data, err := files.ReadLimited(path, int64(maxMB)<<20)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid JSON file: %v", err))
	}
	return raw, nil
}

// outputJSON marshals result to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI. Internal errors include their cause.
func outputError(err error) error {
	aErr := errors.As(err)
	msg := fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message)
	if cause, ok := aErr.Details["internal_error"]; ok && aErr.Code == errors.ErrInternal {
		msg += fmt.Sprintf(": %v", cause)
	}
	return cli.Exit(msg, 1)
}
