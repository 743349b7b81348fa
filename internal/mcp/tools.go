package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const scheduleDescription = `The schedule document: an object whose "data" key holds "SHorarioAluno", the list of class records as exported by the student portal.`

// scheduleTool builds a tool that takes a schedule plus the optional filters.
func scheduleTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithObject("schedule",
			mcp.Required(),
			mcp.Description(scheduleDescription),
		),
		mcp.WithString("subject",
			mcp.Description("Keep only classes whose subject contains this text (case-insensitive)."),
		),
		mcp.WithString("location",
			mcp.Description("Keep only classes whose building, room or campus contains this text (case-insensitive)."),
		),
	)
}

var analyzeToolDef = scheduleTool("schedule_analyze",
	"Normalize a class schedule and return usage statistics: totals, subjects, time slots, locations, weekday, month and hour distributions.")

var exportCSVToolDef = scheduleTool("schedule_export_csv",
	"Export a class schedule as a Google Calendar import CSV. Classes without a subject or without start and end times are skipped.")

var exportICSToolDef = scheduleTool("schedule_export_ics",
	"Export a class schedule as an iCalendar (.ics) file for Thunderbird and other calendar clients.")

var reportToolDef = scheduleTool("schedule_report",
	"Render the schedule statistics as a Markdown report.")

var runsToolDef = mcp.NewTool("schedule_runs",
	mcp.WithDescription("List recent processing runs from the local history, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("operation",
		mcp.Description("Only runs of this operation."),
		mcp.Enum("analyze", "export-csv", "export-ics"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum runs to return (default 20, max 100)."),
		mcp.Min(1),
		mcp.Max(100),
	),
	mcp.WithNumber("offset",
		mcp.Description("Runs to skip, for pagination."),
		mcp.Min(0),
	),
)
