package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/agenda/internal/schedule"
)

// Report renders schedule statistics as a Markdown document.
func Report(stats *schedule.Stats) string {
	var b strings.Builder
	s := stats.Statistics

	b.WriteString("# Schedule report\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total entries | %d |\n", s.TotalEntries)
	fmt.Fprintf(&b, "| Valid entries | %d |\n", s.ValidEntries)
	fmt.Fprintf(&b, "| Invalid entries | %d |\n", s.InvalidEntries)
	fmt.Fprintf(&b, "| Unique subjects | %d |\n", s.UniqueSubjects)
	fmt.Fprintf(&b, "| Unique locations | %d |\n", s.UniqueLocations)
	fmt.Fprintf(&b, "| Unique time slots | %d |\n", s.UniqueTimeSlots)

	writeCountsSection(&b, "Subjects", "Subject", stats.Subjects)
	writeCountsSection(&b, "Most common time slots", "Time slot", stats.TimeSlots)
	writeCountsSection(&b, "Most used locations", "Location", stats.Locations)
	writeCountsSection(&b, "Days of the week", "Day", stats.DaysOfWeek)
	writeCountsSection(&b, "Classes per month", "Month", stats.MonthlyDistribution)
	writeCountsSection(&b, "Classes by start hour", "Hour", stats.HourlyDistribution)

	return b.String()
}

// writeCountsSection writes one frequency table; empty tables are omitted.
func writeCountsSection(b *strings.Builder, title, column string, counts *schedule.Counts) {
	if counts == nil || counts.Len() == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	fmt.Fprintf(b, "| %s | Count |\n|---|---|\n", column)
	for pair := counts.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(b, "| %s | %d |\n", escapeTableCell(pair.Key), pair.Value)
	}
}

// escapeTableCell keeps user text from breaking a Markdown table row.
func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
