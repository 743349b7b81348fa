package schedule

import "strings"

// CSVHeader is the column layout of the Google Calendar bulk import.
var CSVHeader = []string{
	"Subject",
	"Start Date",
	"Start Time",
	"End Date",
	"End Time",
	"All Day Event",
	"Description",
	"Location",
	"Private",
}

// csvDateLayout is the MM/DD/YYYY format Google Calendar expects.
const csvDateLayout = "01/02/2006"

// CSVRow returns the CSV fields for e, or false when e is not exportable:
// subject or start date missing, or either date unparsable.
func CSVRow(e *Entry) ([]string, bool) {
	if !e.Valid() {
		return nil, false
	}
	start, ok := ParseDate(e.StartDate)
	if !ok {
		return nil, false
	}
	end, ok := ParseDate(e.EffectiveEndDate())
	if !ok {
		return nil, false
	}
	return []string{
		e.Subject,
		start.Format(csvDateLayout),
		e.StartTime,
		end.Format(csvDateLayout),
		e.EndTime,
		"False",
		BuildDescription(e),
		BuildLocation(e),
		"True",
	}, true
}

// ToCSV renders entries as a Google Calendar CSV with every field quoted.
// Entries that are not exportable are skipped.
func ToCSV(entries []Entry) string {
	var b strings.Builder
	writeCSVRecord(&b, CSVHeader)
	for i := range entries {
		if row, ok := CSVRow(&entries[i]); ok {
			writeCSVRecord(&b, row)
		}
	}
	return b.String()
}

// writeCSVRecord writes one quoted record terminated by CRLF.
func writeCSVRecord(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
}
