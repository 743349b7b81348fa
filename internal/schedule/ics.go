package schedule

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// ICSHeader opens every exported calendar.
const ICSHeader = "BEGIN:VCALENDAR\n" +
	"VERSION:2.0\n" +
	"PRODID:-//CMMG Calendar//Schedule Converter//PT\n" +
	"CALSCALE:GREGORIAN\n" +
	"METHOD:PUBLISH\n" +
	"X-WR-CALNAME:Horário Acadêmico CMMG\n" +
	"X-WR-CALDESC:Horário das aulas da faculdade CMMG\n" +
	"X-WR-TIMEZONE:America/Sao_Paulo\n"

// ICSFooter closes every exported calendar.
const ICSFooter = "END:VCALENDAR\n"

// dtstampLayout is the UTC form used for DTSTAMP.
const dtstampLayout = "20060102T150405Z"

// ICSEncoder renders entries as a VCALENDAR document.
// The zero value is not usable; use NewICSEncoder.
type ICSEncoder struct {
	// Now supplies the DTSTAMP instant
	Now func() time.Time

	// NewUID supplies one identifier per VEVENT
	NewUID func() string
}

// NewICSEncoder returns an encoder stamping events with the wall clock and
// random UUIDs.
func NewICSEncoder() *ICSEncoder {
	return &ICSEncoder{
		Now:    time.Now,
		NewUID: uuid.NewString,
	}
}

// ICSExportable reports whether e carries everything a VEVENT needs:
// subject, start date, start time and end time.
func ICSExportable(e *Entry) bool {
	return e.Valid() && e.HasTimes()
}

// Encode renders one VEVENT per exportable entry between the fixed header
// and footer. A schedule with no exportable entries yields an empty calendar.
func (enc *ICSEncoder) Encode(entries []Entry) string {
	stamp := enc.Now().UTC().Format(dtstampLayout)

	var b strings.Builder
	b.WriteString(ICSHeader)
	for i := range entries {
		e := &entries[i]
		if !ICSExportable(e) {
			continue
		}
		startDate := StripMidnight(e.StartDate)
		endDate := StripMidnight(e.EffectiveEndDate())

		b.WriteString("BEGIN:VEVENT\n")
		fmt.Fprintf(&b, "UID:%s\n", enc.NewUID())
		fmt.Fprintf(&b, "DTSTAMP:%s\n", stamp)
		fmt.Fprintf(&b, "DTSTART:%s\n", ICSTimestamp(startDate, e.StartTime))
		fmt.Fprintf(&b, "DTEND:%s\n", ICSTimestamp(endDate, e.EndTime))
		fmt.Fprintf(&b, "SUMMARY:%s\n", EscapeICSText(e.Subject))
		fmt.Fprintf(&b, "DESCRIPTION:%s\n", EscapeICSText(BuildDescription(e)))
		fmt.Fprintf(&b, "LOCATION:%s\n", EscapeICSText(BuildLocation(e)))
		b.WriteString("STATUS:CONFIRMED\n")
		b.WriteString("TRANSP:OPAQUE\n")
		b.WriteString("END:VEVENT\n")
	}
	b.WriteString(ICSFooter)
	return b.String()
}

// ToICS renders entries with a default encoder.
func ToICS(entries []Entry) string {
	return NewICSEncoder().Encode(entries)
}

// VerifyICS parses an ICS document and returns how many VEVENTs it holds.
// It is used to check that an export is readable by a standard parser.
func VerifyICS(text string) (int, error) {
	cal, err := ical.ParseCalendar(strings.NewReader(text))
	if err != nil {
		return 0, fmt.Errorf("parse calendar: %w", err)
	}
	return len(cal.Events()), nil
}
