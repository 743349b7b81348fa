package schedule

import (
	"strings"
	"time"
)

// midnightSuffix is the time token the portal appends to date-only values.
const midnightSuffix = "T00:00:00"

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// icsEscaper escapes TEXT values. Backslash must come first so the
// backslashes it inserts for the other characters are not doubled.
var icsEscaper = []struct{ old, new string }{
	{`\`, `\\`},
	{`,`, `\,`},
	{`;`, `\;`},
	{"\n", `\n`},
}

// BuildLocation joins building, block and room with " - ", omitting empty parts.
func BuildLocation(e *Entry) string {
	parts := make([]string, 0, 3)
	if e.Building != "" {
		parts = append(parts, e.Building)
	}
	if e.Block != "" {
		parts = append(parts, "Bloco: "+e.Block)
	}
	if e.Room != "" {
		parts = append(parts, "Sala: "+e.Room)
	}
	return strings.Join(parts, " - ")
}

// BuildDescription joins class codes and the online class URL with " | ",
// omitting empty parts.
func BuildDescription(e *Entry) string {
	parts := make([]string, 0, 4)
	if e.ClassCode != "" {
		parts = append(parts, "Turma: "+e.ClassCode)
	}
	if e.SubClassCode != "" {
		parts = append(parts, "Subturma: "+e.SubClassCode)
	}
	if e.ShortCode != "" {
		parts = append(parts, "Código: "+e.ShortCode)
	}
	if e.OnlineURL != "" {
		parts = append(parts, "Aula Online: "+e.OnlineURL)
	}
	return strings.Join(parts, " | ")
}

// EscapeICSText escapes backslash, comma, semicolon and newline for an ICS
// TEXT property. It is not idempotent: escaping twice doubles the backslashes.
func EscapeICSText(text string) string {
	for _, r := range icsEscaper {
		text = strings.ReplaceAll(text, r.old, r.new)
	}
	return text
}

// StripMidnight removes the literal T00:00:00 token from a date string.
func StripMidnight(date string) string {
	return strings.ReplaceAll(date, midnightSuffix, "")
}

// ParseDate parses an ISO calendar date after stripping the midnight token.
// The bool is false when no layout matches.
func ParseDate(s string) (time.Time, bool) {
	s = StripMidnight(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ICSTimestamp builds a floating YYYYMMDDTHHMMSS value from a YYYY-MM-DD date
// and an HH:MM[:SS] time. Missing or non-numeric time components become "00".
// A date that does not split into exactly three dash-separated parts yields
// "", which callers must treat as unusable.
func ICSTimestamp(date, clock string) string {
	ymd := strings.Split(StripMidnight(date), "-")
	if len(ymd) != 3 {
		return ""
	}

	raw := clock
	if raw == "" {
		raw = "00:00:00"
	}
	parts := strings.Split(strings.TrimSpace(raw), ":")
	for len(parts) < 3 {
		parts = append(parts, "00")
	}

	var b strings.Builder
	b.WriteString(ymd[0])
	b.WriteString(ymd[1])
	b.WriteString(ymd[2])
	b.WriteByte('T')
	for _, p := range parts[:3] {
		b.WriteString(clockComponent(p))
	}
	return b.String()
}

// clockComponent returns p left-padded to two digits, or "00" when p is not
// a run of ASCII digits.
func clockComponent(p string) string {
	if !isDigits(p) {
		return "00"
	}
	if len(p) < 2 {
		return "0" + p
	}
	return p
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
