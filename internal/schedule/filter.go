package schedule

import "strings"

// Filter narrows a schedule before it is analyzed or exported.
// Empty fields match everything.
type Filter struct {
	// Subject matches entries whose subject contains it, case-insensitively
	Subject string `json:"subject,omitempty"`

	// Location matches entries whose building contains it, case-insensitively
	Location string `json:"location,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Subject) == "" && strings.TrimSpace(f.Location) == ""
}

// Apply returns the entries matching f, in input order.
func (f Filter) Apply(entries []Entry) []Entry {
	if f.IsZero() {
		return entries
	}
	subject := strings.ToLower(strings.TrimSpace(f.Subject))
	location := strings.ToLower(strings.TrimSpace(f.Location))

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if subject != "" && (e.Subject == "" || !strings.Contains(strings.ToLower(e.Subject), subject)) {
			continue
		}
		if location != "" && (e.Building == "" || !strings.Contains(strings.ToLower(e.Building), location)) {
			continue
		}
		out = append(out, e)
	}
	return out
}
