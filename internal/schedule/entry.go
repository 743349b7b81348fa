package schedule

// Raw record keys as produced by the student-portal schedule export.
const (
	KeyEntries      = "SHorarioAluno"
	KeySubject      = "NOME"
	KeyBuilding     = "PREDIO"
	KeyBlock        = "BLOCO"
	KeyRoom         = "SALA"
	KeyStartDate    = "DATAINICIAL"
	KeyEndDate      = "DATAFINAL"
	KeyStartTime    = "HORAINICIAL"
	KeyEndTime      = "HORAFINAL"
	KeyClassCode    = "CODTURMA"
	KeySubClassCode = "CODSUBTURMA"
	KeyShortCode    = "NOMEREDUZIDO"
	KeyOnlineURL    = "URLAULAONLINE"
	KeyWeekday      = "DIASEMANA"
)

// Entry is one class meeting after normalization.
// Every field is optional; the empty string means absent.
type Entry struct {
	Subject string `json:"subject,omitempty"`

	Building string `json:"building,omitempty"`
	Block    string `json:"block,omitempty"`
	Room     string `json:"room,omitempty"`

	// StartDate is an ISO date, possibly carrying a trailing T00:00:00
	StartDate string `json:"start_date,omitempty"`

	// EndDate is kept as given; exporters fall back to StartDate
	EndDate string `json:"end_date,omitempty"`

	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`

	ClassCode    string `json:"class_code,omitempty"`
	SubClassCode string `json:"sub_class_code,omitempty"`
	ShortCode    string `json:"short_code,omitempty"`
	OnlineURL    string `json:"online_url,omitempty"`

	// Weekday is one of "0".."6" (Sunday..Saturday) or empty
	Weekday string `json:"weekday,omitempty"`
}

// Valid reports whether the entry has both a subject and a start date.
// Statistics and both exporters share this minimum.
func (e *Entry) Valid() bool {
	return e.Subject != "" && e.StartDate != ""
}

// HasTimes reports whether both start and end times are present.
func (e *Entry) HasTimes() bool {
	return e.StartTime != "" && e.EndTime != ""
}

// EffectiveEndDate returns EndDate, or StartDate when EndDate is absent.
func (e *Entry) EffectiveEndDate() string {
	if e.EndDate != "" {
		return e.EndDate
	}
	return e.StartDate
}
