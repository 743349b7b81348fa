package schedule

import (
	"testing"
)

func TestNormalize_DropsNonObjects(t *testing.T) {
	records := []any{
		map[string]any{"NOME": "Math"},
		"not a record",
		42.0,
		nil,
		[]any{"x"},
		map[string]any{"NOME": "Physics"},
	}

	res := Normalize(records)

	if res.Dropped != 4 {
		t.Errorf("Dropped = %d, want 4", res.Dropped)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(res.Entries))
	}
	if res.Entries[0].Subject != "Math" || res.Entries[1].Subject != "Physics" {
		t.Errorf("Entries out of order: %q, %q", res.Entries[0].Subject, res.Entries[1].Subject)
	}
}

func TestNormalize_Empty(t *testing.T) {
	res := Normalize(nil)
	if res.Dropped != 0 || len(res.Entries) != 0 {
		t.Errorf("Normalize(nil) = %+v, want empty", res)
	}
}

func TestNormalizeRecord_AllFields(t *testing.T) {
	got := NormalizeRecord(map[string]any{
		"NOME":          "Anatomia",
		"PREDIO":        "Campus Centro",
		"BLOCO":         "A",
		"SALA":          "101",
		"DATAINICIAL":   "2025-03-10T00:00:00",
		"DATAFINAL":     "2025-03-11T00:00:00",
		"HORAINICIAL":   "08:00:00",
		"HORAFINAL":     "10:00:00",
		"CODTURMA":      "T1",
		"CODSUBTURMA":   "S1",
		"NOMEREDUZIDO":  "ANA",
		"URLAULAONLINE": "https://meet.example/abc",
		"DIASEMANA":     "1",
	})

	want := Entry{
		Subject:      "Anatomia",
		Building:     "Campus Centro",
		Block:        "A",
		Room:         "101",
		StartDate:    "2025-03-10T00:00:00",
		EndDate:      "2025-03-11T00:00:00",
		StartTime:    "08:00:00",
		EndTime:      "10:00:00",
		ClassCode:    "T1",
		SubClassCode: "S1",
		ShortCode:    "ANA",
		OnlineURL:    "https://meet.example/abc",
		Weekday:      "1",
	}
	if got != want {
		t.Errorf("NormalizeRecord() = %+v, want %+v", got, want)
	}
}

func TestNormalizeRecord_WrongTypesBecomeAbsent(t *testing.T) {
	got := NormalizeRecord(map[string]any{
		"NOME":        nil,
		"PREDIO":      12.0,
		"DATAINICIAL": true,
		"HORAINICIAL": map[string]any{"h": "8"},
		"SALA":        []any{"101"},
	})

	if got != (Entry{}) {
		t.Errorf("NormalizeRecord() = %+v, want zero Entry", got)
	}
}

func TestNormalizeRecord_Weekday(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "sunday", value: "0", want: "0"},
		{name: "saturday", value: "6", want: "6"},
		{name: "out of range", value: "7", want: ""},
		{name: "numeric", value: 3.0, want: ""},
		{name: "padded", value: " 3", want: ""},
		{name: "two digits", value: "03", want: ""},
		{name: "day name", value: "Monday", want: ""},
		{name: "empty", value: "", want: ""},
		{name: "null", value: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRecord(map[string]any{"DIASEMANA": tt.value})
			if got.Weekday != tt.want {
				t.Errorf("Weekday = %q, want %q", got.Weekday, tt.want)
			}
		})
	}
}

func TestEntry_EffectiveEndDate(t *testing.T) {
	e := Entry{StartDate: "2025-03-10"}
	if got := e.EffectiveEndDate(); got != "2025-03-10" {
		t.Errorf("EffectiveEndDate() = %q, want start date", got)
	}

	e.EndDate = "2025-03-12"
	if got := e.EffectiveEndDate(); got != "2025-03-12" {
		t.Errorf("EffectiveEndDate() = %q, want %q", got, "2025-03-12")
	}
}
