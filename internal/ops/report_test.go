package ops

import (
	"strings"
	"testing"

	"github.com/hpungsan/agenda/internal/schedule"
)

func TestReport(t *testing.T) {
	stats := schedule.Aggregate([]schedule.Entry{
		{Subject: "Anatomia", StartDate: "2025-03-10", StartTime: "08:00", EndTime: "10:00", Building: "Campus", Weekday: "1"},
		{Subject: "Anatomia", StartDate: "2025-03-17", StartTime: "08:00", EndTime: "10:00", Building: "Campus", Weekday: "1"},
		{Subject: "Ética | Moral", StartDate: "2025-04-01"},
		{Building: "Annex"},
	})

	got := Report(stats)

	for _, want := range []string{
		"# Schedule report",
		"| Total entries | 4 |",
		"| Invalid entries | 1 |",
		"## Subjects",
		"| Anatomia | 2 |",
		`| Ética \| Moral | 1 |`,
		"| 08:00 - 10:00 | 2 |",
		"| Monday | 2 |",
		"| 2025-03 | 2 |",
		"| 08:00 | 2 |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Report() missing %q\n%s", want, got)
		}
	}

	// Subjects are listed by count descending
	if strings.Index(got, "| Anatomia |") > strings.Index(got, "| Ética") {
		t.Error("Report() subjects not in ranking order")
	}
}

func TestReport_OmitsEmptyTables(t *testing.T) {
	got := Report(schedule.Aggregate([]schedule.Entry{{Building: "Annex"}}))

	if strings.Contains(got, "## Subjects") {
		t.Errorf("Report() rendered an empty subjects table:\n%s", got)
	}
	if !strings.Contains(got, "| Valid entries | 0 |") {
		t.Errorf("Report() missing summary:\n%s", got)
	}
}
