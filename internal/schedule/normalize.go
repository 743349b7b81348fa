package schedule

// weekdays is the set of accepted DIASEMANA values.
var weekdays = map[string]bool{
	"0": true, "1": true, "2": true, "3": true, "4": true, "5": true, "6": true,
}

// NormalizeResult holds the entries that survived coercion and the count of
// records that could not be coerced at all.
type NormalizeResult struct {
	Entries []Entry
	Dropped int
}

// Normalize coerces raw records into entries, preserving input order.
// Records that are not JSON objects are dropped and counted. Inside a record,
// any field that is missing or not a string is treated as absent.
func Normalize(records []any) NormalizeResult {
	res := NormalizeResult{Entries: make([]Entry, 0, len(records))}
	for _, rec := range records {
		m, ok := rec.(map[string]any)
		if !ok {
			res.Dropped++
			continue
		}
		res.Entries = append(res.Entries, NormalizeRecord(m))
	}
	return res
}

// NormalizeRecord coerces a single raw record. It never fails.
func NormalizeRecord(m map[string]any) Entry {
	e := Entry{
		Subject:      str(m, KeySubject),
		Building:     str(m, KeyBuilding),
		Block:        str(m, KeyBlock),
		Room:         str(m, KeyRoom),
		StartDate:    str(m, KeyStartDate),
		EndDate:      str(m, KeyEndDate),
		StartTime:    str(m, KeyStartTime),
		EndTime:      str(m, KeyEndTime),
		ClassCode:    str(m, KeyClassCode),
		SubClassCode: str(m, KeySubClassCode),
		ShortCode:    str(m, KeyShortCode),
		OnlineURL:    str(m, KeyOnlineURL),
	}
	if wd := str(m, KeyWeekday); weekdays[wd] {
		e.Weekday = wd
	}
	return e
}

// str returns m[key] when it is a string, "" otherwise.
func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
