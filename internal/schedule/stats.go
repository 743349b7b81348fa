package schedule

import (
	"cmp"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Ranking limits for the frequency tables.
const (
	TopTimeSlots = 10
	TopLocations = 5
)

// weekdayNames maps DIASEMANA values to day names.
var weekdayNames = map[string]string{
	"0": "Sunday",
	"1": "Monday",
	"2": "Tuesday",
	"3": "Wednesday",
	"4": "Thursday",
	"5": "Friday",
	"6": "Saturday",
}

// weekdayOrder is the emission order of Stats.DaysOfWeek.
var weekdayOrder = []string{"1", "2", "3", "4", "5", "6", "0"}

// Counts is a frequency table that keeps its ranking order when encoded as JSON.
type Counts = orderedmap.OrderedMap[string, int]

// Summary holds the headline numbers of a Stats.
type Summary struct {
	TotalEntries    int `json:"total_entries"`
	ValidEntries    int `json:"valid_entries"`
	InvalidEntries  int `json:"invalid_entries"`
	UniqueSubjects  int `json:"unique_subjects"`
	UniqueLocations int `json:"unique_locations"`
	UniqueTimeSlots int `json:"unique_time_slots"`
}

// Stats is the result of Aggregate. It is read-only once built.
type Stats struct {
	Statistics Summary `json:"statistics"`

	// Subjects is ordered by count descending
	Subjects *Counts `json:"subjects"`

	// TimeSlots holds the top ten "start - end" slots by count
	TimeSlots *Counts `json:"time_slots"`

	// Locations holds the top five buildings by count
	Locations *Counts `json:"locations"`

	// DaysOfWeek lists days with at least one entry, Monday first
	DaysOfWeek *Counts `json:"days_of_week"`

	// MonthlyDistribution is keyed by YYYY-MM, ascending
	MonthlyDistribution *Counts `json:"monthly_distribution"`

	// HourlyDistribution is keyed by the start hour ("08:00"), ascending
	HourlyDistribution *Counts `json:"hourly_distribution"`
}

// counter counts keys and remembers first-seen order so ties rank stably.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// mostCommon returns the n highest counts (all when n <= 0). Ties keep
// first-seen order.
func (c *counter) mostCommon(n int) *Counts {
	keys := slices.Clone(c.order)
	slices.SortStableFunc(keys, func(a, b string) int {
		return cmp.Compare(c.counts[b], c.counts[a])
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return c.table(keys)
}

// ascending returns every key sorted lexically.
func (c *counter) ascending() *Counts {
	keys := slices.Clone(c.order)
	slices.Sort(keys)
	return c.table(keys)
}

func (c *counter) table(keys []string) *Counts {
	out := orderedmap.New[string, int]()
	for _, k := range keys {
		out.Set(k, c.counts[k])
	}
	return out
}

// Aggregate computes frequency tables over entries in a single pass.
// Only valid entries (subject and start date present) feed the subject,
// time slot, location, weekday and month tables. A valid entry whose start
// date does not parse is still valid; it is left out of the month table only.
func Aggregate(entries []Entry) *Stats {
	subjects := newCounter()
	slots := newCounter()
	locations := newCounter()
	days := newCounter()
	months := newCounter()
	hours := newCounter()

	valid := 0
	for i := range entries {
		e := &entries[i]

		if hour, ok := startHour(e.StartTime); ok {
			hours.add(hour)
		}

		if !e.Valid() {
			continue
		}
		valid++

		subjects.add(e.Subject)
		if e.HasTimes() {
			slots.add(e.StartTime + " - " + e.EndTime)
		}
		if e.Building != "" {
			locations.add(e.Building)
		}
		if name, ok := weekdayNames[e.Weekday]; ok {
			days.add(name)
		}
		if t, ok := ParseDate(e.StartDate); ok {
			months.add(t.Format("2006-01"))
		}
	}

	dayTable := orderedmap.New[string, int]()
	for _, wd := range weekdayOrder {
		name := weekdayNames[wd]
		if n := days.counts[name]; n > 0 {
			dayTable.Set(name, n)
		}
	}

	return &Stats{
		Statistics: Summary{
			TotalEntries:    len(entries),
			ValidEntries:    valid,
			InvalidEntries:  len(entries) - valid,
			UniqueSubjects:  len(subjects.counts),
			UniqueLocations: len(locations.counts),
			UniqueTimeSlots: len(slots.counts),
		},
		Subjects:            subjects.mostCommon(0),
		TimeSlots:           slots.mostCommon(TopTimeSlots),
		Locations:           locations.mostCommon(TopLocations),
		DaysOfWeek:          dayTable,
		MonthlyDistribution: months.ascending(),
		HourlyDistribution:  hours.ascending(),
	}
}

// startHour buckets a start time by its hour component.
func startHour(clock string) (string, bool) {
	if clock == "" {
		return "", false
	}
	hour, _, _ := strings.Cut(clock, ":")
	return hour + ":00", true
}

// SubjectTotal returns the sum of all subject counts, which always equals
// Statistics.ValidEntries.
func (s *Stats) SubjectTotal() int {
	total := 0
	for p := s.Subjects.Oldest(); p != nil; p = p.Next() {
		total += p.Value
	}
	return total
}
