package studylog

import (
	"sort"
	"time"

	"github.com/studyquest/studyquest/pkg/timeutil"
)

// MinutesOn sums durations of entries whose normalized date is d.
func MinutesOn(entries []*Entry, d timeutil.Date, loc *time.Location) int {
	total := 0
	for _, e := range entries {
		if timeutil.SameDate(e.StudyDate, d, loc) {
			total += e.DurationMinutes
		}
	}
	return total
}

// TodayMinutes is MinutesOn for the current local date.
func TodayMinutes(entries []*Entry, today timeutil.Date, loc *time.Location) int {
	return MinutesOn(entries, today, loc)
}

// SubjectTotal is the accumulated time for one subject.
type SubjectTotal struct {
	Subject string
	Minutes int
}

// BySubject totals minutes per subject, largest first, ties by name.
func BySubject(entries []*Entry) []SubjectTotal {
	sums := make(map[string]int)
	for _, e := range entries {
		sums[e.Subject] += e.DurationMinutes
	}

	out := make([]SubjectTotal, 0, len(sums))
	for s, m := range sums {
		out = append(out, SubjectTotal{Subject: s, Minutes: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// DayTotal is the study time of a single date.
type DayTotal struct {
	Date    timeutil.Date
	Minutes int
}

// DefaultTrendDays is the length of the trend window.
const DefaultTrendDays = 7

// Trend returns one total per day for the days ending at end, oldest first.
// Days without entries are present with zero minutes.
func Trend(entries []*Entry, end timeutil.Date, days int, loc *time.Location) []DayTotal {
	if days <= 0 {
		days = DefaultTrendDays
	}
	start := end.AddDays(-(days - 1))

	sums := make(map[timeutil.Date]int, days)
	for _, e := range entries {
		d, ok := e.LocalDate(loc)
		if !ok || d.Before(start) || d.After(end) {
			continue
		}
		sums[d] += e.DurationMinutes
	}

	out := make([]DayTotal, days)
	for i := range out {
		d := start.AddDays(i)
		out[i] = DayTotal{Date: d, Minutes: sums[d]}
	}
	return out
}
