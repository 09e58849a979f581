package calendar

import (
	"time"

	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRID
// ══════════════════════════════════════════════════════════════════════════════

// Cell is one slot of a week. Cells outside the month are empty.
type Cell struct {
	Date timeutil.Date
}

// IsEmpty reports whether the cell is a placeholder.
func (c Cell) IsEmpty() bool {
	return c.Date.IsZero()
}

// Week is seven cells, Sunday first.
type Week [7]Cell

// MonthGrid lays out year/month as Sunday-first weeks.
func MonthGrid(year int, month time.Month) []Week {
	first := timeutil.NewDate(year, month, 1)
	offset := int(first.Weekday())
	days := timeutil.DaysIn(year, month)

	weeks := make([]Week, (offset+days+6)/7)
	for day := 1; day <= days; day++ {
		slot := offset + day - 1
		weeks[slot/7][slot%7] = Cell{Date: timeutil.NewDate(year, month, day)}
	}
	return weeks
}

// Days counts the populated cells of a grid.
func Days(weeks []Week) int {
	n := 0
	for _, w := range weeks {
		for _, c := range w {
			if !c.IsEmpty() {
				n++
			}
		}
	}
	return n
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// DayAggregate summarizes one date.
type DayAggregate struct {
	Date         timeutil.Date
	StudyMinutes int
	PendingTasks int
	DoneTasks    int
}

// IsEmpty reports whether nothing happened on the date.
func (a DayAggregate) IsEmpty() bool {
	return a.StudyMinutes == 0 && a.PendingTasks == 0 && a.DoneTasks == 0
}

// Month is the full month view.
type Month struct {
	Year         int
	Month        time.Month
	Weeks        []Week
	Days         map[timeutil.Date]DayAggregate
	TotalMinutes int
}

// Day returns the aggregate of d, zero if nothing was recorded.
func (m Month) Day(d timeutil.Date) DayAggregate {
	if a, ok := m.Days[d]; ok {
		return a
	}
	return DayAggregate{Date: d}
}

// BuildMonth aggregates tasks and logs onto the month grid.
// Dates are normalized in loc before comparison; unparsable dates are skipped.
func BuildMonth(year int, month time.Month, tasks []*task.Task, logs []*studylog.Entry, loc *time.Location) Month {
	m := Month{
		Year:  year,
		Month: month,
		Weeks: MonthGrid(year, month),
		Days:  make(map[timeutil.Date]DayAggregate),
	}

	inMonth := func(d timeutil.Date) bool {
		return d.Year == year && d.Month == month
	}

	for _, e := range logs {
		d, ok := e.LocalDate(loc)
		if !ok || !inMonth(d) {
			continue
		}
		a := m.Day(d)
		a.StudyMinutes += e.DurationMinutes
		m.Days[d] = a
		m.TotalMinutes += e.DurationMinutes
	}

	for _, t := range tasks {
		d, ok := t.DueOn(loc)
		if !ok || !inMonth(d) {
			continue
		}
		a := m.Day(d)
		if t.IsPending() {
			a.PendingTasks++
		} else {
			a.DoneTasks++
		}
		m.Days[d] = a
	}

	return m
}

// Detail lists everything recorded on one date.
type Detail struct {
	Date  timeutil.Date
	Tasks []*task.Task
	Logs  []*studylog.Entry
}

// TotalMinutes sums the logged minutes of the day.
func (d Detail) TotalMinutes() int {
	total := 0
	for _, e := range d.Logs {
		total += e.DurationMinutes
	}
	return total
}

// DetailFor collects the tasks due and the logs recorded on date.
func DetailFor(date timeutil.Date, tasks []*task.Task, logs []*studylog.Entry, loc *time.Location) Detail {
	detail := Detail{Date: date}
	for _, t := range tasks {
		if timeutil.SameDate(t.DueDate, date, loc) {
			detail.Tasks = append(detail.Tasks, t)
		}
	}
	for _, e := range logs {
		if timeutil.SameDate(e.StudyDate, date, loc) {
			detail.Logs = append(detail.Logs, e)
		}
	}
	task.Sort(detail.Tasks, loc)
	return detail
}
