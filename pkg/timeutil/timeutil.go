// Package timeutil provides timezone-aware calendar-date utilities for StudyQuest.
// All day boundaries (daily goal, login bonus, calendar cells) are evaluated in a
// single configured application location, JST (UTC+9) unless configured otherwise.
// No external dependencies - uses only standard library.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultLocation is the application location used when none is configured (UTC+9, no DST).
var DefaultLocation = time.FixedZone("Asia/Tokyo", 9*60*60)

// ErrInvalidDate is returned when a value cannot be interpreted as a calendar date.
var ErrInvalidDate = errors.New("timeutil: invalid date")

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatMonth is the year-month format (YYYY-MM).
	FormatMonth = "2006-01"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// timestampLayouts are the full-timestamp shapes the stores are known to return.
// Every layout carries a zone marker; values without one are treated as plain dates.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05.999999999Z07",
}

// ══════════════════════════════════════════════════════════════════════════════
// DATE
// ══════════════════════════════════════════════════════════════════════════════

// Date is a civil calendar date without a time of day or location.
// The zero value is "no date". Dates are comparable with ==.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the normalized date, so NewDate(2024, 2, 30) is 2024-03-01.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = DefaultLocation
	}
	local := t.In(loc)
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) Date {
	return DateOf(time.Now(), loc)
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = DefaultLocation
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses a plain YYYY-MM-DD value.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(FormatDate, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NORMALIZATION
// ══════════════════════════════════════════════════════════════════════════════

// NormalizeDate extracts the calendar date a stored value refers to in loc.
//
// Plain dates ("2024-01-15") pass through unchanged. Full timestamps carrying a
// zone marker ("2024-01-15T20:00:00Z", "...+00:00") are converted to loc before the
// date is taken, so "2024-01-15T20:00:00Z" is 2024-01-16 at UTC+9.
// A timestamp without any zone marker keeps its written date.
func NormalizeDate(raw string, loc *time.Location) (Date, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Date{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	if len(value) == len(FormatDate) {
		return ParseDate(value)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateOf(t, loc), nil
		}
	}

	// Naive timestamp ("2024-01-15T20:00:00"): no zone to convert from.
	if len(value) > len(FormatDate) && (value[10] == 'T' || value[10] == ' ') {
		return ParseDate(value[:len(FormatDate)])
	}

	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// SameDate reports whether raw normalizes to d in loc. Unparseable values never match.
func SameDate(raw string, d Date, loc *time.Location) bool {
	normalized, err := NormalizeDate(raw, loc)
	if err != nil {
		return false
	}
	return normalized == d
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR ARITHMETIC
// ══════════════════════════════════════════════════════════════════════════════

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the given month of year.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// AddMonths shifts (year, month) by delta months, carrying into the year.
func AddMonths(year int, month time.Month, delta int) (int, time.Month) {
	total := year*12 + int(month) - 1 + delta
	y := total / 12
	m := total % 12
	if m < 0 {
		m += 12
		y--
	}
	return y, time.Month(m + 1)
}

// StartOfDay returns midnight of t's date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	return DateOf(t, loc).In(loc)
}

// IsSameDay checks if two instants fall on the same calendar date in loc.
func IsSameDay(t1, t2 time.Time, loc *time.Location) bool {
	return DateOf(t1, loc) == DateOf(t2, loc)
}

// LoadLocation resolves an IANA zone name, falling back to DefaultLocation.
func LoadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return DefaultLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return DefaultLocation
	}
	return loc
}
