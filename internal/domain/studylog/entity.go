// Package studylog contains timed study records, the local stopwatch that
// produces them, and the aggregations read by the goal tracker and stats views.
package studylog

import (
	"context"
	"strings"
	"time"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// Entry is one study session.
type Entry struct {
	ID              string
	Username        string
	Subject         string
	DurationMinutes int

	// StudyDate is kept as stored: usually YYYY-MM-DD, sometimes a full
	// timestamp with a zone marker.
	StudyDate string
	CreatedAt time.Time
}

// New validates input and returns an entry dated on date.
func New(id, username, subject string, minutes int, date timeutil.Date) (*Entry, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, shared.Validationf("studylog", "New", "subject is required")
	}
	if minutes <= 0 {
		return nil, shared.Validationf("studylog", "New", "duration must be positive, got %d", minutes)
	}
	if username == "" {
		return nil, shared.Validationf("studylog", "New", "owner is required")
	}
	if date.IsZero() {
		return nil, shared.Validationf("studylog", "New", "study date is required")
	}

	return &Entry{
		ID:              id,
		Username:        username,
		Subject:         subject,
		DurationMinutes: minutes,
		StudyDate:       date.String(),
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// ManualMinutes converts a manual hours+minutes entry into minutes.
func ManualMinutes(hours, minutes int) (int, error) {
	if hours < 0 || minutes < 0 {
		return 0, shared.Validationf("studylog", "ManualMinutes", "hours and minutes cannot be negative")
	}
	total := hours*60 + minutes
	if total <= 0 {
		return 0, shared.Validationf("studylog", "ManualMinutes", "duration must be positive")
	}
	return total, nil
}

// LocalDate returns the calendar date of the entry in loc.
func (e *Entry) LocalDate(loc *time.Location) (timeutil.Date, bool) {
	d, err := timeutil.NormalizeDate(e.StudyDate, loc)
	return d, err == nil
}

// Repository persists study log entries.
type Repository interface {
	// ListByOwner returns all entries of username.
	ListByOwner(ctx context.Context, username string) ([]*Entry, error)

	// Get returns one entry of username. Returns shared.ErrStudyLogNotFound if missing.
	Get(ctx context.Context, username, id string) (*Entry, error)

	// Create inserts an entry.
	Create(ctx context.Context, e *Entry) error

	// Delete removes an entry of username. Returns shared.ErrStudyLogNotFound if missing.
	Delete(ctx context.Context, username, id string) error
}
