// Package calendar builds the navigable month view: the Sunday-first grid,
// per-day aggregation of tasks and study logs, and the selection state with
// de-duplication of repeated interactions.
package calendar

import (
	"time"

	"github.com/studyquest/studyquest/pkg/timeutil"
)

// InteractionKind identifies what the user did in the calendar view.
type InteractionKind string

const (
	InteractionSelectDay  InteractionKind = "select_day"
	InteractionSelectTask InteractionKind = "select_task"
	InteractionSelectLog  InteractionKind = "select_log"
)

// Interaction is a comparable UI event. Two interactions are the same event
// if all fields are equal.
type Interaction struct {
	Kind InteractionKind `json:"kind"`
	Date timeutil.Date   `json:"date"`
	Ref  string          `json:"ref,omitempty"`
}

// IsZero reports whether no interaction is recorded.
func (i Interaction) IsZero() bool {
	return i == Interaction{}
}

// State is the per-session calendar state.
type State struct {
	Year            int           `json:"year"`
	Month           time.Month    `json:"month"`
	Selected        timeutil.Date `json:"selected"`
	LastInteraction Interaction   `json:"last_interaction"`
}

// NewState opens the view on the month of today with nothing selected.
func NewState(today timeutil.Date) State {
	return State{Year: today.Year, Month: today.Month}
}

// Navigate moves the view by delta months, carrying into the year for any delta.
func (s *State) Navigate(delta int) {
	s.Year, s.Month = timeutil.AddMonths(s.Year, s.Month, delta)
}

// Select marks d as the selected date. The view month is not changed.
func (s *State) Select(d timeutil.Date) {
	s.Selected = d
}

// ClearSelection drops the selected date.
func (s *State) ClearSelection() {
	s.Selected = timeutil.Date{}
}

// Observe records ev and reports whether it is new. An event equal to the
// last processed one is ignored and must not trigger a detail view again.
func (s *State) Observe(ev Interaction) bool {
	if ev == s.LastInteraction {
		return false
	}
	s.LastInteraction = ev
	return true
}
