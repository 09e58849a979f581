// Package task contains the to-do model: tasks with a due date and priority
// that pay a fixed reward when completed in bulk.
package task

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// Status is the lifecycle state of a task. Completion is irreversible.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusDone
}

// Priority orders pending tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps user input to a priority; empty means medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", shared.Validationf("task", "ParsePriority", "unknown priority %q", s)
	}
}

// rank sorts high first.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// DefaultReward is the XP and coin reward per completed task.
const DefaultReward = 10

// Task is a to-do item owned by a user.
type Task struct {
	ID       string
	Username string
	Name     string
	Status   Status

	// DueDate is kept as stored: a plain date or a zoned timestamp.
	DueDate  string
	Priority Priority
}

// New validates input and returns a pending task.
func New(id, username, name string, due timeutil.Date, priority Priority) (*Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.Validationf("task", "New", "task name is required")
	}
	if username == "" {
		return nil, shared.Validationf("task", "New", "owner is required")
	}
	if due.IsZero() {
		return nil, shared.Validationf("task", "New", "due date is required")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if priority.rank() > 2 {
		return nil, shared.Validationf("task", "New", "unknown priority %q", priority)
	}

	return &Task{
		ID:       id,
		Username: username,
		Name:     name,
		Status:   StatusPending,
		DueDate:  due.String(),
		Priority: priority,
	}, nil
}

// IsPending reports whether the task still counts toward rewards.
func (t *Task) IsPending() bool {
	return t.Status != StatusDone
}

// DueOn returns the normalized due date. ok is false for unparsable values.
func (t *Task) DueOn(loc *time.Location) (timeutil.Date, bool) {
	d, err := timeutil.NormalizeDate(t.DueDate, loc)
	return d, err == nil
}

// Sort orders tasks for display: pending first, then priority high to low,
// then due date ascending. Due dates are compared as local calendar dates in
// loc, so a UTC timestamp sorts on the day it falls on locally; unparseable
// dates go last. The sort is stable.
func Sort(tasks []*Task, loc *time.Location) {
	due := make(map[*Task]timeutil.Date, len(tasks))
	for _, t := range tasks {
		if d, ok := t.DueOn(loc); ok {
			due[t] = d
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.IsPending() != b.IsPending() {
			return a.IsPending()
		}
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		da, okA := due[a]
		db, okB := due[b]
		switch {
		case okA && okB:
			return da.Before(db)
		case okA != okB:
			return okA
		}
		return false
	})
}

// Repository persists tasks.
type Repository interface {
	// ListByOwner returns all tasks of username in no particular order.
	ListByOwner(ctx context.Context, username string) ([]*Task, error)

	// Create inserts a task.
	Create(ctx context.Context, t *Task) error

	// MarkDone flips the given pending tasks of username to done and returns
	// how many rows changed. Unknown, foreign or finished ids are skipped.
	MarkDone(ctx context.Context, username string, ids []string) (int, error)

	// Delete removes a task of username. Returns shared.ErrTaskNotFound if missing.
	Delete(ctx context.Context, username, id string) error
}
