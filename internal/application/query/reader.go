// Package query contains read operations (CQRS - Queries).
// Reads are fail-open: a missing or unreadable record degrades to an empty
// or zero result and the failure is logged at WARN.
package query

import (
	"context"
	"time"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/pkg/logger"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// Clock supplies "today" for read models.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

// Today returns the local date.
func (c Clock) Today() timeutil.Date {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return timeutil.DateOf(now(), c.Location)
}

// Reader wraps the repositories with fail-open reads.
type Reader struct {
	users user.Repository
	tasks task.Repository
	logs  studylog.Repository
	clock Clock
	log   *logger.Logger
}

// NewReader creates a Reader.
func NewReader(users user.Repository, tasks task.Repository, logs studylog.Repository, clock Clock, log *logger.Logger) *Reader {
	if clock.Location == nil {
		clock.Location = timeutil.DefaultLocation
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Reader{
		users: users,
		tasks: tasks,
		logs:  logs,
		clock: clock,
		log:   log.With(logger.Component("query")),
	}
}

// Location returns the configured location.
func (r *Reader) Location() *time.Location {
	return r.clock.Location
}

// Today returns the local date.
func (r *Reader) Today() timeutil.Date {
	return r.clock.Today()
}

// User returns the user or the zero-valued stand-in.
func (r *Reader) User(ctx context.Context, username string) *user.User {
	u, err := r.users.Get(ctx, username)
	if err != nil {
		r.degrade("user", username, err)
		return user.Zero(username)
	}
	return u
}

// Tasks returns the user's tasks or nil.
func (r *Reader) Tasks(ctx context.Context, username string) []*task.Task {
	tasks, err := r.tasks.ListByOwner(ctx, username)
	if err != nil {
		r.degrade("tasks", username, err)
		return nil
	}
	return tasks
}

// StudyLogs returns the user's study logs or nil.
func (r *Reader) StudyLogs(ctx context.Context, username string) []*studylog.Entry {
	entries, err := r.logs.ListByOwner(ctx, username)
	if err != nil {
		r.degrade("study_logs", username, err)
		return nil
	}
	return entries
}

func (r *Reader) degrade(what, username string, err error) {
	if shared.IsNotFound(err) {
		r.log.Debug(what+" not found", logger.Username(username))
		return
	}
	r.log.Warn(what+" read failed, using empty result", logger.Username(username), logger.Err(err))
}
