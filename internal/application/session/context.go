// Package session holds per-login state: the study stopwatch and the
// calendar view. A Context is created at login, persisted in a Store
// between interactions and dropped at logout.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studyquest/studyquest/internal/domain/calendar"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// Context is the state of one logged-in session.
type Context struct {
	ID       string              `json:"id"`
	Username string              `json:"username"`
	Timer    *studylog.Stopwatch `json:"timer"`
	Calendar calendar.State      `json:"calendar"`

	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// New creates a session for username with an idle timer and the calendar
// opened on today's month.
func New(username string, today timeutil.Date, now func() time.Time) *Context {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Context{
		ID:        uuid.NewString(),
		Username:  username,
		Timer:     studylog.NewStopwatch(now),
		Calendar:  calendar.NewState(today),
		CreatedAt: t,
		LastSeen:  t,
	}
}

// Touch records activity.
func (c *Context) Touch(t time.Time) {
	c.LastSeen = t
}

// Encode serializes the session for a Store.
func Encode(c *Context) ([]byte, error) {
	return json.Marshal(c)
}

// Decode restores a session saved by Encode. The timer clock is reset to now.
func Decode(data []byte, now func() time.Time) (*Context, error) {
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if c.Timer == nil {
		c.Timer = studylog.NewStopwatch(now)
	} else {
		c.Timer.SetClock(now)
	}
	return &c, nil
}
