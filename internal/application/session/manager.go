package session

import (
	"context"
	"strings"
	"time"

	"github.com/studyquest/studyquest/internal/application/command"
	"github.com/studyquest/studyquest/internal/domain/calendar"
	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/pkg/logger"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// Handlers are the commands a session drives.
type Handlers struct {
	Authenticate *command.AuthenticateHandler
	LoginBonus   *command.ClaimLoginBonusHandler
	AddStudyLog  *command.AddStudyLogHandler
}

// Manager runs the session lifecycle.
type Manager struct {
	store    Store
	handlers Handlers
	loc      *time.Location
	now      func() time.Time
	log      *logger.Logger
}

// NewManager creates a Manager. rules supply the clock and location.
func NewManager(store Store, handlers Handlers, rules command.Rules, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	now := rules.Now
	if now == nil {
		now = time.Now
	}
	loc := rules.Location
	if loc == nil {
		loc = timeutil.DefaultLocation
	}
	return &Manager{
		store:    store,
		handlers: handlers,
		loc:      loc,
		now:      now,
		log:      log.With(logger.Component("session")),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// LoginResult is returned by Login.
type LoginResult struct {
	Session *Context
	Bonus   *command.ClaimLoginBonusResult
}

// Login authenticates, opens a session and claims the daily login bonus.
// A failed bonus write does not fail the login.
func (m *Manager) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := m.handlers.Authenticate.Handle(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sc := New(u.Username, timeutil.DateOf(m.now(), m.loc), m.now)
	if err := m.store.Save(ctx, sc); err != nil {
		m.log.Error("session save failed", logger.Username(u.Username), logger.Err(err))
		return nil, shared.Unavailable("session", "Login", err)
	}

	result := &LoginResult{Session: sc}
	bonus, err := m.handlers.LoginBonus.Handle(ctx, command.ClaimLoginBonusCommand{Username: u.Username})
	if err != nil {
		m.log.Warn("login bonus not granted", logger.Username(u.Username), logger.Err(err))
	} else {
		result.Bonus = bonus
	}

	m.log.Info("session opened", logger.Username(u.Username), logger.SessionID(sc.ID))
	return result, nil
}

// Logout drops the session. A running timer is discarded.
func (m *Manager) Logout(ctx context.Context, id string) error {
	sc, err := m.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if sc.Timer.State() != studylog.StopwatchIdle {
		m.log.Warn("discarding unfinished timer", logger.SessionID(id), logger.Duration("elapsed", sc.Timer.Elapsed()))
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return shared.Unavailable("session", "Logout", err)
	}
	m.log.Info("session closed", logger.Username(sc.Username), logger.SessionID(id))
	return nil
}

// Get loads a session and records the access.
func (m *Manager) Get(ctx context.Context, id string) (*Context, error) {
	return m.update(ctx, id, func(*Context) error { return nil })
}

// update loads the session, applies fn and saves it when fn succeeds.
func (m *Manager) update(ctx context.Context, id string, fn func(*Context) error) (*Context, error) {
	sc, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sc); err != nil {
		return nil, err
	}
	sc.Touch(m.now())
	if err := m.store.Save(ctx, sc); err != nil {
		return nil, shared.Unavailable("session", "Save", err)
	}
	return sc, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY TIMER
// ══════════════════════════════════════════════════════════════════════════════

// StartTimer starts a fresh measurement.
func (m *Manager) StartTimer(ctx context.Context, id string) (*Context, error) {
	return m.update(ctx, id, func(sc *Context) error {
		if !sc.Timer.Start() {
			return shared.ErrTimerRunning
		}
		return nil
	})
}

// PauseTimer freezes the running timer.
func (m *Manager) PauseTimer(ctx context.Context, id string) (*Context, error) {
	return m.update(ctx, id, func(sc *Context) error {
		if !sc.Timer.Pause() {
			return shared.Validationf("session", "PauseTimer", "timer is %s", sc.Timer.State())
		}
		return nil
	})
}

// ResumeTimer continues a paused timer.
func (m *Manager) ResumeTimer(ctx context.Context, id string) (*Context, error) {
	return m.update(ctx, id, func(sc *Context) error {
		if !sc.Timer.Resume() {
			return shared.Validationf("session", "ResumeTimer", "timer is %s", sc.Timer.State())
		}
		return nil
	})
}

// StopTimer ends the measurement and records it as one study log for
// subject. If the write fails the timer keeps its state so the stop can be
// retried.
func (m *Manager) StopTimer(ctx context.Context, id, subject string) (*command.AddStudyLogResult, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, shared.Validationf("session", "StopTimer", "subject is required")
	}

	var result *command.AddStudyLogResult
	_, err := m.update(ctx, id, func(sc *Context) error {
		saved := *sc.Timer
		minutes, ok := sc.Timer.Stop()
		if !ok {
			return shared.ErrTimerIdle
		}
		res, err := m.handlers.AddStudyLog.Handle(ctx, command.AddStudyLogCommand{
			Username: sc.Username,
			Subject:  subject,
			Minutes:  minutes,
		})
		if err != nil {
			*sc.Timer = saved
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// Navigate moves the calendar view by delta months.
func (m *Manager) Navigate(ctx context.Context, id string, delta int) (*Context, error) {
	return m.update(ctx, id, func(sc *Context) error {
		sc.Calendar.Navigate(delta)
		return nil
	})
}

// Today resets the calendar view to the current month.
func (m *Manager) Today(ctx context.Context, id string) (*Context, error) {
	return m.update(ctx, id, func(sc *Context) error {
		today := timeutil.DateOf(m.now(), m.loc)
		sc.Calendar.Year, sc.Calendar.Month = today.Year, today.Month
		return nil
	})
}

// Interact processes a calendar interaction. fresh is false when ev repeats
// the previous interaction, in which case nothing changes.
func (m *Manager) Interact(ctx context.Context, id string, ev calendar.Interaction) (sc *Context, fresh bool, err error) {
	sc, err = m.update(ctx, id, func(sc *Context) error {
		if !sc.Calendar.Observe(ev) {
			return nil
		}
		fresh = true
		if ev.Kind == calendar.InteractionSelectDay {
			sc.Calendar.Select(ev.Date)
		}
		return nil
	})
	return sc, fresh, err
}
