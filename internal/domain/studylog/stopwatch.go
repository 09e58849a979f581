package studylog

import (
	"encoding/json"
	"time"
)

// StopwatchState is the phase of a stopwatch.
type StopwatchState string

const (
	StopwatchIdle    StopwatchState = "idle"
	StopwatchRunning StopwatchState = "running"
	StopwatchPaused  StopwatchState = "paused"
)

// Stopwatch accumulates study time locally. It never touches the store;
// the caller writes one entry when Stop returns.
type Stopwatch struct {
	state       StopwatchState
	startedAt   time.Time
	accumulated time.Duration
	now         func() time.Time
}

// NewStopwatch returns an idle stopwatch. now may be nil.
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{state: StopwatchIdle, now: now}
}

// State returns the current phase.
func (s *Stopwatch) State() StopwatchState {
	if s.state == "" {
		return StopwatchIdle
	}
	return s.state
}

// Start begins a fresh measurement. Returns false if already started.
func (s *Stopwatch) Start() bool {
	if s.State() != StopwatchIdle {
		return false
	}
	s.state = StopwatchRunning
	s.startedAt = s.clock()
	s.accumulated = 0
	return true
}

// Pause freezes the accumulated duration.
func (s *Stopwatch) Pause() bool {
	if s.state != StopwatchRunning {
		return false
	}
	s.accumulated += s.clock().Sub(s.startedAt)
	s.state = StopwatchPaused
	return true
}

// Resume continues accumulation from a new start instant.
func (s *Stopwatch) Resume() bool {
	if s.state != StopwatchPaused {
		return false
	}
	s.startedAt = s.clock()
	s.state = StopwatchRunning
	return true
}

// Elapsed returns the accumulated duration including the running segment.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.state == StopwatchRunning {
		return s.accumulated + s.clock().Sub(s.startedAt)
	}
	return s.accumulated
}

// Stop ends the measurement and returns whole minutes, at least 1.
// ok is false if the stopwatch was idle.
func (s *Stopwatch) Stop() (minutes int, ok bool) {
	if s.State() == StopwatchIdle {
		return 0, false
	}
	elapsed := s.Elapsed()
	s.state = StopwatchIdle
	s.accumulated = 0
	s.startedAt = time.Time{}
	return DurationMinutes(elapsed), true
}

// DurationMinutes floors d to minutes with a minimum of 1.
func DurationMinutes(d time.Duration) int {
	m := int(d / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

type stopwatchJSON struct {
	State       StopwatchState `json:"state"`
	StartedAt   time.Time      `json:"started_at,omitempty"`
	Accumulated time.Duration  `json:"accumulated"`
}

// MarshalJSON persists the stopwatch with a session.
func (s *Stopwatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(stopwatchJSON{
		State:       s.State(),
		StartedAt:   s.startedAt,
		Accumulated: s.accumulated,
	})
}

// UnmarshalJSON restores a stopwatch saved by MarshalJSON.
func (s *Stopwatch) UnmarshalJSON(data []byte) error {
	var v stopwatchJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.state = v.State
	s.startedAt = v.StartedAt
	s.accumulated = v.Accumulated
	return nil
}

// SetClock replaces the time source, used after restoring from JSON.
func (s *Stopwatch) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Stopwatch) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
