package studylog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

var tokyo = time.FixedZone("UTC+9", 9*3600)

func TestNew_Validation(t *testing.T) {
	date := timeutil.NewDate(2024, time.January, 15)

	e, err := New("l1", "alice", " Math ", 45, date)
	require.NoError(t, err)
	assert.Equal(t, "Math", e.Subject)
	assert.Equal(t, "2024-01-15", e.StudyDate)

	_, err = New("l2", "alice", "", 45, date)
	assert.True(t, shared.IsValidation(err))

	_, err = New("l3", "alice", "Math", 0, date)
	assert.True(t, shared.IsValidation(err))
}

func TestManualMinutes(t *testing.T) {
	m, err := ManualMinutes(1, 30)
	require.NoError(t, err)
	assert.Equal(t, 90, m)

	_, err = ManualMinutes(0, 0)
	assert.True(t, shared.IsValidation(err))

	_, err = ManualMinutes(-1, 90)
	assert.True(t, shared.IsValidation(err))
}

func TestMinutesOn_NormalizesTimestamps(t *testing.T) {
	entries := []*Entry{
		{Subject: "Math", DurationMinutes: 30, StudyDate: "2024-01-16"},
		{Subject: "Math", DurationMinutes: 20, StudyDate: "2024-01-15T20:00:00Z"}, // 01-16 05:00 local
		{Subject: "Code", DurationMinutes: 40, StudyDate: "2024-01-15T09:00:00Z"}, // 01-15 18:00 local
		{Subject: "Code", DurationMinutes: 99, StudyDate: "garbage"},
	}

	assert.Equal(t, 50, MinutesOn(entries, timeutil.NewDate(2024, time.January, 16), tokyo))
	assert.Equal(t, 40, MinutesOn(entries, timeutil.NewDate(2024, time.January, 15), tokyo))
	assert.Equal(t, 0, TodayMinutes(nil, timeutil.NewDate(2024, time.January, 15), tokyo))
}

func TestBySubject(t *testing.T) {
	entries := []*Entry{
		{Subject: "Math", DurationMinutes: 30},
		{Subject: "Code", DurationMinutes: 50},
		{Subject: "Math", DurationMinutes: 20},
		{Subject: "Art", DurationMinutes: 50},
	}

	assert.Equal(t, []SubjectTotal{
		{Subject: "Art", Minutes: 50},
		{Subject: "Code", Minutes: 50},
		{Subject: "Math", Minutes: 50},
	}, BySubject(entries))
}

func TestTrend_ZeroFills(t *testing.T) {
	end := timeutil.NewDate(2024, time.March, 2)
	entries := []*Entry{
		{DurationMinutes: 30, StudyDate: "2024-03-02"},
		{DurationMinutes: 15, StudyDate: "2024-02-29"},
		{DurationMinutes: 15, StudyDate: "2024-02-28T16:00:00Z"}, // 02-29 local
		{DurationMinutes: 60, StudyDate: "2024-02-20"},           // outside window
	}

	trend := Trend(entries, end, 7, tokyo)
	require.Len(t, trend, 7)
	assert.Equal(t, timeutil.NewDate(2024, time.February, 25), trend[0].Date)
	assert.Equal(t, end, trend[6].Date)

	byDate := map[string]int{}
	for _, d := range trend {
		byDate[d.Date.String()] = d.Minutes
	}
	assert.Equal(t, 30, byDate["2024-02-29"])
	assert.Equal(t, 30, byDate["2024-03-02"])
	assert.Equal(t, 0, byDate["2024-03-01"])

	assert.Len(t, Trend(nil, end, 0, tokyo), DefaultTrendDays)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func TestStopwatch_PauseResume(t *testing.T) {
	clk := newFakeClock()
	sw := NewStopwatch(clk.Now)

	assert.Equal(t, StopwatchIdle, sw.State())
	require.True(t, sw.Start())
	assert.False(t, sw.Start())

	clk.Advance(10 * time.Minute)
	require.True(t, sw.Pause())
	clk.Advance(time.Hour) // paused time does not count
	assert.Equal(t, 10*time.Minute, sw.Elapsed())

	require.True(t, sw.Resume())
	clk.Advance(5*time.Minute + 59*time.Second)
	assert.Equal(t, 15*time.Minute+59*time.Second, sw.Elapsed())

	minutes, ok := sw.Stop()
	require.True(t, ok)
	assert.Equal(t, 15, minutes)
	assert.Equal(t, StopwatchIdle, sw.State())

	_, ok = sw.Stop()
	assert.False(t, ok)
}

func TestStopwatch_MinimumOneMinute(t *testing.T) {
	clk := newFakeClock()
	sw := NewStopwatch(clk.Now)
	sw.Start()
	clk.Advance(5 * time.Second)

	minutes, ok := sw.Stop()
	require.True(t, ok)
	assert.Equal(t, 1, minutes)
}

func TestStopwatch_JSONRestore(t *testing.T) {
	clk := newFakeClock()
	sw := NewStopwatch(clk.Now)
	sw.Start()
	clk.Advance(3 * time.Minute)
	sw.Pause()

	data, err := json.Marshal(sw)
	require.NoError(t, err)

	var restored Stopwatch
	require.NoError(t, json.Unmarshal(data, &restored))
	restored.SetClock(clk.Now)

	assert.Equal(t, StopwatchPaused, restored.State())
	assert.Equal(t, 3*time.Minute, restored.Elapsed())
	require.True(t, restored.Resume())
	clk.Advance(2 * time.Minute)
	minutes, _ := restored.Stop()
	assert.Equal(t, 5, minutes)
}
