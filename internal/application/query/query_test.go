package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/studyquest/internal/domain/shop"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/internal/infrastructure/persistence/memory"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// 2024-01-15T20:00:00Z is 2024-01-16 in Tokyo.
var fixedNow = time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)

func newReader(store *memory.Store) *Reader {
	clock := Clock{Location: timeutil.DefaultLocation, Now: func() time.Time { return fixedNow }}
	return NewReader(store.Users(), store.Tasks(), store.StudyLogs(), clock, nil)
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	u, err := user.NewUser("alice", "hash", 60)
	require.NoError(t, err)
	u.XP, u.Coins = 120, 350
	u.Unlock(user.CategoryTitle, "Code Wizard")
	require.NoError(t, store.Users().Create(ctx, u))

	addTask := func(id, name string, due timeutil.Date, p task.Priority, done bool) {
		tk, err := task.New(id, "alice", name, due, p)
		require.NoError(t, err)
		if done {
			tk.Status = task.StatusDone
		}
		require.NoError(t, store.Tasks().Create(ctx, tk))
	}
	addTask("t1", "essay", timeutil.NewDate(2024, 1, 16), task.PriorityLow, false)
	addTask("t2", "math", timeutil.NewDate(2024, 1, 16), task.PriorityHigh, false)
	addTask("t3", "read", timeutil.NewDate(2024, 1, 10), task.PriorityHigh, true)

	addLog := func(id, subject string, minutes int, date timeutil.Date) {
		e, err := studylog.New(id, "alice", subject, minutes, date)
		require.NoError(t, err)
		require.NoError(t, store.StudyLogs().Create(ctx, e))
	}
	addLog("l1", "Math", 40, timeutil.NewDate(2024, 1, 16))
	addLog("l2", "English", 30, timeutil.NewDate(2024, 1, 16))
	addLog("l3", "Math", 50, timeutil.NewDate(2024, 1, 12))
	addLog("l4", "History", 20, timeutil.NewDate(2023, 12, 31))
}

func TestGetStatus(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)

	dto := NewGetStatusHandler(newReader(store), user.DefaultLevelWidth).Handle(context.Background(), "alice")

	assert.Equal(t, 120, dto.XP)
	assert.Equal(t, 350, dto.Coins)
	assert.Equal(t, 3, dto.Progression.Level)
	assert.Equal(t, 70, dto.TodayMinutes)
	assert.True(t, dto.GoalReached)
	assert.False(t, dto.GoalRewarded)
	require.Len(t, dto.Categories, len(user.Categories()))

	for _, c := range dto.Categories {
		if c.Category == user.CategoryTitle {
			assert.Equal(t, []string{user.DefaultToken, "Code Wizard"}, c.Unlocked)
		}
	}
}

func TestGetStatus_MissingUserIsZero(t *testing.T) {
	dto := NewGetStatusHandler(newReader(memory.NewStore()), user.DefaultLevelWidth).Handle(context.Background(), "ghost")

	assert.Equal(t, "ghost", dto.Username)
	assert.Zero(t, dto.XP)
	assert.Zero(t, dto.Coins)
	assert.Equal(t, 1, dto.Progression.Level)
	assert.Equal(t, user.DefaultToken, dto.Title)
}

func TestGetStatus_ReadFailureDegrades(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	store.FailReads(errors.New("connection refused"))

	dto := NewGetStatusHandler(newReader(store), user.DefaultLevelWidth).Handle(context.Background(), "alice")

	assert.Zero(t, dto.XP)
	assert.Zero(t, dto.TodayMinutes)
	assert.False(t, dto.GoalReached)
}

func TestGetMonth(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)

	m := NewGetMonthHandler(newReader(store)).Handle(context.Background(), "alice", 2024, time.January)

	day := m.Day(timeutil.NewDate(2024, 1, 16))
	assert.Equal(t, 70, day.StudyMinutes)
	assert.Equal(t, 2, day.PendingTasks)
	assert.Equal(t, 1, m.Day(timeutil.NewDate(2024, 1, 10)).DoneTasks)
	assert.Equal(t, 120, m.TotalMinutes)
	assert.True(t, m.Day(timeutil.NewDate(2024, 1, 1)).IsEmpty())
}

func TestGetMonth_ReadFailureGivesEmptyGrid(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	store.FailReads(errors.New("timeout"))

	m := NewGetMonthHandler(newReader(store)).Handle(context.Background(), "alice", 2024, time.February)

	assert.Len(t, m.Weeks, 5)
	assert.Zero(t, m.TotalMinutes)
}

func TestGetDayDetail(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)

	d := NewGetDayDetailHandler(newReader(store)).Handle(context.Background(), "alice", timeutil.NewDate(2024, 1, 16))

	require.Len(t, d.Tasks, 2)
	assert.Equal(t, "math", d.Tasks[0].Name)
	assert.Len(t, d.Logs, 2)
	assert.Equal(t, 70, d.TotalMinutes())
}

func TestListTasks(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	h := NewListTasksHandler(newReader(store))

	all := h.Handle(context.Background(), "alice", false)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"t2", "t1", "t3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	pending := h.Handle(context.Background(), "alice", true)
	assert.Len(t, pending, 2)

	assert.Empty(t, h.Handle(context.Background(), "bob", false))
}

func TestGetStats(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)

	s := NewGetStatsHandler(newReader(store)).Handle(context.Background(), "alice", 0)

	assert.Equal(t, 140, s.TotalMinutes)
	assert.Equal(t, 4, s.Sessions)
	require.Len(t, s.BySubject, 3)
	assert.Equal(t, studylog.SubjectTotal{Subject: "Math", Minutes: 90}, s.BySubject[0])

	require.Len(t, s.Trend, studylog.DefaultTrendDays)
	assert.Equal(t, timeutil.NewDate(2024, 1, 10), s.Trend[0].Date)
	assert.Equal(t, timeutil.NewDate(2024, 1, 16), s.Trend[6].Date)
	assert.Equal(t, 120, s.TrendMinutes)
}

func TestListShop(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)

	dto := NewListShopHandler(newReader(store), shop.DefaultGachaCost).Handle(context.Background(), "alice")

	assert.Equal(t, 350, dto.Coins)
	assert.Equal(t, len(shop.GachaTitles), dto.Titles)
	assert.Equal(t, 1, dto.Owned)
	require.Len(t, dto.Items, len(shop.Catalog()))
	for _, it := range dto.Items {
		assert.False(t, it.Owned)
		assert.Equal(t, it.Price <= 350, it.Affordable, it.Name)
	}
}
