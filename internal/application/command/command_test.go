package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/shop"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/internal/infrastructure/persistence/memory"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// 2024-01-15T20:00:00Z is 2024-01-16 05:00 in Tokyo.
var fixedNow = time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *recorder) Publish(ev shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) count(t shared.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.EventType() == t {
			n++
		}
	}
	return n
}

type fixture struct {
	store  *memory.Store
	events *recorder
	rules  Rules
	ledger *Ledger
}

func newFixture(t *testing.T, atomic bool) *fixture {
	t.Helper()
	rules := DefaultRules()
	rules.Now = func() time.Time { return fixedNow }
	rules.AtomicLedger = atomic

	store := memory.NewStore()
	events := &recorder{}
	return &fixture{
		store:  store,
		events: events,
		rules:  rules,
		ledger: NewLedger(store.Users(), events, rules, nil),
	}
}

func (f *fixture) seedUser(t *testing.T, name string, xp, coins int) {
	t.Helper()
	u, err := user.NewUser(name, "hash", 60)
	require.NoError(t, err)
	u.XP, u.Coins = xp, coins
	require.NoError(t, f.store.Users().Create(context.Background(), u))
}

func (f *fixture) user(t *testing.T, name string) *user.User {
	t.Helper()
	u, err := f.store.Users().Get(context.Background(), name)
	require.NoError(t, err)
	return u
}

func forEachLedgerMode(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for _, atomic := range []bool{false, true} {
		name := "read_then_write"
		if atomic {
			name = "atomic"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, atomic)
			require.Equal(t, atomic, f.ledger.Atomic())
			fn(t, f)
		})
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger
// ═══════════════════════════════════════════════════════════════════════════

func TestLedger_RewardClampsAndEmitsLevelUp(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.seedUser(t, "alice", 40, 5)

		bal, err := f.ledger.Reward(ctx, "alice", "test", 20, -30)
		require.NoError(t, err)
		assert.Equal(t, user.Balance{XP: 60, Coins: 0}, bal)
		assert.Equal(t, 1, f.events.count(shared.EventLevelUp))
		assert.Equal(t, 1, f.events.count(shared.EventRewardApplied))

		u := f.user(t, "alice")
		assert.Equal(t, 60, u.XP)
		assert.Equal(t, 0, u.Coins)
	})
}

func TestLedger_MissingUserIsZeroWithoutWrite(t *testing.T) {
	f := newFixture(t, false)

	bal, err := f.ledger.Reward(context.Background(), "ghost", "test", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, user.Balance{}, bal)
	assert.Zero(t, f.events.count(shared.EventRewardApplied))

	_, err = f.store.Users().Get(context.Background(), "ghost")
	assert.True(t, shared.IsNotFound(err))
}

func TestLedger_ReadFailureDegrades(t *testing.T) {
	f := newFixture(t, false)
	f.seedUser(t, "alice", 10, 10)
	f.store.FailReads(errors.New("connection refused"))

	bal, err := f.ledger.Reward(context.Background(), "alice", "test", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, user.Balance{}, bal)

	f.store.FailReads(nil)
	assert.Equal(t, 10, f.user(t, "alice").XP, "nothing was written")
}

func TestLedger_WriteFailureIsUnavailable(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		f.seedUser(t, "alice", 10, 10)
		f.store.FailWrites(errors.New("disk full"))

		_, err := f.ledger.Reward(context.Background(), "alice", "test", 10, 10)
		assert.True(t, shared.IsUnavailable(err))
		assert.Zero(t, f.events.count(shared.EventRewardApplied))
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// Tasks
// ═══════════════════════════════════════════════════════════════════════════

func TestCompleteTasks_ThreeTasks(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.seedUser(t, "alice", 0, 0)

		add := NewAddTaskHandler(f.store.Tasks(), f.rules, nil)
		var ids []string
		for _, name := range []string{"a", "b", "c"} {
			tk, err := add.Handle(ctx, AddTaskCommand{Username: "alice", Name: name})
			require.NoError(t, err)
			assert.Equal(t, "2024-01-16", tk.DueDate, "defaults to local today")
			ids = append(ids, tk.ID)
		}

		h := NewCompleteTasksHandler(f.store.Tasks(), f.ledger, nil)
		res, err := h.Handle(ctx, CompleteTasksCommand{Username: "alice", TaskIDs: ids})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Completed)
		assert.Equal(t, 30, res.XPGained)
		assert.Equal(t, BalanceView{XP: 30, Coins: 30, Level: 1}, res.Balance)

		tasks, err := f.store.Tasks().ListByOwner(ctx, "alice")
		require.NoError(t, err)
		for _, tk := range tasks {
			assert.Equal(t, task.StatusDone, tk.Status)
		}

		// Completing again pays nothing.
		res, err = h.Handle(ctx, CompleteTasksCommand{Username: "alice", TaskIDs: ids})
		require.NoError(t, err)
		assert.Zero(t, res.Completed)
		assert.Equal(t, 30, f.user(t, "alice").Coins)
	})
}

func TestCompleteTasks_SkipsForeignAndDuplicateIDs(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedUser(t, "alice", 0, 0)
	f.seedUser(t, "bob", 0, 0)

	add := NewAddTaskHandler(f.store.Tasks(), f.rules, nil)
	mine, err := add.Handle(ctx, AddTaskCommand{Username: "alice", Name: "mine"})
	require.NoError(t, err)
	theirs, err := add.Handle(ctx, AddTaskCommand{Username: "bob", Name: "theirs"})
	require.NoError(t, err)

	h := NewCompleteTasksHandler(f.store.Tasks(), f.ledger, nil)
	res, err := h.Handle(ctx, CompleteTasksCommand{Username: "alice", TaskIDs: []string{mine.ID, mine.ID, theirs.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 10, f.user(t, "alice").XP)
	assert.Equal(t, 0, f.user(t, "bob").XP)
}

func TestAddTask_Validation(t *testing.T) {
	f := newFixture(t, false)
	add := NewAddTaskHandler(f.store.Tasks(), f.rules, nil)

	_, err := add.Handle(context.Background(), AddTaskCommand{Username: "alice", Name: " "})
	assert.True(t, shared.IsValidation(err))

	_, err = add.Handle(context.Background(), AddTaskCommand{Username: "alice", Name: "x", DueDate: "tomorrow"})
	assert.True(t, shared.IsValidation(err))

	_, err = add.Handle(context.Background(), AddTaskCommand{Username: "alice", Name: "x", Priority: "urgent"})
	assert.True(t, shared.IsValidation(err))
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedUser(t, "alice", 0, 0)

	tk, err := NewAddTaskHandler(f.store.Tasks(), f.rules, nil).Handle(ctx, AddTaskCommand{Username: "alice", Name: "x"})
	require.NoError(t, err)

	del := NewDeleteTaskHandler(f.store.Tasks(), nil)
	require.NoError(t, del.Handle(ctx, DeleteTaskCommand{Username: "alice", TaskID: tk.ID}))
	require.NoError(t, del.Handle(ctx, DeleteTaskCommand{Username: "alice", TaskID: tk.ID}), "second delete is a no-op")

	tasks, err := f.store.Tasks().ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// ═══════════════════════════════════════════════════════════════════════════
// Study logs & goal bonus
// ═══════════════════════════════════════════════════════════════════════════

func TestAddStudyLog_GoalBonusOncePerDay(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.seedUser(t, "alice", 0, 0)
		h := NewAddStudyLogHandler(f.store.StudyLogs(), f.ledger, nil)

		first, err := h.Handle(ctx, AddStudyLogCommand{Username: "alice", Subject: "Math", Minutes: 60})
		require.NoError(t, err)
		assert.Equal(t, 100, first.GoalBonus)
		assert.Equal(t, 60, first.TodayMinutes)
		assert.Equal(t, BalanceView{XP: 60, Coins: 160, Level: 2}, first.Balance)

		second, err := h.Handle(ctx, AddStudyLogCommand{Username: "alice", Subject: "Code", Minutes: 90})
		require.NoError(t, err)
		assert.Zero(t, second.GoalBonus)
		assert.Equal(t, 150, second.TodayMinutes)

		u := f.user(t, "alice")
		assert.Equal(t, 150, u.XP)
		assert.Equal(t, 250, u.Coins)
		require.NotNil(t, u.LastGoalRewardDate)
		assert.Equal(t, timeutil.NewDate(2024, time.January, 16), *u.LastGoalRewardDate)
		assert.Equal(t, 1, f.events.count(shared.EventGoalBonusGranted))
	})
}

func TestAddStudyLog_PastDateDoesNotCountToday(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedUser(t, "alice", 0, 0)
	h := NewAddStudyLogHandler(f.store.StudyLogs(), f.ledger, nil)

	res, err := h.Handle(ctx, AddStudyLogCommand{Username: "alice", Subject: "Math", Minutes: 120, StudyDate: "2024-01-10"})
	require.NoError(t, err)
	assert.Zero(t, res.GoalBonus)
	assert.Zero(t, res.TodayMinutes)
	assert.Equal(t, 120, f.user(t, "alice").Coins)
}

func TestAddStudyLog_Validation(t *testing.T) {
	f := newFixture(t, false)
	h := NewAddStudyLogHandler(f.store.StudyLogs(), f.ledger, nil)

	_, err := h.Handle(context.Background(), AddStudyLogCommand{Username: "alice", Subject: "", Minutes: 10})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), AddStudyLogCommand{Username: "alice", Subject: "Math", Minutes: 0})
	assert.True(t, shared.IsValidation(err))
}

func TestAddStudyLog_FailedRewardRemovesEntry(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.seedUser(t, "alice", 0, 0)
		h := NewAddStudyLogHandler(f.store.StudyLogs(), f.ledger, nil)

		f.store.FailUserWrites(errors.New("connection reset"))
		_, err := h.Handle(ctx, AddStudyLogCommand{Username: "alice", Subject: "Math", Minutes: 30})
		assert.True(t, shared.IsUnavailable(err))

		logs, err := f.store.StudyLogs().ListByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, logs)
		assert.Zero(t, f.events.count(shared.EventStudyLogged))

		// Retrying after recovery stores one entry and pays once.
		f.store.FailUserWrites(nil)
		res, err := h.Handle(ctx, AddStudyLogCommand{Username: "alice", Subject: "Math", Minutes: 30})
		require.NoError(t, err)
		assert.Equal(t, 30, res.TodayMinutes)
		assert.Zero(t, res.GoalBonus)

		logs, err = f.store.StudyLogs().ListByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, logs, 1)

		u := f.user(t, "alice")
		assert.Equal(t, 30, u.XP)
		assert.Equal(t, 30, u.Coins)
		assert.Equal(t, 1, f.events.count(shared.EventStudyLogged))
	})
}

func TestDeleteStudyLog_ReversesClamped(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.seedUser(t, "alice", 0, 0)

		added, err := NewAddStudyLogHandler(f.store.StudyLogs(), f.ledger, nil).
			Handle(ctx, AddStudyLogCommand{Username: "alice", Subject: "Math", Minutes: 45, StudyDate: "2024-01-10"})
		require.NoError(t, err)

		// Spend part of the coins so the reversal has to clamp.
		_, err = f.ledger.Reward(ctx, "alice", "spend", 0, -40)
		require.NoError(t, err)

		del := NewDeleteStudyLogHandler(f.store.StudyLogs(), f.ledger, nil)
		res, err := del.Handle(ctx, DeleteStudyLogCommand{Username: "alice", LogID: added.Entry.ID})
		require.NoError(t, err)
		assert.True(t, res.Deleted)
		assert.Equal(t, 45, res.ReversedXP)
		assert.Equal(t, 5, res.ReversedCoins, "only the 5 coins left can be taken back")
		assert.Equal(t, 0, res.Balance.XP)
		assert.Equal(t, 0, res.Balance.Coins)

		res, err = del.Handle(ctx, DeleteStudyLogCommand{Username: "alice", LogID: added.Entry.ID})
		require.NoError(t, err)
		assert.False(t, res.Deleted)
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// Shop
// ═══════════════════════════════════════════════════════════════════════════

func pickTitle(title string) shop.Picker {
	return func(int) int {
		for i, v := range shop.GachaTitles {
			if v == title {
				return i
			}
		}
		return 0
	}
}

func TestDrawGacha_InsufficientFunds(t *testing.T) {
	f := newFixture(t, false)
	f.seedUser(t, "alice", 0, 50)

	h := NewDrawGachaHandler(f.ledger, pickTitle("Task Slayer"), nil)
	_, err := h.Handle(context.Background(), DrawGachaCommand{Username: "alice"})
	assert.True(t, shared.IsInsufficientFunds(err))

	u := f.user(t, "alice")
	assert.Equal(t, 50, u.Coins)
	assert.Equal(t, []string{user.DefaultToken}, u.UnlockedIn(user.CategoryTitle).Items())
}

func TestDrawGacha_DuplicateReequips(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.seedUser(t, "alice", 0, 250)

		first := NewDrawGachaHandler(f.ledger, pickTitle("Code Wizard"), nil)
		_, err := first.Handle(ctx, DrawGachaCommand{Username: "alice"})
		require.NoError(t, err)

		other := NewDrawGachaHandler(f.ledger, pickTitle("Night Owl"), nil)
		_, err = other.Handle(ctx, DrawGachaCommand{Username: "alice"})
		require.NoError(t, err)
		assert.Equal(t, "Night Owl", f.user(t, "alice").Title())

		// 50 coins left would fail, so top up to 150 for the duplicate draw.
		_, err = f.ledger.Reward(ctx, "alice", "top_up", 0, 100)
		require.NoError(t, err)
		before := f.user(t, "alice").UnlockedIn(user.CategoryTitle).Items()

		res, err := first.Handle(ctx, DrawGachaCommand{Username: "alice"})
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		assert.Equal(t, 50, res.Balance.Coins)

		u := f.user(t, "alice")
		assert.Equal(t, 50, u.Coins)
		assert.Equal(t, before, u.UnlockedIn(user.CategoryTitle).Items())
		assert.Equal(t, "Code Wizard", u.Title())
	})
}

func TestBuyCosmetic(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.seedUser(t, "alice", 0, 900)
		h := NewBuyCosmeticHandler(f.ledger, nil)

		res, err := h.Handle(ctx, BuyCosmeticCommand{Username: "alice", Category: user.CategoryTheme, Item: "handwritten"})
		require.NoError(t, err)
		assert.Equal(t, 800, res.Item.Price)
		assert.Equal(t, 100, res.Balance.Coins)

		_, err = h.Handle(ctx, BuyCosmeticCommand{Username: "alice", Category: user.CategoryTheme, Item: "pixel"})
		assert.True(t, shared.IsInsufficientFunds(err))

		u := f.user(t, "alice")
		assert.Equal(t, 100, u.Coins)
		assert.Equal(t, []string{"standard", "handwritten"}, u.UnlockedIn(user.CategoryTheme).Items())
		assert.Equal(t, 1, f.events.count(shared.EventItemPurchased))
	})
}

func TestEquip(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedUser(t, "alice", 0, 600)
	h := NewEquipHandler(f.ledger, nil)

	err := h.Handle(ctx, EquipCommand{Username: "alice", Category: user.CategoryTheme, Item: "pixel"})
	assert.ErrorIs(t, err, shared.ErrNotUnlocked)

	_, err = NewBuyCosmeticHandler(f.ledger, nil).Handle(ctx, BuyCosmeticCommand{Username: "alice", Category: user.CategoryTheme, Item: "pixel"})
	require.NoError(t, err)

	require.NoError(t, h.Handle(ctx, EquipCommand{Username: "alice", Category: user.CategoryTheme, Item: "pixel"}))
	assert.Equal(t, "pixel", f.user(t, "alice").CurrentIn(user.CategoryTheme))
	assert.Equal(t, 1, f.events.count(shared.EventItemEquipped))
}

// ═══════════════════════════════════════════════════════════════════════════
// Accounts
// ═══════════════════════════════════════════════════════════════════════════

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	reg := NewRegisterHandler(f.store.Users(), f.events, f.rules, nil).WithHashCost(bcrypt.MinCost)

	u, err := reg.Handle(ctx, RegisterCommand{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.Equal(t, 60, u.DailyGoal)
	assert.Equal(t, 1, f.events.count(shared.EventUserRegistered))

	_, err = reg.Handle(ctx, RegisterCommand{Username: "alice", Password: "other1"})
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = reg.Handle(ctx, RegisterCommand{Username: "bob", Password: "x"})
	assert.True(t, shared.IsValidation(err))

	auth := NewAuthenticateHandler(f.store.Users(), nil)
	got, err := auth.Handle(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = auth.Handle(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = auth.Handle(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestClaimLoginBonus(t *testing.T) {
	forEachLedgerMode(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.seedUser(t, "alice", 0, 0)
		h := NewClaimLoginBonusHandler(f.ledger, nil)

		res, err := h.Handle(ctx, ClaimLoginBonusCommand{Username: "alice"})
		require.NoError(t, err)
		assert.True(t, res.Granted)
		assert.Equal(t, 50, res.Balance.Coins)

		res, err = h.Handle(ctx, ClaimLoginBonusCommand{Username: "alice"})
		require.NoError(t, err)
		assert.False(t, res.Granted)

		u := f.user(t, "alice")
		assert.Equal(t, 50, u.Coins)
		require.NotNil(t, u.LastLoginDate)
		assert.Equal(t, "2024-01-16", u.LastLoginDate.String())
	})
}

func TestUpdatePreferences(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedUser(t, "alice", 0, 0)
	h := NewUpdatePreferencesHandler(f.store.Users(), nil)

	goal, color := 90, "#00FF00"
	require.NoError(t, h.Handle(ctx, UpdatePreferencesCommand{Username: "alice", DailyGoal: &goal, AccentColor: &color}))

	u := f.user(t, "alice")
	assert.Equal(t, 90, u.DailyGoal)
	assert.Equal(t, "#00FF00", u.AccentColor)

	zero := 0
	assert.True(t, shared.IsValidation(h.Handle(ctx, UpdatePreferencesCommand{Username: "alice", DailyGoal: &zero})))

	bad := "green"
	assert.True(t, shared.IsValidation(h.Handle(ctx, UpdatePreferencesCommand{Username: "alice", MainTextColor: &bad})))
}
