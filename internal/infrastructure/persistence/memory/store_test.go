package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()

	_, err := repo.Get(ctx, "alice")
	assert.True(t, shared.IsNotFound(err))

	u, err := user.NewUser("alice", "hash", 60)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))
	assert.True(t, shared.IsAlreadyExists(repo.Create(ctx, u)))

	// Callers get copies.
	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	got.Coins = 999
	got.Unlock(user.CategoryTheme, "pixel")
	again, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, again.Coins)
	assert.False(t, again.UnlockedIn(user.CategoryTheme).Contains("pixel"))

	coins := 40
	require.NoError(t, repo.Update(ctx, "alice", user.Patch{Coins: &coins}))
	again, _ = repo.Get(ctx, "alice")
	assert.Equal(t, 40, again.Coins)

	assert.True(t, shared.IsNotFound(repo.Update(ctx, "bob", user.Patch{Coins: &coins})))
}

func TestUserRepository_AdjustBalanceClamps(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()
	u, _ := user.NewUser("alice", "hash", 60)
	require.NoError(t, repo.Create(ctx, u))

	b, err := repo.AdjustBalance(ctx, "alice", 30, 10)
	require.NoError(t, err)
	assert.Equal(t, user.Balance{XP: 30, Coins: 10}, b)

	b, err = repo.AdjustBalance(ctx, "alice", -100, -5)
	require.NoError(t, err)
	assert.Equal(t, user.Balance{XP: 0, Coins: 5}, b)

	_, err = repo.AdjustBalance(ctx, "bob", 1, 1)
	assert.True(t, shared.IsNotFound(err))
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Tasks()
	due := timeutil.NewDate(2024, 1, 16)

	for _, id := range []string{"a", "b", "c"} {
		tk, err := task.New(id, "alice", "task "+id, due, task.PriorityMedium)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, tk))
	}
	other, _ := task.New("x", "bob", "bob's", due, task.PriorityMedium)
	require.NoError(t, repo.Create(ctx, other))

	n, err := repo.MarkDone(ctx, "alice", []string{"a", "b", "x", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Already done tasks do not count twice.
	n, err = repo.MarkDone(ctx, "alice", []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, repo.Delete(ctx, "alice", "x"), shared.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "alice", "b"))

	list, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
}

func TestStudyLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().StudyLogs()

	e, err := studylog.New("l1", "alice", "Math", 45, timeutil.NewDate(2024, 1, 16))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.Get(ctx, "alice", "l1")
	require.NoError(t, err)
	assert.Equal(t, 45, got.DurationMinutes)

	_, err = repo.Get(ctx, "bob", "l1")
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, repo.Delete(ctx, "alice", "l1"))
	assert.True(t, shared.IsNotFound(repo.Delete(ctx, "alice", "l1")))

	list, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_InjectedFailures(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	store.FailReads(boom)
	_, err := store.Users().Get(ctx, "alice")
	assert.ErrorIs(t, err, boom)
	_, err = store.Tasks().ListByOwner(ctx, "alice")
	assert.ErrorIs(t, err, boom)

	store.FailReads(nil)
	store.FailWrites(boom)
	u, _ := user.NewUser("alice", "hash", 60)
	assert.ErrorIs(t, store.Users().Create(ctx, u), boom)
	_, err = store.Users().AdjustBalance(ctx, "alice", 1, 1)
	assert.ErrorIs(t, err, boom)
}
