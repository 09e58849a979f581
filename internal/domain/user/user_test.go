package user

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	u, err := NewUser("alice", "hash", DefaultDailyGoal)
	require.NoError(t, err)
	return u
}

func TestNewUser_Defaults(t *testing.T) {
	u := newTestUser(t)

	for _, c := range Categories() {
		assert.Equal(t, []string{DefaultToken}, u.UnlockedIn(c).Items(), c)
		assert.Equal(t, DefaultToken, u.CurrentIn(c), c)
	}
	assert.Equal(t, "alice", u.Nickname)
	assert.Zero(t, u.XP)
	assert.Zero(t, u.Coins)
	assert.Nil(t, u.LastGoalRewardDate)

	_, err := NewUser("  ", "hash", 60)
	assert.True(t, shared.IsValidation(err))

	_, err = NewUser("bob", "hash", 0)
	assert.True(t, shared.IsValidation(err))
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"theme", CategoryTheme},
		{"Themes", CategoryTheme},
		{"titles", CategoryTitle},
		{"wallpaper", CategoryWallpaper},
		{"bgm", CategoryBGM},
		{"bgms", CategoryBGM},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseCategory("hat")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCategoryColumns(t *testing.T) {
	assert.Equal(t, "unlocked_themes", CategoryTheme.UnlockedColumn())
	assert.Equal(t, "unlocked_bgms", CategoryBGM.UnlockedColumn())
	assert.Equal(t, "current_wallpaper", CategoryWallpaper.CurrentColumn())
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger
// ═══════════════════════════════════════════════════════════════════════════

func TestApplyReward_Clamps(t *testing.T) {
	u := newTestUser(t)
	u.XP, u.Coins = 20, 5

	got := u.ApplyReward(-30, -30)
	assert.Equal(t, Balance{XP: 0, Coins: 0}, got)

	got = u.ApplyReward(45, 45)
	assert.Equal(t, Balance{XP: 45, Coins: 45}, got)
}

func TestApplyReward_NeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	u := newTestUser(t)

	for i := 0; i < 1000; i++ {
		u.ApplyReward(rng.Intn(201)-100, rng.Intn(201)-100)
		require.GreaterOrEqual(t, u.XP, 0)
		require.GreaterOrEqual(t, u.Coins, 0)
	}
}

func TestStudyLogReversal(t *testing.T) {
	// Deleting an M minute log removes min(M, balance) from each balance.
	u := newTestUser(t)
	u.XP, u.Coins = 90, 20

	u.ApplyReward(-45, -45)
	assert.Equal(t, 45, u.XP)
	assert.Equal(t, 0, u.Coins)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, 1, Level(0, 50))
	assert.Equal(t, 1, Level(49, 50))
	assert.Equal(t, 2, Level(50, 50))
	assert.Equal(t, 3, Level(149, 50))
	assert.Equal(t, 2, Level(50, 0), "falls back to default width")

	prev := Level(0, 50)
	for xp := 1; xp < 2000; xp++ {
		l := Level(xp, 50)
		require.GreaterOrEqual(t, l, prev)
		prev = l
	}
}

func TestProgression(t *testing.T) {
	p := NewProgression(120, 50)
	assert.Equal(t, 3, p.Level)
	assert.InDelta(t, 0.4, p.Fraction, 1e-9)
	assert.Equal(t, 30, p.ToNext)

	assert.Equal(t, 50, XPToNextLevel(0, 50))
	assert.InDelta(t, 0.0, Progress(100, 50), 1e-9)
}

// ═══════════════════════════════════════════════════════════════════════════
// Unlock set
// ═══════════════════════════════════════════════════════════════════════════

func TestUnlockSet(t *testing.T) {
	s := NewUnlockSet()
	assert.Equal(t, []string{"standard"}, s.Items())

	s, added := s.With("pixel")
	assert.True(t, added)
	s, added = s.With("pixel")
	assert.False(t, added)
	s, _ = s.With("handwritten")

	assert.Equal(t, []string{"standard", "pixel", "handwritten"}, s.Items())
	assert.Equal(t, "standard,pixel,handwritten", s.String())
	assert.True(t, s.Contains("pixel"))
	assert.False(t, s.Contains("pix"))
}

func TestParseUnlockSet(t *testing.T) {
	s := ParseUnlockSet("pixel, standard,,pixel,handwritten")
	assert.Equal(t, []string{"standard", "pixel", "handwritten"}, s.Items())

	assert.Equal(t, []string{"standard"}, ParseUnlockSet("").Items())

	var zero UnlockSet
	assert.True(t, zero.Contains(DefaultToken))
	assert.Equal(t, 1, zero.Len())
}

func TestPurchase(t *testing.T) {
	u := newTestUser(t)
	u.Coins = 600

	require.NoError(t, u.Purchase(CategoryTheme, "pixel", 500))
	assert.Equal(t, 100, u.Coins)
	assert.True(t, u.UnlockedIn(CategoryTheme).Contains("pixel"))

	err := u.Purchase(CategoryTheme, "handwritten", 800)
	assert.True(t, shared.IsInsufficientFunds(err))
	assert.Equal(t, 100, u.Coins)
	assert.False(t, u.UnlockedIn(CategoryTheme).Contains("handwritten"))

	// Re-purchase does not duplicate the token.
	require.NoError(t, u.Purchase(CategoryTheme, "pixel", 0))
	assert.Equal(t, []string{"standard", "pixel"}, u.UnlockedIn(CategoryTheme).Items())

	assert.ErrorIs(t, u.Purchase(Category("hat"), "x", 1), shared.ErrValidation)
}

func TestEquip(t *testing.T) {
	u := newTestUser(t)

	err := u.Equip(CategoryTheme, "pixel")
	assert.ErrorIs(t, err, shared.ErrNotUnlocked)
	assert.Equal(t, DefaultToken, u.CurrentIn(CategoryTheme))

	u.Unlock(CategoryTheme, "pixel")
	require.NoError(t, u.Equip(CategoryTheme, "pixel"))
	assert.Equal(t, "pixel", u.CurrentIn(CategoryTheme))

	require.NoError(t, u.Equip(CategoryTheme, DefaultToken))
}

func TestClone_DoesNotAlias(t *testing.T) {
	u := newTestUser(t)
	d := timeutil.NewDate(2024, time.January, 15)
	u.LastLoginDate = &d

	c := u.Clone()
	c.Unlock(CategoryTitle, "Task Slayer")
	c.Current[CategoryTitle] = "Task Slayer"
	c.LastLoginDate.Day = 20

	assert.False(t, u.UnlockedIn(CategoryTitle).Contains("Task Slayer"))
	assert.Equal(t, DefaultToken, u.Title())
	assert.Equal(t, 15, u.LastLoginDate.Day)
}

// ═══════════════════════════════════════════════════════════════════════════
// Bonuses
// ═══════════════════════════════════════════════════════════════════════════

func TestGoalBonus_OncePerDay(t *testing.T) {
	u := newTestUser(t)
	today := timeutil.NewDate(2024, time.January, 16)

	assert.False(t, u.GrantGoalBonus(today, 30, 100), "below goal")
	assert.True(t, u.GrantGoalBonus(today, 60, 100))
	assert.Equal(t, 100, u.Coins)
	assert.Equal(t, today, *u.LastGoalRewardDate)

	assert.False(t, u.GrantGoalBonus(today, 120, 100), "already granted today")
	assert.Equal(t, 100, u.Coins)

	tomorrow := today.AddDays(1)
	assert.True(t, u.GrantGoalBonus(tomorrow, 60, 100))
	assert.Equal(t, 200, u.Coins)
}

func TestLoginBonus_IndependentOfGoal(t *testing.T) {
	u := newTestUser(t)
	today := timeutil.NewDate(2024, time.January, 16)

	assert.True(t, u.GrantGoalBonus(today, 60, 100))
	assert.True(t, u.GrantLoginBonus(today, 50))
	assert.False(t, u.GrantLoginBonus(today, 50))
	assert.Equal(t, 150, u.Coins)
	assert.Equal(t, today, *u.LastLoginDate)
}

func TestSetDailyGoal(t *testing.T) {
	u := newTestUser(t)
	assert.False(t, u.SetDailyGoal(0))
	assert.True(t, u.SetDailyGoal(90))
	assert.Equal(t, 90, u.DailyGoal)
}

// ═══════════════════════════════════════════════════════════════════════════
// Patch
// ═══════════════════════════════════════════════════════════════════════════

func TestPatch_FieldsAndApply(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())

	d := timeutil.NewDate(2024, time.March, 1)
	p := Patch{LastLoginDate: &d}.
		WithBalance(Balance{XP: 10, Coins: 20}).
		WithUnlocked(CategoryTitle, NewUnlockSet("Code Wizard")).
		WithCurrent(CategoryTitle, "Code Wizard")

	fields := p.Fields()
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, f.Column)
	}
	assert.Equal(t, []string{"xp", "coins", "unlocked_titles", "current_title", "last_login_date"}, cols)
	assert.Equal(t, "standard,Code Wizard", fields[2].Value)

	u := newTestUser(t)
	p.Apply(u)
	assert.Equal(t, 10, u.XP)
	assert.Equal(t, 20, u.Coins)
	assert.Equal(t, "Code Wizard", u.Title())
	assert.Equal(t, d, *u.LastLoginDate)
}
