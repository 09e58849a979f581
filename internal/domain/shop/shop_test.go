package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/user"
)

func fixed(i int) Picker {
	return func(int) int { return i }
}

func newUser(t *testing.T, coins int) *user.User {
	t.Helper()
	u, err := user.NewUser("alice", "hash", 60)
	require.NoError(t, err)
	u.Coins = coins
	return u
}

func TestCatalogSize(t *testing.T) {
	assert.Len(t, GachaTitles, 12)

	seen := map[string]bool{}
	for _, title := range GachaTitles {
		assert.False(t, seen[title], "duplicate title %q", title)
		seen[title] = true
	}
}

func TestDrawGacha_InsufficientFunds(t *testing.T) {
	u := newUser(t, 50)

	_, err := DrawGacha(u, 100, fixed(0))
	assert.True(t, shared.IsInsufficientFunds(err))
	assert.Equal(t, 50, u.Coins)
	assert.Equal(t, []string{user.DefaultToken}, u.UnlockedIn(user.CategoryTitle).Items())
	assert.Equal(t, user.DefaultToken, u.Title())
}

func TestDrawGacha_NewTitle(t *testing.T) {
	u := newUser(t, 120)

	d, err := DrawGacha(u, 100, fixed(3))
	require.NoError(t, err)
	assert.Equal(t, "Task Slayer", d.Title)
	assert.False(t, d.Duplicate)
	assert.Equal(t, 20, d.Balance.Coins)
	assert.Equal(t, "Task Slayer", u.Title())
	assert.True(t, u.UnlockedIn(user.CategoryTitle).Contains("Task Slayer"))
}

func TestDrawGacha_DuplicateStillEquips(t *testing.T) {
	u := newUser(t, 150)
	u.Unlock(user.CategoryTitle, "Code Wizard")
	u.Unlock(user.CategoryTitle, "Night Owl")
	require.NoError(t, u.Equip(user.CategoryTitle, "Night Owl"))
	before := u.UnlockedIn(user.CategoryTitle).Items()

	d, err := DrawGacha(u, 100, fixed(7))
	require.NoError(t, err)
	assert.Equal(t, "Code Wizard", d.Title)
	assert.True(t, d.Duplicate)
	assert.Equal(t, 50, u.Coins)
	assert.Equal(t, before, u.UnlockedIn(user.CategoryTitle).Items())
	assert.Equal(t, "Code Wizard", u.Title())
}

func TestDrawGacha_RandomPickerInRange(t *testing.T) {
	u := newUser(t, 100*50)
	for i := 0; i < 50; i++ {
		d, err := DrawGacha(u, 100, nil)
		require.NoError(t, err)
		assert.Contains(t, GachaTitles, d.Title)
	}
	assert.Equal(t, 0, u.Coins)
	assert.LessOrEqual(t, u.UnlockedIn(user.CategoryTitle).Len(), len(GachaTitles)+1)
}

func TestBuyCosmetic(t *testing.T) {
	u := newUser(t, 600)

	it, err := BuyCosmetic(u, user.CategoryTheme, "Pixel")
	require.NoError(t, err)
	assert.Equal(t, 500, it.Price)
	assert.Equal(t, 100, u.Coins)
	assert.True(t, u.UnlockedIn(user.CategoryTheme).Contains("pixel"))

	_, err = BuyCosmetic(u, user.CategoryTheme, "handwritten")
	assert.True(t, shared.IsInsufficientFunds(err))
	assert.Equal(t, 100, u.Coins)

	_, err = BuyCosmetic(u, user.CategoryTheme, "neon")
	assert.True(t, shared.IsValidation(err))
}

func TestCatalogFilter(t *testing.T) {
	themes := Catalog(user.CategoryTheme)
	require.Len(t, themes, 2)
	assert.Equal(t, "pixel", themes[0].Name)
	assert.Len(t, Catalog(), 6)
	assert.Empty(t, Catalog(user.CategoryTitle))
}
