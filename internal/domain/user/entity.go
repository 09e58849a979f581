// Package user contains the progression model: balances, levels,
// unlocked cosmetics and the once-per-day bonus bookkeeping.
// The package is pure domain logic; persistence lives in infrastructure.
package user

import (
	"strings"
	"time"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Category is a cosmetic slot that has its own unlock set and equipped token.
type Category string

const (
	CategoryTheme     Category = "theme"
	CategoryTitle     Category = "title"
	CategoryWallpaper Category = "wallpaper"
	CategoryBGM       Category = "bgm"
)

// DefaultToken is unlocked and equipped in every category at registration.
const DefaultToken = "standard"

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryTheme, CategoryTitle, CategoryWallpaper, CategoryBGM}
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTheme, CategoryTitle, CategoryWallpaper, CategoryBGM:
		return true
	default:
		return false
	}
}

// ParseCategory accepts singular or plural names ("themes", "bgms").
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	c := Category(strings.TrimSuffix(s, "s"))
	if !c.IsValid() {
		return "", shared.ErrInvalidCategory
	}
	return c, nil
}

// UnlockedColumn is the users column holding the joined unlock set.
func (c Category) UnlockedColumn() string {
	return "unlocked_" + string(c) + "s"
}

// CurrentColumn is the users column holding the equipped token.
func (c Category) CurrentColumn() string {
	return "current_" + string(c)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User is the progression record keyed by username.
type User struct {
	Username     string
	PasswordHash string
	Nickname     string

	// Balances, never negative.
	XP    int
	Coins int

	Unlocked map[Category]UnlockSet
	Current  map[Category]string

	// Daily goal in minutes.
	DailyGoal int

	// Idempotency keys for the daily bonuses; nil means never granted.
	LastGoalRewardDate *timeutil.Date
	LastLoginDate      *timeutil.Date

	MainTextColor string
	AccentColor   string

	CreatedAt time.Time
}

// Default display colors.
const (
	DefaultMainTextColor = "#31333F"
	DefaultAccentColor   = "#FF4B4B"
)

// NewUser creates a user with the default token unlocked and equipped everywhere.
func NewUser(username, passwordHash string, dailyGoal int) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, shared.Validationf("user", "New", "username is required")
	}
	if dailyGoal <= 0 {
		return nil, shared.Validationf("user", "New", "daily goal must be positive, got %d", dailyGoal)
	}

	u := Zero(username)
	u.PasswordHash = passwordHash
	u.DailyGoal = dailyGoal
	u.CreatedAt = time.Now().UTC()
	return u, nil
}

// Zero returns the zero-valued stand-in used when a user record cannot be read.
func Zero(username string) *User {
	u := &User{
		Username:      username,
		Nickname:      username,
		Unlocked:      make(map[Category]UnlockSet, 4),
		Current:       make(map[Category]string, 4),
		MainTextColor: DefaultMainTextColor,
		AccentColor:   DefaultAccentColor,
	}
	for _, c := range Categories() {
		u.Unlocked[c] = NewUnlockSet()
		u.Current[c] = DefaultToken
	}
	return u
}

// UnlockedIn returns the unlock set for c, defaulting to {standard}.
func (u *User) UnlockedIn(c Category) UnlockSet {
	if s, ok := u.Unlocked[c]; ok {
		return s
	}
	return NewUnlockSet()
}

// CurrentIn returns the equipped token for c.
func (u *User) CurrentIn(c Category) string {
	if v := u.Current[c]; v != "" {
		return v
	}
	return DefaultToken
}

// Title is the equipped title.
func (u *User) Title() string {
	return u.CurrentIn(CategoryTitle)
}

// Clone returns a deep copy, so callers can compute patches without aliasing.
func (u *User) Clone() *User {
	c := *u
	c.Unlocked = make(map[Category]UnlockSet, len(u.Unlocked))
	for k, v := range u.Unlocked {
		c.Unlocked[k] = v.clone()
	}
	c.Current = make(map[Category]string, len(u.Current))
	for k, v := range u.Current {
		c.Current[k] = v
	}
	if u.LastGoalRewardDate != nil {
		d := *u.LastGoalRewardDate
		c.LastGoalRewardDate = &d
	}
	if u.LastLoginDate != nil {
		d := *u.LastLoginDate
		c.LastLoginDate = &d
	}
	return &c
}
