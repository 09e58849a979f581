package user

import (
	"context"

	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository persists users keyed by username.
type Repository interface {
	// Get returns the user. Returns shared.ErrUserNotFound if missing.
	Get(ctx context.Context, username string) (*User, error)

	// Create inserts a new user. Returns shared.ErrUserAlreadyExists on conflict.
	Create(ctx context.Context, u *User) error

	// Update writes the non-nil fields of patch. Returns shared.ErrUserNotFound if missing.
	Update(ctx context.Context, username string, patch Patch) error
}

// BalanceAdjuster applies clamped deltas in a single store operation.
// Stores that implement it enable the atomic ledger path.
type BalanceAdjuster interface {
	AdjustBalance(ctx context.Context, username string, xpDelta, coinDelta int) (Balance, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// PATCH
// ══════════════════════════════════════════════════════════════════════════════

// Patch is a field subset update. Nil fields are left untouched.
type Patch struct {
	XP    *int
	Coins *int

	Unlocked map[Category]UnlockSet
	Current  map[Category]string

	DailyGoal          *int
	LastGoalRewardDate *timeutil.Date
	LastLoginDate      *timeutil.Date

	Nickname      *string
	MainTextColor *string
	AccentColor   *string
}

// Field is one column assignment of a patch.
type Field struct {
	Column string
	Value  any
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// WithBalance sets both balances from b.
func (p Patch) WithBalance(b Balance) Patch {
	xp, coins := b.XP, b.Coins
	p.XP, p.Coins = &xp, &coins
	return p
}

// WithUnlocked records the unlock set of c.
func (p Patch) WithUnlocked(c Category, s UnlockSet) Patch {
	if p.Unlocked == nil {
		p.Unlocked = make(map[Category]UnlockSet, 1)
	}
	p.Unlocked[c] = s
	return p
}

// WithCurrent records the equipped token of c.
func (p Patch) WithCurrent(c Category, item string) Patch {
	if p.Current == nil {
		p.Current = make(map[Category]string, 1)
	}
	p.Current[c] = item
	return p
}

// Fields lists column assignments in a stable order.
// Unlock sets are encoded as joined text; dates stay timeutil.Date so each
// store can bind them natively.
func (p Patch) Fields() []Field {
	var fields []Field
	if p.Nickname != nil {
		fields = append(fields, Field{"nickname", *p.Nickname})
	}
	if p.XP != nil {
		fields = append(fields, Field{"xp", *p.XP})
	}
	if p.Coins != nil {
		fields = append(fields, Field{"coins", *p.Coins})
	}
	for _, c := range Categories() {
		if s, ok := p.Unlocked[c]; ok {
			fields = append(fields, Field{c.UnlockedColumn(), s.String()})
		}
		if v, ok := p.Current[c]; ok {
			fields = append(fields, Field{c.CurrentColumn(), v})
		}
	}
	if p.DailyGoal != nil {
		fields = append(fields, Field{"daily_goal", *p.DailyGoal})
	}
	if p.LastGoalRewardDate != nil {
		fields = append(fields, Field{"last_goal_reward_date", *p.LastGoalRewardDate})
	}
	if p.LastLoginDate != nil {
		fields = append(fields, Field{"last_login_date", *p.LastLoginDate})
	}
	if p.MainTextColor != nil {
		fields = append(fields, Field{"main_text_color", *p.MainTextColor})
	}
	if p.AccentColor != nil {
		fields = append(fields, Field{"accent_color", *p.AccentColor})
	}
	return fields
}

// Apply writes the patch onto u.
func (p Patch) Apply(u *User) {
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.XP != nil {
		u.XP = *p.XP
	}
	if p.Coins != nil {
		u.Coins = *p.Coins
	}
	for c, s := range p.Unlocked {
		if u.Unlocked == nil {
			u.Unlocked = make(map[Category]UnlockSet, 4)
		}
		u.Unlocked[c] = s.clone()
	}
	for c, v := range p.Current {
		if u.Current == nil {
			u.Current = make(map[Category]string, 4)
		}
		u.Current[c] = v
	}
	if p.DailyGoal != nil {
		u.DailyGoal = *p.DailyGoal
	}
	if p.LastGoalRewardDate != nil {
		d := *p.LastGoalRewardDate
		u.LastGoalRewardDate = &d
	}
	if p.LastLoginDate != nil {
		d := *p.LastLoginDate
		u.LastLoginDate = &d
	}
	if p.MainTextColor != nil {
		u.MainTextColor = *p.MainTextColor
	}
	if p.AccentColor != nil {
		u.AccentColor = *p.AccentColor
	}
}
