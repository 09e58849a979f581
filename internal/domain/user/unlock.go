package user

import (
	"strings"

	"github.com/studyquest/studyquest/internal/domain/shared"
)

// unlockSeparator joins set members at the store boundary.
const unlockSeparator = ","

// UnlockSet is an insertion-ordered set of cosmetic tokens.
// It always contains DefaultToken as its first member.
type UnlockSet struct {
	items []string
}

// NewUnlockSet builds a set from items, dropping blanks and duplicates.
func NewUnlockSet(items ...string) UnlockSet {
	s := UnlockSet{items: []string{DefaultToken}}
	for _, item := range items {
		s, _ = s.With(item)
	}
	return s
}

// ParseUnlockSet decodes the comma-joined column value.
func ParseUnlockSet(raw string) UnlockSet {
	return NewUnlockSet(strings.Split(raw, unlockSeparator)...)
}

// With returns the set with item inserted and whether it was new.
// Inserting an existing token is a no-op.
func (s UnlockSet) With(item string) (UnlockSet, bool) {
	item = strings.TrimSpace(item)
	if item == "" || s.Contains(item) {
		return s, false
	}
	items := make([]string, len(s.items), len(s.items)+1)
	copy(items, s.items)
	return UnlockSet{items: append(items, item)}, true
}

// Contains reports membership.
func (s UnlockSet) Contains(item string) bool {
	if item == DefaultToken {
		return true
	}
	for _, v := range s.items {
		if v == item {
			return true
		}
	}
	return false
}

// Items returns a copy of the members in insertion order.
func (s UnlockSet) Items() []string {
	if len(s.items) == 0 {
		return []string{DefaultToken}
	}
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of members.
func (s UnlockSet) Len() int {
	if len(s.items) == 0 {
		return 1
	}
	return len(s.items)
}

// String encodes the set for storage.
func (s UnlockSet) String() string {
	return strings.Join(s.Items(), unlockSeparator)
}

func (s UnlockSet) clone() UnlockSet {
	return UnlockSet{items: s.Items()}
}

// ══════════════════════════════════════════════════════════════════════════════
// PURCHASE & EQUIP
// ══════════════════════════════════════════════════════════════════════════════

// Unlock inserts item into the category's set. Returns true if it was new.
func (u *User) Unlock(c Category, item string) bool {
	next, added := u.UnlockedIn(c).With(item)
	if added {
		if u.Unlocked == nil {
			u.Unlocked = make(map[Category]UnlockSet, 4)
		}
		u.Unlocked[c] = next
	}
	return added
}

// Purchase debits cost and unlocks item. On insufficient coins nothing changes.
// Paying for an owned item still debits; owned-item filtering belongs to the catalog.
func (u *User) Purchase(c Category, item string, cost int) error {
	if !c.IsValid() {
		return shared.ErrInvalidCategory
	}
	if strings.TrimSpace(item) == "" {
		return shared.Validationf("user", "Purchase", "item is required")
	}
	if cost < 0 {
		return shared.Validationf("user", "Purchase", "cost cannot be negative")
	}
	if u.Coins < cost {
		return shared.NewDomainError("user", "Purchase", shared.ErrInsufficientFunds, "not enough coins")
	}

	u.ApplyReward(0, -cost)
	u.Unlock(c, item)
	return nil
}

// Equip sets the current token of c. Only unlocked items can be equipped.
func (u *User) Equip(c Category, item string) error {
	if !c.IsValid() {
		return shared.ErrInvalidCategory
	}
	if !u.UnlockedIn(c).Contains(item) {
		return shared.NewDomainError("user", "Equip", shared.ErrNotUnlocked, item+" is not unlocked")
	}
	if u.Current == nil {
		u.Current = make(map[Category]string, 4)
	}
	u.Current[c] = item
	return nil
}
