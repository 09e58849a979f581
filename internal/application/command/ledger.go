// Package command contains write operations (CQRS - Commands).
// Every handler follows read-current → compute → write-back against the
// collaborator store; the last write wins.
package command

import (
	"context"
	"time"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/pkg/logger"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULES
// ══════════════════════════════════════════════════════════════════════════════

// Rules holds the numeric progression settings shared by all handlers.
type Rules struct {
	LevelWidth       int
	TaskReward       int
	GoalBonusCoins   int
	LoginBonusCoins  int
	GachaCost        int
	DefaultDailyGoal int

	// AtomicLedger applies balance deltas through user.BalanceAdjuster when
	// the store supports it.
	AtomicLedger bool

	// Location decides what "today" means.
	Location *time.Location

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultRules returns the stock values.
func DefaultRules() Rules {
	return Rules{
		LevelWidth:       user.DefaultLevelWidth,
		TaskReward:       10,
		GoalBonusCoins:   user.DefaultGoalBonusCoins,
		LoginBonusCoins:  user.DefaultLoginBonusCoins,
		GachaCost:        100,
		DefaultDailyGoal: user.DefaultDailyGoal,
		Location:         timeutil.DefaultLocation,
	}
}

// Today returns the local calendar date.
func (r Rules) Today() timeutil.Date {
	return timeutil.DateOf(r.now(), r.Location)
}

func (r Rules) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// Change describes one committed mutation of a user record.
type Change struct {
	// Reason labels the mutation in events and logs, e.g. "study_log".
	Reason string

	// Raw deltas that were applied to the user in memory.
	XPDelta   int
	CoinDelta int

	// Fields other than the balances to write in the same update.
	Patch user.Patch

	// Balance before the deltas, used for level-up detection.
	Before user.Balance
}

// Ledger loads users fail-open and commits balance changes.
type Ledger struct {
	users     user.Repository
	adjuster  user.BalanceAdjuster
	publisher shared.EventPublisher
	rules     Rules
	log       *logger.Logger
}

// NewLedger creates a Ledger. When rules.AtomicLedger is set and users
// implements user.BalanceAdjuster, deltas are applied atomically by the store.
func NewLedger(users user.Repository, publisher shared.EventPublisher, rules Rules, log *logger.Logger) *Ledger {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	l := &Ledger{
		users:     users,
		publisher: publisher,
		rules:     rules,
		log:       log.With(logger.Component("ledger")),
	}
	if rules.AtomicLedger {
		if adj, ok := users.(user.BalanceAdjuster); ok {
			l.adjuster = adj
		} else {
			l.log.Warn("atomic ledger requested but store does not support it; using read-then-write")
		}
	}
	return l
}

// Rules returns the configured rules.
func (l *Ledger) Rules() Rules {
	return l.rules
}

// Atomic reports whether balance deltas go through the store.
func (l *Ledger) Atomic() bool {
	return l.adjuster != nil
}

// Load reads a user. A missing or unreadable record yields ok=false and is
// logged; callers then degrade to a zero result without writing.
func (l *Ledger) Load(ctx context.Context, username string) (*user.User, bool) {
	u, err := l.users.Get(ctx, username)
	switch {
	case err == nil:
		return u, true
	case shared.IsNotFound(err):
		l.log.Debug("user not found, skipping", logger.Username(username))
	default:
		l.log.Warn("user read failed, degrading to zero", logger.Username(username), logger.Err(err))
	}
	return nil, false
}

// Commit writes u after in-memory mutation and publishes the reward events.
// Write failures are returned as shared.ErrServiceUnavailable.
func (l *Ledger) Commit(ctx context.Context, u *user.User, change Change) (user.Balance, error) {
	if l.adjuster != nil && (change.XPDelta != 0 || change.CoinDelta != 0) {
		bal, err := l.adjuster.AdjustBalance(ctx, u.Username, change.XPDelta, change.CoinDelta)
		if err != nil {
			return change.Before, l.writeFailed(u.Username, change.Reason, err)
		}
		u.XP, u.Coins = bal.XP, bal.Coins
		if !change.Patch.IsEmpty() {
			if err := l.users.Update(ctx, u.Username, change.Patch); err != nil {
				return bal, l.writeFailed(u.Username, change.Reason, err)
			}
		}
	} else {
		patch := change.Patch
		if change.XPDelta != 0 || change.CoinDelta != 0 {
			patch = patch.WithBalance(u.Balance())
		}
		if !patch.IsEmpty() {
			if err := l.users.Update(ctx, u.Username, patch); err != nil {
				return change.Before, l.writeFailed(u.Username, change.Reason, err)
			}
		}
	}

	after := u.Balance()
	if change.XPDelta != 0 || change.CoinDelta != 0 {
		l.publish(shared.NewRewardAppliedEvent(u.Username, change.Reason,
			change.XPDelta, change.CoinDelta, after.XP, after.Coins))

		oldLevel := user.Level(change.Before.XP, l.rules.LevelWidth)
		newLevel := user.Level(after.XP, l.rules.LevelWidth)
		if newLevel > oldLevel {
			l.publish(shared.NewLevelUpEvent(u.Username, oldLevel, newLevel))
		}
	}

	l.log.Debug("ledger committed",
		logger.Username(u.Username),
		logger.Operation(change.Reason),
		logger.XPDelta(change.XPDelta),
		logger.CoinDelta(change.CoinDelta),
		logger.Int("xp", after.XP),
		logger.Int("coins", after.Coins),
	)
	return after, nil
}

// Reward applies a signed reward to username. A missing user yields a zero
// balance and no write.
func (l *Ledger) Reward(ctx context.Context, username, reason string, xpDelta, coinDelta int) (user.Balance, error) {
	_, after, err := l.Adjust(ctx, username, reason, xpDelta, coinDelta)
	return after, err
}

// Adjust is Reward that also returns the balance it started from, so callers
// can report what clamping actually moved.
func (l *Ledger) Adjust(ctx context.Context, username, reason string, xpDelta, coinDelta int) (before, after user.Balance, err error) {
	u, ok := l.Load(ctx, username)
	if !ok {
		return user.Balance{}, user.Balance{}, nil
	}
	before = u.Balance()
	u.ApplyReward(xpDelta, coinDelta)
	after, err = l.Commit(ctx, u, Change{
		Reason:    reason,
		XPDelta:   xpDelta,
		CoinDelta: coinDelta,
		Before:    before,
	})
	return before, after, err
}

// Publish forwards an event; failures are logged, never returned.
func (l *Ledger) Publish(ev shared.Event) {
	l.publish(ev)
}

func (l *Ledger) publish(ev shared.Event) {
	if err := l.publisher.Publish(ev); err != nil {
		l.log.Warn("event publish failed", logger.EventType(string(ev.EventType())), logger.Err(err))
	}
}

func (l *Ledger) writeFailed(username, op string, err error) error {
	l.log.Error("user write failed", logger.Username(username), logger.Operation(op), logger.Err(err))
	return shared.Unavailable("ledger", op, err)
}

// BalanceView is the post-mutation balance with its level.
type BalanceView struct {
	XP    int
	Coins int
	Level int
}

func (l *Ledger) view(xp, coins int) BalanceView {
	return BalanceView{XP: xp, Coins: coins, Level: user.Level(xp, l.rules.LevelWidth)}
}
