package user

import (
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// Default bonus amounts.
const (
	DefaultGoalBonusCoins  = 100
	DefaultLoginBonusCoins = 50
	DefaultDailyGoal       = 60
)

// GoalBonusDue reports whether the goal bonus should be granted for today.
func (u *User) GoalBonusDue(today timeutil.Date, todayMinutes int) bool {
	if u.LastGoalRewardDate != nil && *u.LastGoalRewardDate == today {
		return false
	}
	return u.DailyGoal > 0 && todayMinutes >= u.DailyGoal
}

// GrantGoalBonus credits coins and records today when the goal has been met.
// Repeated calls on the same date are no-ops.
func (u *User) GrantGoalBonus(today timeutil.Date, todayMinutes, coins int) bool {
	if !u.GoalBonusDue(today, todayMinutes) {
		return false
	}
	u.ApplyReward(0, coins)
	d := today
	u.LastGoalRewardDate = &d
	return true
}

// LoginBonusDue reports whether today's login bonus is still available.
func (u *User) LoginBonusDue(today timeutil.Date) bool {
	return u.LastLoginDate == nil || *u.LastLoginDate != today
}

// GrantLoginBonus credits coins on the first login of a local date.
func (u *User) GrantLoginBonus(today timeutil.Date, coins int) bool {
	if !u.LoginBonusDue(today) {
		return false
	}
	u.ApplyReward(0, coins)
	d := today
	u.LastLoginDate = &d
	return true
}

// SetDailyGoal changes the goal. Minutes must be positive.
func (u *User) SetDailyGoal(minutes int) bool {
	if minutes <= 0 {
		return false
	}
	u.DailyGoal = minutes
	return true
}
