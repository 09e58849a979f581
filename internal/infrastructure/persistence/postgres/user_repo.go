package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository and user.BalanceAdjuster.
type UserRepository struct {
	conn *Connection
}

var (
	_ user.Repository      = (*UserRepository)(nil)
	_ user.BalanceAdjuster = (*UserRepository)(nil)
)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// userColumns is the SELECT list read by scanUser. Dates come back as text
// so they decode into timeutil.Date without a zone.
var userColumns = func() string {
	cols := []string{"username", "password_hash", "nickname", "xp", "coins"}
	for _, c := range user.Categories() {
		cols = append(cols, c.UnlockedColumn(), c.CurrentColumn())
	}
	cols = append(cols,
		"daily_goal",
		"last_goal_reward_date::text",
		"last_login_date::text",
		"main_text_color",
		"accent_color",
		"created_at",
	)
	return strings.Join(cols, ", ")
}()

// Get returns a user by username.
func (r *UserRepository) Get(ctx context.Context, username string) (*user.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = $1"
	return scanUser(r.conn.QueryRow(ctx, query, username))
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	cols := []string{"username", "password_hash", "nickname", "xp", "coins"}
	args := []any{u.Username, u.PasswordHash, u.Nickname, u.XP, u.Coins}
	for _, c := range user.Categories() {
		cols = append(cols, c.UnlockedColumn(), c.CurrentColumn())
		args = append(args, u.UnlockedIn(c).String(), u.CurrentIn(c))
	}
	cols = append(cols, "daily_goal", "last_goal_reward_date", "last_login_date", "main_text_color", "accent_color", "created_at")
	args = append(args, u.DailyGoal, dateArg(u.LastGoalRewardDate), dateArg(u.LastLoginDate), u.MainTextColor, u.AccentColor, createdAt(u.CreatedAt))

	query := fmt.Sprintf("INSERT INTO users (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders(1, len(args)))
	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update writes the patched columns only.
func (r *UserRepository) Update(ctx context.Context, username string, patch user.Patch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = $%d", f.Column, i+1)
		args = append(args, bindValue(f.Value))
	}
	args = append(args, username)

	query := fmt.Sprintf("UPDATE users SET %s WHERE username = $%d", strings.Join(sets, ", "), len(args))
	result, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// AdjustBalance applies both deltas in one statement, clamping at zero.
func (r *UserRepository) AdjustBalance(ctx context.Context, username string, xpDelta, coinDelta int) (user.Balance, error) {
	query := `
		UPDATE users SET
			xp = GREATEST(0, xp + $1),
			coins = GREATEST(0, coins + $2)
		WHERE username = $3
		RETURNING xp, coins
	`

	var b user.Balance
	err := r.conn.QueryRow(ctx, query, xpDelta, coinDelta, username).Scan(&b.XP, &b.Coins)
	if IsNoRows(err) {
		return user.Balance{}, shared.ErrUserNotFound
	}
	if err != nil {
		return user.Balance{}, fmt.Errorf("failed to adjust balance: %w", err)
	}
	return b, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helper Functions
// ─────────────────────────────────────────────────────────────────────────────

func scanUser(row pgx.Row) (*user.User, error) {
	u := user.Zero("")
	unlocked := make([]string, len(user.Categories()))
	current := make([]string, len(user.Categories()))
	var goalDate, loginDate *string

	dest := []any{&u.Username, &u.PasswordHash, &u.Nickname, &u.XP, &u.Coins}
	for i := range user.Categories() {
		dest = append(dest, &unlocked[i], &current[i])
	}
	dest = append(dest, &u.DailyGoal, &goalDate, &loginDate, &u.MainTextColor, &u.AccentColor, &u.CreatedAt)

	err := row.Scan(dest...)
	if IsNoRows(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	for i, c := range user.Categories() {
		u.Unlocked[c] = user.ParseUnlockSet(unlocked[i])
		if current[i] != "" {
			u.Current[c] = current[i]
		}
	}
	u.LastGoalRewardDate = parseDate(goalDate)
	u.LastLoginDate = parseDate(loginDate)
	return u, nil
}

// bindValue converts patch values to pgx-encodable types.
func bindValue(v any) any {
	if d, ok := v.(timeutil.Date); ok {
		return d.In(time.UTC)
	}
	return v
}

func dateArg(d *timeutil.Date) any {
	if d == nil {
		return nil
	}
	return d.In(time.UTC)
}

func parseDate(s *string) *timeutil.Date {
	if s == nil || *s == "" {
		return nil
	}
	d, err := timeutil.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &d
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// placeholders returns "$from, ..., $(from+n-1)".
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}
