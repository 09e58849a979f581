package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository and user.BalanceAdjuster.
type UserRepository struct {
	db *sql.DB
}

var (
	_ user.Repository      = (*UserRepository)(nil)
	_ user.BalanceAdjuster = (*UserRepository)(nil)
)

var userColumns = func() []string {
	cols := []string{"username", "password_hash", "nickname", "xp", "coins"}
	for _, c := range user.Categories() {
		cols = append(cols, c.UnlockedColumn(), c.CurrentColumn())
	}
	return append(cols, "daily_goal", "last_goal_reward_date", "last_login_date", "main_text_color", "accent_color", "created_at")
}()

// Get implements user.Repository.
func (r *UserRepository) Get(ctx context.Context, username string) (*user.User, error) {
	query := "SELECT " + strings.Join(userColumns, ", ") + " FROM users WHERE username = ?"

	u := user.Zero("")
	n := len(user.Categories())
	unlocked, current := make([]string, n), make([]string, n)
	var goalDate, loginDate sql.NullString
	var created int64

	dest := []any{&u.Username, &u.PasswordHash, &u.Nickname, &u.XP, &u.Coins}
	for i := 0; i < n; i++ {
		dest = append(dest, &unlocked[i], &current[i])
	}
	dest = append(dest, &u.DailyGoal, &goalDate, &loginDate, &u.MainTextColor, &u.AccentColor, &created)

	err := r.db.QueryRowContext(ctx, query, username).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	for i, c := range user.Categories() {
		u.Unlocked[c] = user.ParseUnlockSet(unlocked[i])
		if current[i] != "" {
			u.Current[c] = current[i]
		}
	}
	u.LastGoalRewardDate = parseDate(goalDate)
	u.LastLoginDate = parseDate(loginDate)
	u.CreatedAt = fromMillis(created)
	return u, nil
}

// Create implements user.Repository.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := []any{u.Username, u.PasswordHash, u.Nickname, u.XP, u.Coins}
	for _, c := range user.Categories() {
		args = append(args, u.UnlockedIn(c).String(), u.CurrentIn(c))
	}
	args = append(args, u.DailyGoal, dateArg(u.LastGoalRewardDate), dateArg(u.LastLoginDate), u.MainTextColor, u.AccentColor, toMillis(u.CreatedAt))

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := fmt.Sprintf("INSERT INTO users (%s) VALUES (%s)", strings.Join(userColumns, ", "), marks)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update implements user.Repository.
func (r *UserRepository) Update(ctx context.Context, username string, patch user.Patch) error {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = f.Column + " = ?"
		if d, ok := f.Value.(timeutil.Date); ok {
			args = append(args, d.String())
		} else {
			args = append(args, f.Value)
		}
	}
	args = append(args, username)

	res, err := r.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE username = ?", args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

// AdjustBalance implements user.BalanceAdjuster.
func (r *UserRepository) AdjustBalance(ctx context.Context, username string, xpDelta, coinDelta int) (user.Balance, error) {
	var b user.Balance
	err := r.db.QueryRowContext(ctx, `
		UPDATE users SET
			xp = MAX(0, xp + ?),
			coins = MAX(0, coins + ?)
		WHERE username = ?
		RETURNING xp, coins`,
		xpDelta, coinDelta, username,
	).Scan(&b.XP, &b.Coins)
	if errors.Is(err, sql.ErrNoRows) {
		return user.Balance{}, shared.ErrUserNotFound
	}
	if err != nil {
		return user.Balance{}, fmt.Errorf("adjust balance: %w", err)
	}
	return b, nil
}

func dateArg(d *timeutil.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseDate(s sql.NullString) *timeutil.Date {
	if !s.Valid || s.String == "" {
		return nil
	}
	d, err := timeutil.NormalizeDate(s.String, timeutil.DefaultLocation)
	if err != nil {
		return nil
	}
	return &d
}

// ══════════════════════════════════════════════════════════════════════════════
// TASKS
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements task.Repository.
type TaskRepository struct {
	db *sql.DB
}

var _ task.Repository = (*TaskRepository)(nil)

// ListByOwner implements task.Repository.
func (r *TaskRepository) ListByOwner(ctx context.Context, username string) ([]*task.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, task_name, status, due_date, priority
		FROM tasks WHERE username = ? ORDER BY seq`, username)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		var t task.Task
		var status, priority string
		if err := rows.Scan(&t.ID, &t.Username, &t.Name, &status, &t.DueDate, &priority); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Status, t.Priority = task.Status(status), task.Priority(priority)
		out = append(out, &t)
	}
	return out, rows.Err()
}

// Create implements task.Repository.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, username, task_name, status, due_date, priority)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Username, t.Name, string(t.Status), t.DueDate, string(t.Priority))
	if err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("task", "Create", shared.ErrAlreadyExists, "task id already used")
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// MarkDone implements task.Repository.
func (r *TaskRepository) MarkDone(ctx context.Context, username string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	marks, args := inClause(ids)
	args = append([]any{username}, args...)

	res, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET status = 'done' WHERE username = ? AND status = 'pending' AND id IN ("+marks+")",
		args...)
	if err != nil {
		return 0, fmt.Errorf("complete tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("complete tasks: %w", err)
	}
	return int(n), nil
}

// Delete implements task.Repository.
func (r *TaskRepository) Delete(ctx context.Context, username, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE username = ? AND id = ?", username, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shared.ErrTaskNotFound
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY LOGS
// ══════════════════════════════════════════════════════════════════════════════

// StudyLogRepository implements studylog.Repository.
type StudyLogRepository struct {
	db *sql.DB
}

var _ studylog.Repository = (*StudyLogRepository)(nil)

const studyLogSelect = "SELECT id, username, subject, duration_minutes, study_date, created_at FROM study_logs"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*studylog.Entry, error) {
	var e studylog.Entry
	var created int64
	if err := row.Scan(&e.ID, &e.Username, &e.Subject, &e.DurationMinutes, &e.StudyDate, &created); err != nil {
		return nil, err
	}
	e.CreatedAt = fromMillis(created)
	return &e, nil
}

// ListByOwner implements studylog.Repository.
func (r *StudyLogRepository) ListByOwner(ctx context.Context, username string) ([]*studylog.Entry, error) {
	rows, err := r.db.QueryContext(ctx, studyLogSelect+" WHERE username = ? ORDER BY seq", username)
	if err != nil {
		return nil, fmt.Errorf("list study logs: %w", err)
	}
	defer rows.Close()

	var out []*studylog.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get implements studylog.Repository.
func (r *StudyLogRepository) Get(ctx context.Context, username, id string) (*studylog.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, studyLogSelect+" WHERE username = ? AND id = ?", username, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrStudyLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get study log: %w", err)
	}
	return e, nil
}

// Create implements studylog.Repository.
func (r *StudyLogRepository) Create(ctx context.Context, e *studylog.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO study_logs (id, username, subject, duration_minutes, study_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Username, e.Subject, e.DurationMinutes, e.StudyDate, toMillis(e.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("studylog", "Create", shared.ErrAlreadyExists, "study log id already used")
		}
		return fmt.Errorf("create study log: %w", err)
	}
	return nil
}

// Delete implements studylog.Repository.
func (r *StudyLogRepository) Delete(ctx context.Context, username, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM study_logs WHERE username = ? AND id = ?", username, id)
	if err != nil {
		return fmt.Errorf("delete study log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shared.ErrStudyLogNotFound
	}
	return nil
}
