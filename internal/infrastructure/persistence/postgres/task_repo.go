package postgres

import (
	"context"
	"fmt"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements task.Repository.
type TaskRepository struct {
	conn *Connection
}

var _ task.Repository = (*TaskRepository)(nil)

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(conn *Connection) *TaskRepository {
	return &TaskRepository{conn: conn}
}

// ListByOwner returns all tasks of username in insertion order.
func (r *TaskRepository) ListByOwner(ctx context.Context, username string) ([]*task.Task, error) {
	query := `
		SELECT id::text, username, task_name, status, due_date, priority
		FROM tasks
		WHERE username = $1
		ORDER BY created_at, id
	`

	rows, err := r.conn.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		var t task.Task
		var status, priority string
		if err := rows.Scan(&t.ID, &t.Username, &t.Name, &status, &t.DueDate, &priority); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Status = task.Status(status)
		t.Priority = task.Priority(priority)
		tasks = append(tasks, &t)
	}

	return tasks, rows.Err()
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	query := `
		INSERT INTO tasks (id, username, task_name, status, due_date, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.conn.Exec(ctx, query, t.ID, t.Username, t.Name, string(t.Status), t.DueDate, string(t.Priority))
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("task", "Create", shared.ErrAlreadyExists, "task id already used")
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// MarkDone completes the pending tasks among ids owned by username and
// returns how many changed.
func (r *TaskRepository) MarkDone(ctx context.Context, username string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `
		UPDATE tasks SET status = 'done'
		WHERE username = $1 AND id::text = ANY($2) AND status = 'pending'
	`
	result, err := r.conn.Exec(ctx, query, username, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to complete tasks: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// Delete removes one task of username.
func (r *TaskRepository) Delete(ctx context.Context, username, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM tasks WHERE username = $1 AND id::text = $2", username, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrTaskNotFound
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY LOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudyLogRepository implements studylog.Repository.
type StudyLogRepository struct {
	conn *Connection
}

var _ studylog.Repository = (*StudyLogRepository)(nil)

// NewStudyLogRepository creates a new StudyLogRepository.
func NewStudyLogRepository(conn *Connection) *StudyLogRepository {
	return &StudyLogRepository{conn: conn}
}

const studyLogColumns = "id::text, username, subject, duration_minutes, study_date, created_at"

// ListByOwner returns all entries of username in insertion order.
func (r *StudyLogRepository) ListByOwner(ctx context.Context, username string) ([]*studylog.Entry, error) {
	query := "SELECT " + studyLogColumns + " FROM study_logs WHERE username = $1 ORDER BY created_at, id"

	rows, err := r.conn.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list study logs: %w", err)
	}
	defer rows.Close()

	var entries []*studylog.Entry
	for rows.Next() {
		var e studylog.Entry
		if err := rows.Scan(&e.ID, &e.Username, &e.Subject, &e.DurationMinutes, &e.StudyDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan study log: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Get returns one entry of username.
func (r *StudyLogRepository) Get(ctx context.Context, username, id string) (*studylog.Entry, error) {
	query := "SELECT " + studyLogColumns + " FROM study_logs WHERE username = $1 AND id::text = $2"

	var e studylog.Entry
	err := r.conn.QueryRow(ctx, query, username, id).
		Scan(&e.ID, &e.Username, &e.Subject, &e.DurationMinutes, &e.StudyDate, &e.CreatedAt)
	if IsNoRows(err) {
		return nil, shared.ErrStudyLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study log: %w", err)
	}
	return &e, nil
}

// Create inserts an entry.
func (r *StudyLogRepository) Create(ctx context.Context, e *studylog.Entry) error {
	query := `
		INSERT INTO study_logs (id, username, subject, duration_minutes, study_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.conn.Exec(ctx, query, e.ID, e.Username, e.Subject, e.DurationMinutes, e.StudyDate, createdAt(e.CreatedAt))
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("studylog", "Create", shared.ErrAlreadyExists, "study log id already used")
		}
		return fmt.Errorf("failed to create study log: %w", err)
	}
	return nil
}

// Delete removes one entry of username.
func (r *StudyLogRepository) Delete(ctx context.Context, username, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM study_logs WHERE username = $1 AND id::text = $2", username, id)
	if err != nil {
		return fmt.Errorf("failed to delete study log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrStudyLogNotFound
	}
	return nil
}
