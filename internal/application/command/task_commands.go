package command

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/pkg/logger"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD TASK COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AddTaskCommand creates a pending task.
type AddTaskCommand struct {
	Username string
	Name     string

	// DueDate is YYYY-MM-DD; empty means today.
	DueDate string

	// Priority is high, medium or low; empty means medium.
	Priority string
}

// Validate validates the command.
func (c AddTaskCommand) Validate() error {
	if c.Username == "" {
		return shared.Validationf("task", "Add", "username is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return shared.Validationf("task", "Add", "task name is required")
	}
	return nil
}

// AddTaskHandler handles AddTaskCommand.
type AddTaskHandler struct {
	tasks task.Repository
	rules Rules
	log   *logger.Logger
}

// NewAddTaskHandler creates a new AddTaskHandler.
func NewAddTaskHandler(tasks task.Repository, rules Rules, log *logger.Logger) *AddTaskHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AddTaskHandler{tasks: tasks, rules: rules, log: log}
}

// Handle validates and stores the task.
func (h *AddTaskHandler) Handle(ctx context.Context, cmd AddTaskCommand) (*task.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	due := h.rules.Today()
	if strings.TrimSpace(cmd.DueDate) != "" {
		d, err := timeutil.ParseDate(cmd.DueDate)
		if err != nil {
			return nil, shared.WrapError("task", "Add", shared.ErrValidation, "due date must be YYYY-MM-DD", err)
		}
		due = d
	}

	priority, err := task.ParsePriority(cmd.Priority)
	if err != nil {
		return nil, err
	}

	t, err := task.New(uuid.NewString(), cmd.Username, cmd.Name, due, priority)
	if err != nil {
		return nil, err
	}
	if err := h.tasks.Create(ctx, t); err != nil {
		h.log.Error("task insert failed", logger.Username(cmd.Username), logger.Err(err))
		return nil, shared.Unavailable("task", "Add", err)
	}

	h.log.Info("task added", logger.Username(cmd.Username), logger.String("task_id", t.ID), logger.String("due", t.DueDate))
	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE TASK COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeleteTaskCommand removes a task without touching balances.
type DeleteTaskCommand struct {
	Username string
	TaskID   string
}

// Validate validates the command.
func (c DeleteTaskCommand) Validate() error {
	if c.Username == "" || c.TaskID == "" {
		return shared.Validationf("task", "Delete", "username and task id are required")
	}
	return nil
}

// DeleteTaskHandler handles DeleteTaskCommand.
type DeleteTaskHandler struct {
	tasks task.Repository
	log   *logger.Logger
}

// NewDeleteTaskHandler creates a new DeleteTaskHandler.
func NewDeleteTaskHandler(tasks task.Repository, log *logger.Logger) *DeleteTaskHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DeleteTaskHandler{tasks: tasks, log: log}
}

// Handle deletes the task. Deleting a missing task is not an error.
func (h *DeleteTaskHandler) Handle(ctx context.Context, cmd DeleteTaskCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	err := h.tasks.Delete(ctx, cmd.Username, cmd.TaskID)
	switch {
	case err == nil:
		h.log.Info("task deleted", logger.Username(cmd.Username), logger.String("task_id", cmd.TaskID))
		return nil
	case shared.IsNotFound(err):
		h.log.Debug("task already gone", logger.String("task_id", cmd.TaskID))
		return nil
	default:
		return shared.Unavailable("task", "Delete", err)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE TASKS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CompleteTasksCommand bulk-completes tasks and pays the reward per task.
type CompleteTasksCommand struct {
	Username string
	TaskIDs  []string
}

// Validate validates the command.
func (c CompleteTasksCommand) Validate() error {
	if c.Username == "" {
		return shared.Validationf("task", "Complete", "username is required")
	}
	if len(c.TaskIDs) == 0 {
		return shared.Validationf("task", "Complete", "no tasks selected")
	}
	return nil
}

// CompleteTasksResult reports the completion.
type CompleteTasksResult struct {
	Completed int
	XPGained  int
	Balance   BalanceView
}

// CompleteTasksHandler handles CompleteTasksCommand.
type CompleteTasksHandler struct {
	tasks  task.Repository
	ledger *Ledger
	log    *logger.Logger
}

// NewCompleteTasksHandler creates a new CompleteTasksHandler.
func NewCompleteTasksHandler(tasks task.Repository, ledger *Ledger, log *logger.Logger) *CompleteTasksHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CompleteTasksHandler{tasks: tasks, ledger: ledger, log: log}
}

// Handle flips the pending tasks to done and rewards 10*N XP and coins,
// where N counts only tasks that actually changed.
func (h *CompleteTasksHandler) Handle(ctx context.Context, cmd CompleteTasksCommand) (*CompleteTasksResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	n, err := h.tasks.MarkDone(ctx, cmd.Username, dedupe(cmd.TaskIDs))
	if err != nil {
		return nil, shared.Unavailable("task", "Complete", err)
	}
	if n == 0 {
		return &CompleteTasksResult{}, nil
	}

	reward := h.ledger.Rules().TaskReward * n
	bal, err := h.ledger.Reward(ctx, cmd.Username, "tasks_completed", reward, reward)
	if err != nil {
		return nil, err
	}
	h.ledger.Publish(shared.NewTasksCompletedEvent(cmd.Username, n))

	h.log.Info("tasks completed", logger.Username(cmd.Username), logger.Int("count", n), logger.XPDelta(reward))
	return &CompleteTasksResult{
		Completed: n,
		XPGained:  reward,
		Balance:   h.ledger.view(bal.XP, bal.Coins),
	}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
