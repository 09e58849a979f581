package query

import (
	"context"
	"time"

	"github.com/studyquest/studyquest/internal/domain/calendar"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MONTH CALENDAR QUERY
// Re-reads tasks and logs on every call; the grid is never cached.
// ══════════════════════════════════════════════════════════════════════════════

// GetMonthHandler builds the month view.
type GetMonthHandler struct {
	reader *Reader
}

// NewGetMonthHandler creates a new GetMonthHandler.
func NewGetMonthHandler(reader *Reader) *GetMonthHandler {
	return &GetMonthHandler{reader: reader}
}

// Handle aggregates the user's records onto the grid of year/month.
func (h *GetMonthHandler) Handle(ctx context.Context, username string, year int, month time.Month) calendar.Month {
	tasks := h.reader.Tasks(ctx, username)
	logs := h.reader.StudyLogs(ctx, username)
	return calendar.BuildMonth(year, month, tasks, logs, h.reader.Location())
}

// ══════════════════════════════════════════════════════════════════════════════
// GET DAY DETAIL QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetDayDetailHandler lists one date's tasks and logs.
type GetDayDetailHandler struct {
	reader *Reader
}

// NewGetDayDetailHandler creates a new GetDayDetailHandler.
func NewGetDayDetailHandler(reader *Reader) *GetDayDetailHandler {
	return &GetDayDetailHandler{reader: reader}
}

// Handle returns the detail of date.
func (h *GetDayDetailHandler) Handle(ctx context.Context, username string, date timeutil.Date) calendar.Detail {
	tasks := h.reader.Tasks(ctx, username)
	logs := h.reader.StudyLogs(ctx, username)
	return calendar.DetailFor(date, tasks, logs, h.reader.Location())
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST TASKS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListTasksHandler lists tasks in display order.
type ListTasksHandler struct {
	reader *Reader
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(reader *Reader) *ListTasksHandler {
	return &ListTasksHandler{reader: reader}
}

// Handle returns pending tasks first, then by priority and due date.
// With pendingOnly set, finished tasks are dropped.
func (h *ListTasksHandler) Handle(ctx context.Context, username string, pendingOnly bool) []*task.Task {
	tasks := h.reader.Tasks(ctx, username)
	if pendingOnly {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.IsPending() {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}
	task.Sort(tasks, h.reader.Location())
	return tasks
}
