// Package memory implements the repositories in process memory.
// It backs STORE_DRIVER=memory and the application tests.
package memory

import (
	"context"
	"sync"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/internal/domain/user"
)

// Store holds users, tasks and study logs behind one lock.
type Store struct {
	mu sync.RWMutex

	users     map[string]*user.User
	tasks     map[string]*task.Task
	taskOrder []string
	logs      map[string]*studylog.Entry
	logOrder  []string

	// Injected failures for tests.
	readErr      error
	writeErr     error
	userWriteErr error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]*user.User),
		tasks: make(map[string]*task.Task),
		logs:  make(map[string]*studylog.Entry),
	}
}

// FailReads makes every read return err. Pass nil to recover.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes every write return err. Pass nil to recover.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// FailUserWrites makes only user writes return err, leaving task and
// study log writes working. Pass nil to recover.
func (s *Store) FailUserWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userWriteErr = err
}

func (s *Store) userWriteFailure() error {
	if s.writeErr != nil {
		return s.writeErr
	}
	return s.userWriteErr
}

// Users returns the user repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Tasks returns the task repository view.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

// StudyLogs returns the study log repository view.
func (s *Store) StudyLogs() *StudyLogRepository { return &StudyLogRepository{s: s} }

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository and user.BalanceAdjuster.
type UserRepository struct{ s *Store }

var (
	_ user.Repository      = (*UserRepository)(nil)
	_ user.BalanceAdjuster = (*UserRepository)(nil)
)

// Get implements user.Repository.
func (r *UserRepository) Get(_ context.Context, username string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.readErr != nil {
		return nil, r.s.readErr
	}
	u, ok := r.s.users[username]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u.Clone(), nil
}

// Create implements user.Repository.
func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.userWriteFailure(); err != nil {
		return err
	}
	if _, ok := r.s.users[u.Username]; ok {
		return shared.ErrUserAlreadyExists
	}
	r.s.users[u.Username] = u.Clone()
	return nil
}

// Update implements user.Repository.
func (r *UserRepository) Update(_ context.Context, username string, patch user.Patch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.userWriteFailure(); err != nil {
		return err
	}
	u, ok := r.s.users[username]
	if !ok {
		return shared.ErrUserNotFound
	}
	patch.Apply(u)
	return nil
}

// AdjustBalance implements user.BalanceAdjuster.
func (r *UserRepository) AdjustBalance(_ context.Context, username string, xpDelta, coinDelta int) (user.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.userWriteFailure(); err != nil {
		return user.Balance{}, err
	}
	u, ok := r.s.users[username]
	if !ok {
		return user.Balance{}, shared.ErrUserNotFound
	}
	return u.ApplyReward(xpDelta, coinDelta), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TASKS
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements task.Repository.
type TaskRepository struct{ s *Store }

var _ task.Repository = (*TaskRepository)(nil)

// ListByOwner implements task.Repository.
func (r *TaskRepository) ListByOwner(_ context.Context, username string) ([]*task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.readErr != nil {
		return nil, r.s.readErr
	}
	var out []*task.Task
	for _, id := range r.s.taskOrder {
		if t := r.s.tasks[id]; t.Username == username {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

// Create implements task.Repository.
func (r *TaskRepository) Create(_ context.Context, t *task.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return r.s.writeErr
	}
	if _, ok := r.s.tasks[t.ID]; ok {
		return shared.NewDomainError("task", "Create", shared.ErrAlreadyExists, "task id already used")
	}
	c := *t
	r.s.tasks[t.ID] = &c
	r.s.taskOrder = append(r.s.taskOrder, t.ID)
	return nil
}

// MarkDone implements task.Repository.
func (r *TaskRepository) MarkDone(_ context.Context, username string, ids []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return 0, r.s.writeErr
	}
	n := 0
	for _, id := range ids {
		t, ok := r.s.tasks[id]
		if !ok || t.Username != username || !t.IsPending() {
			continue
		}
		t.Status = task.StatusDone
		n++
	}
	return n, nil
}

// Delete implements task.Repository.
func (r *TaskRepository) Delete(_ context.Context, username, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return r.s.writeErr
	}
	t, ok := r.s.tasks[id]
	if !ok || t.Username != username {
		return shared.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	r.s.taskOrder = without(r.s.taskOrder, id)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY LOGS
// ══════════════════════════════════════════════════════════════════════════════

// StudyLogRepository implements studylog.Repository.
type StudyLogRepository struct{ s *Store }

var _ studylog.Repository = (*StudyLogRepository)(nil)

// ListByOwner implements studylog.Repository.
func (r *StudyLogRepository) ListByOwner(_ context.Context, username string) ([]*studylog.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.readErr != nil {
		return nil, r.s.readErr
	}
	var out []*studylog.Entry
	for _, id := range r.s.logOrder {
		if e := r.s.logs[id]; e.Username == username {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// Get implements studylog.Repository.
func (r *StudyLogRepository) Get(_ context.Context, username, id string) (*studylog.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.readErr != nil {
		return nil, r.s.readErr
	}
	e, ok := r.s.logs[id]
	if !ok || e.Username != username {
		return nil, shared.ErrStudyLogNotFound
	}
	c := *e
	return &c, nil
}

// Create implements studylog.Repository.
func (r *StudyLogRepository) Create(_ context.Context, e *studylog.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return r.s.writeErr
	}
	if _, ok := r.s.logs[e.ID]; ok {
		return shared.NewDomainError("studylog", "Create", shared.ErrAlreadyExists, "study log id already used")
	}
	c := *e
	r.s.logs[e.ID] = &c
	r.s.logOrder = append(r.s.logOrder, e.ID)
	return nil
}

// Delete implements studylog.Repository.
func (r *StudyLogRepository) Delete(_ context.Context, username, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.writeErr != nil {
		return r.s.writeErr
	}
	e, ok := r.s.logs[id]
	if !ok || e.Username != username {
		return shared.ErrStudyLogNotFound
	}
	delete(r.s.logs, id)
	r.s.logOrder = without(r.s.logOrder, id)
	return nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
