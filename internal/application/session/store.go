package session

import (
	"context"
	"sync"
	"time"

	"github.com/studyquest/studyquest/internal/domain/shared"
)

// Store persists sessions between interactions.
type Store interface {
	Save(ctx context.Context, c *Context) error
	Load(ctx context.Context, id string) (*Context, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps encoded sessions in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	now  func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{data: make(map[string][]byte), now: now}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, c *Context) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[c.ID] = data
	s.mu.Unlock()
	return nil
}

// Load implements Store. Each call returns an independent copy.
func (s *MemoryStore) Load(_ context.Context, id string) (*Context, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return Decode(data, s.now)
}

// Delete implements Store. Deleting an unknown session is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
