package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyquest/studyquest/internal/application/session"
	"github.com/studyquest/studyquest/internal/domain/shared"
)

// SessionStore implements session.Store. Every save refreshes the TTL, so a
// session expires after ttl without activity.
type SessionStore struct {
	client *Client
	ttl    time.Duration
	now    func() time.Time
}

var _ session.Store = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore. ttl <= 0 uses DefaultSessionTTL.
func NewSessionStore(client *Client, ttl time.Duration, now func() time.Time) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{client: client, ttl: ttl, now: now}
}

func (s *SessionStore) key(id string) string {
	return s.client.key("session", id)
}

// Save implements session.Store.
func (s *SessionStore) Save(ctx context.Context, c *session.Context) error {
	if c.ID == "" {
		return ErrEmptySessionID
	}
	data, err := session.Encode(c)
	if err != nil {
		return err
	}
	if err := s.client.rdb.Set(ctx, s.key(c.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load implements session.Store.
func (s *SessionStore) Load(ctx context.Context, id string) (*session.Context, error) {
	if id == "" {
		return nil, shared.ErrSessionNotFound
	}
	data, err := s.client.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session.Decode(data, s.now)
}

// Delete implements session.Store.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
