// Package filesession persists sessions as JSON files so that a session
// survives between separate CLI invocations without Redis.
package filesession

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyquest/studyquest/internal/application/session"
	"github.com/studyquest/studyquest/internal/domain/shared"
)

const (
	fileExt     = ".json"
	currentFile = "current"
)

// Store implements session.Store on a directory. A session whose LastSeen is
// older than ttl is treated as missing and removed on Load.
type Store struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

var _ session.Store = (*Store)(nil)

// New creates the directory if needed. ttl <= 0 disables expiry.
func New(dir string, ttl time.Duration, now func() time.Time) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Store{dir: dir, ttl: ttl, now: now}, nil
}

func (s *Store) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", shared.ErrSessionNotFound
	}
	return filepath.Join(s.dir, id+fileExt), nil
}

// Save implements session.Store.
func (s *Store) Save(_ context.Context, c *session.Context) error {
	path, err := s.path(c.ID)
	if err != nil {
		return fmt.Errorf("save session: invalid id %q", c.ID)
	}
	data, err := session.Encode(c)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// Load implements session.Store.
func (s *Store) Load(_ context.Context, id string) (*session.Context, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	c, err := session.Decode(data, s.now)
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 && s.now().Sub(c.LastSeen) > s.ttl {
		_ = os.Remove(path)
		return nil, shared.ErrSessionNotFound
	}
	return c, nil
}

// Delete implements session.Store. Deleting an unknown session is not an error.
func (s *Store) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Active session pointer
// ─────────────────────────────────────────────────────────────────────────────

// Current returns the id of the active session, or "" when nobody is
// logged in on this machine.
func (s *Store) Current() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read current session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetCurrent records id as the active session. An empty id clears it.
func (s *Store) SetCurrent(id string) error {
	path := filepath.Join(s.dir, currentFile)
	if id == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clear current session: %w", err)
		}
		return nil
	}
	return writeAtomic(path, []byte(id+"\n"))
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
