package messaging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/pkg/logger"
)

func TestInMemoryEventBus_DeliversInOrder(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	var got []string

	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		got = append(got, "typed-1")
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		got = append(got, "typed-2")
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(ev shared.Event) error {
		got = append(got, "all:"+string(ev.EventType()))
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("alice", 1, 2)))
	require.NoError(t, bus.Publish(shared.NewTasksCompletedEvent("alice", 2)))

	assert.Equal(t, []string{"typed-1", "typed-2", "all:progress.level_up", "all:activity.tasks_completed"}, got)
	assert.Equal(t, int64(1), bus.Metrics().Published(shared.EventLevelUp))
	assert.Equal(t, []shared.EventType{shared.EventTasksCompleted, shared.EventLevelUp}, bus.Metrics().Types())
}

func TestInMemoryEventBus_HandlerFailureIsIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	calls := 0

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("bad handler") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		calls++
		return nil
	}))

	assert.NoError(t, bus.Publish(shared.NewUserRegisteredEvent("alice")))
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(2), bus.Metrics().Failed(shared.EventUserRegistered))
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewUserRegisteredEvent("alice")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.Error(t, bus.Subscribe(shared.EventLevelUp, nil))
}

func TestLoggingHandler(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo, Format: logger.FormatJSON})

	require.NoError(t, LoggingHandler(log)(shared.NewStudyLoggedEvent("alice", "Math", 45, "2024-01-16")))
	assert.Contains(t, buf.String(), `"event_type":"activity.study_logged"`)
	assert.Contains(t, buf.String(), `"username":"alice"`)
}
