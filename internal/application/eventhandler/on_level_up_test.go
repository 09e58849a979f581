package eventhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyquest/studyquest/internal/domain/shared"
)

type recorder struct {
	notices []LevelUpNotice
}

func (r *recorder) NotifyLevelUp(n LevelUpNotice) { r.notices = append(r.notices, n) }

func TestOnLevelUpHandler(t *testing.T) {
	tests := []struct {
		name      string
		old, new  int
		milestone bool
	}{
		{"plain", 1, 2, false},
		{"lands on milestone", 4, 5, true},
		{"jumps over milestone", 3, 7, true},
		{"past milestone", 5, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			h := NewOnLevelUpHandler(rec, nil)

			require.NoError(t, h.Handle(shared.NewLevelUpEvent("alice", tt.old, tt.new)))
			require.Len(t, rec.notices, 1)
			assert.Equal(t, LevelUpNotice{Username: "alice", OldLevel: tt.old, NewLevel: tt.new, Milestone: tt.milestone}, rec.notices[0])
		})
	}
}

func TestOnLevelUpHandler_IgnoresOtherEvents(t *testing.T) {
	rec := &recorder{}
	h := NewOnLevelUpHandler(rec, nil)

	require.NoError(t, h.Handle(shared.NewUserRegisteredEvent("alice")))
	assert.Empty(t, rec.notices)
}

type fakeBus struct {
	subscribed []shared.EventType
}

func (b *fakeBus) Subscribe(t shared.EventType, _ shared.EventHandler) error {
	b.subscribed = append(b.subscribed, t)
	return nil
}

func (b *fakeBus) SubscribeAll(shared.EventHandler) error { return nil }

func TestOnLevelUpHandler_Register(t *testing.T) {
	bus := &fakeBus{}
	require.NoError(t, NewOnLevelUpHandler(NotifierFunc(func(LevelUpNotice) {}), nil).Register(bus))
	assert.Equal(t, []shared.EventType{shared.EventLevelUp}, bus.subscribed)
}
