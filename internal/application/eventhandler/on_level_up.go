// Package eventhandler contains domain event handlers.
package eventhandler

import (
	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// Turns LevelUpEvent into a notice for whoever is showing the user their
// progress. Milestone levels are flagged so the front end can celebrate.
// ═══════════════════════════════════════════════════════════════════════════

// LevelUpNotice is delivered once per level-up event.
type LevelUpNotice struct {
	Username  string
	OldLevel  int
	NewLevel  int
	Milestone bool
}

// Notifier receives notices.
type Notifier interface {
	NotifyLevelUp(n LevelUpNotice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n LevelUpNotice)

// NotifyLevelUp implements Notifier.
func (f NotifierFunc) NotifyLevelUp(n LevelUpNotice) { f(n) }

// DefaultMilestoneEvery marks every fifth level as a milestone.
const DefaultMilestoneEvery = 5

// OnLevelUpHandler handles LevelUpEvent.
type OnLevelUpHandler struct {
	notifier       Notifier
	milestoneEvery int
	log            *logger.Logger
}

// NewOnLevelUpHandler creates a new OnLevelUpHandler.
func NewOnLevelUpHandler(notifier Notifier, log *logger.Logger) *OnLevelUpHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OnLevelUpHandler{
		notifier:       notifier,
		milestoneEvery: DefaultMilestoneEvery,
		log:            log.With(logger.Component("on_level_up")),
	}
}

// Handle implements shared.EventHandler.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	ev, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.log.Warn("received non-LevelUpEvent", logger.EventType(string(event.EventType())))
		return nil
	}

	n := LevelUpNotice{
		Username: ev.AggregateID(),
		OldLevel: ev.OldLevel,
		NewLevel: ev.NewLevel,
	}
	// A multi-level jump can cross a milestone without landing on it.
	if h.milestoneEvery > 0 && ev.NewLevel/h.milestoneEvery > ev.OldLevel/h.milestoneEvery {
		n.Milestone = true
	}

	h.log.Debug("level up", logger.Username(n.Username), logger.Int("new_level", n.NewLevel), logger.Bool("milestone", n.Milestone))
	h.notifier.NotifyLevelUp(n)
	return nil
}

// Register subscribes the handler on bus.
func (h *OnLevelUpHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventLevelUp, h.Handle)
}
