package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Every ledger mutation emits exactly one of these.
const (
	// User events
	EventUserRegistered EventType = "user.registered"

	// Progress events
	EventRewardApplied EventType = "progress.reward_applied"
	EventLevelUp       EventType = "progress.level_up"

	// Bonus events
	EventGoalBonusGranted  EventType = "bonus.goal_granted"
	EventLoginBonusGranted EventType = "bonus.login_granted"

	// Shop events
	EventItemPurchased EventType = "shop.item_purchased"
	EventGachaDrawn    EventType = "shop.gacha_drawn"
	EventItemEquipped  EventType = "shop.item_equipped"

	// Activity events
	EventTasksCompleted  EventType = "activity.tasks_completed"
	EventStudyLogged     EventType = "activity.study_logged"
	EventStudyLogDeleted EventType = "activity.study_log_deleted"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the username the event belongs to.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, username string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: username,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// RewardAppliedEvent is emitted after a ledger delta has been written.
type RewardAppliedEvent struct {
	BaseEvent
	Reason    string `json:"reason"`
	XPDelta   int    `json:"xp_delta"`
	CoinDelta int    `json:"coin_delta"`
	NewXP     int    `json:"new_xp"`
	NewCoins  int    `json:"new_coins"`
}

// Payload implements Event interface.
func (e RewardAppliedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"reason":     e.Reason,
		"xp_delta":   e.XPDelta,
		"coin_delta": e.CoinDelta,
		"new_xp":     e.NewXP,
		"new_coins":  e.NewCoins,
	}
}

// NewRewardAppliedEvent creates a new RewardAppliedEvent.
func NewRewardAppliedEvent(username, reason string, xpDelta, coinDelta, newXP, newCoins int) RewardAppliedEvent {
	return RewardAppliedEvent{
		BaseEvent: NewBaseEvent(EventRewardApplied, username),
		Reason:    reason,
		XPDelta:   xpDelta,
		CoinDelta: coinDelta,
		NewXP:     newXP,
		NewCoins:  newCoins,
	}
}

// LevelUpEvent is emitted when a reward moves the user to a higher level.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(username string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, username),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bonus Events
// ═══════════════════════════════════════════════════════════════════════════

// BonusGrantedEvent is emitted for the once-per-day goal and login bonuses.
type BonusGrantedEvent struct {
	BaseEvent
	Coins int    `json:"coins"`
	Date  string `json:"date"`
}

// Payload implements Event interface.
func (e BonusGrantedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"coins": e.Coins,
		"date":  e.Date,
	}
}

// NewGoalBonusGrantedEvent creates a goal bonus event.
func NewGoalBonusGrantedEvent(username string, coins int, date string) BonusGrantedEvent {
	return BonusGrantedEvent{
		BaseEvent: NewBaseEvent(EventGoalBonusGranted, username),
		Coins:     coins,
		Date:      date,
	}
}

// NewLoginBonusGrantedEvent creates a login bonus event.
func NewLoginBonusGrantedEvent(username string, coins int, date string) BonusGrantedEvent {
	return BonusGrantedEvent{
		BaseEvent: NewBaseEvent(EventLoginBonusGranted, username),
		Coins:     coins,
		Date:      date,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Shop Events
// ═══════════════════════════════════════════════════════════════════════════

// ItemEvent covers purchases, gacha draws and equips.
type ItemEvent struct {
	BaseEvent
	Category  string `json:"category"`
	Item      string `json:"item"`
	Cost      int    `json:"cost"`
	Duplicate bool   `json:"duplicate"`
}

// Payload implements Event interface.
func (e ItemEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"category":  e.Category,
		"item":      e.Item,
		"cost":      e.Cost,
		"duplicate": e.Duplicate,
	}
}

// NewItemPurchasedEvent creates a purchase event.
func NewItemPurchasedEvent(username, category, item string, cost int) ItemEvent {
	return ItemEvent{
		BaseEvent: NewBaseEvent(EventItemPurchased, username),
		Category:  category,
		Item:      item,
		Cost:      cost,
	}
}

// NewGachaDrawnEvent creates a gacha event.
func NewGachaDrawnEvent(username, title string, cost int, duplicate bool) ItemEvent {
	return ItemEvent{
		BaseEvent: NewBaseEvent(EventGachaDrawn, username),
		Category:  "title",
		Item:      title,
		Cost:      cost,
		Duplicate: duplicate,
	}
}

// NewItemEquippedEvent creates an equip event.
func NewItemEquippedEvent(username, category, item string) ItemEvent {
	return ItemEvent{
		BaseEvent: NewBaseEvent(EventItemEquipped, username),
		Category:  category,
		Item:      item,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Activity Events
// ═══════════════════════════════════════════════════════════════════════════

// ActivityEvent covers task completion and study log changes.
type ActivityEvent struct {
	BaseEvent
	Count   int    `json:"count,omitempty"`
	Subject string `json:"subject,omitempty"`
	Minutes int    `json:"minutes,omitempty"`
	Date    string `json:"date,omitempty"`
}

// Payload implements Event interface.
func (e ActivityEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"count":   e.Count,
		"subject": e.Subject,
		"minutes": e.Minutes,
		"date":    e.Date,
	}
}

// NewTasksCompletedEvent creates a bulk completion event.
func NewTasksCompletedEvent(username string, count int) ActivityEvent {
	return ActivityEvent{
		BaseEvent: NewBaseEvent(EventTasksCompleted, username),
		Count:     count,
	}
}

// NewStudyLoggedEvent creates a study log event.
func NewStudyLoggedEvent(username, subject string, minutes int, date string) ActivityEvent {
	return ActivityEvent{
		BaseEvent: NewBaseEvent(EventStudyLogged, username),
		Subject:   subject,
		Minutes:   minutes,
		Date:      date,
	}
}

// NewStudyLogDeletedEvent creates a study log deletion event.
func NewStudyLogDeletedEvent(username, subject string, minutes int) ActivityEvent {
	return ActivityEvent{
		BaseEvent: NewBaseEvent(EventStudyLogDeleted, username),
		Subject:   subject,
		Minutes:   minutes,
	}
}

// UserRegisteredEvent is emitted when an account is created.
type UserRegisteredEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewUserRegisteredEvent creates a registration event.
func NewUserRegisteredEvent(username string) UserRegisteredEvent {
	return UserRegisteredEvent{BaseEvent: NewBaseEvent(EventUserRegistered, username)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
