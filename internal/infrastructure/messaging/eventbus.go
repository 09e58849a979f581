// Package messaging implements the in-process event bus that carries domain
// events from command handlers to subscribers.
package messaging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/pkg/logger"
)

// ErrEventBusClosed is returned after Close.
var ErrEventBusClosed = errors.New("event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events synchronously, in subscription order,
// on the publisher's goroutine. A failing handler is logged and does not stop
// the others or fail the publisher.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	log         *logger.Logger
	metrics     *EventBusMetrics
	closed      bool
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(log *logger.Logger) *InMemoryEventBus {
	if log == nil {
		log = logger.Nop()
	}
	return &InMemoryEventBus{
		handlers: make(map[shared.EventType][]shared.EventHandler),
		log:      log.With(logger.Component("eventbus")),
		metrics:  newEventBusMetrics(),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish sends an event to all subscribed handlers.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.metrics.recordPublish(event.EventType())
	for _, handler := range handlers {
		if err := b.execute(event, handler); err != nil {
			b.metrics.recordFailure(event.EventType())
			b.log.Error("handler error", logger.EventType(string(event.EventType())), logger.Err(err))
		}
	}
	return nil
}

// execute runs one handler, turning a panic into an error.
func (b *InMemoryEventBus) execute(event shared.Event, handler shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(event)
}

// Close stops delivery. Later Publish and Subscribe calls fail.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Metrics returns the delivery counters.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics counts published events and failed handler calls.
type EventBusMetrics struct {
	mu        sync.Mutex
	published map[shared.EventType]int64
	failed    map[shared.EventType]int64
	lastAt    time.Time
}

func newEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{
		published: make(map[shared.EventType]int64),
		failed:    make(map[shared.EventType]int64),
	}
}

func (m *EventBusMetrics) recordPublish(t shared.EventType) {
	m.mu.Lock()
	m.published[t]++
	m.lastAt = time.Now()
	m.mu.Unlock()
}

func (m *EventBusMetrics) recordFailure(t shared.EventType) {
	m.mu.Lock()
	m.failed[t]++
	m.mu.Unlock()
}

// Published returns how many events of type t were published.
func (m *EventBusMetrics) Published(t shared.EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[t]
}

// Failed returns how many handler calls for type t failed.
func (m *EventBusMetrics) Failed(t shared.EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed[t]
}

// Types lists the event types seen so far, sorted.
func (m *EventBusMetrics) Types() []shared.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]shared.EventType, 0, len(m.published))
	for t := range m.published {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBSCRIBERS
// ══════════════════════════════════════════════════════════════════════════════

// LoggingHandler writes every event to log at INFO.
func LoggingHandler(log *logger.Logger) shared.EventHandler {
	return func(ev shared.Event) error {
		log.Info("domain event",
			logger.EventType(string(ev.EventType())),
			logger.Username(ev.AggregateID()),
			logger.F("payload", ev.Payload()),
		)
		return nil
	}
}
