package shared

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies what happened to a namespace.
type EventType string

const (
	EventWrite            EventType = "write"
	EventDelete           EventType = "delete"
	EventConflict         EventType = "conflict"
	EventCleanup          EventType = "cleanup"
	EventBroadcast        EventType = "broadcast"
	EventNamespaceCreated EventType = "namespace_created"
	EventNamespaceDeleted EventType = "namespace_deleted"
)

// Validate rejects event types outside the known set.
func (t EventType) Validate() error {
	switch t {
	case EventWrite, EventDelete, EventConflict, EventCleanup, EventBroadcast,
		EventNamespaceCreated, EventNamespaceDeleted:
		return nil
	default:
		return fmt.Errorf("unknown event type: %q", string(t))
	}
}

// Event describes one change in a namespace.
type Event struct {
	Type      EventType   `json:"type"`
	Namespace string      `json:"namespace"`
	Key       string      `json:"key,omitempty"`
	AgentID   string      `json:"agent_id,omitempty"`
	Value     interface{} `json:"value,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Removed   int         `json:"removed,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventHandler receives events. Handlers run on the dispatcher goroutine,
// never under the coordinator lock.
type EventHandler func(Event)

type delivery struct {
	event    Event
	handlers []EventHandler
}

// eventBus fans events out asynchronously with at-most-once, best-effort
// delivery: a full buffer drops the event rather than blocking a publisher.
// A single dispatcher goroutine preserves publish order; per-handler panics
// are recovered so one subscriber cannot take down the rest.
type eventBus struct {
	logger     zerolog.Logger
	deliveries chan delivery

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func newEventBus(buffer int, logger zerolog.Logger) *eventBus {
	bus := &eventBus{
		logger:     logger,
		deliveries: make(chan delivery, buffer),
	}
	bus.wg.Add(1)
	go bus.dispatch()
	return bus
}

func (b *eventBus) dispatch() {
	defer b.wg.Done()
	for d := range b.deliveries {
		for _, handler := range d.handlers {
			b.invoke(d.event, handler)
		}
	}
}

func (b *eventBus) invoke(event Event, handler EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Str("namespace", event.Namespace).
				Msg("Event handler panicked")
		}
	}()
	handler(event)
}

// publish enqueues the event for the given handlers without blocking.
// Returns false when the event was dropped.
func (b *eventBus) publish(event Event, handlers []EventHandler) bool {
	if len(handlers) == 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}

	select {
	case b.deliveries <- delivery{event: event, handlers: handlers}:
		return true
	default:
		b.logger.Warn().
			Str("event_type", string(event.Type)).
			Str("namespace", event.Namespace).
			Msg("Event buffer full, dropping event")
		return false
	}
}

// close stops the dispatcher and waits for in-flight handlers to finish.
func (b *eventBus) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.deliveries)
	b.mu.Unlock()

	b.wg.Wait()
}
