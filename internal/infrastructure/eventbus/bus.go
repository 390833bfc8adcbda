// Package eventbus is the in-process pub/sub backbone. Domain events fan
// out synchronously to subscribers; a slow or broken subscriber is logged
// and skipped, never allowed to fail the producing operation.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Bus implements ports.EventBus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	log      *slog.Logger
}

// New creates an empty bus.
func New(log *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]ports.EventHandler),
		log:      log,
	}
}

// Subscribe registers a handler for an event type, or for everything with
// the "*" wildcard. Registration order is delivery order.
func (b *Bus) Subscribe(eventType string, handler ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers one event synchronously to all matching subscribers.
// Handler errors and panics are contained here.
func (b *Bus) Publish(ctx context.Context, event events.DomainEvent) {
	if event == nil {
		return
	}

	b.mu.RLock()
	handlers := make([]ports.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.handlers[Wildcard]))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.handlers[Wildcard]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.deliver(ctx, event, handler)
	}
}

// PublishBatch delivers several events in order.
func (b *Bus) PublishBatch(ctx context.Context, batch []events.DomainEvent) {
	for _, event := range batch {
		b.Publish(ctx, event)
	}
}

func (b *Bus) deliver(ctx context.Context, event events.DomainEvent, handler ports.EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"panic", r)
		}
	}()

	if err := handler(ctx, event); err != nil {
		b.log.Warn("event handler failed",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"error", err)
	}
}
