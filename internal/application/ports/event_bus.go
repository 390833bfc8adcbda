// Package ports - EventBus for publishing and consuming domain events.
//
// Pattern: Publisher/Subscriber
// - The queue, the use cases and the push consumer publish
// - The metrics collectors, the Sentry reporter and the ops UI subscribe
// - In-process delivery; consumers must tolerate redelivery on restart
package ports

import (
	"context"

	"github.com/mimi6060/festivals-pos/internal/domain/events"
)

// EventHandler reacts to one delivered event.
type EventHandler func(ctx context.Context, event events.DomainEvent) error

// EventBus is the in-process pub/sub channel for domain events.
type EventBus interface {
	// Publish delivers one event to all matching subscribers.
	// Handler errors are logged, never propagated: a broken consumer must
	// not fail the business operation that raised the event.
	Publish(ctx context.Context, event events.DomainEvent)

	// PublishBatch delivers several events in order.
	PublishBatch(ctx context.Context, events []events.DomainEvent)

	// Subscribe registers a handler for an event type. The wildcard "*"
	// subscribes to everything.
	Subscribe(eventType string, handler EventHandler)
}
