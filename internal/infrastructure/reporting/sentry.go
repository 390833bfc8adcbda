// Package reporting forwards operationally significant events to Sentry.
// A festival device failing to reconcile is an incident, not a log line.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
)

// Config configures the Sentry SDK.
type Config struct {
	DSN         string
	Environment string
	Release     string
	DeviceID    string
}

// Setup initialises the global Sentry client. An empty DSN disables
// reporting; Subscribe then becomes a no-op wiring.
func Setup(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("device_id", cfg.DeviceID)
	})
	return nil
}

// Flush drains buffered events on shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Subscribe wires the reporter to the event bus. Failed sync items and
// store recoveries become Sentry events; rejections become breadcrumbs so
// they give context to a later incident without paging anyone.
func Subscribe(bus ports.EventBus) {
	bus.Subscribe(events.EventTypeSyncItemFailed, func(_ context.Context, e events.DomainEvent) error {
		ev, ok := e.(*events.SyncItemFailed)
		if !ok {
			return nil
		}
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(sentry.LevelError)
			scope.SetTag("entity_type", ev.EntityType)
			scope.SetExtra("item_id", ev.ItemID.String())
			scope.SetExtra("retry_count", ev.RetryCount)
			scope.SetExtra("reason", ev.Reason)
			sentry.CaptureMessage(fmt.Sprintf("sync item failed permanently: %s", ev.Reason))
		})
		return nil
	})

	bus.Subscribe(events.EventTypeStoreRecovered, func(_ context.Context, e events.DomainEvent) error {
		ev, ok := e.(*events.StoreRecovered)
		if !ok {
			return nil
		}
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(sentry.LevelFatal)
			scope.SetExtra("quarantine_path", ev.QuarantinePath)
			sentry.CaptureMessage("local store was corrupt and has been quarantined")
		})
		return nil
	})

	bus.Subscribe(events.EventTypePaymentRejected, func(_ context.Context, e events.DomainEvent) error {
		ev, ok := e.(*events.PaymentRejected)
		if !ok {
			return nil
		}
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Category: "payments",
			Message:  fmt.Sprintf("payment %s rejected: %s", ev.TransactionID, ev.Code),
			Level:    sentry.LevelWarning,
		})
		return nil
	})
}
