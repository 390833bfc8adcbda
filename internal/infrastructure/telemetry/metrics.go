// Package telemetry exports Prometheus metrics and OpenTelemetry traces
// for the offline core. Metrics are fed off the event bus, so the domain
// and application layers never import this package.
package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
)

var (
	paymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "festivalspos",
			Subsystem: "payments",
			Name:      "total",
			Help:      "Offline payments by type and outcome",
		},
		[]string{"type", "outcome"}, // outcome: created, synced, rejected
	)

	paymentAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "festivalspos",
			Subsystem: "payments",
			Name:      "amount_minor_units",
			Help:      "Payment amounts in minor units",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		},
		[]string{"type"},
	)

	syncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "festivalspos",
			Subsystem: "sync",
			Name:      "items_total",
			Help:      "Sync queue item transitions",
		},
		[]string{"entity_type", "outcome"}, // outcome: completed, retried, failed
	)

	syncAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "festivalspos",
			Subsystem: "sync",
			Name:      "attempt_duration_seconds",
			Help:      "Replay attempt latency for completed items",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"entity_type"},
	)

	syncQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "festivalspos",
			Subsystem: "sync",
			Name:      "queue_depth",
			Help:      "Sync queue items by durable status",
		},
		[]string{"status"},
	)

	syncQueueDrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "festivalspos",
			Subsystem: "sync",
			Name:      "queue_drained_total",
			Help:      "Times the queue drained after a busy period",
		},
	)

	storeRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "festivalspos",
			Subsystem: "store",
			Name:      "rows",
			Help:      "Row counts of the local store tables",
		},
		[]string{"table"},
	)

	storeRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "festivalspos",
			Subsystem: "store",
			Name:      "recovered_total",
			Help:      "Corrupt-store quarantine recoveries since start",
		},
	)
)

// MetricsCollector bridges domain events to Prometheus.
type MetricsCollector struct {
	stats ports.StatsProvider
}

// NewMetricsCollector creates the collector.
func NewMetricsCollector(stats ports.StatsProvider) *MetricsCollector {
	return &MetricsCollector{stats: stats}
}

// Register subscribes the collector to the bus.
func (m *MetricsCollector) Register(bus ports.EventBus) {
	bus.Subscribe(events.EventTypePaymentCreated, func(_ context.Context, e events.DomainEvent) error {
		if ev, ok := e.(*events.PaymentCreated); ok {
			paymentsTotal.WithLabelValues(ev.TransactionType, "created").Inc()
			paymentAmount.WithLabelValues(ev.TransactionType).Observe(float64(ev.Amount))
		}
		return nil
	})

	bus.Subscribe(events.EventTypePaymentSynced, func(_ context.Context, e events.DomainEvent) error {
		paymentsTotal.WithLabelValues("", "synced").Inc()
		return nil
	})

	bus.Subscribe(events.EventTypePaymentRejected, func(_ context.Context, e events.DomainEvent) error {
		paymentsTotal.WithLabelValues("", "rejected").Inc()
		return nil
	})

	bus.Subscribe(events.EventTypeSyncItemCompleted, func(_ context.Context, e events.DomainEvent) error {
		if ev, ok := e.(*events.SyncItemCompleted); ok {
			syncItemsTotal.WithLabelValues(ev.EntityType, "completed").Inc()
			syncAttemptDuration.WithLabelValues(ev.EntityType).Observe(ev.Duration.Seconds())
		}
		return nil
	})

	bus.Subscribe(events.EventTypeSyncItemRetried, func(_ context.Context, e events.DomainEvent) error {
		if ev, ok := e.(*events.SyncItemRetried); ok {
			syncItemsTotal.WithLabelValues(ev.EntityType, "retried").Inc()
		}
		return nil
	})

	bus.Subscribe(events.EventTypeSyncItemFailed, func(_ context.Context, e events.DomainEvent) error {
		if ev, ok := e.(*events.SyncItemFailed); ok {
			syncItemsTotal.WithLabelValues(ev.EntityType, "failed").Inc()
		}
		return nil
	})

	bus.Subscribe(events.EventTypeSyncQueueDrained, func(context.Context, events.DomainEvent) error {
		syncQueueDrained.Inc()
		return nil
	})

	bus.Subscribe(events.EventTypeStoreRecovered, func(context.Context, events.DomainEvent) error {
		storeRecovered.Inc()
		return nil
	})
}

// RefreshGauges polls the store counts. The container runs this on a slow
// ticker; a failed poll keeps the previous values.
func (m *MetricsCollector) RefreshGauges(ctx context.Context) error {
	stats, err := m.stats.Stats(ctx)
	if err != nil {
		return err
	}

	for status, count := range stats.QueueByStatus {
		syncQueueDepth.WithLabelValues(string(status)).Set(float64(count))
	}
	storeRows.WithLabelValues("pending_transactions").Set(float64(stats.PendingUnsynced + stats.PendingSynced))
	storeRows.WithLabelValues("cached_wallets").Set(float64(stats.CachedWallets))
	storeRows.WithLabelValues("cached_stands").Set(float64(stats.CachedStands))
	storeRows.WithLabelValues("cached_products").Set(float64(stats.CachedProducts))
	storeRows.WithLabelValues("cached_transactions").Set(float64(stats.CachedHistory))
	return nil
}

// StartGaugeLoop refreshes the gauges until the context ends.
func (m *MetricsCollector) StartGaugeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = m.RefreshGauges(ctx)
			}
		}
	}()
}
