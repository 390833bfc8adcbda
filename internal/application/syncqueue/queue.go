// Package syncqueue runs the durable sync queue: a priority dispatcher that
// drains offline work towards the authoritative server with bounded
// concurrency, per-entity ordering and classified retries.
//
// Pattern: Worker Pool + Priority Queue over a durable table
// - The store is the queue; the dispatcher only holds in-memory markers
// - processing never hits disk: a crash re-dispatches, handlers are idempotent
// - One entity never has two in-flight items (per-entity FIFO)
package syncqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
	"github.com/mimi6060/festivals-pos/internal/domain/retry"
)

// Outcome is a handler's verdict on one dispatch attempt.
type Outcome int

const (
	// OutcomeAck - the server acknowledged the item.
	OutcomeAck Outcome = iota
	// OutcomeRetry - transient failure, schedule another attempt.
	OutcomeRetry
	// OutcomePermanent - the item can never succeed; move to failed.
	OutcomePermanent
	// OutcomeConflictResolved - a conflict resolved automatically; the
	// handler already applied the resolution (the item completes).
	OutcomeConflictResolved
	// OutcomeConflictManual - a conflict with no safe automatic resolution;
	// move to failed for the operator.
	OutcomeConflictManual
)

// Result carries the outcome plus what the dispatcher needs to act on it.
type Result struct {
	Outcome    Outcome
	Reason     string        // for sync bookkeeping and operator logs
	RetryAfter time.Duration // server backoff hint, only with OutcomeRetry
}

// Handler replays one queue item against the server. Implementations must
// be idempotent: the same item may be handed over again after a crash.
type Handler interface {
	Handle(ctx context.Context, item *entities.SyncItem) Result
}

// Config tunes the dispatcher.
type Config struct {
	BatchSize      int           // items selected per pass
	Heartbeat      time.Duration // pass interval
	MaxInFlight    int           // concurrent attempts
	AttemptTimeout time.Duration // per-attempt deadline
	RetentionEvery int           // heartbeats between retention sweeps
}

// DefaultConfig returns the settings the agent ships with.
func DefaultConfig() Config {
	return Config{
		BatchSize:      20,
		Heartbeat:      15 * time.Second,
		MaxInFlight:    4,
		AttemptTimeout: 30 * time.Second,
		RetentionEvery: 60,
	}
}

// Queue is the dispatcher.
type Queue struct {
	repo    ports.SyncQueueRepository
	uow     ports.UnitOfWork
	bus     ports.EventBus
	log     *slog.Logger
	cfg     Config
	sweeper *Sweeper // optional retention sweep
	jitter  retry.Jitter

	handlers map[string]Handler

	mu         sync.Mutex
	inFlight   map[string]struct{} // entity ids with an attempt running
	sinceDrain int                 // items settled since the last drained event

	slots   chan struct{}
	trigger chan struct{}
	workers sync.WaitGroup
	loop    sync.WaitGroup
	cancel  context.CancelFunc
}

// New creates a stopped queue. Register handlers, then Start.
func New(
	repo ports.SyncQueueRepository,
	uow ports.UnitOfWork,
	bus ports.EventBus,
	log *slog.Logger,
	cfg Config,
) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultConfig().Heartbeat
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = DefaultConfig().MaxInFlight
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultConfig().AttemptTimeout
	}
	if cfg.RetentionEvery <= 0 {
		cfg.RetentionEvery = DefaultConfig().RetentionEvery
	}

	return &Queue{
		repo:     repo,
		uow:      uow,
		bus:      bus,
		log:      log,
		cfg:      cfg,
		jitter:   retry.DefaultJitter,
		handlers: make(map[string]Handler),
		inFlight: make(map[string]struct{}),
		slots:    make(chan struct{}, cfg.MaxInFlight),
		trigger:  make(chan struct{}, 1),
	}
}

// RegisterHandler binds a handler to an entity type. Not safe to call after
// Start.
func (q *Queue) RegisterHandler(entityType string, h Handler) {
	q.handlers[entityType] = h
}

// SetSweeper attaches the retention sweeper.
func (q *Queue) SetSweeper(s *Sweeper) {
	q.sweeper = s
}

// SetJitter overrides the backoff jitter. Tests use a fixed value.
func (q *Queue) SetJitter(j retry.Jitter) {
	q.jitter = j
}

// Start launches the dispatch loop and wires the network-up trigger.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)

	// Connectivity returning is the strongest possible dispatch hint.
	q.bus.Subscribe(events.EventTypeNetworkUp, func(context.Context, events.DomainEvent) error {
		q.Trigger()
		return nil
	})

	q.loop.Add(1)
	go q.run(ctx)
}

// Trigger requests a dispatch pass outside the heartbeat. Coalescing: a
// pending trigger absorbs further ones.
func (q *Queue) Trigger() {
	select {
	case q.trigger <- struct{}{}:
	default:
	}
}

// Flush dispatches until no due work remains or the context expires.
// Items backing off into the future do not block a flush.
func (q *Queue) Flush(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dispatched := q.pass(ctx)

		// Wait for the attempts of this pass to settle before re-checking.
		done := make(chan struct{})
		go func() {
			q.workers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		if dispatched == 0 {
			return nil
		}
	}
}

// Shutdown stops the loop and waits for in-flight attempts up to the grace
// period. Unsettled items stay pending on disk and redispatch on restart.
func (q *Queue) Shutdown(ctx context.Context) error {
	if q.cancel != nil {
		q.cancel()
	}

	done := make(chan struct{})
	go func() {
		q.loop.Wait()
		q.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		q.log.Warn("sync queue shutdown grace expired with attempts in flight")
		return ctx.Err()
	}
}

func (q *Queue) run(ctx context.Context) {
	defer q.loop.Done()

	ticker := time.NewTicker(q.cfg.Heartbeat)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticks++
			if q.sweeper != nil && ticks%q.cfg.RetentionEvery == 0 {
				q.sweeper.Sweep(ctx)
			}
			q.pass(ctx)
		case <-q.trigger:
			q.pass(ctx)
		}
	}
}

// pass selects due work and hands it to handlers. Returns the number of
// attempts started.
func (q *Queue) pass(ctx context.Context) int {
	now := time.Now()

	items, err := q.repo.SelectDue(ctx, now, q.cfg.BatchSize)
	if err != nil {
		q.log.Error("sync queue select failed", "error", err)
		return 0
	}

	if len(items) == 0 {
		q.maybeDrained(ctx)
		return 0
	}

	dispatched := 0
	for _, item := range items {
		handler, ok := q.handlers[item.EntityType()]
		if !ok {
			q.settle(ctx, item, Result{
				Outcome: OutcomePermanent,
				Reason:  domainerrors.ErrUnknownEntityType.Error(),
			}, 0)
			continue
		}

		// Per-entity FIFO: while one item of an entity is in flight, later
		// items for the same entity wait for the next pass.
		if !q.claim(item.EntityID()) {
			continue
		}

		select {
		case q.slots <- struct{}{}:
		case <-ctx.Done():
			q.release(item.EntityID())
			return dispatched
		}

		if err := item.RecordAttempt(now); err != nil {
			<-q.slots
			q.release(item.EntityID())
			continue
		}

		q.bus.Publish(ctx, events.NewSyncItemStarted(item.ID(), item.EntityType(), item.RetryCount()+1))
		dispatched++

		q.workers.Add(1)
		go func(item *entities.SyncItem) {
			defer q.workers.Done()
			defer func() {
				<-q.slots
				q.release(item.EntityID())
			}()

			attemptCtx, cancel := context.WithTimeout(ctx, q.cfg.AttemptTimeout)
			defer cancel()

			started := time.Now()
			result := handler.Handle(attemptCtx, item)
			q.settle(ctx, item, result, time.Since(started))
		}(item)
	}

	return dispatched
}

// settle applies a handler result to the item and persists the transition.
func (q *Queue) settle(ctx context.Context, item *entities.SyncItem, result Result, took time.Duration) {
	var raised []events.DomainEvent

	err := q.uow.Execute(ctx, func(txCtx context.Context) error {
		switch result.Outcome {
		case OutcomeAck, OutcomeConflictResolved:
			if err := item.MarkCompleted(); err != nil {
				return err
			}
			raised = append(raised, events.NewSyncItemCompleted(item.ID(), item.EntityType(), took))

		case OutcomeRetry:
			if item.CanRetry() {
				delay := retry.DelayFor(q.policyFor(item.Priority()), item.RetryCount(), result.RetryAfter, q.jitter)
				next := time.Now().Add(delay)
				if err := item.ScheduleRetry(next, result.Reason); err != nil {
					return err
				}
				raised = append(raised, events.NewSyncItemRetried(
					item.ID(), item.EntityType(), item.RetryCount(), next, result.Reason))
			} else {
				if err := item.MarkFailed("retry budget exhausted: " + result.Reason); err != nil {
					return err
				}
				raised = append(raised, events.NewSyncItemFailed(
					item.ID(), item.EntityType(), item.RetryCount(), item.LastError()))
			}

		case OutcomePermanent, OutcomeConflictManual:
			if err := item.MarkFailed(result.Reason); err != nil {
				return err
			}
			raised = append(raised, events.NewSyncItemFailed(
				item.ID(), item.EntityType(), item.RetryCount(), result.Reason))
		}

		return q.repo.Save(txCtx, item)
	})
	if err != nil {
		// The durable state did not move; the item redispatches later.
		item.Release()
		q.log.Error("sync queue settle failed",
			"item_id", item.ID(), "error", err)
		return
	}

	q.mu.Lock()
	q.sinceDrain++
	q.mu.Unlock()

	q.bus.PublishBatch(ctx, raised)

	q.log.Info("sync item settled",
		"item_id", item.ID(),
		"entity_type", item.EntityType(),
		"status", string(item.Status()),
		"retry_count", item.RetryCount(),
		"took", took)
}

// maybeDrained publishes SyncQueueDrained once per busy period.
func (q *Queue) maybeDrained(ctx context.Context) {
	q.mu.Lock()
	settled := q.sinceDrain
	q.sinceDrain = 0
	q.mu.Unlock()

	if settled > 0 {
		q.bus.Publish(ctx, events.NewSyncQueueDrained(settled))
	}
}

// policyFor maps item priority to a backoff policy. Monetary work rides
// High/Critical and gets the aggressive policy.
func (q *Queue) policyFor(p entities.Priority) retry.Policy {
	switch {
	case p >= entities.PriorityHigh:
		return retry.CriticalPolicy
	case p == entities.PriorityNormal:
		return retry.DefaultPolicy
	default:
		return retry.ConservativePolicy
	}
}

func (q *Queue) claim(entityID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, busy := q.inFlight[entityID]; busy {
		return false
	}
	q.inFlight[entityID] = struct{}{}
	return true
}

func (q *Queue) release(entityID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, entityID)
}
