package syncqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
)

// Sweeper purges rows the device no longer needs. Two independent clocks:
// completed queue items go quickly, acknowledged pending transactions stay
// a week for audit.
//
// Unsynced rows and failed items are never swept; only an operator retry
// or a server ACK moves them on.
type Sweeper struct {
	pending ports.PendingTransactionRepository
	queue   ports.SyncQueueRepository
	log     *slog.Logger

	completedTTL time.Duration
	syncedTTL    time.Duration
}

// NewSweeper creates a sweeper with the given retention windows. Zero
// durations fall back to the defaults (24h completed, 168h synced).
func NewSweeper(
	pending ports.PendingTransactionRepository,
	queue ports.SyncQueueRepository,
	log *slog.Logger,
	completedTTL, syncedTTL time.Duration,
) *Sweeper {
	if completedTTL <= 0 {
		completedTTL = 24 * time.Hour
	}
	if syncedTTL <= 0 {
		syncedTTL = 168 * time.Hour
	}
	return &Sweeper{
		pending:      pending,
		queue:        queue,
		log:          log,
		completedTTL: completedTTL,
		syncedTTL:    syncedTTL,
	}
}

// Sweep runs one retention pass. Failures are logged and retried on the
// next pass; retention never blocks dispatch.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()

	items, err := s.queue.DeleteCompletedBefore(ctx, now.Add(-s.completedTTL))
	if err != nil {
		s.log.Error("queue retention sweep failed", "error", err)
	}

	rows, err := s.pending.DeleteSyncedBefore(ctx, now.Add(-s.syncedTTL))
	if err != nil {
		s.log.Error("pending retention sweep failed", "error", err)
	}

	if items > 0 || rows > 0 {
		s.log.Info("retention sweep purged rows",
			"queue_items", items, "pending_transactions", rows)
	}
}
