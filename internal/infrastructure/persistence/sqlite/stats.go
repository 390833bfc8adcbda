// Package sqlite - the cross-table stats snapshot for the ops API.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
)

// Compile-time check
var _ ports.StatsProvider = (*StatsProvider)(nil)

// StatsProvider aggregates counts across all six tables.
type StatsProvider struct {
	db *sql.DB
}

// NewStatsProvider creates the provider.
func NewStatsProvider(db *sql.DB) *StatsProvider {
	return &StatsProvider{db: db}
}

// Stats returns the observability snapshot. Counts come from separate
// queries on one connection; the snapshot is near-consistent, which is all
// the ops UI needs.
func (p *StatsProvider) Stats(ctx context.Context) (ports.StoreStats, error) {
	q := querierFor(ctx, p.db)

	var stats ports.StoreStats

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM pending_transactions WHERE synced = 0`, &stats.PendingUnsynced},
		{`SELECT COUNT(*) FROM pending_transactions WHERE synced = 1`, &stats.PendingSynced},
		{`SELECT COUNT(*) FROM cached_wallets`, &stats.CachedWallets},
		{`SELECT COUNT(*) FROM cached_stands`, &stats.CachedStands},
		{`SELECT COUNT(*) FROM cached_products`, &stats.CachedProducts},
		{`SELECT COUNT(*) FROM cached_transactions`, &stats.CachedHistory},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return ports.StoreStats{}, fmt.Errorf("failed to collect store stats: %w", mapStoreError(err))
		}
	}

	rows, err := q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return ports.StoreStats{}, fmt.Errorf("failed to collect queue stats: %w", mapStoreError(err))
	}
	defer rows.Close()

	stats.QueueByStatus = make(map[entities.SyncStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return ports.StoreStats{}, mapStoreError(err)
		}
		stats.QueueByStatus[entities.SyncStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return ports.StoreStats{}, mapStoreError(err)
	}

	return stats, nil
}
