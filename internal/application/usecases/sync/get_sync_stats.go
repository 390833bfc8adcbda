package sync

import (
	"context"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
)

// GetSyncStatsUseCase serves the observability snapshot for the ops UI.
type GetSyncStatsUseCase struct {
	stats ports.StatsProvider
}

// NewGetSyncStatsUseCase creates the use case.
func NewGetSyncStatsUseCase(stats ports.StatsProvider) *GetSyncStatsUseCase {
	return &GetSyncStatsUseCase{stats: stats}
}

// Execute collects the counts and the attention flag.
func (uc *GetSyncStatsUseCase) Execute(ctx context.Context) (*dtos.SyncStatsDTO, error) {
	stats, err := uc.stats.Stats(ctx)
	if err != nil {
		return nil, err
	}

	queue := make(map[string]int, len(stats.QueueByStatus))
	for status, count := range stats.QueueByStatus {
		queue[string(status)] = count
	}

	return &dtos.SyncStatsDTO{
		PendingUnsynced: stats.PendingUnsynced,
		PendingSynced:   stats.PendingSynced,
		Queue:           queue,
		CachedWallets:   stats.CachedWallets,
		CachedStands:    stats.CachedStands,
		CachedProducts:  stats.CachedProducts,
		CachedHistory:   stats.CachedHistory,
		Attention:       stats.Attention(),
	}, nil
}

// ListFailedItemsUseCase lists failed queue items for the ops UI.
type ListFailedItemsUseCase struct {
	queueRepo ports.SyncQueueRepository
}

// NewListFailedItemsUseCase creates the use case.
func NewListFailedItemsUseCase(queueRepo ports.SyncQueueRepository) *ListFailedItemsUseCase {
	return &ListFailedItemsUseCase{queueRepo: queueRepo}
}

// Execute returns failed items, oldest first.
func (uc *ListFailedItemsUseCase) Execute(ctx context.Context, offset, limit int) ([]dtos.SyncItemDTO, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := uc.queueRepo.ListByStatus(ctx, entities.SyncStatusFailed, offset, limit)
	if err != nil {
		return nil, err
	}
	return dtos.ToSyncItemDTOList(items), nil
}
