// Package sync contains use cases for operating the sync queue.
package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// RetryFailedItemUseCase re-arms a failed queue item after operator
// intervention: failed -> pending with a fresh retry budget.
type RetryFailedItemUseCase struct {
	queueRepo ports.SyncQueueRepository
	uow       ports.UnitOfWork
	trigger   ports.SyncTrigger // optional; nil before the queue starts
}

// NewRetryFailedItemUseCase creates the use case.
func NewRetryFailedItemUseCase(
	queueRepo ports.SyncQueueRepository,
	uow ports.UnitOfWork,
) *RetryFailedItemUseCase {
	return &RetryFailedItemUseCase{queueRepo: queueRepo, uow: uow}
}

// SetTrigger attaches the dispatcher wake-up after the queue is built.
func (uc *RetryFailedItemUseCase) SetTrigger(trigger ports.SyncTrigger) {
	uc.trigger = trigger
}

// Execute resets the item and wakes the dispatcher.
func (uc *RetryFailedItemUseCase) Execute(ctx context.Context, cmd dtos.RetryFailedItemCommand) (*dtos.SyncItemDTO, error) {
	itemID, err := uuid.Parse(cmd.ItemID)
	if err != nil {
		return nil, errors.ValidationError{Field: "item_id", Message: "invalid item ID format"}
	}

	var result *dtos.SyncItemDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		item, err := uc.queueRepo.FindByID(txCtx, itemID)
		if err != nil {
			return err
		}

		if err := item.ResetForRetry(); err != nil {
			return err
		}

		if err := uc.queueRepo.Save(txCtx, item); err != nil {
			return fmt.Errorf("failed to save sync item: %w", err)
		}

		dto := dtos.ToSyncItemDTO(item)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.trigger != nil {
		uc.trigger.Trigger()
	}

	return result, nil
}
