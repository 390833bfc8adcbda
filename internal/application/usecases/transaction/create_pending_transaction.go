// Package transaction contains use cases for the offline pending log.
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
	"github.com/mimi6060/festivals-pos/internal/domain/signing"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// HighPriorityMaxRetries is the retry budget for monetary queue items.
const HighPriorityMaxRetries = 10

// CreatePendingTransactionUseCase records an offline payment intent.
//
// Scenario:
// 1. Validate preconditions in order: balance, amount, device key
// 2. Derive the replay identity (idempotency key) and sign the transaction
// 3. In ONE unit of work: apply the speculative debit, persist the
//    transaction, enqueue the replay item
// 4. After commit, publish events and wake the dispatcher
//
// Business rules:
// - Only PURCHASE and PAYMENT debit the cached balance; REFUND and CANCEL
//   wait for server confirmation
// - The cached balance never goes below zero
// - Everything is atomic: a crash leaves either no trace or a complete,
//   replayable record
type CreatePendingTransactionUseCase struct {
	walletRepo  ports.WalletCacheRepository
	pendingRepo ports.PendingTransactionRepository
	queueRepo   ports.SyncQueueRepository
	eventBus    ports.EventBus
	uow         ports.UnitOfWork

	signer   *signing.Signer // nil when the device key is not provisioned
	counter  *signing.Counter
	deviceID uuid.UUID
	trigger  ports.SyncTrigger // optional; nil before the queue starts
}

// NewCreatePendingTransactionUseCase creates the use case.
func NewCreatePendingTransactionUseCase(
	walletRepo ports.WalletCacheRepository,
	pendingRepo ports.PendingTransactionRepository,
	queueRepo ports.SyncQueueRepository,
	eventBus ports.EventBus,
	uow ports.UnitOfWork,
	signer *signing.Signer,
	counter *signing.Counter,
	deviceID uuid.UUID,
) *CreatePendingTransactionUseCase {
	return &CreatePendingTransactionUseCase{
		walletRepo:  walletRepo,
		pendingRepo: pendingRepo,
		queueRepo:   queueRepo,
		eventBus:    eventBus,
		uow:         uow,
		signer:      signer,
		counter:     counter,
		deviceID:    deviceID,
	}
}

// SetTrigger attaches the dispatcher wake-up after the queue is built.
func (uc *CreatePendingTransactionUseCase) SetTrigger(trigger ports.SyncTrigger) {
	uc.trigger = trigger
}

// Execute records the payment intent and returns the durable transaction.
func (uc *CreatePendingTransactionUseCase) Execute(ctx context.Context, cmd dtos.CreatePendingTransactionCommand) (*dtos.PendingTransactionDTO, error) {
	walletID, err := uuid.Parse(cmd.WalletID)
	if err != nil {
		return nil, errors.ValidationError{Field: "wallet_id", Message: "invalid wallet ID format"}
	}
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid user ID format"}
	}

	var standID *uuid.UUID
	if cmd.StandID != "" {
		id, err := uuid.Parse(cmd.StandID)
		if err != nil {
			return nil, errors.ValidationError{Field: "stand_id", Message: "invalid stand ID format"}
		}
		standID = &id
	}

	txType := entities.TransactionType(cmd.Type)
	if !txType.IsValid() {
		return nil, errors.ErrInvalidTransactionType
	}

	amount, err := valueobjects.NewAmount(cmd.Amount)
	if err != nil {
		return nil, errors.NewDomainError("INVALID_AMOUNT", "transaction amount must be positive", errors.ErrInvalidAmount)
	}

	items, err := productItemsFromInput(cmd.ProductItems)
	if err != nil {
		return nil, err
	}

	var (
		result    *dtos.PendingTransactionDTO
		collector = events.NewCollector()
	)

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Load the cached wallet; an unknown wallet cannot pay.
		wallet, err := uc.walletRepo.FindByID(txCtx, walletID)
		if err != nil {
			return err
		}

		// 2. Preconditions, checked in a fixed order so the operator always
		// sees the most actionable failure first.
		if txType.DebitsWallet() && !wallet.HasSufficientBalance(amount) {
			return errors.ErrInsufficientBalance
		}
		if !amount.IsPositive() {
			return errors.NewDomainError("INVALID_AMOUNT", "transaction amount must be positive", errors.ErrInvalidAmount)
		}
		if uc.signer == nil {
			return errors.ErrDeviceNotProvisioned
		}

		// 3. Derive the replay identity. The creation instant feeds both the
		// idempotency key and the transaction, so they can never disagree.
		createdAt := time.Now()
		key := signing.IdempotencyKey(
			uc.deviceID.String(),
			walletID.String(),
			amount.MinorUnits(),
			string(txType),
			createdAt.UnixMilli(),
			uc.counter.Next(),
		)

		tx, err := entities.NewPendingTransaction(
			walletID, userID,
			amount, txType,
			standID, cmd.StandName, cmd.Description,
			items,
			key,
			uc.deviceID,
			createdAt,
		)
		if err != nil {
			return err
		}

		if err := tx.Sign(uc.signer); err != nil {
			return err
		}

		// 4. Speculative debit for spending types only.
		if txType.DebitsWallet() {
			if err := wallet.SpeculativeDebit(amount); err != nil {
				return err
			}
			if err := uc.walletRepo.Save(txCtx, wallet); err != nil {
				return fmt.Errorf("failed to save wallet: %w", err)
			}
		}

		// 5. Persist the transaction.
		if err := uc.pendingRepo.Save(txCtx, tx); err != nil {
			return err
		}

		// 6. Enqueue the replay item carrying the full serialised record.
		payload, err := dtos.EncodePendingTransactionPayload(dtos.ToPendingTransactionPayload(tx))
		if err != nil {
			return err
		}

		item, err := entities.NewSyncItem(
			entities.SyncOperationCreate,
			entities.EntityTypePendingTransaction,
			tx.ID().String(),
			payload,
			entities.PriorityHigh,
			HighPriorityMaxRetries,
		)
		if err != nil {
			return err
		}
		if err := uc.queueRepo.Save(txCtx, item); err != nil {
			return fmt.Errorf("failed to enqueue sync item: %w", err)
		}

		collector.Add(events.NewPaymentCreated(
			tx.ID(), walletID, string(txType), amount.MinorUnits(), key))
		collector.Add(events.NewSyncItemEnqueued(
			item.ID(), item.EntityType(), item.EntityID(), int(item.Priority())))

		dto := dtos.ToPendingTransactionDTO(tx)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Events fire only after the unit of work committed.
	uc.eventBus.PublishBatch(ctx, collector.Drain())

	if uc.trigger != nil {
		uc.trigger.Trigger()
	}

	return result, nil
}

func productItemsFromInput(inputs []dtos.ProductItemInput) (valueobjects.ProductItems, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	items := make(valueobjects.ProductItems, 0, len(inputs))
	for _, in := range inputs {
		price, err := valueobjects.NewAmount(in.UnitPrice)
		if err != nil {
			return nil, errors.ValidationError{Field: "product_items.unit_price", Message: "unit price cannot be negative"}
		}
		item, err := valueobjects.NewProductItem(in.ProductID, in.Name, in.Quantity, price)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
