// Package push contains the use case behind the server push channel: every
// message the push consumer receives funnels through here.
package push

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/application/usecases/wallet"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// ApplyPushUseCase applies server-pushed state to the local store.
//
// Conflict stance:
// - Wallet snapshots: ServerWins, always
// - Transactions: Merge by id; the history insert is idempotent, so a
//   transaction the device already recorded (via replay ACK) is a no-op
// - Alerts: pure fan-out, no storage
type ApplyPushUseCase struct {
	applySnapshot *wallet.ApplyWalletSnapshotUseCase
	historyRepo   ports.CachedTransactionRepository
	eventBus      ports.EventBus
	uow           ports.UnitOfWork
}

// NewApplyPushUseCase creates the use case.
func NewApplyPushUseCase(
	applySnapshot *wallet.ApplyWalletSnapshotUseCase,
	historyRepo ports.CachedTransactionRepository,
	eventBus ports.EventBus,
	uow ports.UnitOfWork,
) *ApplyPushUseCase {
	return &ApplyPushUseCase{
		applySnapshot: applySnapshot,
		historyRepo:   historyRepo,
		eventBus:      eventBus,
		uow:           uow,
	}
}

// ApplyWalletSnapshot adopts a pushed wallet state.
func (uc *ApplyPushUseCase) ApplyWalletSnapshot(ctx context.Context, snapshot dtos.WalletSnapshot) error {
	_, err := uc.applySnapshot.Execute(ctx, snapshot)
	return err
}

// ApplyTransaction records a pushed confirmed transaction in local history.
func (uc *ApplyPushUseCase) ApplyTransaction(ctx context.Context, pushed dtos.ServerTransaction) error {
	id, err := uuid.Parse(pushed.ID)
	if err != nil {
		return errors.ValidationError{Field: "id", Message: "invalid transaction ID format"}
	}
	walletID, err := uuid.Parse(pushed.WalletID)
	if err != nil {
		return errors.ValidationError{Field: "wallet_id", Message: "invalid wallet ID format"}
	}

	amount, err := valueobjects.NewAmount(pushed.Amount)
	if err != nil {
		return errors.ValidationError{Field: "amount", Message: "amount cannot be negative"}
	}

	var balanceAfter *valueobjects.Amount
	if pushed.BalanceAfter != nil {
		b, err := valueobjects.NewAmount(*pushed.BalanceAfter)
		if err != nil {
			return errors.ValidationError{Field: "balance_after", Message: "balance cannot be negative"}
		}
		balanceAfter = &b
	}

	tx := entities.NewCachedTransaction(
		id, walletID,
		amount,
		pushed.Type,
		pushed.StandName, pushed.Description,
		balanceAfter,
		pushed.CreatedAt,
	)

	return uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// The wallet must be cached before history can hang off it; a push
		// for an unknown wallet is dropped, the stats snapshot will bring
		// the wallet eventually.
		_, err := uc.historyRepo.Insert(txCtx, tx)
		if err != nil {
			return fmt.Errorf("failed to record pushed transaction: %w", err)
		}
		return nil
	})
}

// ApplyAlert republishes a pushed operator alert on the event bus.
func (uc *ApplyPushUseCase) ApplyAlert(ctx context.Context, alert dtos.ServerAlertDTO) error {
	if alert.Message == "" {
		return errors.ValidationError{Field: "message", Message: "alert message is required"}
	}
	uc.eventBus.Publish(ctx, events.NewServerAlert(alert.Severity, alert.Message))
	return nil
}
