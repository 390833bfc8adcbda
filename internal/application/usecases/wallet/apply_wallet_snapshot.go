package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// ApplyWalletSnapshotUseCase adopts an authoritative wallet state pushed by
// the server. The server always wins: whatever balance the device had
// speculated about, the snapshot replaces it.
type ApplyWalletSnapshotUseCase struct {
	walletRepo ports.WalletCacheRepository
	uow        ports.UnitOfWork
}

// NewApplyWalletSnapshotUseCase creates the use case.
func NewApplyWalletSnapshotUseCase(
	walletRepo ports.WalletCacheRepository,
	uow ports.UnitOfWork,
) *ApplyWalletSnapshotUseCase {
	return &ApplyWalletSnapshotUseCase{walletRepo: walletRepo, uow: uow}
}

// Execute upserts the cached wallet from the snapshot.
func (uc *ApplyWalletSnapshotUseCase) Execute(ctx context.Context, snapshot dtos.WalletSnapshot) (*dtos.WalletDTO, error) {
	walletID, err := uuid.Parse(snapshot.WalletID)
	if err != nil {
		return nil, errors.ValidationError{Field: "wallet_id", Message: "invalid wallet ID format"}
	}
	userID, err := uuid.Parse(snapshot.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid user ID format"}
	}

	balance, err := valueobjects.NewAmount(snapshot.Balance)
	if err != nil {
		return nil, errors.ValidationError{Field: "balance", Message: "balance cannot be negative"}
	}

	exchangeRate := snapshot.ExchangeRate
	if exchangeRate == 0 {
		exchangeRate = 1.0
	}
	currency, err := valueobjects.NewCurrency(snapshot.CurrencyName, exchangeRate)
	if err != nil {
		return nil, err
	}

	syncedAt := snapshot.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}

	var result *dtos.WalletDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		wallet, err := uc.walletRepo.FindByID(txCtx, walletID)
		switch {
		case err == nil:
			// Existing cache row: adopt the server state.
			wallet.AdoptServerBalance(balance, syncedAt)
			if snapshot.QRCode != "" {
				wallet.RefreshQR(snapshot.QRCode, snapshot.QRExpiresAt)
			}
		case errors.IsNotFound(err):
			// First sight of this wallet: materialise it.
			wallet, err = entities.NewCachedWallet(
				walletID, userID,
				balance, currency,
				snapshot.QRCode, snapshot.QRExpiresAt,
				syncedAt,
			)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("failed to load cached wallet: %w", err)
		}

		if err := uc.walletRepo.Save(txCtx, wallet); err != nil {
			return fmt.Errorf("failed to save cached wallet: %w", err)
		}

		dto := dtos.ToWalletDTO(wallet)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
