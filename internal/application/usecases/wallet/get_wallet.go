// Package wallet contains use cases for the locally cached wallet view.
package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// GetWalletUseCase reads the cached wallet by wallet id or user id.
type GetWalletUseCase struct {
	walletRepo ports.WalletCacheRepository
}

// NewGetWalletUseCase creates the use case.
func NewGetWalletUseCase(walletRepo ports.WalletCacheRepository) *GetWalletUseCase {
	return &GetWalletUseCase{walletRepo: walletRepo}
}

// Execute loads a cached wallet by wallet id.
func (uc *GetWalletUseCase) Execute(ctx context.Context, id string) (*dtos.WalletDTO, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.ValidationError{Field: "id", Message: "invalid wallet ID format"}
	}

	wallet, err := uc.walletRepo.FindByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	dto := dtos.ToWalletDTO(wallet)
	return &dto, nil
}

// ExecuteByUser loads the wallet cached for a user.
func (uc *GetWalletUseCase) ExecuteByUser(ctx context.Context, userID string) (*dtos.WalletDTO, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid user ID format"}
	}

	wallet, err := uc.walletRepo.FindByUserID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := dtos.ToWalletDTO(wallet)
	return &dto, nil
}
