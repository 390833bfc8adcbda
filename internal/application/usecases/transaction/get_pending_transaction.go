package transaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// GetPendingTransactionUseCase reads one pending transaction by id.
type GetPendingTransactionUseCase struct {
	pendingRepo ports.PendingTransactionRepository
}

// NewGetPendingTransactionUseCase creates the use case.
func NewGetPendingTransactionUseCase(pendingRepo ports.PendingTransactionRepository) *GetPendingTransactionUseCase {
	return &GetPendingTransactionUseCase{pendingRepo: pendingRepo}
}

// Execute loads the transaction.
func (uc *GetPendingTransactionUseCase) Execute(ctx context.Context, id string) (*dtos.PendingTransactionDTO, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.ValidationError{Field: "id", Message: "invalid transaction ID format"}
	}

	tx, err := uc.pendingRepo.FindByID(ctx, txID)
	if err != nil {
		return nil, err
	}

	dto := dtos.ToPendingTransactionDTO(tx)
	return &dto, nil
}
