package transaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
)

const defaultListLimit = 50

// ListPendingTransactionsUseCase pages the local pending log.
type ListPendingTransactionsUseCase struct {
	pendingRepo ports.PendingTransactionRepository
}

// NewListPendingTransactionsUseCase creates the use case.
func NewListPendingTransactionsUseCase(pendingRepo ports.PendingTransactionRepository) *ListPendingTransactionsUseCase {
	return &ListPendingTransactionsUseCase{pendingRepo: pendingRepo}
}

// Execute lists transactions matching the query, newest first.
func (uc *ListPendingTransactionsUseCase) Execute(ctx context.Context, query dtos.ListPendingTransactionsQuery) (*dtos.PendingTransactionListDTO, error) {
	filter := ports.PendingTransactionFilter{Synced: query.Synced}

	if query.WalletID != nil {
		walletID, err := uuid.Parse(*query.WalletID)
		if err != nil {
			return nil, errors.ValidationError{Field: "wallet_id", Message: "invalid wallet ID format"}
		}
		filter.WalletID = &walletID
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	txs, err := uc.pendingRepo.List(ctx, filter, query.Offset, limit)
	if err != nil {
		return nil, err
	}

	return &dtos.PendingTransactionListDTO{
		Transactions: dtos.ToPendingTransactionDTOList(txs),
		Offset:       query.Offset,
		Limit:        limit,
	}, nil
}
