// Package entities - CachedTransaction is the immutable local history row.
// Inserts are idempotent (conflict on id is a no-op) so the first write
// wins and historical balance snapshots are never rewritten.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// CachedTransaction mirrors one confirmed transaction for offline browsing.
// The type is kept as a free string: server history includes kinds the
// device never originates (TOP_UP, CASH_IN) and the cache must not reject
// them.
type CachedTransaction struct {
	id          uuid.UUID
	walletID    uuid.UUID
	amount      valueobjects.Amount
	txType      string
	standName   string
	description string

	// Balance snapshot after this transaction, when the server reported one
	balanceAfter *valueobjects.Amount

	createdAt time.Time
}

// NewCachedTransaction records a confirmed transaction for history browsing.
func NewCachedTransaction(
	id, walletID uuid.UUID,
	amount valueobjects.Amount,
	txType string,
	standName, description string,
	balanceAfter *valueobjects.Amount,
	createdAt time.Time,
) *CachedTransaction {
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &CachedTransaction{
		id:           id,
		walletID:     walletID,
		amount:       amount,
		txType:       txType,
		standName:    standName,
		description:  description,
		balanceAfter: balanceAfter,
		createdAt:    createdAt,
	}
}

func (t *CachedTransaction) ID() uuid.UUID                        { return t.id }
func (t *CachedTransaction) WalletID() uuid.UUID                  { return t.walletID }
func (t *CachedTransaction) Amount() valueobjects.Amount          { return t.amount }
func (t *CachedTransaction) Type() string                         { return t.txType }
func (t *CachedTransaction) StandName() string                    { return t.standName }
func (t *CachedTransaction) Description() string                  { return t.description }
func (t *CachedTransaction) BalanceAfter() *valueobjects.Amount   { return t.balanceAfter }
func (t *CachedTransaction) CreatedAt() time.Time                 { return t.createdAt }
