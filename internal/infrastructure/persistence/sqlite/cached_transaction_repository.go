// Package sqlite - CachedTransactionRepository over cached_transactions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.CachedTransactionRepository = (*CachedTransactionRepository)(nil)

// CachedTransactionRepository implements ports.CachedTransactionRepository.
type CachedTransactionRepository struct {
	db *sql.DB
}

// NewCachedTransactionRepository creates the repository.
func NewCachedTransactionRepository(db *sql.DB) *CachedTransactionRepository {
	return &CachedTransactionRepository{db: db}
}

// Insert records a confirmed transaction. History rows are immutable:
// a conflict on id is a no-op so the first write always wins.
func (r *CachedTransactionRepository) Insert(ctx context.Context, tx *entities.CachedTransaction) (bool, error) {
	q := querierFor(ctx, r.db)

	var balanceAfter sql.NullInt64
	if tx.BalanceAfter() != nil {
		balanceAfter = sql.NullInt64{Int64: tx.BalanceAfter().MinorUnits(), Valid: true}
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO cached_transactions
			(id, wallet_id, amount, type, stand_name, description, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		tx.ID().String(),
		tx.WalletID().String(),
		tx.Amount().MinorUnits(),
		tx.Type(),
		nullString(tx.StandName()),
		nullString(tx.Description()),
		balanceAfter,
		encodeTime(tx.CreatedAt()),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert cached transaction: %w", mapStoreError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByWallet returns history for a wallet, newest first.
func (r *CachedTransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.CachedTransaction, error) {
	q := querierFor(ctx, r.db)

	rows, err := q.QueryContext(ctx, `
		SELECT id, wallet_id, amount, type, stand_name, description, balance_after, created_at
		FROM cached_transactions
		WHERE wallet_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		walletID.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached transactions: %w", mapStoreError(err))
	}
	defer rows.Close()

	var out []*entities.CachedTransaction
	for rows.Next() {
		tx, err := scanCachedTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Count returns the number of cached history rows.
func (r *CachedTransactionRepository) Count(ctx context.Context) (int, error) {
	q := querierFor(ctx, r.db)

	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cached_transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cached transactions: %w", mapStoreError(err))
	}
	return count, nil
}

func scanCachedTransaction(row rowScanner) (*entities.CachedTransaction, error) {
	var (
		idStr, walletStr       string
		amount                 int64
		txType                 string
		standName, description sql.NullString
		balanceAfter           sql.NullInt64
		createdAtStr           string
	)

	err := row.Scan(&idStr, &walletStr, &amount, &txType,
		&standName, &description, &balanceAfter, &createdAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan cached transaction: %w", mapStoreError(err))
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored transaction has malformed id: %w", err)
	}
	walletID, err := uuid.Parse(walletStr)
	if err != nil {
		return nil, fmt.Errorf("stored transaction has malformed wallet id: %w", err)
	}

	amountVO, err := valueobjects.NewAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("stored transaction has invalid amount: %w", err)
	}

	var balanceAfterVO *valueobjects.Amount
	if balanceAfter.Valid {
		b, err := valueobjects.NewAmount(balanceAfter.Int64)
		if err != nil {
			return nil, fmt.Errorf("stored transaction has invalid balance snapshot: %w", err)
		}
		balanceAfterVO = &b
	}

	createdAt, err := decodeTime(createdAtStr)
	if err != nil {
		return nil, err
	}

	return entities.NewCachedTransaction(
		id, walletID,
		amountVO,
		txType,
		standName.String, description.String,
		balanceAfterVO,
		createdAt,
	), nil
}
