// Package sqlite - PendingTransactionRepository over pending_transactions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.PendingTransactionRepository = (*PendingTransactionRepository)(nil)

// PendingTransactionRepository implements ports.PendingTransactionRepository.
type PendingTransactionRepository struct {
	db *sql.DB
}

// NewPendingTransactionRepository creates the repository.
func NewPendingTransactionRepository(db *sql.DB) *PendingTransactionRepository {
	return &PendingTransactionRepository{db: db}
}

// productItemRow is the stored JSON shape of one product line.
type productItemRow struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

const pendingColumns = `id, wallet_id, user_id, amount, type, stand_id, stand_name,
	description, product_items, idempotency_key, offline_signature, device_id,
	synced, retry_count, last_retry_at, error, created_at`

// Save persists a pending transaction, insert or update by id.
// A second insert with the same (device_id, idempotency_key) surfaces as
// ErrDuplicateIdempotencyKey.
func (r *PendingTransactionRepository) Save(ctx context.Context, tx *entities.PendingTransaction) error {
	q := querierFor(ctx, r.db)

	items, err := encodeProductItems(tx.ProductItems())
	if err != nil {
		return err
	}

	var standID sql.NullString
	if tx.StandID() != nil {
		standID = sql.NullString{String: tx.StandID().String(), Valid: true}
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO pending_transactions (`+pendingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			synced = excluded.synced,
			retry_count = excluded.retry_count,
			last_retry_at = excluded.last_retry_at,
			error = excluded.error`,
		tx.ID().String(),
		tx.WalletID().String(),
		tx.UserID().String(),
		tx.Amount().MinorUnits(),
		string(tx.Type()),
		standID,
		nullString(tx.StandName()),
		nullString(tx.Description()),
		items,
		tx.IdempotencyKey(),
		tx.OfflineSignature(),
		tx.DeviceID().String(),
		tx.IsSynced(),
		tx.RetryCount(),
		encodeTimePtr(tx.LastRetryAt()),
		nullString(tx.SyncError()),
		encodeTime(tx.CreatedAt()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: device %s key %s",
				domainerrors.ErrDuplicateIdempotencyKey, tx.DeviceID(), tx.IdempotencyKey())
		}
		return fmt.Errorf("failed to save pending transaction: %w", mapStoreError(err))
	}

	return nil
}

// FindByID loads a pending transaction by id.
func (r *PendingTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.PendingTransaction, error) {
	q := querierFor(ctx, r.db)

	row := q.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_transactions WHERE id = ?`,
		id.String())

	tx, err := scanPendingTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.ErrPendingTransactionNotFound
	}
	return tx, err
}

// FindByIdempotencyKey loads by the replay identity.
func (r *PendingTransactionRepository) FindByIdempotencyKey(ctx context.Context, deviceID uuid.UUID, key string) (*entities.PendingTransaction, error) {
	q := querierFor(ctx, r.db)

	row := q.QueryRowContext(ctx,
		`SELECT `+pendingColumns+` FROM pending_transactions
		 WHERE device_id = ? AND idempotency_key = ?`,
		deviceID.String(), key)

	tx, err := scanPendingTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.ErrPendingTransactionNotFound
	}
	return tx, err
}

// List returns filtered pending transactions, newest first.
func (r *PendingTransactionRepository) List(ctx context.Context, filter ports.PendingTransactionFilter, offset, limit int) ([]*entities.PendingTransaction, error) {
	q := querierFor(ctx, r.db)

	query := `SELECT ` + pendingColumns + ` FROM pending_transactions WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if filter.WalletID != nil {
		query += ` AND wallet_id = ?`
		args = append(args, filter.WalletID.String())
	}
	if filter.Synced != nil {
		query += ` AND synced = ?`
		args = append(args, *filter.Synced)
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", mapStoreError(err))
	}
	defer rows.Close()

	var out []*entities.PendingTransaction
	for rows.Next() {
		tx, err := scanPendingTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CountUnsynced returns how many transactions still await an ACK.
func (r *PendingTransactionRepository) CountUnsynced(ctx context.Context) (int, error) {
	q := querierFor(ctx, r.db)

	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_transactions WHERE synced = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unsynced transactions: %w", mapStoreError(err))
	}
	return count, nil
}

// DeleteSyncedBefore purges synced rows older than the cutoff.
func (r *PendingTransactionRepository) DeleteSyncedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	q := querierFor(ctx, r.db)

	res, err := q.ExecContext(ctx,
		`DELETE FROM pending_transactions WHERE synced = 1 AND created_at < ?`,
		encodeTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge synced transactions: %w", mapStoreError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPendingTransaction(row rowScanner) (*entities.PendingTransaction, error) {
	var (
		idStr, walletStr, userStr, deviceStr string
		amount                               int64
		txType                               string
		standID, standName, description      sql.NullString
		itemsRaw                             sql.NullString
		idempotencyKey, signature            string
		synced                               bool
		retryCount                           int
		lastRetryAt, syncError               sql.NullString
		createdAtStr                         string
	)

	err := row.Scan(&idStr, &walletStr, &userStr, &amount, &txType, &standID,
		&standName, &description, &itemsRaw, &idempotencyKey, &signature,
		&deviceStr, &synced, &retryCount, &lastRetryAt, &syncError, &createdAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pending transaction: %w", mapStoreError(err))
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored pending transaction has malformed id: %w", err)
	}
	walletID, err := uuid.Parse(walletStr)
	if err != nil {
		return nil, fmt.Errorf("stored pending transaction has malformed wallet id: %w", err)
	}
	userID, err := uuid.Parse(userStr)
	if err != nil {
		return nil, fmt.Errorf("stored pending transaction has malformed user id: %w", err)
	}
	deviceID, err := uuid.Parse(deviceStr)
	if err != nil {
		return nil, fmt.Errorf("stored pending transaction has malformed device id: %w", err)
	}

	var standIDPtr *uuid.UUID
	if standID.Valid {
		s, err := uuid.Parse(standID.String)
		if err != nil {
			return nil, fmt.Errorf("stored pending transaction has malformed stand id: %w", err)
		}
		standIDPtr = &s
	}

	amountVO, err := valueobjects.NewAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("stored pending transaction has invalid amount: %w", err)
	}

	items, err := decodeProductItems(itemsRaw)
	if err != nil {
		return nil, err
	}

	lastRetry, err := decodeTimePtr(lastRetryAt)
	if err != nil {
		return nil, err
	}

	createdAt, err := decodeTime(createdAtStr)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructPendingTransaction(
		id, walletID, userID,
		amountVO,
		entities.TransactionType(txType),
		standIDPtr,
		standName.String, description.String,
		items,
		idempotencyKey, signature,
		deviceID,
		synced,
		retryCount,
		lastRetry,
		syncError.String,
		createdAt,
	), nil
}

func encodeProductItems(items valueobjects.ProductItems) (sql.NullString, error) {
	if items.IsEmpty() {
		return sql.NullString{}, nil
	}

	rows := make([]productItemRow, len(items))
	for i, item := range items {
		rows[i] = productItemRow{
			ProductID: item.ProductID(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().MinorUnits(),
		}
	}

	b, err := json.Marshal(rows)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode product items: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeProductItems(raw sql.NullString) (valueobjects.ProductItems, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}

	var rows []productItemRow
	if err := json.Unmarshal([]byte(raw.String), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode stored product items: %w", err)
	}

	items := make(valueobjects.ProductItems, 0, len(rows))
	for _, row := range rows {
		price, err := valueobjects.NewAmount(row.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("stored product item has invalid price: %w", err)
		}
		item, err := valueobjects.NewProductItem(row.ProductID, row.Name, row.Quantity, price)
		if err != nil {
			return nil, fmt.Errorf("stored product item is invalid: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}
