// Package sqlite - WalletCacheRepository over cached_wallets.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.WalletCacheRepository = (*WalletCacheRepository)(nil)

// WalletCacheRepository implements ports.WalletCacheRepository.
type WalletCacheRepository struct {
	db *sql.DB
}

// NewWalletCacheRepository creates the repository.
func NewWalletCacheRepository(db *sql.DB) *WalletCacheRepository {
	return &WalletCacheRepository{db: db}
}

const walletColumns = `id, user_id, balance, currency_name, exchange_rate,
	qr_code, qr_expires_at, last_sync, created_at, updated_at`

// Save upserts the cached wallet. Conflict on id: last write wins, the
// balance CHECK keeps a negative write from ever landing.
func (r *WalletCacheRepository) Save(ctx context.Context, wallet *entities.CachedWallet) error {
	q := querierFor(ctx, r.db)

	_, err := q.ExecContext(ctx, `
		INSERT INTO cached_wallets (`+walletColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			balance = excluded.balance,
			currency_name = excluded.currency_name,
			exchange_rate = excluded.exchange_rate,
			qr_code = excluded.qr_code,
			qr_expires_at = excluded.qr_expires_at,
			last_sync = excluded.last_sync,
			updated_at = excluded.updated_at`,
		wallet.ID().String(),
		wallet.UserID().String(),
		wallet.Balance().MinorUnits(),
		wallet.Currency().Name(),
		wallet.Currency().ExchangeRate(),
		nullString(wallet.QRCode()),
		encodeTimePtr(wallet.QRExpiresAt()),
		encodeTime(wallet.LastSync()),
		encodeTime(wallet.CreatedAt()),
		encodeTime(wallet.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to save cached wallet: %w", mapStoreError(err))
	}

	return nil
}

// FindByID loads a cached wallet by wallet id.
func (r *WalletCacheRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.CachedWallet, error) {
	q := querierFor(ctx, r.db)

	row := q.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM cached_wallets WHERE id = ?`,
		id.String())

	wallet, err := scanCachedWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.ErrWalletNotCached
	}
	return wallet, err
}

// FindByUserID loads the wallet cached for a user.
func (r *WalletCacheRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.CachedWallet, error) {
	q := querierFor(ctx, r.db)

	row := q.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM cached_wallets WHERE user_id = ?`,
		userID.String())

	wallet, err := scanCachedWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.ErrWalletNotCached
	}
	return wallet, err
}

// Delete removes a cached wallet; the cached_transactions cascade follows.
func (r *WalletCacheRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := querierFor(ctx, r.db)

	res, err := q.ExecContext(ctx,
		`DELETE FROM cached_wallets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete cached wallet: %w", mapStoreError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainerrors.ErrWalletNotCached
	}
	return nil
}

func scanCachedWallet(row rowScanner) (*entities.CachedWallet, error) {
	var (
		idStr, userStr                 string
		balance                        int64
		currencyName                   string
		exchangeRate                   float64
		qrCode                         sql.NullString
		qrExpiresAt                    sql.NullString
		lastSyncStr, createdAtStr, updatedAtStr string
	)

	err := row.Scan(&idStr, &userStr, &balance, &currencyName, &exchangeRate,
		&qrCode, &qrExpiresAt, &lastSyncStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan cached wallet: %w", mapStoreError(err))
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored wallet has malformed id: %w", err)
	}
	userID, err := uuid.Parse(userStr)
	if err != nil {
		return nil, fmt.Errorf("stored wallet has malformed user id: %w", err)
	}

	balanceVO, err := valueobjects.NewAmount(balance)
	if err != nil {
		return nil, fmt.Errorf("stored wallet has invalid balance: %w", err)
	}
	currency, err := valueobjects.NewCurrency(currencyName, exchangeRate)
	if err != nil {
		return nil, fmt.Errorf("stored wallet has invalid currency: %w", err)
	}

	qrExpires, err := decodeTimePtr(qrExpiresAt)
	if err != nil {
		return nil, err
	}
	lastSync, err := decodeTime(lastSyncStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := decodeTime(createdAtStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := decodeTime(updatedAtStr)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructCachedWallet(
		id, userID,
		balanceVO, currency,
		qrCode.String, qrExpires,
		lastSync, createdAt, updatedAt,
	), nil
}
