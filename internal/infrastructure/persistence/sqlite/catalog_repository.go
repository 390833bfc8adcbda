// Package sqlite - CatalogRepository over cached_stands and cached_products.
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
var _ ports.CatalogRepository = (*CatalogRepository)(nil)

// CatalogRepository implements ports.CatalogRepository.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates the repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// UpsertStands bulk-upserts stand rows, last write wins on id.
func (r *CatalogRepository) UpsertStands(ctx context.Context, stands []*entities.CachedStand) error {
	if len(stands) == 0 {
		return nil
	}
	q := querierFor(ctx, r.db)

	for _, stand := range stands {
		_, err := q.ExecContext(ctx, `
			INSERT INTO cached_stands
				(id, festival_id, name, type, description, location, is_active, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				festival_id = excluded.festival_id,
				name = excluded.name,
				type = excluded.type,
				description = excluded.description,
				location = excluded.location,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			stand.ID().String(),
			stand.FestivalID().String(),
			stand.Name(),
			string(stand.Type()),
			nullString(stand.Description()),
			nullString(stand.Location()),
			stand.IsActive(),
			encodeTime(stand.UpdatedAt()),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert stand %s: %w", stand.ID(), mapStoreError(err))
		}
	}

	return nil
}

// UpsertProducts bulk-upserts product rows. The stand foreign key rejects
// products whose stand is not cached.
func (r *CatalogRepository) UpsertProducts(ctx context.Context, products []*entities.CachedProduct) error {
	if len(products) == 0 {
		return nil
	}
	q := querierFor(ctx, r.db)

	for _, product := range products {
		_, err := q.ExecContext(ctx, `
			INSERT INTO cached_products
				(id, stand_id, name, category, price, available, stock_quantity, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				stand_id = excluded.stand_id,
				name = excluded.name,
				category = excluded.category,
				price = excluded.price,
				available = excluded.available,
				stock_quantity = excluded.stock_quantity,
				updated_at = excluded.updated_at`,
			product.ID().String(),
			product.StandID().String(),
			product.Name(),
			nullString(product.Category()),
			product.Price().MinorUnits(),
			product.IsAvailable(),
			nullInt64(product.StockQuantity()),
			encodeTime(product.UpdatedAt()),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert product %s: %w", product.ID(), mapStoreError(err))
		}
	}

	return nil
}

// ListStands returns stands filtered by festival and type, name order.
func (r *CatalogRepository) ListStands(ctx context.Context, filter ports.StandFilter) ([]*entities.CachedStand, error) {
	q := querierFor(ctx, r.db)

	query := `SELECT id, festival_id, name, type, description, location, is_active, updated_at
		FROM cached_stands WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.FestivalID != nil {
		query += ` AND festival_id = ?`
		args = append(args, filter.FestivalID.String())
	}
	if filter.Type != nil {
		query += ` AND type = ?`
		args = append(args, string(*filter.Type))
	}
	if filter.ActiveOnly {
		query += ` AND is_active = 1`
	}

	query += ` ORDER BY name ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stands: %w", mapStoreError(err))
	}
	defer rows.Close()

	var out []*entities.CachedStand
	for rows.Next() {
		stand, err := scanCachedStand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, stand)
	}
	return out, rows.Err()
}

// ListProducts returns products filtered by stand, category, availability.
func (r *CatalogRepository) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]*entities.CachedProduct, error) {
	q := querierFor(ctx, r.db)

	query := `SELECT id, stand_id, name, category, price, available, stock_quantity, updated_at
		FROM cached_products WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.StandID != nil {
		query += ` AND stand_id = ?`
		args = append(args, filter.StandID.String())
	}
	if filter.Category != nil {
		query += ` AND category = ?`
		args = append(args, *filter.Category)
	}
	if filter.Available != nil {
		query += ` AND available = ?`
		args = append(args, *filter.Available)
	}

	query += ` ORDER BY name ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", mapStoreError(err))
	}
	defer rows.Close()

	var out []*entities.CachedProduct
	for rows.Next() {
		product, err := scanCachedProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, product)
	}
	return out, rows.Err()
}

// DeleteStand removes a stand; the product cascade follows.
func (r *CatalogRepository) DeleteStand(ctx context.Context, id uuid.UUID) error {
	q := querierFor(ctx, r.db)

	res, err := q.ExecContext(ctx,
		`DELETE FROM cached_stands WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete stand: %w", mapStoreError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainerrors.ErrStandNotFound
	}
	return nil
}

// Clear wipes the catalogue ahead of a full refresh. Products first so the
// cascade never has to fire.
func (r *CatalogRepository) Clear(ctx context.Context) error {
	q := querierFor(ctx, r.db)

	if _, err := q.ExecContext(ctx, `DELETE FROM cached_products`); err != nil {
		return fmt.Errorf("failed to clear products: %w", mapStoreError(err))
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM cached_stands`); err != nil {
		return fmt.Errorf("failed to clear stands: %w", mapStoreError(err))
	}
	return nil
}

func scanCachedStand(row rowScanner) (*entities.CachedStand, error) {
	var (
		idStr, festivalStr, name, standType string
		description, location               sql.NullString
		isActive                            bool
		updatedAtStr                        string
	)

	err := row.Scan(&idStr, &festivalStr, &name, &standType,
		&description, &location, &isActive, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan stand: %w", mapStoreError(err))
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored stand has malformed id: %w", err)
	}
	festivalID, err := uuid.Parse(festivalStr)
	if err != nil {
		return nil, fmt.Errorf("stored stand has malformed festival id: %w", err)
	}
	updatedAt, err := decodeTime(updatedAtStr)
	if err != nil {
		return nil, err
	}

	return entities.NewCachedStand(
		id, festivalID,
		name,
		entities.StandType(standType),
		description.String, location.String,
		isActive,
		updatedAt,
	)
}

func scanCachedProduct(row rowScanner) (*entities.CachedProduct, error) {
	var (
		idStr, standStr, name string
		category              sql.NullString
		price                 int64
		available             bool
		stockQuantity         sql.NullInt64
		updatedAtStr          string
	)

	err := row.Scan(&idStr, &standStr, &name, &category,
		&price, &available, &stockQuantity, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", mapStoreError(err))
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored product has malformed id: %w", err)
	}
	standID, err := uuid.Parse(standStr)
	if err != nil {
		return nil, fmt.Errorf("stored product has malformed stand id: %w", err)
	}

	priceVO, err := valueobjects.NewAmount(price)
	if err != nil {
		return nil, fmt.Errorf("stored product has invalid price: %w", err)
	}

	updatedAt, err := decodeTime(updatedAtStr)
	if err != nil {
		return nil, err
	}

	return entities.NewCachedProduct(
		id, standID,
		name, category.String,
		priceVO,
		available,
		int64Ptr(stockQuantity),
		updatedAt,
	)
}
