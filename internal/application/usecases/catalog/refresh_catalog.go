// Package catalog contains use cases for the read-mostly local catalogue.
package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// RefreshCatalogUseCase applies a server catalogue snapshot. Catalogue
// conflicts are always ServerWins: the snapshot replaces whatever the
// device held, row by row (or wholesale when Replace is set).
type RefreshCatalogUseCase struct {
	catalogRepo ports.CatalogRepository
	uow         ports.UnitOfWork
}

// NewRefreshCatalogUseCase creates the use case.
func NewRefreshCatalogUseCase(
	catalogRepo ports.CatalogRepository,
	uow ports.UnitOfWork,
) *RefreshCatalogUseCase {
	return &RefreshCatalogUseCase{catalogRepo: catalogRepo, uow: uow}
}

// Execute applies the snapshot atomically: a partial catalogue is worse
// than a stale one.
func (uc *RefreshCatalogUseCase) Execute(ctx context.Context, snapshot dtos.CatalogSnapshot) (*dtos.CatalogRefreshResultDTO, error) {
	stands, err := standsFromInput(snapshot.Stands)
	if err != nil {
		return nil, err
	}
	products, err := productsFromInput(snapshot.Products)
	if err != nil {
		return nil, err
	}

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if snapshot.Replace {
			if err := uc.catalogRepo.Clear(txCtx); err != nil {
				return fmt.Errorf("failed to clear catalogue: %w", err)
			}
		}

		// Stands first: products reference them.
		if err := uc.catalogRepo.UpsertStands(txCtx, stands); err != nil {
			return err
		}
		if err := uc.catalogRepo.UpsertProducts(txCtx, products); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dtos.CatalogRefreshResultDTO{
		Stands:   len(stands),
		Products: len(products),
		Replaced: snapshot.Replace,
	}, nil
}

func standsFromInput(inputs []dtos.StandInput) ([]*entities.CachedStand, error) {
	stands := make([]*entities.CachedStand, 0, len(inputs))
	for _, in := range inputs {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, errors.ValidationError{Field: "stands.id", Message: "invalid stand ID format"}
		}
		festivalID, err := uuid.Parse(in.FestivalID)
		if err != nil {
			return nil, errors.ValidationError{Field: "stands.festival_id", Message: "invalid festival ID format"}
		}

		stand, err := entities.NewCachedStand(
			id, festivalID,
			in.Name,
			entities.StandType(in.Type),
			in.Description, in.Location,
			in.IsActive,
			in.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		stands = append(stands, stand)
	}
	return stands, nil
}

func productsFromInput(inputs []dtos.ProductInput) ([]*entities.CachedProduct, error) {
	products := make([]*entities.CachedProduct, 0, len(inputs))
	for _, in := range inputs {
		id, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, errors.ValidationError{Field: "products.id", Message: "invalid product ID format"}
		}
		standID, err := uuid.Parse(in.StandID)
		if err != nil {
			return nil, errors.ValidationError{Field: "products.stand_id", Message: "invalid stand ID format"}
		}
		price, err := valueobjects.NewAmount(in.Price)
		if err != nil {
			return nil, errors.ValidationError{Field: "products.price", Message: "price cannot be negative"}
		}

		product, err := entities.NewCachedProduct(
			id, standID,
			in.Name, in.Category,
			price,
			in.Available,
			in.StockQuantity,
			in.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}
