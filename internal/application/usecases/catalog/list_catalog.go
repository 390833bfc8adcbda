package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	"github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// ListCatalogUseCase serves the cached catalogue for offline browsing.
type ListCatalogUseCase struct {
	catalogRepo ports.CatalogRepository
}

// NewListCatalogUseCase creates the use case.
func NewListCatalogUseCase(catalogRepo ports.CatalogRepository) *ListCatalogUseCase {
	return &ListCatalogUseCase{catalogRepo: catalogRepo}
}

// Stands lists cached stands matching the query.
func (uc *ListCatalogUseCase) Stands(ctx context.Context, query dtos.ListStandsQuery) ([]dtos.StandDTO, error) {
	filter := ports.StandFilter{ActiveOnly: query.ActiveOnly}

	if query.FestivalID != nil {
		festivalID, err := uuid.Parse(*query.FestivalID)
		if err != nil {
			return nil, errors.ValidationError{Field: "festival_id", Message: "invalid festival ID format"}
		}
		filter.FestivalID = &festivalID
	}
	if query.Type != nil {
		standType := entities.StandType(*query.Type)
		if !standType.IsValid() {
			return nil, errors.ValidationError{Field: "type", Message: "unknown stand type"}
		}
		filter.Type = &standType
	}

	stands, err := uc.catalogRepo.ListStands(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dtos.ToStandDTOList(stands), nil
}

// Products lists cached products matching the query.
func (uc *ListCatalogUseCase) Products(ctx context.Context, query dtos.ListProductsQuery) ([]dtos.ProductDTO, error) {
	filter := ports.ProductFilter{
		Category:  query.Category,
		Available: query.Available,
	}

	if query.StandID != nil {
		standID, err := uuid.Parse(*query.StandID)
		if err != nil {
			return nil, errors.ValidationError{Field: "stand_id", Message: "invalid stand ID format"}
		}
		filter.StandID = &standID
	}

	products, err := uc.catalogRepo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dtos.ToProductDTOList(products), nil
}
