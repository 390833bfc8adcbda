// Package entities - CachedStand and CachedProduct form the read-mostly
// catalogue the POS browses while offline. Rows are bulk-upserted from
// server snapshots and never mutated by offline operations.
package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// StandType categorises a stand on the festival grounds.
type StandType string

const (
	StandTypeFood        StandType = "FOOD"
	StandTypeDrink       StandType = "DRINK"
	StandTypeMerchandise StandType = "MERCHANDISE"
	StandTypeService     StandType = "SERVICE"
	StandTypeOther       StandType = "OTHER"
)

// IsValid checks if the stand type is valid.
func (t StandType) IsValid() bool {
	switch t {
	case StandTypeFood, StandTypeDrink, StandTypeMerchandise, StandTypeService, StandTypeOther:
		return true
	default:
		return false
	}
}

// CachedStand is a stand row in the local catalogue.
type CachedStand struct {
	id          uuid.UUID
	festivalID  uuid.UUID
	name        string
	standType   StandType
	description string
	location    string
	isActive    bool
	updatedAt   time.Time
}

// NewCachedStand materialises a stand from a server snapshot.
func NewCachedStand(
	id, festivalID uuid.UUID,
	name string,
	standType StandType,
	description, location string,
	isActive bool,
	updatedAt time.Time,
) (*CachedStand, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.ValidationError{Field: "name", Message: "stand name is required"}
	}
	if !standType.IsValid() {
		return nil, errors.ValidationError{Field: "type", Message: "unknown stand type"}
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return &CachedStand{
		id:          id,
		festivalID:  festivalID,
		name:        name,
		standType:   standType,
		description: description,
		location:    location,
		isActive:    isActive,
		updatedAt:   updatedAt,
	}, nil
}

func (s *CachedStand) ID() uuid.UUID         { return s.id }
func (s *CachedStand) FestivalID() uuid.UUID { return s.festivalID }
func (s *CachedStand) Name() string          { return s.name }
func (s *CachedStand) Type() StandType       { return s.standType }
func (s *CachedStand) Description() string   { return s.description }
func (s *CachedStand) Location() string      { return s.location }
func (s *CachedStand) IsActive() bool        { return s.isActive }
func (s *CachedStand) UpdatedAt() time.Time  { return s.updatedAt }

// CachedProduct is a product row in the local catalogue. Stock is advisory:
// the device shows it but the server enforces it.
type CachedProduct struct {
	id            uuid.UUID
	standID       uuid.UUID
	name          string
	category      string
	price         valueobjects.Amount
	available     bool
	stockQuantity *int64
	updatedAt     time.Time
}

// NewCachedProduct materialises a product from a server snapshot.
func NewCachedProduct(
	id, standID uuid.UUID,
	name, category string,
	price valueobjects.Amount,
	available bool,
	stockQuantity *int64,
	updatedAt time.Time,
) (*CachedProduct, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.ValidationError{Field: "name", Message: "product name is required"}
	}
	if stockQuantity != nil && *stockQuantity < 0 {
		return nil, errors.ValidationError{Field: "stock_quantity", Message: "stock cannot be negative"}
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	return &CachedProduct{
		id:            id,
		standID:       standID,
		name:          name,
		category:      category,
		price:         price,
		available:     available,
		stockQuantity: stockQuantity,
		updatedAt:     updatedAt,
	}, nil
}

func (p *CachedProduct) ID() uuid.UUID              { return p.id }
func (p *CachedProduct) StandID() uuid.UUID         { return p.standID }
func (p *CachedProduct) Name() string               { return p.name }
func (p *CachedProduct) Category() string           { return p.category }
func (p *CachedProduct) Price() valueobjects.Amount { return p.price }
func (p *CachedProduct) IsAvailable() bool          { return p.available }
func (p *CachedProduct) StockQuantity() *int64      { return p.stockQuantity }
func (p *CachedProduct) UpdatedAt() time.Time       { return p.updatedAt }
