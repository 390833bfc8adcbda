// Package dtos - catalogue DTOs: the refresh snapshot the ops API accepts
// and the browse shapes it serves.
package dtos

import "time"

// ============================================
// Commands (write operations)
// ============================================

// CatalogSnapshot is a bulk stand+product snapshot from the server,
// applied as an upsert (ServerWins).
type CatalogSnapshot struct {
	Stands   []StandInput   `json:"stands" binding:"dive"`
	Products []ProductInput `json:"products" binding:"dive"`
	Replace  bool           `json:"replace"` // true wipes the catalogue first
}

// StandInput is one stand row in a snapshot.
type StandInput struct {
	ID          string    `json:"id" binding:"required,uuid"`
	FestivalID  string    `json:"festival_id" binding:"required,uuid"`
	Name        string    `json:"name" binding:"required"`
	Type        string    `json:"type" binding:"required,oneof=FOOD DRINK MERCHANDISE SERVICE OTHER"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductInput is one product row in a snapshot.
type ProductInput struct {
	ID            string    `json:"id" binding:"required,uuid"`
	StandID       string    `json:"stand_id" binding:"required,uuid"`
	Name          string    `json:"name" binding:"required"`
	Category      string    `json:"category,omitempty"`
	Price         int64     `json:"price" binding:"min=0"`
	Available     bool      `json:"available"`
	StockQuantity *int64    `json:"stock_quantity,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ============================================
// Queries (read operations)
// ============================================

// ListStandsQuery filters the cached stands.
type ListStandsQuery struct {
	FestivalID *string `form:"festival_id" binding:"omitempty,uuid"`
	Type       *string `form:"type" binding:"omitempty,oneof=FOOD DRINK MERCHANDISE SERVICE OTHER"`
	ActiveOnly bool    `form:"active_only"`
}

// ListProductsQuery filters the cached products.
type ListProductsQuery struct {
	StandID   *string `form:"stand_id" binding:"omitempty,uuid"`
	Category  *string `form:"category"`
	Available *bool   `form:"available"`
}

// ============================================
// Response DTOs
// ============================================

// StandDTO is the API representation of a cached stand.
type StandDTO struct {
	ID          string    `json:"id"`
	FestivalID  string    `json:"festival_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductDTO is the API representation of a cached product.
type ProductDTO struct {
	ID            string    `json:"id"`
	StandID       string    `json:"stand_id"`
	Name          string    `json:"name"`
	Category      string    `json:"category,omitempty"`
	Price         int64     `json:"price"`
	Available     bool      `json:"available"`
	StockQuantity *int64    `json:"stock_quantity,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CatalogRefreshResultDTO reports what a snapshot touched.
type CatalogRefreshResultDTO struct {
	Stands   int  `json:"stands"`
	Products int  `json:"products"`
	Replaced bool `json:"replaced"`
}
