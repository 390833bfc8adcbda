// Package handlers - Catalogue HTTP handlers over the local cache.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mimi6060/festivals-pos/internal/adapters/http/common"
	"github.com/mimi6060/festivals-pos/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// ListCatalogUseCase serves the cached catalogue for offline browsing.
type ListCatalogUseCase interface {
	Stands(ctx context.Context, query dtos.ListStandsQuery) ([]dtos.StandDTO, error)
	Products(ctx context.Context, query dtos.ListProductsQuery) ([]dtos.ProductDTO, error)
}

// RefreshCatalogUseCase applies a server catalogue snapshot.
type RefreshCatalogUseCase interface {
	Execute(ctx context.Context, snapshot dtos.CatalogSnapshot) (*dtos.CatalogRefreshResultDTO, error)
}

// ============================================
// Catalog Handler
// ============================================

// CatalogHandler serves the cached stands and products.
type CatalogHandler struct {
	listCatalog    ListCatalogUseCase
	refreshCatalog RefreshCatalogUseCase
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(listCatalog ListCatalogUseCase, refreshCatalog RefreshCatalogUseCase) *CatalogHandler {
	return &CatalogHandler{
		listCatalog:    listCatalog,
		refreshCatalog: refreshCatalog,
	}
}

// ============================================
// HTTP Handlers
// ============================================

// ListStands returns the cached stands.
//
// @Summary List cached stands
// @Tags Catalog
// @Produce json
// @Param festival_id query string false "Filter by festival ID" format(uuid)
// @Param type query string false "Filter by type" Enums(FOOD, DRINK, MERCHANDISE, SERVICE, OTHER)
// @Param active_only query bool false "Only active stands"
// @Success 200 {object} common.APIResponse{data=[]dtos.StandDTO}
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/catalog/stands [get]
func (h *CatalogHandler) ListStands(c *gin.Context) {
	var query dtos.ListStandsQuery
	if !BindQuery(c, &query) {
		return
	}

	result, err := h.listCatalog.Stands(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListProducts returns the cached products.
//
// @Summary List cached products
// @Tags Catalog
// @Produce json
// @Param stand_id query string false "Filter by stand ID" format(uuid)
// @Param category query string false "Filter by category"
// @Param available query bool false "Filter by availability"
// @Success 200 {object} common.APIResponse{data=[]dtos.ProductDTO}
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var query dtos.ListProductsQuery
	if !BindQuery(c, &query) {
		return
	}

	result, err := h.listCatalog.Products(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RefreshCatalog applies a catalogue snapshot atomically.
//
// @Summary Apply a catalogue snapshot
// @Description Upsert stands and products from a server snapshot; Replace wipes the catalogue first
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body dtos.CatalogSnapshot true "Catalogue snapshot"
// @Success 200 {object} common.APIResponse{data=dtos.CatalogRefreshResultDTO}
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/catalog/refresh [post]
func (h *CatalogHandler) RefreshCatalog(c *gin.Context) {
	var snapshot dtos.CatalogSnapshot
	if !BindJSON(c, &snapshot) {
		return
	}

	result, err := h.refreshCatalog.Execute(c.Request.Context(), snapshot)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes registers the catalogue routes.
//
// Routes:
// - GET  /catalog/stands   - List cached stands
// - GET  /catalog/products - List cached products
// - POST /catalog/refresh  - Apply a catalogue snapshot
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	catalog := router.Group("/catalog")
	{
		catalog.GET("/stands", h.ListStands)
		catalog.GET("/products", h.ListProducts)
		catalog.POST("/refresh", h.RefreshCatalog)
	}
}
