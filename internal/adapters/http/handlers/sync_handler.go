// Package handlers - Sync queue HTTP handlers for the ops UI.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mimi6060/festivals-pos/internal/adapters/http/common"
	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
)

// ============================================
// Use Case Interfaces
// ============================================

// GetSyncStatsUseCase serves the observability snapshot.
type GetSyncStatsUseCase interface {
	Execute(ctx context.Context) (*dtos.SyncStatsDTO, error)
}

// ListFailedItemsUseCase lists failed queue items.
type ListFailedItemsUseCase interface {
	Execute(ctx context.Context, offset, limit int) ([]dtos.SyncItemDTO, error)
}

// RetryFailedItemUseCase re-arms a failed queue item.
type RetryFailedItemUseCase interface {
	Execute(ctx context.Context, cmd dtos.RetryFailedItemCommand) (*dtos.SyncItemDTO, error)
}

// ============================================
// Sync Handler
// ============================================

// SyncHandler serves the sync queue operations.
type SyncHandler struct {
	getStats   GetSyncStatsUseCase
	listFailed ListFailedItemsUseCase
	retryItem  RetryFailedItemUseCase
	trigger    ports.SyncTrigger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(
	getStats GetSyncStatsUseCase,
	listFailed ListFailedItemsUseCase,
	retryItem RetryFailedItemUseCase,
	trigger ports.SyncTrigger,
) *SyncHandler {
	return &SyncHandler{
		getStats:   getStats,
		listFailed: listFailed,
		retryItem:  retryItem,
		trigger:    trigger,
	}
}

// ============================================
// Request DTOs
// ============================================

// SyncItemIDParam is the queue item ID from the URL.
type SyncItemIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// GetStats returns the sync observability snapshot.
//
// @Summary Sync queue statistics
// @Description Counts of unsynced work, queue statuses and cache sizes, plus the attention flag
// @Tags Sync
// @Produce json
// @Success 200 {object} common.APIResponse{data=dtos.SyncStatsDTO}
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/sync/stats [get]
func (h *SyncHandler) GetStats(c *gin.Context) {
	result, err := h.getStats.Execute(c.Request.Context())
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListFailed returns failed queue items, oldest first.
//
// @Summary List failed sync items
// @Tags Sync
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(50) maximum(200)
// @Success 200 {object} common.APIResponse{data=[]dtos.SyncItemDTO}
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/sync/failed [get]
func (h *SyncHandler) ListFailed(c *gin.Context) {
	pagination := ParsePagination(c)

	result, err := h.listFailed.Execute(c.Request.Context(), pagination.Offset, pagination.Limit)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	meta := BuildMeta(pagination, len(result))
	common.SuccessWithMeta(c, http.StatusOK, result, meta)
}

// RetryItem resets a failed item and wakes the dispatcher.
//
// @Summary Retry a failed sync item
// @Description Reset a failed queue item to pending with a fresh retry budget
// @Tags Sync
// @Produce json
// @Param id path string true "Sync item ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.SyncItemDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse "Item is not in failed state"
// @Router /api/v1/sync/items/{id}/retry [post]
func (h *SyncHandler) RetryItem(c *gin.Context) {
	var params SyncItemIDParam
	if !BindURI(c, &params) {
		return
	}

	cmd := dtos.RetryFailedItemCommand{ItemID: params.ID}

	result, err := h.retryItem.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Flush requests a dispatch pass outside the heartbeat. Answers immediately;
// the dispatcher drains in the background.
//
// @Summary Trigger a sync pass
// @Tags Sync
// @Produce json
// @Success 202 {object} common.APIResponse
// @Router /api/v1/sync/flush [post]
func (h *SyncHandler) Flush(c *gin.Context) {
	if h.trigger != nil {
		h.trigger.Trigger()
	}

	common.Success(c, http.StatusAccepted, gin.H{"triggered": true})
}

// RegisterRoutes registers the sync routes.
//
// Routes:
// - GET  /sync/stats           - Queue statistics
// - GET  /sync/failed          - List failed items
// - POST /sync/items/:id/retry - Retry a failed item
// - POST /sync/flush           - Trigger a dispatch pass
func (h *SyncHandler) RegisterRoutes(router *gin.RouterGroup) {
	sync := router.Group("/sync")
	{
		sync.GET("/stats", h.GetStats)
		sync.GET("/failed", h.ListFailed)
		sync.POST("/items/:id/retry", h.RetryItem)
		sync.POST("/flush", h.Flush)
	}
}
