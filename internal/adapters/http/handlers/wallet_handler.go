// Package handlers - Wallet HTTP handlers over the local cache.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mimi6060/festivals-pos/internal/adapters/http/common"
	"github.com/mimi6060/festivals-pos/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// GetWalletUseCase reads the cached wallet by wallet id or user id.
type GetWalletUseCase interface {
	Execute(ctx context.Context, id string) (*dtos.WalletDTO, error)
	ExecuteByUser(ctx context.Context, userID string) (*dtos.WalletDTO, error)
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler serves the cached wallet endpoints.
type WalletHandler struct {
	getWallet GetWalletUseCase
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(getWallet GetWalletUseCase) *WalletHandler {
	return &WalletHandler{getWallet: getWallet}
}

// ============================================
// Request DTOs
// ============================================

// WalletIDParam is the wallet ID from the URL.
type WalletIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// UserIDParam is the user ID from the URL.
type UserIDParam struct {
	UserID string `uri:"user_id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// GetWallet returns the cached wallet by ID.
//
// @Summary Get cached wallet by ID
// @Tags Wallets
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/wallets/{id} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.getWallet.Execute(c.Request.Context(), params.ID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetWalletByUser returns the wallet cached for a user.
//
// @Summary Get cached wallet by user ID
// @Tags Wallets
// @Produce json
// @Param user_id path string true "User ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/wallets/by-user/{user_id} [get]
func (h *WalletHandler) GetWalletByUser(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.getWallet.ExecuteByUser(c.Request.Context(), params.UserID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetWalletQR renders the cached QR payload as a PNG for the POS display.
// Gate staff scan it even when the device has been offline for hours; the
// server decides at scan time whether the payload is still acceptable.
//
// @Summary Render the wallet QR code
// @Tags Wallets
// @Produce png
// @Param id path string true "Wallet ID" format(uuid)
// @Success 200 {file} byte "PNG image"
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not cached or no QR payload"
// @Router /api/v1/wallets/{id}/qr [get]
func (h *WalletHandler) GetWalletQR(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.getWallet.Execute(c.Request.Context(), params.ID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	if result.QRCode == "" {
		common.NotFoundResponse(c, "Wallet QR payload")
		return
	}

	png, err := qrcode.Encode(result.QRCode, qrcode.Medium, 256)
	if err != nil {
		common.InternalErrorResponse(c, "Failed to render QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// RegisterRoutes registers the wallet routes.
//
// Routes:
// - GET /wallets/:id               - Get cached wallet
// - GET /wallets/:id/qr            - Render wallet QR as PNG
// - GET /wallets/by-user/:user_id  - Get wallet by user
func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallets := router.Group("/wallets")
	{
		wallets.GET("/:id", h.GetWallet)
		wallets.GET("/:id/qr", h.GetWalletQR)
		wallets.GET("/by-user/:user_id", h.GetWalletByUser)
	}
}
