// Package handlers - Payment HTTP handlers over the offline pending log.
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

// CreatePaymentUseCase records an offline payment intent.
type CreatePaymentUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreatePendingTransactionCommand) (*dtos.PendingTransactionDTO, error)
}

// GetPaymentUseCase reads one pending transaction by id.
type GetPaymentUseCase interface {
	Execute(ctx context.Context, id string) (*dtos.PendingTransactionDTO, error)
}

// ListPaymentsUseCase pages the local pending log.
type ListPaymentsUseCase interface {
	Execute(ctx context.Context, query dtos.ListPendingTransactionsQuery) (*dtos.PendingTransactionListDTO, error)
}

// ============================================
// Payment Handler
// ============================================

// PaymentHandler serves the pending transaction endpoints.
type PaymentHandler struct {
	createPayment CreatePaymentUseCase
	getPayment    GetPaymentUseCase
	listPayments  ListPaymentsUseCase
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(
	createPayment CreatePaymentUseCase,
	getPayment GetPaymentUseCase,
	listPayments ListPaymentsUseCase,
) *PaymentHandler {
	return &PaymentHandler{
		createPayment: createPayment,
		getPayment:    getPayment,
		listPayments:  listPayments,
	}
}

// ============================================
// Request DTOs
// ============================================

// PaymentIDParam is the transaction ID from the URL.
type PaymentIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListPaymentsParams filters the pending log.
type ListPaymentsParams struct {
	WalletID string `form:"wallet_id" binding:"omitempty,uuid"`
	Synced   *bool  `form:"synced"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreatePayment records a payment intent and answers with the durable
// transaction, already signed and queued for replay.
//
// @Summary Record an offline payment
// @Description Record a payment intent against the cached wallet; the transaction is queued for replay
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dtos.CreatePendingTransactionCommand true "Payment intent"
// @Success 201 {object} common.APIResponse{data=dtos.PendingTransactionDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 402 {object} common.APIResponse "Insufficient cached balance"
// @Failure 404 {object} common.APIResponse "Wallet not cached"
// @Failure 503 {object} common.APIResponse "Device key not provisioned"
// @Router /api/v1/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var cmd dtos.CreatePendingTransactionCommand
	if !BindJSON(c, &cmd) {
		return
	}

	result, err := h.createPayment.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// GetPayment returns one pending transaction by ID.
//
// @Summary Get payment by ID
// @Tags Payments
// @Produce json
// @Param id path string true "Transaction ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.PendingTransactionDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	var params PaymentIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.getPayment.Execute(c.Request.Context(), params.ID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListPayments returns the pending log, newest first.
//
// @Summary List payments
// @Description Page the local pending log with optional wallet and synced filters
// @Tags Payments
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(50) maximum(200)
// @Param wallet_id query string false "Filter by wallet ID" format(uuid)
// @Param synced query bool false "Filter by synced flag"
// @Success 200 {object} common.APIResponse{data=dtos.PendingTransactionListDTO}
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	pagination := ParsePagination(c)

	var filters ListPaymentsParams
	if !BindQuery(c, &filters) {
		return
	}

	query := dtos.ListPendingTransactionsQuery{
		Synced: filters.Synced,
		Offset: pagination.Offset,
		Limit:  pagination.Limit,
	}
	if filters.WalletID != "" {
		query.WalletID = &filters.WalletID
	}

	result, err := h.listPayments.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	meta := BuildMeta(pagination, len(result.Transactions))
	common.SuccessWithMeta(c, http.StatusOK, result, meta)
}

// RegisterRoutes registers the payment routes.
//
// Routes:
// - POST /payments      - Record an offline payment
// - GET  /payments      - List payments
// - GET  /payments/:id  - Get payment by ID
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
	}
}
