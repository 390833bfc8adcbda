// Package common holds the shared types of the HTTP layer.
//
// Separate package so handlers and the main http package can both import
// it without a cycle.
package common

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// ============================================
// Standard API Response Format
// ============================================

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *APIMeta    `json:"meta,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIMeta carries pagination info.
type APIMeta struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total,omitempty"`
}

// APIError is the error body.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Fields  []FieldError           `json:"fields,omitempty"`
}

// FieldError pinpoints one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ============================================
// Error Codes
// ============================================

const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeBusinessRule         = "BUSINESS_RULE_VIOLATION"
	ErrCodeInsufficientBalance  = "INSUFFICIENT_BALANCE"
	ErrCodeDuplicateRequest     = "DUPLICATE_REQUEST"
	ErrCodeDeviceNotProvisioned = "DEVICE_NOT_PROVISIONED"
	ErrCodeStoreBusy            = "STORE_BUSY"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// ============================================
// Request ID
// ============================================

const RequestIDKey = "X-Request-ID"

// GetRequestID returns the request ID from the gin context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}

// SetRequestID stores the request ID in the context and echoes the header.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// ============================================
// Response Helpers
// ============================================

// Success sends a successful response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// SuccessWithMeta sends a successful response with pagination meta.
func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *APIMeta) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		Meta:      meta,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, apiError *APIError) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiError,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// ValidationErrorResponse answers 400 with field details.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// NotFoundResponse answers 404.
func NotFoundResponse(c *gin.Context, resource string) {
	Error(c, http.StatusNotFound, &APIError{
		Code:    ErrCodeNotFound,
		Message: resource + " not found",
		Details: map[string]interface{}{
			"resource": resource,
		},
	})
}

// BadRequestResponse answers 400.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
	})
}

// ForbiddenResponse answers 403.
func ForbiddenResponse(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
	})
}

// ConflictResponse answers 409.
func ConflictResponse(c *gin.Context, message string) {
	Error(c, http.StatusConflict, &APIError{
		Code:    ErrCodeConflict,
		Message: message,
	})
}

// InternalErrorResponse answers 500.
func InternalErrorResponse(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	})
}

// ============================================
// Domain Error to HTTP Error Mapper
// ============================================

// HandleDomainError maps a domain error onto the HTTP contract.
//
// The one offline-specific mapping worth calling out: a local
// insufficient-balance precondition answers 402, mirroring what the
// authoritative server would say, so the POS UI has a single code path
// for "the customer cannot pay".
func HandleDomainError(c *gin.Context, err error) {
	switch {
	case domainerrors.IsInsufficientBalance(err):
		Error(c, http.StatusPaymentRequired, &APIError{
			Code:    ErrCodeInsufficientBalance,
			Message: "Wallet balance is insufficient for this operation",
		})

	case errors.Is(err, domainerrors.ErrDuplicateIdempotencyKey):
		Error(c, http.StatusConflict, &APIError{
			Code:    ErrCodeDuplicateRequest,
			Message: "A transaction with this idempotency key already exists",
		})

	case errors.Is(err, domainerrors.ErrTransactionAlreadySynced),
		errors.Is(err, domainerrors.ErrItemNotRetryable):
		ConflictResponse(c, err.Error())

	case domainerrors.IsDeviceNotProvisioned(err):
		Error(c, http.StatusServiceUnavailable, &APIError{
			Code:    ErrCodeDeviceNotProvisioned,
			Message: "Device signing key is not provisioned; transactions cannot be accepted",
		})

	case domainerrors.IsStoreBusy(err):
		Error(c, http.StatusServiceUnavailable, &APIError{
			Code:    ErrCodeStoreBusy,
			Message: "Local store is busy, please retry",
			Details: map[string]interface{}{"retryable": true},
		})

	case domainerrors.IsValidationError(err):
		if valErr := extractValidationError(err); valErr != nil {
			ValidationErrorResponse(c, []FieldError{
				{Field: valErr.Field, Message: valErr.Message, Code: "invalid"},
			})
			return
		}
		BadRequestResponse(c, err.Error())

	case domainerrors.IsBusinessRuleViolation(err):
		brv := extractBusinessRuleViolation(err)
		Error(c, http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeBusinessRule,
			Message: brv.Message,
			Details: map[string]interface{}{
				"rule":    brv.Rule,
				"context": brv.Context,
			},
		})

	case domainerrors.IsNotFound(err):
		NotFoundResponse(c, "Resource")

	default:
		if domainErr := extractDomainError(err); domainErr != nil {
			Error(c, http.StatusBadRequest, &APIError{
				Code:    domainErr.Code,
				Message: domainErr.Message,
			})
			return
		}
		InternalErrorResponse(c, "An unexpected error occurred")
	}
}

func extractValidationError(err error) *domainerrors.ValidationError {
	var valErr domainerrors.ValidationError
	if errors.As(err, &valErr) {
		return &valErr
	}
	return nil
}

func extractBusinessRuleViolation(err error) *domainerrors.BusinessRuleViolation {
	var brv *domainerrors.BusinessRuleViolation
	if errors.As(err, &brv) {
		return brv
	}
	return nil
}

func extractDomainError(err error) *domainerrors.DomainError {
	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}
