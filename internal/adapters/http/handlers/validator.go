// Package handlers contains the HTTP handlers of the local ops API.
//
// A handler is an Adapter in Clean Architecture terms:
// - Accepts the HTTP request
// - Converts it into a Command/Query DTO
// - Calls the use case
// - Converts the result into an HTTP response
//
// SOLID:
// - SRP: each handler owns one resource
// - DIP: handlers depend on use case interfaces, not implementations
package handlers

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mimi6060/festivals-pos/internal/adapters/http/common"
)

// ============================================
// Custom Validator Setup
// ============================================

var setupOnce sync.Once

// SetupValidator wires the custom validators into Gin's binding engine.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			// Report field names by json tag, not Go identifier.
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			_ = v.RegisterValidation("transaction_type", validateTransactionType)
			_ = v.RegisterValidation("stand_type", validateStandType)
			_ = v.RegisterValidation("alert_severity", validateAlertSeverity)
		}
	})
}

// ============================================
// Custom Validators
// ============================================

// validateTransactionType accepts the payment intent types.
func validateTransactionType(fl validator.FieldLevel) bool {
	txType := fl.Field().String()
	validTypes := map[string]bool{
		"PURCHASE": true,
		"PAYMENT":  true,
		"REFUND":   true,
		"CANCEL":   true,
	}
	return validTypes[txType]
}

// validateStandType accepts the catalogue stand types.
func validateStandType(fl validator.FieldLevel) bool {
	standType := fl.Field().String()
	validTypes := map[string]bool{
		"FOOD":        true,
		"DRINK":       true,
		"MERCHANDISE": true,
		"SERVICE":     true,
		"OTHER":       true,
	}
	return validTypes[standType]
}

// validateAlertSeverity accepts the push alert severities.
func validateAlertSeverity(fl validator.FieldLevel) bool {
	severity := fl.Field().String()
	validSeverities := map[string]bool{
		"info":     true,
		"warning":  true,
		"critical": true,
	}
	return validSeverities[severity]
}

// ============================================
// Validation Error Handling
// ============================================

// HandleValidationErrors converts binding errors into the HTTP contract.
func HandleValidationErrors(c *gin.Context, err error) {
	var fieldErrors []common.FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrors {
			fieldErrors = append(fieldErrors, common.FieldError{
				Field:   fieldErr.Field(),
				Message: getValidationMessage(fieldErr),
				Code:    fieldErr.Tag(),
			})
		}
	}

	if len(fieldErrors) == 0 {
		common.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return
	}

	common.ValidationErrorResponse(c, fieldErrors)
}

// getValidationMessage returns a human-readable message for one field error.
func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "min":
		return "Value is too small (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too large (maximum: " + fe.Param() + ")"
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "transaction_type":
		return "Invalid transaction type"
	case "stand_type":
		return "Invalid stand type"
	case "alert_severity":
		return "Invalid alert severity"
	default:
		return "Invalid value"
	}
}

// ============================================
// Request Parsing Helpers
// ============================================

// BindJSON binds the JSON body. Returns true on success; on failure the
// error response has already been written.
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindQuery binds query parameters.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI binds URI parameters.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// ============================================
// Pagination Helper
// ============================================

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PaginationParams holds offset/limit paging from the query string.
type PaginationParams struct {
	Offset int
	Limit  int
}

// ParsePagination reads offset/limit with defaults and bounds.
func ParsePagination(c *gin.Context) PaginationParams {
	params := PaginationParams{Offset: 0, Limit: defaultPageLimit}

	if offset := c.Query("offset"); offset != "" {
		if o := parseInt(offset); o > 0 {
			params.Offset = o
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if l := parseInt(limit); l > 0 && l <= maxPageLimit {
			params.Limit = l
		}
	}

	return params
}

// parseInt parses a non-negative decimal; anything else yields 0.
func parseInt(s string) int {
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// BuildMeta builds the pagination meta block.
func BuildMeta(params PaginationParams, total int) *common.APIMeta {
	return &common.APIMeta{
		Offset: params.Offset,
		Limit:  params.Limit,
		Total:  total,
	}
}
