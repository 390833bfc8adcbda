package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleDomainError_Mappings(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient balance answers 402",
			err:        domainerrors.ErrInsufficientBalance,
			wantStatus: http.StatusPaymentRequired,
			wantCode:   ErrCodeInsufficientBalance,
		},
		{
			name:       "wrapped insufficient balance still answers 402",
			err:        fmt.Errorf("creating payment: %w", domainerrors.ErrInsufficientBalance),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   ErrCodeInsufficientBalance,
		},
		{
			name:       "duplicate idempotency key answers 409",
			err:        domainerrors.ErrDuplicateIdempotencyKey,
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeDuplicateRequest,
		},
		{
			name:       "already synced answers 409",
			err:        domainerrors.ErrTransactionAlreadySynced,
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeConflict,
		},
		{
			name:       "unprovisioned device answers 503",
			err:        domainerrors.ErrDeviceNotProvisioned,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeDeviceNotProvisioned,
		},
		{
			name:       "busy store answers 503",
			err:        domainerrors.ErrStoreBusy,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeStoreBusy,
		},
		{
			name:       "validation error answers 400 with field detail",
			err:        domainerrors.ValidationError{Field: "wallet_id", Message: "invalid wallet ID format"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "business rule violation answers 422",
			err:        domainerrors.NewBusinessRuleViolation("AMOUNT_MISMATCH", "amount must equal the sum of product lines", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ErrCodeBusinessRule,
		},
		{
			name:       "not cached answers 404",
			err:        domainerrors.ErrWalletNotCached,
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "domain error carries its own code",
			err:        domainerrors.NewDomainError("INVALID_AMOUNT", "transaction amount must be positive", domainerrors.ErrInvalidAmount),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_AMOUNT",
		},
		{
			name:       "unknown error answers 500",
			err:        errors.New("something exploded"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext()
			HandleDomainError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleDomainError_ValidationFieldDetail(t *testing.T) {
	c, w := testContext()
	HandleDomainError(c, domainerrors.ValidationError{Field: "amount", Message: "amount must be positive"})

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "amount", resp.Error.Fields[0].Field)
}

func TestSuccessEnvelope(t *testing.T) {
	c, w := testContext()
	SetRequestID(c, "req-123")
	Success(c, http.StatusOK, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "req-123", resp.RequestID)
	assert.Nil(t, resp.Error)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestSuccessWithMeta(t *testing.T) {
	c, w := testContext()
	SuccessWithMeta(c, http.StatusOK, []string{"a", "b"}, &APIMeta{Offset: 0, Limit: 50, Total: 2})

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 50, resp.Meta.Limit)
	assert.Equal(t, 2, resp.Meta.Total)
}
