// Package replay implements the outbound gateway to the authoritative
// payments server. It is the only place that speaks the server's HTTP
// contract; everything above it works with domain errors and results.
package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// Config holds the server endpoint and device credentials.
type Config struct {
	BaseURL  string        // e.g. https://api.festival.example
	Token    string        // device JWT, HS256
	DeviceID uuid.UUID     // sent as X-Device-ID on every call
	Timeout  time.Duration // transport-level cap; per-attempt deadlines come via ctx
}

// Client implements ports.ReplayGateway over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// NewClient creates the gateway. The zero Timeout defaults to 30s; the
// dispatcher's per-attempt context usually fires first.
func NewClient(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// ackBody is the success response of POST /api/v1/payments.
type ackBody struct {
	TransactionID string `json:"transaction_id"`
	BalanceAfter  int64  `json:"balance_after"`
}

// errorBody is the error response shape shared by all non-2xx statuses.
type errorBody struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	ServerBalance *int64 `json:"server_balance,omitempty"` // 402 only
}

// SubmitPayment replays one pending transaction.
//
// Response mapping per the gateway contract:
//   - 201 created, 200 idempotent replay -> *ports.ReplayResult
//   - 402 -> *errors.MonetaryRejection
//   - other non-2xx -> *ports.ReplayError (Retry-After parsed on 429)
//   - transport failure -> the raw error, for the classifier
func (c *Client) SubmitPayment(ctx context.Context, req ports.ReplayRequest) (*ports.ReplayResult, error) {
	// An expired device token fails 401 server-side anyway; skipping the
	// round trip keeps a fleet with stale tokens from hammering the API.
	if err := c.checkTokenExpiry(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, domainerrors.ValidationError{Field: "request", Message: fmt.Sprintf("unserialisable replay request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	httpReq.Header.Set("X-Device-ID", c.cfg.DeviceID.String())
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Error bodies are small; the cap guards against a misbehaving proxy.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var ack ackBody
		if err := json.Unmarshal(raw, &ack); err != nil {
			return nil, fmt.Errorf("malformed server ack: %w", err)
		}
		serverTxID, err := uuid.Parse(ack.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("malformed server transaction id %q: %w", ack.TransactionID, err)
		}
		return &ports.ReplayResult{
			TransactionID: serverTxID,
			BalanceAfter:  ack.BalanceAfter,
			Replayed:      resp.StatusCode == http.StatusOK,
		}, nil

	case http.StatusPaymentRequired:
		e := decodeErrorBody(raw)
		return nil, domainerrors.NewMonetaryRejection(e.Code, e.Message, e.ServerBalance)

	default:
		e := decodeErrorBody(raw)
		return nil, &ports.ReplayError{
			StatusCode: resp.StatusCode,
			Code:       e.Code,
			Message:    e.Message,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
}

// checkTokenExpiry inspects the JWT's exp claim without verifying the
// signature; verification is the server's job.
func (c *Client) checkTokenExpiry() error {
	if c.cfg.Token == "" {
		return &ports.ReplayError{
			StatusCode: http.StatusUnauthorized,
			Code:       "TOKEN_MISSING",
			Message:    "no device token configured",
		}
	}

	token, _, err := jwt.NewParser().ParseUnverified(c.cfg.Token, jwt.MapClaims{})
	if err != nil {
		return &ports.ReplayError{
			StatusCode: http.StatusUnauthorized,
			Code:       "TOKEN_MALFORMED",
			Message:    fmt.Sprintf("device token unparseable: %v", err),
		}
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil // no exp claim, let the server decide
	}
	if time.Now().After(exp.Time) {
		return &ports.ReplayError{
			StatusCode: http.StatusUnauthorized,
			Code:       "TOKEN_EXPIRED",
			Message:    fmt.Sprintf("device token expired at %s", exp.Time.UTC().Format(time.RFC3339)),
		}
	}
	return nil
}

func decodeErrorBody(raw []byte) errorBody {
	var e errorBody
	if err := json.Unmarshal(raw, &e); err != nil || e.Code == "" {
		return errorBody{Code: "UNKNOWN", Message: string(raw)}
	}
	return e
}

// parseRetryAfter handles both forms the header allows: delta-seconds and
// an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
