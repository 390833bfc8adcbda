// Package ingest is an in-memory stand-in for the authoritative payments
// server. It implements the replay wire contract faithfully enough for
// contract tests: bearer-token auth, offline-signature verification over
// the shared canonical bytes, idempotent replay, balance enforcement and
// optional fault injection.
//
// Nothing here runs in production; the real server lives in the platform
// backend.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/signing"
)

// Config holds the secrets the stub shares with the device under test.
type Config struct {
	HMACKey   string // device HMAC key for signature verification
	JWTSecret string // HS256 secret for bearer tokens
}

// recorded is the stored outcome of a successful submission, replayed
// verbatim when the same idempotency key arrives again.
type recorded struct {
	body        []byte
	payloadHash string
}

// fault is one injected failure, consumed FIFO.
type fault struct {
	status     int
	retryAfter time.Duration
}

// Stub is the in-memory ingestion server.
type Stub struct {
	engine    *gin.Engine
	signer    *signing.Signer
	jwtSecret []byte

	mu       sync.Mutex
	wallets  map[string]int64    // wallet id -> authoritative balance
	seen     map[string]recorded // device|idempotency_key -> first success
	faults   []fault
	requests int
}

// NewStub creates the stub. The HMAC key must match the device's.
func NewStub(cfg Config) (*Stub, error) {
	signer, err := signing.NewSigner(cfg.HMACKey)
	if err != nil {
		return nil, err
	}

	s := &Stub{
		engine:    gin.New(),
		signer:    signer,
		jwtSecret: []byte(cfg.JWTSecret),
		wallets:   make(map[string]int64),
		seen:      make(map[string]recorded),
	}
	s.engine.POST("/api/v1/payments", s.handlePayment)
	return s, nil
}

// Handler exposes the stub as an http.Handler for httptest.
func (s *Stub) Handler() http.Handler {
	return s.engine
}

// SetBalance sets the authoritative balance of a wallet.
func (s *Stub) SetBalance(walletID string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[walletID] = balance
}

// Balance returns the authoritative balance of a wallet.
func (s *Stub) Balance(walletID string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.wallets[walletID]
	return b, ok
}

// Requests returns how many submissions reached the stub, injected
// failures included.
func (s *Stub) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// FailNext makes the next n submissions fail with the given status before
// any processing. A retryAfter > 0 adds a Retry-After header (seconds).
func (s *Stub) FailNext(n int, status int, retryAfter time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.faults = append(s.faults, fault{status: status, retryAfter: retryAfter})
	}
}

// MintToken issues an HS256 bearer token for a device.
func (s *Stub) MintToken(deviceID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": deviceID,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *Stub) handlePayment(c *gin.Context) {
	s.mu.Lock()
	s.requests++
	if len(s.faults) > 0 {
		f := s.faults[0]
		s.faults = s.faults[1:]
		s.mu.Unlock()
		if f.retryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(f.retryAfter.Seconds())))
		}
		c.JSON(f.status, gin.H{"code": "INJECTED_FAULT", "message": "injected failure"})
		return
	}
	s.mu.Unlock()

	if !s.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "AUTH", "message": "invalid or missing bearer token"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "unreadable body"})
		return
	}

	var req ports.ReplayRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}
	if err := validateRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	if req.Amount < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_AMOUNT", "message": "amount must be positive"})
		return
	}

	createdAt, err := time.Parse(time.RFC3339, req.CreatedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "created_at is not RFC3339"})
		return
	}

	if !s.signer.Verify(signing.Payload{
		ID:             req.ID,
		WalletID:       req.WalletID,
		UserID:         req.UserID,
		Amount:         req.Amount,
		Type:           req.Type,
		StandID:        req.StandID,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      createdAt,
	}, req.OfflineSignature) {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_SIGNATURE", "message": "offline signature does not verify"})
		return
	}

	hash := sha256.Sum256(raw)
	payloadHash := hex.EncodeToString(hash[:])
	dedupeKey := req.DeviceID + "|" + req.IdempotencyKey

	s.mu.Lock()
	defer s.mu.Unlock()

	// At-most-once: a replayed key returns the original result; the same
	// key over a different payload is a hard error.
	if prior, ok := s.seen[dedupeKey]; ok {
		if prior.payloadHash != payloadHash {
			c.JSON(http.StatusConflict, gin.H{
				"code":    "DUPLICATE_WITH_DIFFERENT_PAYLOAD",
				"message": "idempotency key reused with a different payload",
			})
			return
		}
		c.Data(http.StatusOK, "application/json", prior.body)
		return
	}

	balance, ok := s.wallets[req.WalletID]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "unknown wallet"})
		return
	}

	switch req.Type {
	case "PURCHASE", "PAYMENT":
		if balance < req.Amount {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"code":           "INSUFFICIENT_BALANCE",
				"message":        fmt.Sprintf("balance %d below amount %d", balance, req.Amount),
				"server_balance": balance,
			})
			return
		}
		balance -= req.Amount
	case "REFUND":
		balance += req.Amount
	}
	s.wallets[req.WalletID] = balance

	body := []byte(fmt.Sprintf(`{"transaction_id":%q,"balance_after":%d}`, uuid.NewString(), balance))
	s.seen[dedupeKey] = recorded{body: body, payloadHash: payloadHash}

	c.Data(http.StatusCreated, "application/json", body)
}

// authorized verifies the HS256 bearer token.
func (s *Stub) authorized(c *gin.Context) bool {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	return err == nil && parsed.Valid
}

// validateRequest checks the structural invariants of the wire body.
func validateRequest(req ports.ReplayRequest) error {
	for field, v := range map[string]string{
		"id": req.ID, "wallet_id": req.WalletID, "user_id": req.UserID, "device_id": req.DeviceID,
	} {
		if _, err := uuid.Parse(v); err != nil {
			return fmt.Errorf("%s is not a UUID", field)
		}
	}
	switch req.Type {
	case "PURCHASE", "PAYMENT", "REFUND", "CANCEL":
	default:
		return fmt.Errorf("unknown transaction type %q", req.Type)
	}
	if req.IdempotencyKey == "" {
		return fmt.Errorf("idempotency_key is required")
	}
	if req.OfflineSignature == "" {
		return fmt.Errorf("offline_signature is required")
	}
	return nil
}
