// Package signing implements the offline signature scheme shared by the
// device and the server: HMAC-SHA256 over a canonical JSON encoding of the
// transaction's identity fields. Both ends must produce byte-identical
// canonical input, so the encoding rules live here and nowhere else.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// Payload is the set of fields covered by the offline signature.
type Payload struct {
	ID             string
	WalletID       string
	UserID         string
	Amount         int64
	Type           string
	StandID        string
	IdempotencyKey string
	CreatedAt      time.Time
}

// canonicalPayload fixes the wire encoding: keys sorted ascending, integers
// unquoted, no whitespace. Field order below IS the sorted key order; the
// struct exists so encoding/json emits exactly these bytes.
type canonicalPayload struct {
	Amount         int64  `json:"amount"`
	CreatedAt      string `json:"created_at"`
	ID             string `json:"id"`
	IdempotencyKey string `json:"idempotency_key"`
	StandID        string `json:"stand_id"`
	Type           string `json:"type"`
	UserID         string `json:"user_id"`
	WalletID       string `json:"wallet_id"`
}

// CanonicalTime formats a timestamp the way signatures and stored rows
// expect it: RFC3339, UTC, second precision.
func CanonicalTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// CanonicalBytes returns the exact bytes covered by the signature.
// The stand id is always present (empty string when the sale has no stand)
// so the encoding never depends on optional-field omission rules.
func CanonicalBytes(p Payload) []byte {
	b, err := json.Marshal(canonicalPayload{
		Amount:         p.Amount,
		CreatedAt:      CanonicalTime(p.CreatedAt),
		ID:             p.ID,
		IdempotencyKey: p.IdempotencyKey,
		StandID:        p.StandID,
		Type:           p.Type,
		UserID:         p.UserID,
		WalletID:       p.WalletID,
	})
	if err != nil {
		// canonicalPayload contains only strings and an int64; Marshal
		// cannot fail on it.
		panic(err)
	}
	return b
}

// Signer computes and verifies offline signatures with the device HMAC key.
// Safe for concurrent use: the key is read-only after construction.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer from the provisioned device key.
// Returns ErrDeviceNotProvisioned when the key is absent.
func NewSigner(deviceKey string) (*Signer, error) {
	if deviceKey == "" {
		return nil, errors.ErrDeviceNotProvisioned
	}
	return &Signer{key: []byte(deviceKey)}, nil
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical payload bytes.
func (s *Signer) Sign(p Payload) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(CanonicalBytes(p))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature and compares in constant time.
func (s *Signer) Verify(p Payload, signature string) bool {
	expected := s.Sign(p)
	return hmac.Equal([]byte(expected), []byte(signature))
}
