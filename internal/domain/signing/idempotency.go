package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// IdempotencyKey derives the stable replay key for an offline intent.
// The inputs pin the key to one device, one wallet, one amount/type pair and
// one creation instant; the counter disambiguates intents created within the
// same millisecond. Replays of an already-created transaction re-send the
// stored key, so the derivation only has to be unique, not reproducible.
func IdempotencyKey(deviceID, walletID string, amount int64, txType string, createdAtMs int64, counter uint64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%s|%d|%d",
		deviceID, walletID, amount, txType, createdAtMs, counter)))
	return hex.EncodeToString(sum[:])
}

// Counter is the process-wide monotonic counter feeding IdempotencyKey.
// Safe for concurrent use.
type Counter struct {
	n atomic.Uint64
}

// NewCounter seeds the counter. Seeding with the current nanosecond clock
// keeps keys unique across process restarts even when two intents carry the
// same millisecond timestamp.
func NewCounter() *Counter {
	c := &Counter{}
	c.n.Store(uint64(time.Now().UnixNano()))
	return c
}

// Next returns the next counter value.
func (c *Counter) Next() uint64 {
	return c.n.Add(1)
}
