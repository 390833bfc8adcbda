// Package retry holds the pure retry machinery of the sync queue: the error
// classifier and the backoff policy. Nothing here touches the network or the
// store, so every rule is testable with plain inputs.
package retry

import (
	"math/rand"
	"time"
)

// Policy fixes the backoff parameters for one class of sync work.
//
// delay = min(Cap, Base * 2^attempt) * rand(0.5, 1.5)  (full jitter)
type Policy struct {
	Base       time.Duration // first-attempt delay before jitter
	Cap        time.Duration // ceiling applied before jitter
	MaxRetries int           // attempts after the first; exhaustion moves the item to failed
}

// The three policies the platform runs with. Monetary operations get the
// aggressive Critical policy; catalogue refreshes can wait.
var (
	DefaultPolicy      = Policy{Base: 1 * time.Second, Cap: 60 * time.Second, MaxRetries: 5}
	CriticalPolicy     = Policy{Base: 500 * time.Millisecond, Cap: 300 * time.Second, MaxRetries: 10}
	ConservativePolicy = Policy{Base: 5 * time.Second, Cap: 600 * time.Second, MaxRetries: 3}
)

// Jitter produces the multiplier applied to the capped exponential delay.
// Implementations must return values in [0.5, 1.5). math/rand-backed in
// production, fixed in tests.
type Jitter func() float64

// DefaultJitter is the production jitter source.
func DefaultJitter() float64 {
	return 0.5 + rand.Float64()
}

// Delay computes the backoff before attempt n (0-based: attempt 0 is the
// delay after the first failure). The cap bounds the exponential term, not
// the jittered result, so the worst case is 1.5 * Cap.
func Delay(p Policy, attempt int, jitter Jitter) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Cap {
			d = p.Cap
			break
		}
	}
	if d > p.Cap {
		d = p.Cap
	}

	return time.Duration(float64(d) * jitter())
}

// DelayFor combines Delay with a server-provided Retry-After hint: the
// server's wish wins when it is longer than the computed backoff.
func DelayFor(p Policy, attempt int, retryAfter time.Duration, jitter Jitter) time.Duration {
	d := Delay(p, attempt, jitter)
	if retryAfter > d {
		return retryAfter
	}
	return d
}
