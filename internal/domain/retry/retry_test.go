package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// fixedJitter returns a Jitter that always yields v.
func fixedJitter(v float64) Jitter {
	return func() float64 { return v }
}

// TestDelayDoubling verifies the exponential progression before the cap.
func TestDelayDoubling(t *testing.T) {
	p := Policy{Base: 1 * time.Second, Cap: 60 * time.Second, MaxRetries: 5}
	unit := fixedJitter(1.0)

	wants := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second, // capped
		60 * time.Second,
	}

	for attempt, want := range wants {
		got := Delay(p, attempt, unit)
		if got != want {
			t.Errorf("Delay(attempt=%d) = %v, want %v", attempt, got, want)
		}
	}
}

// TestDelayJitterEnvelope verifies the full-jitter bounds for random jitter.
func TestDelayJitterEnvelope(t *testing.T) {
	p := CriticalPolicy
	rng := rand.New(rand.NewSource(42))
	jitter := func() float64 { return 0.5 + rng.Float64() }

	for attempt := 0; attempt < 12; attempt++ {
		base := Delay(p, attempt, fixedJitter(1.0))
		for i := 0; i < 100; i++ {
			got := Delay(p, attempt, jitter)
			lo := time.Duration(float64(base) * 0.5)
			hi := time.Duration(float64(base) * 1.5)
			if got < lo || got > hi {
				t.Fatalf("Delay(attempt=%d) = %v outside [%v, %v]", attempt, got, lo, hi)
			}
		}
	}
}

// TestDelayNegativeAttempt clamps bad input to the base delay.
func TestDelayNegativeAttempt(t *testing.T) {
	if got := Delay(DefaultPolicy, -3, fixedJitter(1.0)); got != DefaultPolicy.Base {
		t.Errorf("Delay(-3) = %v, want base %v", got, DefaultPolicy.Base)
	}
}

// TestDelayForHonoursRetryAfter verifies the server hint wins when longer.
func TestDelayForHonoursRetryAfter(t *testing.T) {
	p := Policy{Base: 1 * time.Second, Cap: 60 * time.Second, MaxRetries: 5}

	got := DelayFor(p, 0, 30*time.Second, fixedJitter(1.0))
	if got != 30*time.Second {
		t.Errorf("DelayFor with long Retry-After = %v, want 30s", got)
	}

	got = DelayFor(p, 6, 1*time.Second, fixedJitter(1.0))
	if got != 60*time.Second {
		t.Errorf("DelayFor with short Retry-After = %v, want capped 60s", got)
	}
}

// TestPolicyDefaults pins the three shipped policies.
func TestPolicyDefaults(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		base   time.Duration
		cap    time.Duration
		max    int
	}{
		{"default", DefaultPolicy, 1 * time.Second, 60 * time.Second, 5},
		{"critical", CriticalPolicy, 500 * time.Millisecond, 300 * time.Second, 10},
		{"conservative", ConservativePolicy, 5 * time.Second, 600 * time.Second, 3},
	}

	for _, tt := range tests {
		if tt.policy.Base != tt.base || tt.policy.Cap != tt.cap || tt.policy.MaxRetries != tt.max {
			t.Errorf("%s policy = %+v", tt.name, tt.policy)
		}
	}
}

// timeoutNetError fakes a net.Error with Timeout() == true.
type timeoutNetError struct{ timeout bool }

func (e *timeoutNetError) Error() string   { return "dial tcp: i/o timeout" }
func (e *timeoutNetError) Timeout() bool   { return e.timeout }
func (e *timeoutNetError) Temporary() bool { return true }

// TestClassify walks the full classification table.
func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		outcome   Outcome
		category  Category
		retryable bool
	}{
		{"network error", Outcome{Err: &timeoutNetError{timeout: false}}, CategoryNetwork, true},
		{"net timeout", Outcome{Err: &timeoutNetError{timeout: true}}, CategoryTimeout, true},
		{"context deadline", Outcome{Err: context.DeadlineExceeded}, CategoryTimeout, true},
		{"context cancelled", Outcome{Err: context.Canceled}, CategoryTimeout, true},
		{"wrapped deadline", Outcome{Err: fmt.Errorf("attempt: %w", context.DeadlineExceeded)}, CategoryTimeout, true},
		{"store busy", Outcome{Err: domainerrors.ErrStoreBusy}, CategoryNetwork, true},
		{"validation error", Outcome{Err: domainerrors.ValidationError{Field: "type", Message: "unknown tag"}}, CategoryValidation, false},
		{"unknown error", Outcome{Err: errors.New("something odd")}, CategoryUnknown, true},
		{"400", Outcome{StatusCode: 400}, CategoryValidation, false},
		{"401", Outcome{StatusCode: 401}, CategoryAuth, false},
		{"402", Outcome{StatusCode: 402}, CategoryClient4xx, false},
		{"403", Outcome{StatusCode: 403}, CategoryAuth, false},
		{"404", Outcome{StatusCode: 404}, CategoryClient4xx, false},
		{"409", Outcome{StatusCode: 409}, CategoryConflict, false},
		{"422", Outcome{StatusCode: 422}, CategoryValidation, false},
		{"429", Outcome{StatusCode: 429, RetryAfter: 7 * time.Second}, CategoryRateLimit, true},
		{"500", Outcome{StatusCode: 500}, CategoryServer5xx, true},
		{"503", Outcome{StatusCode: 503}, CategoryServer5xx, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.outcome)
			if got.Category != tt.category {
				t.Errorf("Category = %s, want %s", got.Category, tt.category)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}
}

// TestClassifyRateLimitCarriesRetryAfter checks the server hint survives.
func TestClassifyRateLimitCarriesRetryAfter(t *testing.T) {
	got := Classify(Outcome{StatusCode: 429, RetryAfter: 12 * time.Second})
	if got.RetryAfter != 12*time.Second {
		t.Errorf("RetryAfter = %v, want 12s", got.RetryAfter)
	}
}
