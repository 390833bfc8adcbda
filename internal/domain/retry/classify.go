package retry

import (
	"context"
	"errors"
	"net"
	"time"

	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// Category buckets a dispatch outcome for the retry decision.
type Category string

const (
	CategoryNetwork    Category = "NETWORK"
	CategoryTimeout    Category = "TIMEOUT"
	CategoryServer5xx  Category = "SERVER_5XX"
	CategoryClient4xx  Category = "CLIENT_4XX"
	CategoryAuth       Category = "AUTH"
	CategoryRateLimit  Category = "RATE_LIMIT"
	CategoryConflict   Category = "CONFLICT"
	CategoryValidation Category = "VALIDATION"
	CategoryUnknown    Category = "UNKNOWN"
)

// Outcome is the raw material of classification: the transport error (when
// the call never produced a response) or the HTTP status, plus the parsed
// Retry-After header when the server sent one.
type Outcome struct {
	Err        error
	StatusCode int
	RetryAfter time.Duration
}

// Classification is the classifier verdict the dispatcher acts on.
type Classification struct {
	Category   Category
	Retryable  bool
	RetryAfter time.Duration // only set for RateLimit with a server hint
}

// Classify maps a dispatch outcome to its category and retryability.
//
// Retryable: Network, Timeout, Server5xx, RateLimit, Unknown (the queue's
// retry budget caps Unknown). Not retryable: Auth, Validation, Conflict and
// the remaining 4xx; Conflict is delegated to the conflict resolver rather
// than retried blindly.
func Classify(o Outcome) Classification {
	if o.Err != nil {
		return classifyTransportError(o.Err)
	}

	switch {
	case o.StatusCode == 401 || o.StatusCode == 403:
		return Classification{Category: CategoryAuth, Retryable: false}

	case o.StatusCode == 409:
		return Classification{Category: CategoryConflict, Retryable: false}

	case o.StatusCode == 429:
		return Classification{Category: CategoryRateLimit, Retryable: true, RetryAfter: o.RetryAfter}

	case o.StatusCode == 400 || o.StatusCode == 422:
		return Classification{Category: CategoryValidation, Retryable: false}

	case o.StatusCode >= 400 && o.StatusCode < 500:
		return Classification{Category: CategoryClient4xx, Retryable: false}

	case o.StatusCode >= 500:
		return Classification{Category: CategoryServer5xx, Retryable: true}

	default:
		return Classification{Category: CategoryUnknown, Retryable: true}
	}
}

func classifyTransportError(err error) Classification {
	// Cancelled deadlines count as Timeout: the attempt ran out of budget,
	// the next one may succeed.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Classification{Category: CategoryTimeout, Retryable: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Classification{Category: CategoryTimeout, Retryable: true}
		}
		return Classification{Category: CategoryNetwork, Retryable: true}
	}

	// A busy store is transient exactly like a flaky network.
	if domainerrors.IsStoreBusy(err) {
		return Classification{Category: CategoryNetwork, Retryable: true}
	}

	if domainerrors.IsValidationError(err) {
		return Classification{Category: CategoryValidation, Retryable: false}
	}

	return Classification{Category: CategoryUnknown, Retryable: true}
}
