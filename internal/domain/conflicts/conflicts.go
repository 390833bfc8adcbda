// Package conflicts classifies incompatibilities between the client's local
// view and server-authoritative state, and selects the resolution strategy.
// Detection and selection are pure; applying a strategy is the replay
// handler's job because it needs the store.
package conflicts

// Type names the kind of incompatibility the server reported.
type Type string

const (
	// TypeStaleEntity - the client sent a mutation based on an older
	// server version of the entity.
	TypeStaleEntity Type = "STALE_ENTITY"

	// TypeDuplicateSubmission - the idempotency key matched an existing
	// record with a different payload. A correct client never produces
	// this; it indicates a bug or tampering.
	TypeDuplicateSubmission Type = "DUPLICATE_SUBMISSION"

	// TypeServerAuthoritative - the server rejected a monetary operation
	// outright (e.g. insufficient balance server-side despite local
	// optimism).
	TypeServerAuthoritative Type = "SERVER_AUTHORITATIVE"

	// TypeConcurrentMutation - two devices produced incompatible updates
	// to the same entity.
	TypeConcurrentMutation Type = "CONCURRENT_MUTATION"
)

// IsValid checks if the conflict type is valid.
func (t Type) IsValid() bool {
	switch t {
	case TypeStaleEntity, TypeDuplicateSubmission, TypeServerAuthoritative, TypeConcurrentMutation:
		return true
	default:
		return false
	}
}

// Strategy is how a conflict gets resolved.
type Strategy string

const (
	// StrategyServerWins - overwrite the local cache with server state.
	StrategyServerWins Strategy = "SERVER_WINS"

	// StrategyClientWins - keep the local mutation. Never used for money;
	// kept in the enum because the strategy table must be able to say so.
	StrategyClientWins Strategy = "CLIENT_WINS"

	// StrategyMerge - union append-only collections by id.
	StrategyMerge Strategy = "MERGE"

	// StrategyManual - no safe automatic resolution; surface to the
	// operator and move the item to failed.
	StrategyManual Strategy = "MANUAL"
)

// Domain is the class of data a conflicting operation touches. Strategies
// are chosen per operation type, not per incident, so the table below is
// keyed on this rather than on entity ids.
type Domain string

const (
	DomainMonetary  Domain = "MONETARY"  // pending transactions, wallet balances
	DomainCatalogue Domain = "CATALOGUE" // stands, products
	DomainHistory   Domain = "HISTORY"   // cached transaction history
)

// Conflict is a detected incompatibility ready for resolution.
type Conflict struct {
	Type    Type
	Domain  Domain
	Detail  string // server-provided explanation for logs and operator UI
	Code    string // server error code when one was sent
}

// StrategyFor selects the resolution strategy.
//
// Monetary operations never resolve ClientWins. A ServerAuthoritative
// rejection resolves ServerWins: the scripted path reverts the speculative
// debit and adopts the server balance. Everything monetary that is not
// server-scripted needs an operator.
func StrategyFor(c Conflict) Strategy {
	switch c.Domain {
	case DomainCatalogue:
		return StrategyServerWins

	case DomainHistory:
		return StrategyMerge

	case DomainMonetary:
		switch c.Type {
		case TypeServerAuthoritative:
			return StrategyServerWins
		case TypeStaleEntity:
			// Stale wallet versions are safe to refresh: the pending
			// transaction replays against the fresh state.
			return StrategyServerWins
		default:
			return StrategyManual
		}

	default:
		return StrategyManual
	}
}

// Resolvable reports whether the strategy resolves without an operator.
func (s Strategy) Resolvable() bool {
	return s != StrategyManual
}
