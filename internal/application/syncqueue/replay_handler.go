package syncqueue

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mimi6060/festivals-pos/internal/application/dtos"
	"github.com/mimi6060/festivals-pos/internal/application/ports"
	"github.com/mimi6060/festivals-pos/internal/domain/conflicts"
	"github.com/mimi6060/festivals-pos/internal/domain/entities"
	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
	"github.com/mimi6060/festivals-pos/internal/domain/events"
	"github.com/mimi6060/festivals-pos/internal/domain/retry"
	"github.com/mimi6060/festivals-pos/internal/domain/valueobjects"
)

// ReplayHandler replays pending transactions against the authoritative
// server and applies the verdict to the local store.
//
// The handler is idempotent end to end: the queue payload carries the
// idempotency key, the server deduplicates on it, the history insert is
// first-write-wins, and MarkSynced tolerates re-running after a crash
// between the store commit and the queue item commit.
type ReplayHandler struct {
	gateway ports.ReplayGateway
	pending ports.PendingTransactionRepository
	wallets ports.WalletCacheRepository
	history ports.CachedTransactionRepository
	uow     ports.UnitOfWork
	bus     ports.EventBus
	log     *slog.Logger
}

// NewReplayHandler creates the handler.
func NewReplayHandler(
	gateway ports.ReplayGateway,
	pending ports.PendingTransactionRepository,
	wallets ports.WalletCacheRepository,
	history ports.CachedTransactionRepository,
	uow ports.UnitOfWork,
	bus ports.EventBus,
	log *slog.Logger,
) *ReplayHandler {
	return &ReplayHandler{
		gateway: gateway,
		pending: pending,
		wallets: wallets,
		history: history,
		uow:     uow,
		bus:     bus,
		log:     log,
	}
}

// Handle replays one queue item.
func (h *ReplayHandler) Handle(ctx context.Context, item *entities.SyncItem) Result {
	env, err := dtos.DecodeQueuePayload(item.Payload())
	if err != nil {
		// A payload this build cannot read will never become readable.
		return Result{Outcome: OutcomePermanent, Reason: err.Error()}
	}
	p := env.PendingTransaction

	result, err := h.gateway.SubmitPayment(ctx, replayRequestFromPayload(p))
	if err == nil {
		return h.acknowledge(ctx, p, result)
	}

	var rejection *domainerrors.MonetaryRejection
	if goerrors.As(err, &rejection) {
		return h.applyRejection(ctx, p, rejection)
	}

	var replayErr *ports.ReplayError
	if goerrors.As(err, &replayErr) {
		return h.settleServerError(ctx, p, replayErr)
	}

	// Transport failure: the request may never have reached the server.
	c := retry.Classify(retry.Outcome{Err: err})
	if c.Retryable {
		h.noteRetry(ctx, p.ID, err.Error())
		return Result{Outcome: OutcomeRetry, Reason: err.Error(), RetryAfter: c.RetryAfter}
	}
	return Result{Outcome: OutcomePermanent, Reason: err.Error()}
}

// acknowledge records a server ACK: the pending row terminates synced and
// the confirmed transaction enters local history under its server id.
//
// The cached wallet balance is NOT touched here. Adopting BalanceAfter
// would silently undo the speculative debits of other still-unsynced
// transactions; the balance reconciles through pushed wallet snapshots.
func (h *ReplayHandler) acknowledge(ctx context.Context, p *dtos.PendingTransactionPayload, result *ports.ReplayResult) Result {
	txID, err := uuid.Parse(p.ID)
	if err != nil {
		return Result{Outcome: OutcomePermanent, Reason: fmt.Sprintf("corrupt payload id: %v", err)}
	}
	walletID, err := uuid.Parse(p.WalletID)
	if err != nil {
		return Result{Outcome: OutcomePermanent, Reason: fmt.Sprintf("corrupt payload wallet id: %v", err)}
	}
	amount, err := valueobjects.NewAmount(p.Amount)
	if err != nil {
		return Result{Outcome: OutcomePermanent, Reason: fmt.Sprintf("corrupt payload amount: %v", err)}
	}
	balanceAfter, err := valueobjects.NewAmount(result.BalanceAfter)
	if err != nil {
		return Result{Outcome: OutcomePermanent, Reason: fmt.Sprintf("server reported invalid balance: %v", err)}
	}

	err = h.uow.Execute(ctx, func(txCtx context.Context) error {
		tx, err := h.pending.FindByID(txCtx, txID)
		switch {
		case domainerrors.IsNotFound(err):
			// Producer row already purged; the payload alone suffices.
		case err != nil:
			return err
		default:
			if err := tx.MarkSynced(); err != nil {
				if !goerrors.Is(err, domainerrors.ErrTransactionAlreadySynced) {
					return err
				}
				// Re-dispatch after a crash: the store commit survived,
				// only the queue item transition was lost.
			} else if err := h.pending.Save(txCtx, tx); err != nil {
				return err
			}
		}

		record := entities.NewCachedTransaction(
			result.TransactionID, walletID,
			amount,
			p.Type,
			p.StandName, p.Description,
			&balanceAfter,
			p.CreatedAt,
		)
		if _, err := h.history.Insert(txCtx, record); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		// The server has the payment; only our bookkeeping failed. Retry
		// the item, the idempotent server dedupes the resubmission.
		h.log.Warn("replay ack bookkeeping failed",
			"transaction_id", txID, "error", err)
		return Result{Outcome: OutcomeRetry, Reason: err.Error()}
	}

	h.bus.Publish(ctx, events.NewPaymentSynced(
		txID, walletID, result.TransactionID, result.BalanceAfter, result.Replayed))

	return Result{Outcome: OutcomeAck}
}

// applyRejection executes the scripted ServerWins resolution for an
// authoritative monetary rejection: revert the speculative debit, adopt
// the server balance when one was reported, and terminate the pending row
// with the failure note.
func (h *ReplayHandler) applyRejection(ctx context.Context, p *dtos.PendingTransactionPayload, rejection *domainerrors.MonetaryRejection) Result {
	txID, err := uuid.Parse(p.ID)
	if err != nil {
		return Result{Outcome: OutcomePermanent, Reason: fmt.Sprintf("corrupt payload id: %v", err)}
	}
	walletID, err := uuid.Parse(p.WalletID)
	if err != nil {
		return Result{Outcome: OutcomePermanent, Reason: fmt.Sprintf("corrupt payload wallet id: %v", err)}
	}

	err = h.uow.Execute(ctx, func(txCtx context.Context) error {
		tx, err := h.pending.FindByID(txCtx, txID)
		if domainerrors.IsNotFound(err) {
			return nil // already purged, nothing left to revert
		}
		if err != nil {
			return err
		}
		if tx.IsSynced() {
			return nil // rejection already applied before a crash
		}

		if tx.Type().DebitsWallet() {
			wallet, err := h.wallets.FindByID(txCtx, tx.WalletID())
			switch {
			case domainerrors.IsNotFound(err):
				// Wallet evicted since the sale; no debit left to revert.
			case err != nil:
				return err
			default:
				if rejection.ServerBalance != nil {
					bal, err := valueobjects.NewAmount(*rejection.ServerBalance)
					if err != nil {
						return err
					}
					wallet.AdoptServerBalance(bal, time.Now())
				} else if err := wallet.Credit(tx.Amount()); err != nil {
					return err
				}
				if err := h.wallets.Save(txCtx, wallet); err != nil {
					return err
				}
			}
		}

		if err := tx.MarkSyncedWithFailure(rejection.Code + ": " + rejection.Message); err != nil {
			return err
		}
		return h.pending.Save(txCtx, tx)
	})
	if err != nil {
		h.log.Warn("rejection bookkeeping failed",
			"transaction_id", txID, "error", err)
		return Result{Outcome: OutcomeRetry, Reason: err.Error()}
	}

	h.bus.Publish(ctx, events.NewPaymentRejected(
		txID, walletID, rejection.Code, rejection.Message, rejection.ServerBalance))

	return Result{Outcome: OutcomeConflictResolved, Reason: rejection.Error()}
}

// settleServerError maps a non-2xx, non-402 server response to a queue
// outcome via the classifier, with 409 routed through conflict resolution.
func (h *ReplayHandler) settleServerError(ctx context.Context, p *dtos.PendingTransactionPayload, replayErr *ports.ReplayError) Result {
	c := retry.Classify(retry.Outcome{
		StatusCode: replayErr.StatusCode,
		RetryAfter: replayErr.RetryAfter,
	})

	switch {
	case c.Category == retry.CategoryConflict:
		conflict := conflicts.Conflict{
			Type:   conflictTypeForCode(replayErr.Code),
			Domain: conflicts.DomainMonetary,
			Detail: replayErr.Message,
			Code:   replayErr.Code,
		}
		if conflicts.StrategyFor(conflict) == conflicts.StrategyServerWins {
			// Stale local state: the next attempt replays against the
			// refreshed server view.
			h.noteRetry(ctx, p.ID, replayErr.Error())
			return Result{Outcome: OutcomeRetry, Reason: replayErr.Error()}
		}
		return Result{Outcome: OutcomeConflictManual, Reason: replayErr.Error()}

	case c.Retryable:
		h.noteRetry(ctx, p.ID, replayErr.Error())
		return Result{Outcome: OutcomeRetry, Reason: replayErr.Error(), RetryAfter: c.RetryAfter}

	default:
		return Result{Outcome: OutcomePermanent, Reason: replayErr.Error()}
	}
}

// noteRetry keeps the pending row's retry bookkeeping in step with the
// queue item. Best effort: a failure here never changes the verdict.
func (h *ReplayHandler) noteRetry(ctx context.Context, rawID, reason string) {
	txID, err := uuid.Parse(rawID)
	if err != nil {
		return
	}

	// The attempt context may already be expired (that expiry is often the
	// very failure being recorded), so the bookkeeping detaches from it.
	ctx = context.WithoutCancel(ctx)

	err = h.uow.Execute(ctx, func(txCtx context.Context) error {
		tx, err := h.pending.FindByID(txCtx, txID)
		if err != nil {
			return err
		}
		if err := tx.RecordRetry(reason); err != nil {
			return err
		}
		return h.pending.Save(txCtx, tx)
	})
	if err != nil && !domainerrors.IsNotFound(err) {
		h.log.Debug("retry bookkeeping skipped",
			"transaction_id", txID, "error", err)
	}
}

// conflictTypeForCode maps the server's 409 error code to a conflict type.
// Unknown codes conservatively classify as concurrent mutations, which
// resolve Manual for monetary work.
func conflictTypeForCode(code string) conflicts.Type {
	if t := conflicts.Type(code); t.IsValid() {
		return t
	}
	return conflicts.TypeConcurrentMutation
}

// replayRequestFromPayload lifts the durable queue payload onto the wire.
func replayRequestFromPayload(p *dtos.PendingTransactionPayload) ports.ReplayRequest {
	items := make([]ports.ReplayProductItem, 0, len(p.ProductItems))
	for _, it := range p.ProductItems {
		items = append(items, ports.ReplayProductItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	standID := ""
	if p.StandID != nil {
		standID = *p.StandID
	}

	return ports.ReplayRequest{
		ID:               p.ID,
		WalletID:         p.WalletID,
		UserID:           p.UserID,
		Amount:           p.Amount,
		Type:             p.Type,
		StandID:          standID,
		StandName:        p.StandName,
		Description:      p.Description,
		ProductItems:     items,
		IdempotencyKey:   p.IdempotencyKey,
		OfflineSignature: p.OfflineSignature,
		DeviceID:         p.DeviceID,
		CreatedAt:        p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
