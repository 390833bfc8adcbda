// Package ports - UnitOfWork for transaction boundary management.
//
// Pattern: Unit of Work
// - One UnitOfWork.Execute = one store transaction
// - Automatic rollback on error, commit on nil
//
// The key atomicity invariant of the offline core lives behind this
// interface: inserting a pending transaction, decrementing the cached
// balance and enqueuing the sync item happen in one Execute or not at all.
package ports

import "context"

// UnitOfWork runs a function inside a single atomic store transaction.
//
// The passed context carries the transaction; every repository call inside
// fn must use that context, not the outer one.
//
// Example:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    if err := pendingRepo.Save(txCtx, tx); err != nil {
//	        return err // rollback
//	    }
//	    return walletRepo.Save(txCtx, wallet) // nil commits
//	})
type UnitOfWork interface {
	// Execute runs fn in a transaction: commit on nil, rollback on error.
	// Nested calls join the surrounding transaction.
	Execute(ctx context.Context, fn func(context.Context) error) error

	// ExecuteWithResult is Execute with a returned value, for use cases
	// that hand back the entity they created.
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error)
}
