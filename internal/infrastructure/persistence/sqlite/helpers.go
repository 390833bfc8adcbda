// Package sqlite - shared plumbing: the context-carried transaction, the
// querier abstraction, driver error mapping and timestamp encoding.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	domainerrors "github.com/mimi6060/festivals-pos/internal/domain/errors"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories run against whichever the context provides.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// txKey carries the transaction through context.
type txKey struct{}

// injectTx adds a transaction to the context. Used by the UnitOfWork.
func injectTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// extractTx pulls the transaction out of the context, nil when absent.
func extractTx(ctx context.Context) *sql.Tx {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	if !ok {
		return nil
	}
	return tx
}

// hasTx reports whether the context carries a transaction.
func hasTx(ctx context.Context) bool {
	return extractTx(ctx) != nil
}

// querierFor returns the transaction from the context or falls back to db.
func querierFor(ctx context.Context, db *sql.DB) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return db
}

// ===== Driver error mapping =====

// isBusyError reports SQLITE_BUSY / SQLITE_LOCKED: transient, retryable.
func isBusyError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// isCorruptError reports SQLITE_CORRUPT / SQLITE_NOTADB: fatal, triggers
// the quarantine recovery path.
func isCorruptError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrCorrupt || se.Code == sqlite3.ErrNotADB
	}
	return false
}

// isUniqueViolation reports a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint &&
			(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}

// mapStoreError translates driver errors to the domain taxonomy. Callers
// wrap the result with operation context.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case isBusyError(err):
		return fmt.Errorf("%w: %v", domainerrors.ErrStoreBusy, err)
	case isCorruptError(err):
		return fmt.Errorf("%w: %v", domainerrors.ErrStoreCorrupt, err)
	default:
		return err
	}
}

// ===== Timestamp encoding =====

// Timestamps are stored as RFC3339 UTC text. Lexicographic comparison on
// these strings matches chronological order, which every index that sorts
// or filters on time relies on.
const timeLayout = time.RFC3339Nano

// encodeTime formats a timestamp for storage.
func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// encodeTimePtr formats an optional timestamp, NULL when nil.
func encodeTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

// decodeTime parses a stored timestamp.
func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tools may carry second precision.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed stored timestamp %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

// decodeTimePtr parses an optional stored timestamp.
func decodeTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := decodeTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullString converts an optional string, NULL for empty.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullInt64 converts an optional int64.
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// int64Ptr converts a nullable column back to an optional int64.
func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
