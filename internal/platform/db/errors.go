package db

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/backoffice/internal/shared"
)

// SQLSTATE codes the ledgers care about.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeNumericOutOfRange    = "22003"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

var errConcurrentUpdate = shared.Conflict("record was modified concurrently, retry the request")

// Classify maps storage errors onto the shared taxonomy. Already classified
// errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var kinded *shared.Error
	if errors.As(err, &kinded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeSerializationFailure, CodeDeadlockDetected:
			return errConcurrentUpdate
		case CodeNumericOutOfRange, CodeCheckViolation:
			return shared.Validation("value out of range")
		}
		return shared.Unavailable("storage error", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return shared.Unavailable("storage timeout", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return shared.Unavailable("storage unreachable", err)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return shared.Unavailable("storage unreachable", err)
	}
	return shared.Unavailable("storage failure", err)
}

// IsUniqueViolation reports whether err is a unique constraint violation on constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != CodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeForeignKeyViolation
}
