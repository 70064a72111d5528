// Package pgerr classifies PostgreSQL driver errors into the lastmile error taxonomy.
package pgerr

import (
	"context"
	"database/sql/driver"
	"errors"

	"lastmile/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories branch on.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
	CodeAdminShutdown        = "57P01"
	CodeCannotConnectNow     = "57P03"
)

// Translate maps err to a transient store error when retrying the unit of work could
// succeed, and returns every other error unchanged.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return errs.NewStoreUnavailableError(op, err)
	}
	return err
}

// IsTransient reports whether err is a serialization failure, a deadlock, a lock
// timeout or a lost connection.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable,
			CodeAdminShutdown, CodeCannotConnectNow:
			return true
		}
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, driver.ErrBadConn) || pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

// IsUniqueViolation reports whether err violates the named unique constraint or index.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	return is(err, CodeUniqueViolation, constraint)
}

// IsForeignKeyViolation reports whether err violates the named foreign key.
// An empty constraint matches any foreign key violation.
func IsForeignKeyViolation(err error, constraint string) bool {
	return is(err, CodeForeignKeyViolation, constraint)
}

// IsCheckViolation reports whether err violates the named check constraint.
func IsCheckViolation(err error, constraint string) bool {
	return is(err, CodeCheckViolation, constraint)
}

func is(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
