package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogdenik/bankcore/internal/domain"
)

// PostgreSQL error codes that signal transient contention.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"

	pgErrUniqueViolation = "23505"
)

// mapConcurrencyError rewraps contention failures as domain.ErrConflict so
// callers can match on the one retryable error kind. Everything else
// passes through untouched.
func mapConcurrencyError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
	}

	return err
}

// isUniqueViolation reports whether err is a unique constraint violation,
// optionally on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrUniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}
