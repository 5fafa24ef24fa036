package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"propverify/pkg/platform/sentinel"
)

const (
	codeUniqueViolation       = "23505"
	codeInsufficientPrivilege = "42501"
	codeInvalidPassword       = "28P01"
)

// MapError turns driver errors into sentinel facts so services can classify
// them without importing pgx. Unknown errors are returned as is.
func MapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, sentinel.ErrConflict)
		case codeInsufficientPrivilege:
			return fmt.Errorf("%s: %w", op, sentinel.ErrPermissionDenied)
		case codeInvalidPassword:
			return fmt.Errorf("%s: %w", op, sentinel.ErrUnauthenticated)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return false
}
