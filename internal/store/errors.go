package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)

const pgErrCodeUniqueViolation = "23505"

// IsDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrCodeUniqueViolation
	}
	return false
}

func wrapDuplicate(err error, what string) error {
	if !IsDuplicateKeyError(err) {
		return err
	}
	return fmt.Errorf("%s: %w", what, ErrDuplicateKey)
}
