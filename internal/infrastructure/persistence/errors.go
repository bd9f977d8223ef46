package persistence

import (
	"errors"
	"fmt"

	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// postgres SQLSTATEs for serialization failure and deadlock
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError maps storage failures onto the domain error taxonomy.
// Errors that are already DomainErrors pass through untouched.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewConstraintViolationError("%s: duplicate key", op)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewConstraintViolationError("%s: referenced row does not exist", op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected) {
		return shared.ErrConcurrencyConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
