package identity

import (
	"context"

	"github.com/google/uuid"
)

// OperatorRepository persists operators
type OperatorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Operator, error)
	FindByUsername(ctx context.Context, username string) (*Operator, error)
	Save(ctx context.Context, op *Operator) error
}
