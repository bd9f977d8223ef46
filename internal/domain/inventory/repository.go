package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementQuery filters a product's movements. From and To are inclusive bounds on created_at.
type MovementQuery struct {
	From  *time.Time
	To    *time.Time
	After *MovementCursor
	Limit int
}

// StockMovementRepository is the append-only ledger store
type StockMovementRepository interface {
	// Append inserts m and sets m.ID. It fails with ErrConstraintViolation when the product does not exist.
	Append(ctx context.Context, m *StockMovement) error
	// FindByProduct returns up to q.Limit movements ordered created_at DESC, id DESC
	FindByProduct(ctx context.Context, productID uuid.UUID, q MovementQuery) ([]StockMovement, error)
	// FindByReference returns the movements written for one document, in id order
	FindByReference(ctx context.Context, refType ReferenceType, refID string) ([]StockMovement, error)
	// Balance is the signed sum of every movement for the product
	Balance(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	// BalancesByProduct sums the ledger for every product that has movements
	BalancesByProduct(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
	// Walk streams movements with created_at <= until (all when until is nil)
	// ordered by product_id, created_at, id. Returning an error from fn stops the walk.
	Walk(ctx context.Context, until *time.Time, fn func(StockMovement) error) error
}
