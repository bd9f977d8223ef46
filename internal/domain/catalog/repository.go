package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepository persists products. The stock mutators run as single
// atomic UPDATE statements and are meant to be called inside the same
// transaction as the ledger append they mirror.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Save(ctx context.Context, product *Product) error

	// AdjustStockQty applies stock_qty = stock_qty + delta
	AdjustStockQty(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	// DecrementStockGuarded applies stock_qty = stock_qty - qty only while stock_qty >= qty.
	// It reports false when the guard rejected the update.
	DecrementStockGuarded(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (bool, error)
	// SetStockQty overwrites the cached quantity. Used only by reconciliation repair.
	SetStockQty(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error
}
