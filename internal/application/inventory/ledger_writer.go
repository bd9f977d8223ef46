package inventory

import (
	"context"

	appshared "github.com/grocerypos/backend/internal/application/shared"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RecordMovement appends m to the ledger and applies its quantity to the
// product's cached stock_qty. It must run inside the caller's transaction.
// Outgoing quantities go through the guarded decrement, so stock_qty never
// drops below zero.
func RecordMovement(ctx context.Context, repos appshared.TransactionalRepositories, m *inventory.StockMovement) error {
	if err := repos.MovementRepo().Append(ctx, m); err != nil {
		return err
	}
	if m.IsIncoming() {
		return repos.ProductRepo().AdjustStockQty(ctx, m.ProductID, m.Quantity)
	}

	qty := m.Quantity.Neg()
	ok, err := repos.ProductRepo().DecrementStockGuarded(ctx, m.ProductID, qty)
	if err != nil {
		return err
	}
	if !ok {
		p, err := repos.ProductRepo().FindByID(ctx, m.ProductID)
		if err != nil {
			return err
		}
		return shared.NewInsufficientStockError(p.ID.String(), p.SKU, qty, p.StockQty)
	}
	return nil
}

// EnsureAvailable fails with an insufficient stock error when the ledger
// balance of product is below qty
func EnsureAvailable(ctx context.Context, repos appshared.TransactionalRepositories, product *catalog.Product, qty decimal.Decimal) error {
	balance, err := repos.MovementRepo().Balance(ctx, product.ID)
	if err != nil {
		return err
	}
	if balance.LessThan(qty) {
		return shared.NewInsufficientStockError(product.ID.String(), product.SKU, qty, balance)
	}
	return nil
}
