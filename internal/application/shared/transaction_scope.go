// Package shared holds contracts used by more than one application service.
package shared

import (
	"context"

	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/quicksales"
	"github.com/grocerypos/backend/internal/domain/trade"
)

// TransactionScope defines the interface for executing operations within a transaction.
// Implementations should ensure that all repository operations within the scope are atomic.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to every repository within a transaction.
// All repositories returned share the same underlying database transaction, so a
// ledger append and the stock_qty update that mirrors it commit or roll back together.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
	MovementRepo() inventory.StockMovementRepository
	SessionRepo() quicksales.SessionRepository
	InvoiceRepo() trade.InvoiceRepository
	ReturnRepo() trade.SalesReturnRepository
	OperatorRepo() identity.OperatorRepository
}
