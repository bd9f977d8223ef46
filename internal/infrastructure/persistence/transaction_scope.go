package persistence

import (
	"context"
	"database/sql"

	appshared "github.com/grocerypos/backend/internal/application/shared"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/quicksales"
	"github.com/grocerypos/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

// TxOption configures a GormTransactionScope
type TxOption func(*GormTransactionScope)

// WithIsolation runs every transaction of the scope at level
func WithIsolation(level sql.IsolationLevel) TxOption {
	return func(s *GormTransactionScope) {
		s.opts = &sql.TxOptions{Isolation: level}
	}
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, opts ...TxOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.TransactionalRepositories) error) error {
	var txOpts []*sql.TxOptions
	if s.opts != nil {
		txOpts = append(txOpts, s.opts)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	}, txOpts...)
	return translateError(err, "transaction")
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// MovementRepo returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// SessionRepo returns the quick sales repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SessionRepo() quicksales.SessionRepository {
	return NewGormQuickSalesRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() trade.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// ReturnRepo returns the sales return repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReturnRepo() trade.SalesReturnRepository {
	return NewGormSalesReturnRepository(r.tx)
}

// OperatorRepo returns the operator repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OperatorRepo() identity.OperatorRepository {
	return NewGormOperatorRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appshared.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appshared.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
