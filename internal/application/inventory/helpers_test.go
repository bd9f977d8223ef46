package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/grocerypos/backend/internal/infrastructure/persistence"
	strategyinfra "github.com/grocerypos/backend/internal/infrastructure/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db         *gorm.DB
	products   *persistence.GormProductRepository
	movements  *persistence.GormStockMovementRepository
	txScope    *persistence.GormTransactionScope
	now        time.Time
	stock      *StockService
	ledger     *LedgerService
	valuation  *ValuationService
	reconciler *ReconciliationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(persistence.SQLiteDSN(":memory:")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	f := &fixture{
		db:        db,
		products:  persistence.NewGormProductRepository(db),
		movements: persistence.NewGormStockMovementRepository(db),
		txScope:   persistence.NewGormTransactionScope(db),
		now:       time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.stock = NewStockService(f.txScope, clock, zap.NewNop())
	f.ledger = NewLedgerService(f.products, f.movements)
	f.valuation = NewValuationService(f.products, f.movements, mustRegistry(t), nil,
		ValuationOptions{Location: time.UTC, CurrencyScale: 2, Clock: clock}, zap.NewNop())
	f.reconciler = NewReconciliationService(f.products, f.movements, f.txScope, nil, clock, zap.NewNop())
	return f
}

func mustRegistry(t *testing.T) *strategyinfra.StrategyRegistry {
	t.Helper()
	registry, err := strategyinfra.NewRegistryWithDefaults(strategy.CostMethodFIFO)
	require.NoError(t, err)
	return registry
}

// advance moves the clock forward so consecutive documents get distinct timestamps
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) product(t *testing.T, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, sku+" product", "pcs", catalog.Prices{Retail: dec("2.5")}, f.now)
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

func (f *fixture) receive(t *testing.T, p *catalog.Product, qty, cost string) {
	t.Helper()
	_, err := f.stock.ReceiveGoods(context.Background(), ReceiveGoodsRequest{
		Reference: "GRN-" + uuid.NewString()[:8],
		Lines:     []ReceiveGoodsLine{{ProductID: p.ID, Quantity: dec(qty), UnitCost: dec(cost)}},
		Actor:     manager(),
	})
	require.NoError(t, err)
	f.advance(time.Minute)
}

func (f *fixture) ship(t *testing.T, p *catalog.Product, qty string) {
	t.Helper()
	_, err := f.stock.TransferOut(context.Background(), TransferRequest{
		Reference: "TR-" + uuid.NewString()[:8],
		Lines:     []TransferLine{{ProductID: p.ID, Quantity: dec(qty)}},
		Actor:     manager(),
	})
	require.NoError(t, err)
	f.advance(time.Minute)
}

func (f *fixture) stockQty(t *testing.T, p *catalog.Product) decimal.Decimal {
	t.Helper()
	got, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	return got.StockQty
}

func manager() identity.Actor {
	return identity.NewActor(uuid.New(), "manager", identity.RoleManager)
}

func cashier() identity.Actor {
	return identity.NewActor(uuid.New(), "cashier", identity.RoleCashier)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
