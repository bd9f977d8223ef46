package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/grocerypos/backend/internal/application/catalog"
	identityapp "github.com/grocerypos/backend/internal/application/identity"
	inventoryapp "github.com/grocerypos/backend/internal/application/inventory"
	quicksalesapp "github.com/grocerypos/backend/internal/application/quicksales"
	tradeapp "github.com/grocerypos/backend/internal/application/trade"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/grocerypos/backend/internal/infrastructure/auth"
	"github.com/grocerypos/backend/internal/infrastructure/config"
	"github.com/grocerypos/backend/internal/infrastructure/persistence"
	strategyinfra "github.com/grocerypos/backend/internal/infrastructure/strategy"
	"github.com/grocerypos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const managerPin = "4321"

// apiResponse mirrors dto.Response with a raw payload
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

type fixture struct {
	engine     *gin.Engine
	jwtService *auth.JWTService
	blacklist  *auth.InMemoryTokenBlacklist
	operators  *persistence.GormOperatorRepository
	lock       inventoryapp.RunLock
	auth       *AuthHandler

	// as is the actor injected into the next request; zero means anonymous
	as      identity.Actor
	manager identity.Actor
	cashier identity.Actor
}

// newFixture wires every handler to sqlite-backed services under a fixed
// business day of 2026-10-18 (UTC)
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

	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	log := zap.NewNop()

	f := &fixture{
		jwtService: auth.NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			Issuer:                "grocerypos-test",
			AccessTokenExpiration: time.Hour,
		}),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		operators: persistence.NewGormOperatorRepository(db),
	}
	hasher := auth.NewPinHasher(bcrypt.MinCost)
	products := persistence.NewGormProductRepository(db)
	movements := persistence.NewGormStockMovementRepository(db)
	txScope := persistence.NewGormTransactionScope(db)
	registry, err := strategyinfra.NewRegistryWithDefaults(strategy.CostMethodFIFO)
	require.NoError(t, err)

	// Tokens are validated against the wall clock, so auth runs on it too
	authService := identityapp.NewAuthService(f.operators, hasher, f.jwtService, f.blacklist, nil, log)
	operatorService := identityapp.NewOperatorService(f.operators, hasher, f.blacklist, time.Hour, nil, log)
	productService := catalogapp.NewProductService(products, clock, log)
	stockService := inventoryapp.NewStockService(txScope, clock, log)
	ledgerService := inventoryapp.NewLedgerService(products, movements)
	valuationService := inventoryapp.NewValuationService(products, movements, registry, nil,
		inventoryapp.ValuationOptions{Location: time.UTC, CurrencyScale: 2, Clock: clock}, log)
	reconciliation := inventoryapp.NewReconciliationService(products, movements, txScope, lockFunc(f.runLock), clock, log)
	posting := tradeapp.NewPostingService(txScope, products, persistence.NewGormInvoiceRepository(db),
		persistence.NewGormSalesReturnRepository(db),
		tradeapp.PostingOptions{Location: time.UTC, CurrencyScale: 2, ReceiptPrefix: "R", Clock: clock}, log)
	manager := quicksalesapp.NewSessionManager(persistence.NewGormQuickSalesRepository(db), products, f.operators,
		txScope, posting, hasher,
		quicksalesapp.ManagerOptions{Location: time.UTC, CurrencyScale: 2, DefaultScope: "till-1", Clock: clock}, log)

	boss, err := identity.NewOperator("boss", "Store Manager", identity.RoleManager, now)
	require.NoError(t, err)
	hash, err := hasher.Hash(managerPin)
	require.NoError(t, err)
	boss.SetPinHash(hash, now)
	require.NoError(t, f.operators.Save(context.Background(), boss))
	f.manager = boss.Actor()

	clerk, err := identity.NewOperator("ana", "Ana", identity.RoleCashier, now)
	require.NoError(t, err)
	hash, err = hasher.Hash("2468")
	require.NoError(t, err)
	clerk.SetPinHash(hash, now)
	require.NoError(t, f.operators.Save(context.Background(), clerk))
	f.cashier = clerk.Actor()

	authHandler := NewAuthHandler(authService, operatorService)
	f.auth = authHandler
	operatorHandler := NewOperatorHandler(operatorService)
	productHandler := NewProductHandler(productService)
	quickSales := NewQuickSalesHandler(manager)
	invoices := NewInvoiceHandler(posting)
	stock := NewStockHandler(stockService, ledgerService, valuationService, reconciliation)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.BodyLimit(64<<10))
	engine.POST("/auth/login", authHandler.Login)
	engine.GET("/health", NewSystemHandler("test").Health)

	api := engine.Group("", f.injectActor)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)
	api.POST("/operators", operatorHandler.Create)
	api.GET("/operators/:id", operatorHandler.GetByID)
	api.PUT("/operators/:id/pin", operatorHandler.SetPin)
	api.POST("/operators/:id/deactivate", operatorHandler.Deactivate)
	api.POST("/products", productHandler.Create)
	api.GET("/products", productHandler.List)
	api.GET("/products/lookup", productHandler.Lookup)
	api.GET("/products/:id", productHandler.GetByID)
	api.PUT("/products/:id", productHandler.Update)
	api.POST("/products/:id/deactivate", productHandler.Deactivate)
	api.POST("/products/:id/activate", productHandler.Activate)
	api.POST("/quick-sales/session", quickSales.EnsureOpen)
	api.POST("/quick-sales/lines", quickSales.AddLine)
	api.DELETE("/quick-sales/lines/:id", quickSales.RemoveLine)
	api.GET("/quick-sales/lines", quickSales.GetLines)
	api.POST("/quick-sales/close", quickSales.Close)
	api.POST("/invoices", invoices.Post)
	api.GET("/invoices/receipt/:receipt_no", invoices.GetByReceipt)
	api.GET("/invoices/:id", invoices.GetByID)
	api.POST("/invoices/:id/returns", invoices.CreateReturn)
	api.GET("/invoices/:id/returns", invoices.ListReturns)
	api.POST("/stock/grn", stock.ReceiveGoods)
	api.POST("/stock/adjustments", stock.Adjust)
	api.POST("/stock/stocktakes", stock.StockTake)
	api.POST("/stock/transfers/out", stock.TransferOut)
	api.POST("/stock/transfers/in", stock.TransferIn)
	api.GET("/stock/products/:id/movements", stock.Movements)
	api.GET("/stock/products/:id/balance", stock.Balance)
	api.GET("/stock/valuation", stock.Valuation)
	api.GET("/stock/valuation/snapshot", stock.Snapshot)
	api.POST("/stock/reconciliation", stock.Reconcile)
	f.engine = engine
	return f
}

func (f *fixture) injectActor(c *gin.Context) {
	if !f.as.IsZero() {
		c.Set(middleware.ActorKey, f.as)
	}
	c.Next()
}

func (f *fixture) runLock(ctx context.Context, key string, fn func(context.Context) error) (bool, error) {
	if f.lock != nil {
		return f.lock.TryRun(ctx, key, fn)
	}
	return true, fn(ctx)
}

type lockFunc func(ctx context.Context, key string, fn func(context.Context) error) (bool, error)

func (l lockFunc) TryRun(ctx context.Context, key string, fn func(context.Context) error) (bool, error) {
	return l(ctx, key, fn)
}

// heldLock never acquires
type heldLock struct{}

func (heldLock) TryRun(context.Context, string, func(context.Context) error) (bool, error) {
	return false, nil
}

// do sends a request as actor, JSON-encoding body unless it is a string
func (f *fixture) do(t *testing.T, actor identity.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	f.as = actor
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode(t, rec, nil)
	require.NotNil(t, resp.Error, rec.Body.String())
	return resp.Error.Code
}

type productBody struct {
	ID       string `json:"id"`
	SKU      string `json:"sku"`
	StockQty string `json:"stock_qty"`
	IsActive bool   `json:"is_active"`
	Version  int    `json:"version"`
}

// createProduct adds a product retailing at 2.50 and returns its id
func (f *fixture) createProduct(t *testing.T, sku, barcode string) string {
	t.Helper()
	rec := f.do(t, f.manager, http.MethodPost, "/products", map[string]any{
		"sku":     sku,
		"barcode": barcode,
		"name":    sku + " product",
		"unit":    "pcs",
		"prices":  map[string]string{"retail": "2.50", "wholesale": "2.00"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p productBody
	decode(t, rec, &p)
	return p.ID
}

// receive books a goods received note of qty at unit cost 1
func (f *fixture) receive(t *testing.T, productID, qty string) {
	t.Helper()
	rec := f.do(t, f.manager, http.MethodPost, "/stock/grn", map[string]any{
		"reference": "GRN-" + productID[:8],
		"lines":     []map[string]string{{"product_id": productID, "quantity": qty, "unit_cost": "1"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
