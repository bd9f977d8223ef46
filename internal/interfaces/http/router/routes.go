package router

import (
	"github.com/gin-gonic/gin"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/interfaces/http/handler"
	"github.com/grocerypos/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers bundles the HTTP handlers served by the API
type Handlers struct {
	Auth       *handler.AuthHandler
	Operator   *handler.OperatorHandler
	Product    *handler.ProductHandler
	QuickSales *handler.QuickSalesHandler
	Invoice    *handler.InvoiceHandler
	Stock      *handler.StockHandler
	System     *handler.SystemHandler
}

// RouteOptions configures the API-wide middleware applied by RegisterAPI
type RouteOptions struct {
	// Auth authenticates every /api route outside its SkipPaths
	Auth gin.HandlerFunc
	// LoginLimiter throttles login attempts per client IP; nil disables it
	LoginLimiter *middleware.RateLimiter
	// After runs after authentication, e.g. span enrichment with the actor
	After []gin.HandlerFunc
	// Swagger guards /swagger; RequireAuth reuses Auth
	Swagger middleware.SwaggerConfig
}

// RegisterAPI registers the health and documentation endpoints and every
// domain group of the API
func RegisterAPI(engine *gin.Engine, h Handlers, opts RouteOptions) *Router {
	engine.GET("/health", h.System.Health)
	engine.GET("/swagger/*any", middleware.SwaggerProtection(opts.Swagger, opts.Auth),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := NewRouter(engine, WithAPIVersion("v1"))
	if opts.Auth != nil {
		r.Use(opts.Auth)
	}
	r.Use(opts.After...)

	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)

	r.Register(system).
		Register(authRoutes(h.Auth, opts.LoginLimiter)).
		Register(operatorRoutes(h.Operator)).
		Register(productRoutes(h.Product)).
		Register(quickSalesRoutes(h.QuickSales)).
		Register(invoiceRoutes(h.Invoice)).
		Register(stockRoutes(h.Stock))
	r.Setup()
	return r
}

func authRoutes(h *handler.AuthHandler, limiter *middleware.RateLimiter) *DomainGroup {
	g := NewDomainGroup("auth", "/auth")
	if limiter != nil {
		g.POST("/login", middleware.RateLimit(limiter), h.Login)
	} else {
		g.POST("/login", h.Login)
	}
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me)
	return g
}

func operatorRoutes(h *handler.OperatorHandler) *DomainGroup {
	g := NewDomainGroup("operators", "/operators")
	g.POST("", h.Create)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id/pin", h.SetPin)
	g.POST("/:id/deactivate", h.Deactivate)
	return g
}

func productRoutes(h *handler.ProductHandler) *DomainGroup {
	g := NewDomainGroup("products", "/products")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/lookup", h.Lookup)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.POST("/:id/activate", h.Activate)
	g.POST("/:id/deactivate", h.Deactivate)
	return g
}

func quickSalesRoutes(h *handler.QuickSalesHandler) *DomainGroup {
	g := NewDomainGroup("quick-sales", "/quick-sales")
	g.POST("/session", h.EnsureOpen)
	g.POST("/lines", h.AddLine)
	g.DELETE("/lines/:id", h.RemoveLine)
	g.GET("/lines", middleware.RequirePermission(identity.PermQuickSalesSell), h.GetLines)
	g.POST("/close", h.Close)
	return g
}

func invoiceRoutes(h *handler.InvoiceHandler) *DomainGroup {
	read := middleware.RequireAnyPermission(identity.PermSalesPost, identity.PermSalesReturn)

	g := NewDomainGroup("invoices", "/invoices")
	g.POST("", h.Post)
	g.GET("/receipt/:receipt_no", read, h.GetByReceipt)
	g.GET("/:id", read, h.GetByID)
	g.GET("/:id/returns", read, h.ListReturns)
	g.POST("/:id/returns", h.CreateReturn)
	return g
}

func stockRoutes(h *handler.StockHandler) *DomainGroup {
	g := NewDomainGroup("stock", "/stock")
	g.POST("/grn", h.ReceiveGoods)
	g.POST("/adjustments", h.Adjust)
	g.POST("/stocktakes", h.StockTake)
	g.POST("/transfers/out", h.TransferOut)
	g.POST("/transfers/in", h.TransferIn)
	g.POST("/reconciliation", middleware.RequirePermission(identity.PermStockAdjust), h.Reconcile)

	ledger := g.Group("ledger", "/products").Use(middleware.RequirePermission(identity.PermStockView))
	ledger.GET("/:id/movements", h.Movements)
	ledger.GET("/:id/balance", h.Balance)

	documents := g.Group("documents", "/documents").Use(middleware.RequirePermission(identity.PermStockView))
	documents.GET("/:type/:ref", h.Document)

	valuation := g.Group("valuation", "/valuation").Use(middleware.RequirePermission(identity.PermReportValuation))
	valuation.GET("", h.Valuation)
	valuation.GET("/snapshot", h.Snapshot)
	return g
}
