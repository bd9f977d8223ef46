package router

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/grocerypos/backend/docs"
	"github.com/grocerypos/backend/internal/interfaces/http/handler"
	"github.com/grocerypos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandlers() Handlers {
	return Handlers{
		Auth:       handler.NewAuthHandler(nil, nil),
		Operator:   handler.NewOperatorHandler(nil),
		Product:    handler.NewProductHandler(nil),
		QuickSales: handler.NewQuickSalesHandler(nil),
		Invoice:    handler.NewInvoiceHandler(nil),
		Stock:      handler.NewStockHandler(nil, nil, nil, nil),
		System:     handler.NewSystemHandler("test"),
	}
}

func TestRegisterAPI_Routes(t *testing.T) {
	engine := gin.New()
	RegisterAPI(engine, testHandlers(), RouteOptions{})

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /health",
		"GET /swagger/*any",
		"GET /api/v1/health",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/me",
		"POST /api/v1/operators",
		"GET /api/v1/operators/:id",
		"PUT /api/v1/operators/:id/pin",
		"POST /api/v1/operators/:id/deactivate",
		"POST /api/v1/products",
		"GET /api/v1/products",
		"GET /api/v1/products/lookup",
		"GET /api/v1/products/:id",
		"PUT /api/v1/products/:id",
		"POST /api/v1/products/:id/activate",
		"POST /api/v1/products/:id/deactivate",
		"POST /api/v1/quick-sales/session",
		"POST /api/v1/quick-sales/lines",
		"GET /api/v1/quick-sales/lines",
		"DELETE /api/v1/quick-sales/lines/:id",
		"POST /api/v1/quick-sales/close",
		"POST /api/v1/invoices",
		"GET /api/v1/invoices/:id",
		"GET /api/v1/invoices/receipt/:receipt_no",
		"GET /api/v1/invoices/:id/returns",
		"POST /api/v1/invoices/:id/returns",
		"POST /api/v1/stock/grn",
		"POST /api/v1/stock/adjustments",
		"POST /api/v1/stock/stocktakes",
		"POST /api/v1/stock/transfers/out",
		"POST /api/v1/stock/transfers/in",
		"POST /api/v1/stock/reconciliation",
		"GET /api/v1/stock/products/:id/movements",
		"GET /api/v1/stock/products/:id/balance",
		"GET /api/v1/stock/documents/:type/:ref",
		"GET /api/v1/stock/valuation",
		"GET /api/v1/stock/valuation/snapshot",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, registered, len(expected))
}

func TestRegisterAPI_Health(t *testing.T) {
	engine := gin.New()
	RegisterAPI(engine, testHandlers(), RouteOptions{})

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := serve(engine, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRegisterAPI_ReadRoutesRequirePermission(t *testing.T) {
	engine := gin.New()
	RegisterAPI(engine, testHandlers(), RouteOptions{})

	paths := []string{
		"/api/v1/stock/valuation",
		"/api/v1/stock/valuation/snapshot?date=2026-10-17",
		"/api/v1/stock/products/0b7a6c2e-5d0f-4a53-9f0c-3c8f1e2d4a10/balance",
		"/api/v1/invoices/receipt/R-20261018-0001",
		"/api/v1/quick-sales/lines",
	}
	for _, path := range paths {
		w := serve(engine, http.MethodGet, path)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)

		var body struct {
			Success bool `json:"success"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
	}
}

func TestRegisterAPI_AuthRunsBeforeRoutes(t *testing.T) {
	engine := gin.New()
	var authCalls int
	RegisterAPI(engine, testHandlers(), RouteOptions{
		Auth: func(c *gin.Context) {
			authCalls++
			c.AbortWithStatus(http.StatusTeapot)
		},
	})

	assert.Equal(t, http.StatusTeapot, serve(engine, http.MethodGet, "/api/v1/products").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	assert.Equal(t, 1, authCalls)
}

func TestRegisterAPI_LoginLimiter(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Close)

	engine := gin.New()
	RegisterAPI(engine, testHandlers(), RouteOptions{
		LoginLimiter: limiter,
		Auth: func(c *gin.Context) {
			c.Next()
		},
	})

	// Consume the only token so the handler is never reached
	require.True(t, limiter.Allow("192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/v1/auth/login").Code)
}

func TestRegisterAPI_Swagger(t *testing.T) {
	engine := gin.New()
	RegisterAPI(engine, testHandlers(), RouteOptions{})
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/swagger/doc.json").Code)

	engine = gin.New()
	RegisterAPI(engine, testHandlers(), RouteOptions{Swagger: middleware.SwaggerConfig{Enabled: true}})
	w := serve(engine, http.MethodGet, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Grocery POS API", doc.Info.Title)
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/quick-sales/close")
	assert.Contains(t, doc.Paths["/invoices/{id}/returns"], "post")

	engine = gin.New()
	RegisterAPI(engine, testHandlers(), RouteOptions{
		Swagger: middleware.SwaggerConfig{Enabled: true, RequireAuth: true},
		Auth:    func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) },
	})
	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/swagger/doc.json").Code)
}
