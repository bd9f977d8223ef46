package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	till := NewDomainGroup("till", "/till")
	till.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(till).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/till/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Api", "v1")
		c.Next()
	})

	g := NewDomainGroup("till", "/till")
	g.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.Register(g).Setup()
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, "v1", serve(engine, http.MethodGet, "/api/v1/till/ping").Header().Get("X-Api"))
	assert.Empty(t, serve(engine, http.MethodGet, "/outside").Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("products", "/products")
		assert.Equal(t, "products", g.Name())
		assert.Equal(t, "/products", g.Prefix())
	})

	t.Run("registers each method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("products", "/products")
		g.GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "get") }).
			POST("", func(c *gin.Context) { c.String(http.StatusCreated, "post") }).
			PUT("/:id", func(c *gin.Context) { c.String(http.StatusOK, "put") }).
			DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			status int
		}{
			{http.MethodGet, "/api/v1/products/42", http.StatusOK},
			{http.MethodPost, "/api/v1/products", http.StatusCreated},
			{http.MethodPut, "/api/v1/products/42", http.StatusOK},
			{http.MethodDelete, "/api/v1/products/42", http.StatusNoContent},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.status, serve(engine, tt.method, tt.path).Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("stock", "/stock")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/valuation", func(c *gin.Context) { c.Status(http.StatusOK) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/stock/valuation")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("stock", "/stock")
		g.Group("valuation", "/valuation").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "valuation")
		})
		g.Group("ledger", "/products").GET("/:id/balance", func(c *gin.Context) {
			c.String(http.StatusOK, "balance "+c.Param("id"))
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/stock/valuation")
		assert.Equal(t, "valuation", w.Body.String())
		w = serve(engine, http.MethodGet, "/api/v1/stock/products/p-1/balance")
		assert.Equal(t, "balance p-1", w.Body.String())
	})
}
