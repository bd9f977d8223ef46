package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(limit, window)
	limiter.now = func() time.Time { return now }
	t.Cleanup(limiter.Close)
	return limiter, &now
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows up to the limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)
		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 2, time.Minute)
		assert.True(t, limiter.Allow("till-a"))
		assert.True(t, limiter.Allow("till-a"))
		assert.False(t, limiter.Allow("till-a"))

		assert.True(t, limiter.Allow("till-b"))
		assert.True(t, limiter.Allow("till-b"))
	})

	t.Run("refills after the window", func(t *testing.T) {
		limiter, now := newTestLimiter(t, 2, time.Minute)
		assert.True(t, limiter.Allow("till-c"))
		assert.True(t, limiter.Allow("till-c"))
		assert.False(t, limiter.Allow("till-c"))

		*now = now.Add(30 * time.Second)
		assert.True(t, limiter.Allow("till-c"))
		assert.False(t, limiter.Allow("till-c"))

		*now = now.Add(time.Minute)
		assert.True(t, limiter.Allow("till-c"))
		assert.True(t, limiter.Allow("till-c"))
	})

	t.Run("remaining", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 5, time.Minute)
		assert.Equal(t, 5, limiter.Remaining("fresh"))

		limiter.Allow("fresh")
		limiter.Allow("fresh")
		assert.Equal(t, 3, limiter.Remaining("fresh"))
	})

	t.Run("concurrent callers never exceed the limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t, 50, time.Minute)

		var allowed atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(50), allowed.Load())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		limiter.Close()
		assert.NotPanics(t, limiter.Close)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, time.Minute)

	router := gin.New()
	router.Use(RequestID())
	router.POST("/api/v1/auth/login", RateLimit(limiter), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = ip + ":51234"
		req.Header.Set(RequestIDHeader, "req-login")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send("192.168.1.20")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("192.168.1.20").Code)

	blocked := send("192.168.1.20")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Equal(t, dto.CodeRateLimited, errorCode(t, blocked))
	assert.Contains(t, blocked.Body.String(), "req-login")

	assert.Equal(t, http.StatusOK, send("192.168.1.21").Code)
}

func TestRateLimitByKey(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)

	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.GetHeader("X-Till-ID")
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(till string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Till-ID", till)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("till-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("till-1"))
	assert.Equal(t, http.StatusOK, send("till-2"))
}
