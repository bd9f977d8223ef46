package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/infrastructure/auth"
	"github.com/grocerypos/backend/internal/infrastructure/config"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(expiration time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "test-issuer",
		AccessTokenExpiration: expiration,
	})
}

func newTestToken(t *testing.T, svc *auth.JWTService, role identity.Role) (string, identity.Actor) {
	t.Helper()
	actor := identity.NewActor(uuid.New(), "ana", role)
	token, err := svc.GenerateAccessToken(actor)
	require.NoError(t, err)
	return token.Token, actor
}

func newJWTRouter(cfg JWTMiddlewareConfig, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(cfg))
	if handler == nil {
		handler = func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }
	}
	router.GET("/api/v1/stock/valuation", handler)
	router.GET("/api/v1/health", handler)
	router.POST("/api/v1/auth/login", handler)
	return router
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidTokenSetsActor(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	token, actor := newTestToken(t, svc, identity.RoleManager)

	var got identity.Actor
	router := newJWTRouter(DefaultJWTConfig(svc, nil), func(c *gin.Context) {
		got = GetActor(c)
		require.NotNil(t, GetJWTClaims(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/valuation", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, actor.OperatorID, got.OperatorID)
	assert.Equal(t, identity.RoleManager, got.Role)
	assert.True(t, got.HasPermission(identity.PermQuickSalesClose))
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	expired := newTestJWTService(-time.Minute)
	expiredToken, _ := newTestToken(t, expired, identity.RoleCashier)
	otherIssuer := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "test-issuer", AccessTokenExpiration: time.Minute})
	foreignToken, _ := newTestToken(t, otherIssuer, identity.RoleCashier)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.CodeUnauthenticated},
		{"wrong scheme", "Basic abc", dto.CodeTokenInvalid},
		{"empty bearer", "Bearer ", dto.CodeTokenInvalid},
		{"garbage token", "Bearer not.a.jwt", dto.CodeTokenInvalid},
		{"wrong signature", "Bearer " + foreignToken, dto.CodeTokenInvalid},
		{"expired", "Bearer " + expiredToken, dto.CodeTokenExpired},
	}

	router := newJWTRouter(DefaultJWTConfig(svc, nil), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/valuation", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := newJWTRouter(DefaultJWTConfig(newTestJWTService(time.Minute), nil), nil)

	for _, path := range []string{"/api/v1/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	blacklist := auth.NewInMemoryTokenBlacklist()
	token, _ := newTestToken(t, svc, identity.RoleCashier)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Minute))

	router := newJWTRouter(DefaultJWTConfig(svc, blacklist), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/valuation", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.CodeTokenRevoked, errorCode(t, rec))
}

func TestJWTAuthMiddleware_InvalidatedOperator(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	blacklist := auth.NewInMemoryTokenBlacklist()
	token, actor := newTestToken(t, svc, identity.RoleCashier)
	require.NoError(t, blacklist.InvalidateOperator(context.Background(), actor.OperatorID.String(), time.Minute))

	router := newJWTRouter(DefaultJWTConfig(svc, blacklist), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock/valuation", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.CodeTokenRevoked, errorCode(t, rec))
}

func TestGetActor_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.True(t, GetActor(c).IsZero())
	assert.Nil(t, GetJWTClaims(c))
}
