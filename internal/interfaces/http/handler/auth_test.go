package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"github.com/grocerypos/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Operator    struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"operator"`
}

// authEngine serves the auth routes behind the real JWT middleware
func (f *fixture) authEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1", middleware.JWTAuthMiddleware(middleware.DefaultJWTConfig(f.jwtService, f.blacklist)))
	api.POST("/auth/login", f.auth.Login)
	api.POST("/auth/logout", f.auth.Logout)
	api.GET("/auth/me", f.auth.Me)
	return engine
}

func send(engine *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_LoginMeLogout(t *testing.T) {
	f := newFixture(t)
	engine := f.authEngine()

	rec := send(engine, http.MethodPost, "/api/v1/auth/login", "", `{"username":"ana","pin":"2468"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login loginBody
	decode(t, rec, &login)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, "cashier", login.Operator.Role)

	rec = send(engine, http.MethodGet, "/api/v1/auth/me", login.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me struct {
		Username string `json:"username"`
	}
	decode(t, rec, &me)
	assert.Equal(t, "ana", me.Username)

	rec = send(engine, http.MethodPost, "/api/v1/auth/logout", login.AccessToken, "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = send(engine, http.MethodGet, "/api/v1/auth/me", login.AccessToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.CodeTokenRevoked, errorCode(t, rec))
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	f := newFixture(t)
	engine := f.authEngine()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"wrong pin", `{"username":"ana","pin":"1111"}`, http.StatusUnauthorized, dto.CodeInvalidCredentials},
		{"unknown user", `{"username":"nobody","pin":"1111"}`, http.StatusUnauthorized, dto.CodeInvalidCredentials},
		{"pin too short", `{"username":"ana","pin":"12"}`, http.StatusBadRequest, dto.CodeValidation},
		{"empty body", ``, http.StatusBadRequest, dto.CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(engine, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestAuthHandler_LogoutWithoutToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, f.cashier, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.CodeUnauthenticated, errorCode(t, rec))
}

func TestOperatorHandler(t *testing.T) {
	f := newFixture(t)
	admin := identity.NewActor(uuid.New(), "root", identity.RoleAdmin)

	rec := f.do(t, admin, http.MethodPost, "/operators", map[string]string{
		"username": "citra", "display_name": "Citra", "role": "supervisor", "pin": "97531",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var op struct {
		ID       string `json:"id"`
		Role     string `json:"role"`
		IsActive bool   `json:"is_active"`
		HasPin   bool   `json:"has_pin"`
	}
	decode(t, rec, &op)
	assert.Equal(t, "supervisor", op.Role)
	assert.True(t, op.HasPin)

	t.Run("managers cannot create operators", func(t *testing.T) {
		rec := f.do(t, f.manager, http.MethodPost, "/operators", map[string]string{
			"username": "dodi", "role": "cashier", "pin": "1234",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, shared.CodeUnauthorized, errorCode(t, rec))
	})

	t.Run("operators read their own record only", func(t *testing.T) {
		rec := f.do(t, f.cashier, http.MethodGet, "/operators/"+f.cashier.OperatorID.String(), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = f.do(t, f.cashier, http.MethodGet, "/operators/"+op.ID, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("operators change their own pin", func(t *testing.T) {
		rec := f.do(t, f.cashier, http.MethodPut, "/operators/"+f.cashier.OperatorID.String()+"/pin",
			map[string]string{"pin": "8642"})
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})

	t.Run("deactivate", func(t *testing.T) {
		rec := f.do(t, admin, http.MethodPost, "/operators/"+op.ID+"/deactivate", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &op)
		assert.False(t, op.IsActive)
	})
}
