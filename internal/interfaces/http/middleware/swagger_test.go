package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func denyAll(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.CodeUnauthenticated, "no token"))
}

func allowAll(c *gin.Context) {
	c.Set(ActorKey, "boss")
	c.Next()
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        SwaggerConfig
		auth       gin.HandlerFunc
		remoteAddr string
		wantStatus int
		wantCode   string
	}{
		{"disabled", SwaggerConfig{}, nil, "127.0.0.1:4000", http.StatusNotFound, shared.CodeNotFound},
		{"open", SwaggerConfig{Enabled: true}, nil, "192.168.1.9:4000", http.StatusOK, ""},
		{"listed ip", SwaggerConfig{Enabled: true, AllowedIPs: []string{"127.0.0.1"}}, nil, "127.0.0.1:4000", http.StatusOK, ""},
		{"unlisted ip", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil, "192.168.1.9:4000", http.StatusForbidden, dto.CodeForbidden},
		{"inside cidr", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, nil, "10.50.100.200:4000", http.StatusOK, ""},
		{"outside cidr", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}, nil, "11.0.0.1:4000", http.StatusForbidden, dto.CodeForbidden},
		{"garbage entries allow nobody", SwaggerConfig{Enabled: true, AllowedIPs: []string{"till-1"}}, nil, "127.0.0.1:4000", http.StatusForbidden, dto.CodeForbidden},
		{"auth refuses", SwaggerConfig{Enabled: true, RequireAuth: true}, denyAll, "127.0.0.1:4000", http.StatusUnauthorized, dto.CodeUnauthenticated},
		{"auth accepts", SwaggerConfig{Enabled: true, RequireAuth: true}, allowAll, "127.0.0.1:4000", http.StatusOK, ""},
		{"ip checked before auth", SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"127.0.0.1"}}, allowAll, "192.168.1.9:4000", http.StatusForbidden, dto.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/swagger/*any", SwaggerProtection(tt.cfg, tt.auth), func(c *gin.Context) {
				c.String(http.StatusOK, "docs")
			})

			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestAllowList(t *testing.T) {
	l := parseAllowList([]string{"192.168.1.1", " ::1 ", "10.0.0.0/8", "not-an-ip", "300.1.1.1/8"})
	assert.Len(t, l.ips, 2)
	assert.Len(t, l.nets, 1)

	assert.True(t, l.contains(net.ParseIP("192.168.1.1")))
	assert.True(t, l.contains(net.ParseIP("::1")))
	assert.True(t, l.contains(net.ParseIP("10.255.0.3")))
	assert.False(t, l.contains(net.ParseIP("192.168.1.2")))
	assert.False(t, l.contains(nil))
}
