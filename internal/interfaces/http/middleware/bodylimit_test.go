package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoLength answers with the number of bytes it could read, or 400 when
// the reader stopped it
func echoLength(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.String(http.StatusBadRequest, "capped at %d", tooLarge.Limit)
		return
	}
	c.String(http.StatusOK, "%d", len(raw))
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name          string
		limit         int64
		method        string
		body          string
		contentLength int64
		wantStatus    int
		wantBody      string
	}{
		{"small invoice fits", 1024, http.MethodPost, `{"lines":[]}`, 12, http.StatusOK, "12"},
		{"exactly at the limit", 12, http.MethodPost, `{"lines":[]}`, 12, http.StatusOK, "12"},
		{"declared length over the limit", 100, http.MethodPost, strings.Repeat("x", 200), 200, http.StatusRequestEntityTooLarge, dto.CodeBodyTooLarge},
		{"chunked body is capped while reading", 50, http.MethodPost, strings.Repeat("x", 100), -1, http.StatusBadRequest, "capped at 50"},
		{"bodiless read passes", 10, http.MethodGet, "", 0, http.StatusOK, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID(), BodyLimit(tt.limit))
			r.Handle(tt.method, "/invoices", echoLength)

			req := httptest.NewRequest(tt.method, "/invoices", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestBodyLimit_RejectionCarriesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), BodyLimit(8))
	r.POST("/stock/grn", echoLength)

	req := httptest.NewRequest(http.MethodPost, "/stock/grn", strings.NewReader(strings.Repeat("x", 64)))
	req.Header.Set(RequestIDHeader, "till-1-req-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.CodeBodyTooLarge, resp.Error.Code)
	assert.Equal(t, "till-1-req-7", resp.Error.RequestID)
}
