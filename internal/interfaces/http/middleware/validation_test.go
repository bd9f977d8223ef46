package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLine struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
}

type testDocument struct {
	Reference string     `json:"reference" binding:"required,max=10"`
	Lines     []testLine `json:"lines" binding:"required,min=1,dive"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req testDocument
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Lines[0].Quantity))
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-validation")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSetupValidator_DecimalGreaterThanZero(t *testing.T) {
	router := newValidationRouter()
	id := uuid.NewString()

	tests := []struct {
		name string
		qty  string
		ok   bool
	}{
		{"positive", `"2.5"`, true},
		{"positive number literal", `3`, true},
		{"zero", `"0"`, false},
		{"negative", `"-1"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(router, `{"reference":"GRN-1","lines":[{"product_id":"`+id+`","quantity":`+tt.qty+`}]}`)
			if tt.ok {
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Len(t, resp.Error.Fields, 1)
			assert.Equal(t, "lines[0].quantity", resp.Error.Fields[0].Field)
			assert.Equal(t, "Must be a number greater than zero", resp.Error.Fields[0].Message)
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	router := newValidationRouter()

	rec := postJSON(router, `{"reference":"WAY-TOO-LONG-REF","lines":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.CodeValidation, resp.Error.Code)
	assert.Equal(t, "req-validation", resp.Error.RequestID)

	byField := map[string]string{}
	for _, f := range resp.Error.Fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "Must be at most 10 characters", byField["reference"])
	assert.Equal(t, "Must contain at least 1 item(s)", byField["lines"])
}

func TestFormatValidationErrors_NonValidationError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	assert.Equal(t, dto.CodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Fields)
}
