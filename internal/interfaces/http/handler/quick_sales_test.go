package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openBody struct {
	Session struct {
		ID          string `json:"id"`
		Scope       string `json:"scope"`
		Status      string `json:"status"`
		TotalLines  int64  `json:"total_lines"`
		TotalAmount string `json:"total_amount"`
	} `json:"session"`
	Created bool `json:"created"`
}

type addLineBody struct {
	Line struct {
		ID        int64  `json:"id"`
		LineTotal string `json:"line_total"`
	} `json:"line"`
	TotalLines  int64  `json:"total_lines"`
	TotalAmount string `json:"total_amount"`
}

func TestQuickSalesHandler_Day(t *testing.T) {
	f := newFixture(t)
	rice := f.createProduct(t, "RICE", "8990000000010")
	f.receive(t, rice, "20")

	rec := f.do(t, f.cashier, http.MethodPost, "/quick-sales/session", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var opened openBody
	decode(t, rec, &opened)
	assert.True(t, opened.Created)
	assert.Equal(t, "till-1", opened.Session.Scope)

	rec = f.do(t, f.cashier, http.MethodPost, "/quick-sales/session", map[string]string{"scope": "till-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var again openBody
	decode(t, rec, &again)
	assert.False(t, again.Created)
	assert.Equal(t, opened.Session.ID, again.Session.ID)

	var last addLineBody
	for _, qty := range []string{"2", "1", "3"} {
		rec = f.do(t, f.cashier, http.MethodPost, "/quick-sales/lines", map[string]string{"product_id": rice, "qty": qty})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &last)
	}
	assert.Equal(t, int64(3), last.TotalLines)
	assert.Equal(t, "15", last.TotalAmount)

	rec = f.do(t, f.cashier, http.MethodDelete, fmt.Sprintf("/quick-sales/lines/%d", last.Line.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = f.do(t, f.cashier, http.MethodGet, "/quick-sales/lines?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []struct {
			Qty string `json:"qty"`
		} `json:"items"`
		NextCursor string `json:"next_cursor"`
		HasMore    bool   `json:"has_more"`
		TotalLines int64  `json:"total_lines"`
	}
	decode(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2", page.Items[0].Qty)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(2), page.TotalLines)

	rec = f.do(t, f.cashier, http.MethodGet, "/quick-sales/lines?cursor="+page.NextCursor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "1", page.Items[0].Qty)
	assert.False(t, page.HasMore)

	rec = f.do(t, f.manager, http.MethodPost, "/quick-sales/close", map[string]string{"manager_pin": managerPin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var closed struct {
		ReceiptNo  string `json:"receipt_no"`
		TotalLines int64  `json:"total_lines"`
		NetTotal   string `json:"net_total"`
	}
	decode(t, rec, &closed)
	assert.Equal(t, int64(2), closed.TotalLines)
	assert.Equal(t, "7.5", closed.NetTotal)
	assert.NotEmpty(t, closed.ReceiptNo)

	rec = f.do(t, f.cashier, http.MethodGet, "/products/"+rice, nil)
	var p productBody
	decode(t, rec, &p)
	assert.Equal(t, "17", p.StockQty)
}

func TestQuickSalesHandler_Errors(t *testing.T) {
	f := newFixture(t)
	rice := f.createProduct(t, "RICE", "8990000000011")

	t.Run("add without open session", func(t *testing.T) {
		rec := f.do(t, f.cashier, http.MethodPost, "/quick-sales/lines", map[string]string{"product_id": rice, "qty": "1"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, shared.CodeNoOpenSession, errorCode(t, rec))
	})

	require.Equal(t, http.StatusCreated, f.do(t, f.cashier, http.MethodPost, "/quick-sales/session", nil).Code)

	t.Run("zero quantity", func(t *testing.T) {
		rec := f.do(t, f.cashier, http.MethodPost, "/quick-sales/lines", map[string]string{"product_id": rice, "qty": "0"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, shared.CodeInvalidQuantity, errorCode(t, rec))
	})

	t.Run("invalid line id", func(t *testing.T) {
		rec := f.do(t, f.cashier, http.MethodDelete, "/quick-sales/lines/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong manager pin", func(t *testing.T) {
		rec := f.do(t, f.manager, http.MethodPost, "/quick-sales/close", map[string]string{"manager_pin": "0000"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, shared.CodeInvalidPin, errorCode(t, rec))
	})

	t.Run("cashier cannot close", func(t *testing.T) {
		rec := f.do(t, f.cashier, http.MethodPost, "/quick-sales/close", map[string]string{"manager_pin": managerPin})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("pin is required", func(t *testing.T) {
		rec := f.do(t, f.manager, http.MethodPost, "/quick-sales/close", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
