package handler

import (
	"net/http"
	"testing"

	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type valuationBody struct {
	Method     string `json:"method"`
	Date       string `json:"date"`
	TotalValue string `json:"total_value"`
	Products   []struct {
		SKU       string `json:"sku"`
		QtyOnHand string `json:"qty_on_hand"`
		Value     string `json:"value"`
	} `json:"products"`
}

func TestStockHandler_Documents(t *testing.T) {
	f := newFixture(t)
	flour := f.createProduct(t, "FLOUR", "8990000000030")
	f.receive(t, flour, "10")

	rec := f.do(t, f.manager, http.MethodPost, "/stock/adjustments", map[string]any{
		"product_id": flour, "delta": "-2", "reason": "spilled",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, f.manager, http.MethodPost, "/stock/transfers/out", map[string]any{
		"reference": "TR-1",
		"lines":     []map[string]string{{"product_id": flour, "quantity": "3"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, f.manager, http.MethodPost, "/stock/transfers/in", map[string]any{
		"reference": "TR-2",
		"lines":     []map[string]string{{"product_id": flour, "quantity": "1", "unit_cost": "1.2"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, f.manager, http.MethodPost, "/stock/stocktakes", map[string]any{
		"reference": "ST-1",
		"counts":    []map[string]string{{"product_id": flour, "counted_qty": "5"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc struct {
		ReferenceType string `json:"reference_type"`
		Movements     []struct {
			Quantity string `json:"quantity"`
		} `json:"movements"`
	}
	decode(t, rec, &doc)
	require.Len(t, doc.Movements, 1)
	assert.Equal(t, "-1", doc.Movements[0].Quantity)

	rec = f.do(t, f.cashier, http.MethodGet, "/stock/products/"+flour+"/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance struct {
		LedgerQty string `json:"ledger_qty"`
		StockQty  string `json:"stock_qty"`
		InSync    bool   `json:"in_sync"`
	}
	decode(t, rec, &balance)
	assert.Equal(t, "5", balance.LedgerQty)
	assert.Equal(t, "5", balance.StockQty)
	assert.True(t, balance.InSync)

	rec = f.do(t, f.cashier, http.MethodGet, "/stock/products/"+flour+"/movements?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []struct {
			MovementType string `json:"movement_type"`
		} `json:"items"`
		HasMore bool `json:"has_more"`
	}
	decode(t, rec, &page)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	rec = f.do(t, f.cashier, http.MethodGet, "/stock/documents/transfer/TR-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var transfer struct {
		ReferenceType string `json:"reference_type"`
		ReferenceID   string `json:"reference_id"`
		Movements     []struct {
			MovementType string `json:"movement_type"`
			Quantity     string `json:"quantity"`
		} `json:"movements"`
	}
	decode(t, rec, &transfer)
	assert.Equal(t, "TRANSFER", transfer.ReferenceType)
	assert.Equal(t, "TR-1", transfer.ReferenceID)
	require.Len(t, transfer.Movements, 1)
	assert.Equal(t, "-3", transfer.Movements[0].Quantity)

	rec = f.do(t, f.cashier, http.MethodGet, "/stock/documents/TRANSFER/TR-404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, f.cashier, http.MethodGet, "/stock/documents/coupon/TR-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockHandler_DocumentErrors(t *testing.T) {
	f := newFixture(t)
	flour := f.createProduct(t, "FLOUR", "8990000000031")

	t.Run("cashier cannot receive", func(t *testing.T) {
		rec := f.do(t, f.cashier, http.MethodPost, "/stock/grn", map[string]any{
			"reference": "GRN-1",
			"lines":     []map[string]string{{"product_id": flour, "quantity": "1", "unit_cost": "1"}},
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-positive quantity fails validation", func(t *testing.T) {
		rec := f.do(t, f.manager, http.MethodPost, "/stock/grn", map[string]any{
			"reference": "GRN-2",
			"lines":     []map[string]string{{"product_id": flour, "quantity": "0", "unit_cost": "1"}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.CodeValidation, errorCode(t, rec))
	})

	t.Run("transfer beyond stock", func(t *testing.T) {
		rec := f.do(t, f.manager, http.MethodPost, "/stock/transfers/out", map[string]any{
			"reference": "TR-9",
			"lines":     []map[string]string{{"product_id": flour, "quantity": "1"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, shared.CodeInsufficientStock, errorCode(t, rec))
	})
}

func TestStockHandler_Valuation(t *testing.T) {
	f := newFixture(t)
	sugar := f.createProduct(t, "SUGAR", "8990000000032")
	f.receive(t, sugar, "4")

	rec := f.do(t, f.manager, http.MethodGet, "/stock/valuation?method=AVERAGE", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report valuationBody
	decode(t, rec, &report)
	assert.Equal(t, "AVERAGE", report.Method)
	assert.Equal(t, "4", report.TotalValue)
	require.Len(t, report.Products, 1)
	assert.Equal(t, "SUGAR", report.Products[0].SKU)

	rec = f.do(t, f.manager, http.MethodGet, "/stock/valuation/snapshot?date=2026-10-18", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &report)
	assert.Equal(t, "2026-10-18", report.Date)
	assert.Equal(t, "4", report.TotalValue)

	rec = f.do(t, f.manager, http.MethodGet, "/stock/valuation/snapshot", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, f.manager, http.MethodGet, "/stock/valuation?method=RANDOM", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockHandler_Reconcile(t *testing.T) {
	f := newFixture(t)
	rice := f.createProduct(t, "RICE", "8990000000033")
	f.receive(t, rice, "3")

	rec := f.do(t, f.manager, http.MethodPost, "/stock/reconciliation", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report struct {
		Checked  int              `json:"checked"`
		Drifts   []map[string]any `json:"drifts"`
		Repaired bool             `json:"repaired"`
	}
	decode(t, rec, &report)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Drifts)
	assert.False(t, report.Repaired)

	f.lock = heldLock{}
	rec = f.do(t, f.manager, http.MethodPost, "/stock/reconciliation?repair=true", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, shared.CodeConcurrencyConflict, errorCode(t, rec))
}
