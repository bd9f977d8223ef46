package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newProduct(t *testing.T, sku, retail string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, sku+" name", "pcs", catalog.Prices{Retail: dec(retail)}, now)
	require.NoError(t, err)
	return p
}

func catalogOf(ps ...*catalog.Product) map[uuid.UUID]*catalog.Product {
	out := make(map[uuid.UUID]*catalog.Product, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	return out
}

func cash(amount string) []PaymentInput {
	return []PaymentInput{{Method: PaymentMethodCash, Amount: dec(amount)}}
}

func TestNewInvoice_Totals(t *testing.T) {
	milk := newProduct(t, "MILK", "2.50")
	soap := newProduct(t, "SOAP", "1.25")

	inv, err := NewInvoice(InvoiceDraft{
		CashierID:    uuid.New(),
		BusinessDate: "2026-10-18",
		Lines: []LineInput{
			{ProductID: milk.ID, Qty: dec("2")},
			{ProductID: soap.ID, Qty: dec("4"), Discount: dec("0.50"), TaxRate: dec("0.10")},
		},
		Payments: []PaymentInput{
			{Method: PaymentMethodCash, Amount: dec("5.00")},
			{Method: PaymentMethodQRIS, Amount: dec("4.95"), Reference: "QR-1"},
		},
	}, catalogOf(milk, soap), 2, now)
	require.NoError(t, err)

	assert.Equal(t, InvoiceSourceCheckout, inv.Source)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, 1, inv.Lines[0].LineNo)
	// soap: 4*1.25 = 5.00 - 0.50 = 4.50, tax 0.45
	assert.True(t, inv.Lines[1].TaxAmount.Equal(dec("0.45")))
	assert.True(t, inv.Lines[1].LineTotal.Equal(dec("4.95")))
	assert.True(t, inv.Subtotal.Equal(dec("10.00")))
	assert.True(t, inv.DiscountTotal.Equal(dec("0.50")))
	assert.True(t, inv.NetTotal.Equal(dec("9.95")))
	assert.True(t, inv.PaidTotal.Equal(inv.NetTotal))
	assert.Len(t, inv.Payments, 2)
}

func TestNewInvoice_PaymentMismatchByOneCent(t *testing.T) {
	milk := newProduct(t, "MILK", "2.50")
	draft := InvoiceDraft{Lines: []LineInput{{ProductID: milk.ID, Qty: dec("1")}}, Payments: cash("2.49")}

	_, err := NewInvoice(draft, catalogOf(milk), 2, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPaymentMismatch))
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "2.5", de.Details["expected"])
	assert.Equal(t, "2.49", de.Details["received"])

	draft.Payments = cash("2.50")
	_, err = NewInvoice(draft, catalogOf(milk), 2, now)
	assert.NoError(t, err)
}

func TestNewInvoice_Validation(t *testing.T) {
	milk := newProduct(t, "MILK", "2.50")
	inactive := newProduct(t, "OLD", "1.00")
	inactive.Deactivate(now)

	tests := []struct {
		name  string
		draft InvoiceDraft
		want  *shared.DomainError
	}{
		{"no lines", InvoiceDraft{Payments: cash("1")}, shared.ErrInvalidInput},
		{"zero qty", InvoiceDraft{Lines: []LineInput{{ProductID: milk.ID, Qty: dec("0")}}, Payments: cash("1")}, shared.ErrInvalidQuantity},
		{"unknown product", InvoiceDraft{Lines: []LineInput{{ProductID: uuid.New(), Qty: dec("1")}}, Payments: cash("1")}, shared.ErrProductNotFound},
		{"inactive product", InvoiceDraft{Lines: []LineInput{{ProductID: inactive.ID, Qty: dec("1")}}, Payments: cash("1")}, shared.ErrProductInactive},
		{"no payments", InvoiceDraft{Lines: []LineInput{{ProductID: milk.ID, Qty: dec("1")}}}, shared.ErrInvalidInput},
		{"bad method", InvoiceDraft{Lines: []LineInput{{ProductID: milk.ID, Qty: dec("1")}}, Payments: []PaymentInput{{Method: "BARTER", Amount: dec("2.5")}}}, shared.ErrInvalidInput},
		{"discount above gross", InvoiceDraft{Lines: []LineInput{{ProductID: milk.ID, Qty: dec("1"), Discount: dec("3")}}, Payments: cash("1")}, shared.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInvoice(tt.draft, catalogOf(milk, inactive), 2, now)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewInvoice_ExplicitUnitPrice(t *testing.T) {
	milk := newProduct(t, "MILK", "2.50")
	price := dec("2.00")
	inv, err := NewInvoice(InvoiceDraft{
		Lines:    []LineInput{{ProductID: milk.ID, Qty: dec("3"), UnitPrice: &price}},
		Payments: cash("6"),
	}, catalogOf(milk), 2, now)
	require.NoError(t, err)
	assert.True(t, inv.NetTotal.Equal(dec("6")))
}

func TestQuantitiesByProduct(t *testing.T) {
	milk := newProduct(t, "MILK", "1")
	inv, err := NewInvoice(InvoiceDraft{
		Lines:    []LineInput{{ProductID: milk.ID, Qty: dec("2")}, {ProductID: milk.ID, Qty: dec("3")}},
		Payments: cash("5"),
	}, catalogOf(milk), 2, now)
	require.NoError(t, err)

	q := inv.QuantitiesByProduct()
	assert.True(t, q[milk.ID].Equal(dec("5")))
	assert.Len(t, inv.Lines, 2, "lines for the same product are not merged")
}

func TestReceiptNumbers(t *testing.T) {
	base := FormatReceiptNo("R", "2026-10-18", 7)
	assert.Equal(t, "R20261018-000007", base)
	assert.Equal(t, "R20261018-000007-2", DisambiguateReceiptNo(base, 2))
}
