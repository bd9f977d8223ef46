package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// PostInvoiceRequest is a checkout: the cart lines and the tenders offered
type PostInvoiceRequest struct {
	Lines     []InvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
	Payments  []PaymentRequest     `json:"payments" binding:"required,min=1,dive"`
	Note      string               `json:"note" binding:"max=500"`
	Actor     identity.Actor       `json:"-"`
	RequestID string               `json:"-"`
}

// InvoiceLineRequest is one cart line. UnitPrice overrides the tier's list price.
type InvoiceLineRequest struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Qty       decimal.Decimal  `json:"qty"`
	Unit      string           `json:"unit" binding:"max=20"`
	PriceTier string           `json:"price_tier" binding:"omitempty,oneof=retail wholesale credit other"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  decimal.Decimal  `json:"discount"`
	TaxRate   decimal.Decimal  `json:"tax_rate"`
}

// PaymentRequest is one tender
type PaymentRequest struct {
	Method    string          `json:"method" binding:"required,oneof=CASH CARD QRIS TRANSFER CREDIT OTHER"`
	Amount    decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Reference string          `json:"reference" binding:"max=100"`
}

// ReturnRequest returns quantities of one invoice's lines
type ReturnRequest struct {
	InvoiceID    uuid.UUID           `json:"-"`
	Lines        []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
	Reason       string              `json:"reason" binding:"max=500"`
	RefundMethod string              `json:"refund_method" binding:"omitempty,oneof=CASH CARD QRIS TRANSFER CREDIT OTHER"`
	Actor        identity.Actor      `json:"-"`
	RequestID    string              `json:"-"`
}

// ReturnLineRequest is the quantity returned against one invoice line
type ReturnLineRequest struct {
	InvoiceLineID uuid.UUID       `json:"invoice_line_id" binding:"required"`
	Qty           decimal.Decimal `json:"qty"`
}

// InvoiceResponse represents a posted invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID                `json:"id"`
	ReceiptNo     string                   `json:"receipt_no"`
	BusinessDate  string                   `json:"business_date"`
	Source        string                   `json:"source"`
	SessionID     *uuid.UUID               `json:"session_id,omitempty"`
	CashierID     *uuid.UUID               `json:"cashier_id,omitempty"`
	Subtotal      decimal.Decimal          `json:"subtotal"`
	DiscountTotal decimal.Decimal          `json:"discount_total"`
	TaxTotal      decimal.Decimal          `json:"tax_total"`
	NetTotal      decimal.Decimal          `json:"net_total"`
	PaidTotal     decimal.Decimal          `json:"paid_total"`
	Note          string                   `json:"note,omitempty"`
	Lines         []InvoiceLineResponse    `json:"lines"`
	Payments      []InvoicePaymentResponse `json:"payments"`
	CreatedAt     time.Time                `json:"created_at"`
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	LineNo      int             `json:"line_no"`
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Qty         decimal.Decimal `json:"qty"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ReturnedQty decimal.Decimal `json:"returned_qty"`
}

// InvoicePaymentResponse represents a tender in API responses
type InvoicePaymentResponse struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// SalesReturnResponse represents a processed return in API responses
type SalesReturnResponse struct {
	ID           uuid.UUID                 `json:"id"`
	InvoiceID    uuid.UUID                 `json:"invoice_id"`
	Reason       string                    `json:"reason,omitempty"`
	RefundMethod string                    `json:"refund_method"`
	RefundTotal  decimal.Decimal           `json:"refund_total"`
	Lines        []SalesReturnLineResponse `json:"lines"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// SalesReturnLineResponse represents one returned line
type SalesReturnLineResponse struct {
	InvoiceLineID uuid.UUID       `json:"invoice_line_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Qty           decimal.Decimal `json:"qty"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
}

// ToInvoiceResponse converts a domain invoice to its response form
func ToInvoiceResponse(inv *trade.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		ReceiptNo:     inv.ReceiptNo,
		BusinessDate:  inv.BusinessDate,
		Source:        string(inv.Source),
		SessionID:     inv.SessionID,
		CashierID:     inv.CashierID,
		Subtotal:      inv.Subtotal,
		DiscountTotal: inv.DiscountTotal,
		TaxTotal:      inv.TaxTotal,
		NetTotal:      inv.NetTotal,
		PaidTotal:     inv.PaidTotal,
		Note:          inv.Note,
		Lines:         make([]InvoiceLineResponse, len(inv.Lines)),
		Payments:      make([]InvoicePaymentResponse, len(inv.Payments)),
		CreatedAt:     inv.CreatedAt,
	}
	for i, l := range inv.Lines {
		resp.Lines[i] = InvoiceLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			ProductID:   l.ProductID,
			SKU:         l.SKU,
			ProductName: l.ProductName,
			Qty:         l.Qty,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			TaxRate:     l.TaxRate,
			TaxAmount:   l.TaxAmount,
			LineTotal:   l.LineTotal,
			ReturnedQty: l.ReturnedQty,
		}
	}
	for i, p := range inv.Payments {
		resp.Payments[i] = InvoicePaymentResponse{Method: string(p.Method), Amount: p.Amount, Reference: p.Reference}
	}
	return resp
}

// ToSalesReturnResponse converts a domain sales return to its response form
func ToSalesReturnResponse(r *trade.SalesReturn) SalesReturnResponse {
	resp := SalesReturnResponse{
		ID:           r.ID,
		InvoiceID:    r.InvoiceID,
		Reason:       r.Reason,
		RefundMethod: string(r.RefundMethod),
		RefundTotal:  r.RefundTotal,
		Lines:        make([]SalesReturnLineResponse, len(r.Lines)),
		CreatedAt:    r.CreatedAt,
	}
	for i, l := range r.Lines {
		resp.Lines[i] = SalesReturnLineResponse{
			InvoiceLineID: l.InvoiceLineID,
			ProductID:     l.ProductID,
			Qty:           l.Qty,
			RefundAmount:  l.RefundAmount,
		}
	}
	return resp
}

func (r PostInvoiceRequest) draft() trade.InvoiceDraft {
	d := trade.InvoiceDraft{
		Source:    trade.InvoiceSourceCheckout,
		CashierID: r.Actor.OperatorID,
		Note:      r.Note,
		RequestID: r.RequestID,
		Lines:     make([]trade.LineInput, len(r.Lines)),
		Payments:  make([]trade.PaymentInput, len(r.Payments)),
	}
	for i, l := range r.Lines {
		d.Lines[i] = trade.LineInput{
			ProductID: l.ProductID,
			Qty:       l.Qty,
			Unit:      l.Unit,
			PriceTier: catalog.PriceTier(l.PriceTier),
			UnitPrice: l.UnitPrice,
			Discount:  l.Discount,
			TaxRate:   l.TaxRate,
		}
	}
	for i, p := range r.Payments {
		d.Payments[i] = trade.PaymentInput{
			Method:    trade.PaymentMethod(p.Method),
			Amount:    p.Amount,
			Reference: p.Reference,
		}
	}
	return d
}
