package quicksales

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/quicksales"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	DefaultLinesPageSize = 100
	MaxLinesPageSize     = 500
)

// EnsureOpenRequest asks for the scope's open session, creating today's when none exists
type EnsureOpenRequest struct {
	Scope     string         `json:"scope" binding:"max=64"`
	Actor     identity.Actor `json:"-"`
	RequestID string         `json:"-"`
}

// EnsureOpenResult carries the open session. Stale is set when it belongs to an earlier day.
type EnsureOpenResult struct {
	Session SessionResponse `json:"session"`
	Created bool            `json:"created"`
	Stale   bool            `json:"stale"`
}

// AddLineRequest appends one sale entry to the scope's open session
type AddLineRequest struct {
	Scope     string          `json:"scope" binding:"max=64"`
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty"`
	Discount  decimal.Decimal `json:"discount"`
	Unit      string          `json:"unit" binding:"max=20"`
	PriceTier string          `json:"price_tier" binding:"omitempty,oneof=retail wholesale credit other"`
	Actor     identity.Actor  `json:"-"`
	RequestID string          `json:"-"`
}

// RemoveLineRequest deletes one line from the scope's open session
type RemoveLineRequest struct {
	Scope     string
	LineID    int64
	Actor     identity.Actor
	RequestID string
}

// GetLinesRequest reads one page of the open session's lines in entry order
type GetLinesRequest struct {
	Scope     string `form:"scope" binding:"max=64"`
	Cursor    string `form:"cursor"`
	Limit     int    `form:"limit"`
	RequestID string `form:"-"`
}

// CloseSessionRequest closes the scope's open session into one invoice
type CloseSessionRequest struct {
	Scope         string         `json:"scope" binding:"max=64"`
	Note          string         `json:"note" binding:"max=500"`
	ManagerPin    string         `json:"manager_pin" binding:"required"`
	PaymentMethod string         `json:"payment_method" binding:"omitempty,oneof=CASH CARD QRIS TRANSFER CREDIT OTHER"`
	Actor         identity.Actor `json:"-"`
	RequestID     string         `json:"-"`
}

// SessionResponse represents a session in API responses
type SessionResponse struct {
	ID           uuid.UUID       `json:"id"`
	Scope        string          `json:"scope"`
	BusinessDate string          `json:"business_date"`
	Status       string          `json:"status"`
	OpenedAt     time.Time       `json:"opened_at"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
	TotalLines   int64           `json:"total_lines"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	InvoiceID    *uuid.UUID      `json:"invoice_id,omitempty"`
	Version      int             `json:"version"`
}

// LineResponse represents a session line in API responses
type LineResponse struct {
	ID          int64           `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Qty         decimal.Decimal `json:"qty"`
	Unit        string          `json:"unit"`
	PriceTier   string          `json:"price_tier"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AddLineResult is the stored line with the session's updated running totals
type AddLineResult struct {
	Line        LineResponse    `json:"line"`
	TotalLines  int64           `json:"total_lines"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// LinesPage is one page of session lines in ascending id order. TotalLines
// counts every line stored for the session.
type LinesPage struct {
	shared.CursorPage[LineResponse, string]
	TotalLines int64 `json:"total_lines"`
}

// CloseSessionResult describes the closed session and the invoice it produced.
// InvoiceID and ReceiptNo are empty when the session had no lines.
type CloseSessionResult struct {
	SessionID     uuid.UUID       `json:"session_id"`
	BusinessDate  string          `json:"business_date"`
	InvoiceID     *uuid.UUID      `json:"invoice_id,omitempty"`
	ReceiptNo     string          `json:"receipt_no,omitempty"`
	TotalLines    int64           `json:"total_lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	NetTotal      decimal.Decimal `json:"net_total"`
}

// ToSessionResponse converts a domain session to its response form
func ToSessionResponse(s *quicksales.Session) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		Scope:        s.Scope,
		BusinessDate: s.BusinessDate,
		Status:       string(s.Status),
		OpenedAt:     s.OpenedAt,
		ClosedAt:     s.ClosedAt,
		TotalLines:   s.TotalLines,
		TotalAmount:  s.TotalAmount,
		InvoiceID:    s.InvoiceID,
		Version:      s.Version,
	}
}

// ToLineResponse converts a domain line to its response form
func ToLineResponse(l *quicksales.Line) LineResponse {
	return LineResponse{
		ID:          l.ID,
		ProductID:   l.ProductID,
		SKU:         l.SKU,
		ProductName: l.ProductName,
		Qty:         l.Qty,
		Unit:        l.Unit,
		PriceTier:   string(l.PriceTier),
		UnitPrice:   l.UnitPrice,
		Discount:    l.Discount,
		LineTotal:   l.LineTotal,
		CreatedAt:   l.CreatedAt,
	}
}
