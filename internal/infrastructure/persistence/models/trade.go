package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	AggregateModel
	ReceiptNo     string              `gorm:"type:varchar(40);not null;uniqueIndex:idx_invoices_receipt_no"`
	BusinessDate  string              `gorm:"type:varchar(10);not null;index"`
	CashierID     *uuid.UUID          `gorm:"type:uuid"`
	Source        trade.InvoiceSource `gorm:"type:varchar(20);not null"`
	SessionID     *uuid.UUID          `gorm:"type:uuid;index"`
	Subtotal      decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	DiscountTotal decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	NetTotal      decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PaidTotal     decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Note          string              `gorm:"type:varchar(500)"`
	RequestID     string              `gorm:"type:varchar(64)"`

	Lines    []InvoiceLineModel    `gorm:"foreignKey:InvoiceID;constraint:OnDelete:RESTRICT"`
	Payments []InvoicePaymentModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *trade.Invoice {
	inv := &trade.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ReceiptNo:         m.ReceiptNo,
		BusinessDate:      m.BusinessDate,
		CashierID:         m.CashierID,
		Source:            m.Source,
		SessionID:         m.SessionID,
		Subtotal:          m.Subtotal,
		DiscountTotal:     m.DiscountTotal,
		TaxTotal:          m.TaxTotal,
		NetTotal:          m.NetTotal,
		PaidTotal:         m.PaidTotal,
		Note:              m.Note,
		RequestID:         m.RequestID,
		Lines:             make([]trade.InvoiceLine, 0, len(m.Lines)),
		Payments:          make([]trade.InvoicePayment, 0, len(m.Payments)),
	}
	for i := range m.Lines {
		inv.Lines = append(inv.Lines, m.Lines[i].ToDomain())
	}
	for i := range m.Payments {
		inv.Payments = append(inv.Payments, m.Payments[i].ToDomain())
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice, lines and payments included.
func (m *InvoiceModel) FromDomain(inv *trade.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.ReceiptNo = inv.ReceiptNo
	m.BusinessDate = inv.BusinessDate
	m.CashierID = inv.CashierID
	m.Source = inv.Source
	m.SessionID = inv.SessionID
	m.Subtotal = inv.Subtotal
	m.DiscountTotal = inv.DiscountTotal
	m.TaxTotal = inv.TaxTotal
	m.NetTotal = inv.NetTotal
	m.PaidTotal = inv.PaidTotal
	m.Note = inv.Note
	m.RequestID = inv.RequestID

	m.Lines = make([]InvoiceLineModel, 0, len(inv.Lines))
	for i := range inv.Lines {
		m.Lines = append(m.Lines, InvoiceLineModelFromDomain(&inv.Lines[i]))
	}
	m.Payments = make([]InvoicePaymentModel, 0, len(inv.Payments))
	for i := range inv.Payments {
		p := inv.Payments[i]
		m.Payments = append(m.Payments, InvoicePaymentModel{
			ID:        p.ID,
			InvoiceID: p.InvoiceID,
			Method:    p.Method,
			Amount:    p.Amount,
			Reference: p.Reference,
		})
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *trade.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineModel is one sold product line. ReturnedQty is the running
// aggregate that bounds further returns.
type InvoiceLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU         string          `gorm:"column:sku;type:varchar(64);not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit        string          `gorm:"type:varchar(20);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnedQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Product *ProductModel `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain InvoiceLine.
func (m *InvoiceLineModel) ToDomain() trade.InvoiceLine {
	return trade.InvoiceLine{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		LineNo:      m.LineNo,
		ProductID:   m.ProductID,
		SKU:         m.SKU,
		ProductName: m.ProductName,
		Qty:         m.Qty,
		Unit:        m.Unit,
		UnitPrice:   m.UnitPrice,
		Discount:    m.Discount,
		TaxRate:     m.TaxRate,
		TaxAmount:   m.TaxAmount,
		LineTotal:   m.LineTotal,
		ReturnedQty: m.ReturnedQty,
	}
}

// InvoiceLineModelFromDomain creates a persistence model from a domain InvoiceLine.
func InvoiceLineModelFromDomain(l *trade.InvoiceLine) InvoiceLineModel {
	return InvoiceLineModel{
		ID:          l.ID,
		InvoiceID:   l.InvoiceID,
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

// InvoicePaymentModel is one tender applied to an invoice.
type InvoicePaymentModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primary_key"`
	InvoiceID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Method    trade.PaymentMethod `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Reference string              `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (InvoicePaymentModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain InvoicePayment.
func (m *InvoicePaymentModel) ToDomain() trade.InvoicePayment {
	return trade.InvoicePayment{
		ID:        m.ID,
		InvoiceID: m.InvoiceID,
		Method:    m.Method,
		Amount:    m.Amount,
		Reference: m.Reference,
	}
}

// ReceiptSequenceModel holds the last receipt sequence issued per business date.
type ReceiptSequenceModel struct {
	BusinessDate string    `gorm:"type:varchar(10);primaryKey"`
	LastValue    int64     `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptSequenceModel) TableName() string {
	return "receipt_sequences"
}

// SalesReturnModel is the persistence model for a processed return.
type SalesReturnModel struct {
	AggregateModel
	InvoiceID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Reason       string              `gorm:"type:varchar(500)"`
	RefundMethod trade.PaymentMethod `gorm:"type:varchar(20);not null"`
	RefundTotal  decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ProcessedBy  *uuid.UUID          `gorm:"type:uuid"`
	RequestID    string              `gorm:"type:varchar(64)"`

	Invoice *InvoiceModel          `gorm:"foreignKey:InvoiceID;constraint:OnDelete:RESTRICT"`
	Lines   []SalesReturnLineModel `gorm:"foreignKey:ReturnID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (SalesReturnModel) TableName() string {
	return "sales_returns"
}

// ToDomain converts the persistence model to a domain SalesReturn.
func (m *SalesReturnModel) ToDomain() *trade.SalesReturn {
	r := &trade.SalesReturn{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceID:         m.InvoiceID,
		Reason:            m.Reason,
		RefundMethod:      m.RefundMethod,
		RefundTotal:       m.RefundTotal,
		ProcessedBy:       m.ProcessedBy,
		RequestID:         m.RequestID,
		Lines:             make([]trade.SalesReturnLine, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		r.Lines = append(r.Lines, trade.SalesReturnLine{
			ID:            l.ID,
			ReturnID:      l.ReturnID,
			InvoiceLineID: l.InvoiceLineID,
			ProductID:     l.ProductID,
			Qty:           l.Qty,
			RefundAmount:  l.RefundAmount,
		})
	}
	return r
}

// SalesReturnModelFromDomain creates a new persistence model from a domain SalesReturn.
func SalesReturnModelFromDomain(r *trade.SalesReturn) *SalesReturnModel {
	m := &SalesReturnModel{
		InvoiceID:    r.InvoiceID,
		Reason:       r.Reason,
		RefundMethod: r.RefundMethod,
		RefundTotal:  r.RefundTotal,
		ProcessedBy:  r.ProcessedBy,
		RequestID:    r.RequestID,
		Lines:        make([]SalesReturnLineModel, 0, len(r.Lines)),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	for _, l := range r.Lines {
		m.Lines = append(m.Lines, SalesReturnLineModel{
			ID:            l.ID,
			ReturnID:      l.ReturnID,
			InvoiceLineID: l.InvoiceLineID,
			ProductID:     l.ProductID,
			Qty:           l.Qty,
			RefundAmount:  l.RefundAmount,
		})
	}
	return m
}

// SalesReturnLineModel is one returned invoice line.
type SalesReturnLineModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReturnID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceLineID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null"`
	Qty           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RefundAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	InvoiceLine *InvoiceLineModel `gorm:"foreignKey:InvoiceLineID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (SalesReturnLineModel) TableName() string {
	return "sales_return_lines"
}
