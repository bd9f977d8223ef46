package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/quicksales"
	"github.com/shopspring/decimal"
)

// QuickSalesSessionModel is the persistence model for a quick sales session.
// The (scope, business_date) unique index is what rejects a second creator for the same day.
type QuickSalesSessionModel struct {
	AggregateModel
	Scope        string                   `gorm:"type:varchar(64);not null;uniqueIndex:idx_qs_sessions_scope_date,priority:1;index:idx_qs_sessions_scope_status,priority:1"`
	BusinessDate string                   `gorm:"type:varchar(10);not null;uniqueIndex:idx_qs_sessions_scope_date,priority:2"`
	Status       quicksales.SessionStatus `gorm:"type:varchar(10);not null;default:'OPEN';index:idx_qs_sessions_scope_status,priority:2"`
	OpenedAt     time.Time                `gorm:"not null"`
	OpenedBy     *uuid.UUID               `gorm:"type:uuid"`
	ClosedAt     *time.Time
	ClosedBy     *uuid.UUID      `gorm:"type:uuid"`
	Note         string          `gorm:"type:varchar(500)"`
	TotalLines   int64           `gorm:"not null;default:0"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	InvoiceID    *uuid.UUID      `gorm:"type:uuid"`
	RequestID    string          `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (QuickSalesSessionModel) TableName() string {
	return "quick_sales_sessions"
}

// ToDomain converts the persistence model to a domain Session.
func (m *QuickSalesSessionModel) ToDomain() *quicksales.Session {
	return &quicksales.Session{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Scope:             m.Scope,
		BusinessDate:      m.BusinessDate,
		Status:            m.Status,
		OpenedAt:          m.OpenedAt,
		OpenedBy:          m.OpenedBy,
		ClosedAt:          m.ClosedAt,
		ClosedBy:          m.ClosedBy,
		Note:              m.Note,
		TotalLines:        m.TotalLines,
		TotalAmount:       m.TotalAmount,
		InvoiceID:         m.InvoiceID,
		RequestID:         m.RequestID,
	}
}

// FromDomain populates the persistence model from a domain Session.
func (m *QuickSalesSessionModel) FromDomain(s *quicksales.Session) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Scope = s.Scope
	m.BusinessDate = s.BusinessDate
	m.Status = s.Status
	m.OpenedAt = s.OpenedAt.UTC()
	m.OpenedBy = s.OpenedBy
	m.ClosedAt = utcPtr(s.ClosedAt)
	m.ClosedBy = s.ClosedBy
	m.Note = s.Note
	m.TotalLines = s.TotalLines
	m.TotalAmount = s.TotalAmount
	m.InvoiceID = s.InvoiceID
	m.RequestID = s.RequestID
}

// QuickSalesSessionModelFromDomain creates a new persistence model from a domain Session.
func QuickSalesSessionModelFromDomain(s *quicksales.Session) *QuickSalesSessionModel {
	m := &QuickSalesSessionModel{}
	m.FromDomain(s)
	return m
}

// QuickSalesLineModel is one unposted sale line. Lines are deleted with their session.
type QuickSalesLineModel struct {
	ID          int64             `gorm:"primaryKey;autoIncrement"`
	SessionID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID         `gorm:"type:uuid;not null"`
	SKU         string            `gorm:"column:sku;type:varchar(64);not null"`
	ProductName string            `gorm:"type:varchar(200);not null"`
	Qty         decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Unit        string            `gorm:"type:varchar(20);not null"`
	PriceTier   catalog.PriceTier `gorm:"type:varchar(20);not null"`
	UnitPrice   decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal   decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	CreatedBy   *uuid.UUID        `gorm:"type:uuid"`
	RequestID   string            `gorm:"type:varchar(64)"`
	CreatedAt   time.Time         `gorm:"not null"`

	Session *QuickSalesSessionModel `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Product *ProductModel           `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (QuickSalesLineModel) TableName() string {
	return "quick_sales_lines"
}

// ToDomain converts the persistence model to a domain Line.
func (m *QuickSalesLineModel) ToDomain() quicksales.Line {
	return quicksales.Line{
		ID:          m.ID,
		SessionID:   m.SessionID,
		ProductID:   m.ProductID,
		SKU:         m.SKU,
		ProductName: m.ProductName,
		Qty:         m.Qty,
		Unit:        m.Unit,
		PriceTier:   m.PriceTier,
		UnitPrice:   m.UnitPrice,
		Discount:    m.Discount,
		LineTotal:   m.LineTotal,
		CreatedBy:   m.CreatedBy,
		RequestID:   m.RequestID,
		CreatedAt:   m.CreatedAt,
	}
}

// QuickSalesLineModelFromDomain creates a new persistence model from a domain Line.
func QuickSalesLineModelFromDomain(l *quicksales.Line) *QuickSalesLineModel {
	return &QuickSalesLineModel{
		ID:          l.ID,
		SessionID:   l.SessionID,
		ProductID:   l.ProductID,
		SKU:         l.SKU,
		ProductName: l.ProductName,
		Qty:         l.Qty,
		Unit:        l.Unit,
		PriceTier:   l.PriceTier,
		UnitPrice:   l.UnitPrice,
		Discount:    l.Discount,
		LineTotal:   l.LineTotal,
		CreatedBy:   l.CreatedBy,
		RequestID:   l.RequestID,
		CreatedAt:   l.CreatedAt.UTC(),
	}
}
