package models

import (
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
// Barcode is nullable so the unique index only applies to products that carry one.
type ProductModel struct {
	AggregateModel
	SKU            string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_products_sku"`
	Barcode        *string         `gorm:"type:varchar(64);uniqueIndex:idx_products_barcode"`
	Name           string          `gorm:"type:varchar(200);not null"`
	NameAlt        string          `gorm:"type:varchar(200)"`
	Unit           string          `gorm:"type:varchar(20);not null"`
	PriceRetail    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceWholesale decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceCredit    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceOther     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQty       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive       bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SKU:               m.SKU,
		Name:              m.Name,
		NameAlt:           m.NameAlt,
		Unit:              m.Unit,
		Prices: catalog.Prices{
			Retail:    m.PriceRetail,
			Wholesale: m.PriceWholesale,
			Credit:    m.PriceCredit,
			Other:     m.PriceOther,
		},
		StockQty: m.StockQty,
		IsActive: m.IsActive,
	}
	if m.Barcode != nil {
		p.Barcode = *m.Barcode
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Barcode = nil
	if p.Barcode != "" {
		barcode := p.Barcode
		m.Barcode = &barcode
	}
	m.Name = p.Name
	m.NameAlt = p.NameAlt
	m.Unit = p.Unit
	m.PriceRetail = p.Prices.Retail
	m.PriceWholesale = p.Prices.Wholesale
	m.PriceCredit = p.Prices.Credit
	m.PriceOther = p.Prices.Other
	m.StockQty = p.StockQty
	m.IsActive = p.IsActive
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
