package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
)

// PricesInput carries the per-tier list prices. Unset tiers fall back to retail at sale time.
type PricesInput struct {
	Retail    decimal.Decimal `json:"retail"`
	Wholesale decimal.Decimal `json:"wholesale"`
	Credit    decimal.Decimal `json:"credit"`
	Other     decimal.Decimal `json:"other"`
}

func (p PricesInput) toDomain() catalog.Prices {
	return catalog.Prices{Retail: p.Retail, Wholesale: p.Wholesale, Credit: p.Credit, Other: p.Other}
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU       string         `json:"sku" binding:"required,min=1,max=50"`
	Barcode   string         `json:"barcode" binding:"max=50"`
	Name      string         `json:"name" binding:"required,min=1,max=200"`
	NameAlt   string         `json:"name_alt" binding:"max=200"`
	Unit      string         `json:"unit" binding:"required,min=1,max=20"`
	Prices    PricesInput    `json:"prices"`
	Actor     identity.Actor `json:"-"`
	RequestID string         `json:"-"`
}

// UpdateProductRequest changes the descriptive fields and prices of a product.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	ProductID uuid.UUID      `json:"-"`
	Barcode   *string        `json:"barcode" binding:"omitempty,max=50"`
	Name      *string        `json:"name" binding:"omitempty,min=1,max=200"`
	NameAlt   *string        `json:"name_alt" binding:"omitempty,max=200"`
	Prices    *PricesInput   `json:"prices"`
	Actor     identity.Actor `json:"-"`
	RequestID string         `json:"-"`
}

// SetActiveRequest activates or deactivates a product
type SetActiveRequest struct {
	ProductID uuid.UUID
	Active    bool
	Actor     identity.Actor
	RequestID string
}

// LookupQuery finds a single product by one of its codes
type LookupQuery struct {
	SKU     string `form:"sku"`
	Barcode string `form:"barcode"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Barcode   string          `json:"barcode,omitempty"`
	Name      string          `json:"name"`
	NameAlt   string          `json:"name_alt,omitempty"`
	Unit      string          `json:"unit"`
	Prices    PricesInput     `json:"prices"`
	StockQty  decimal.Decimal `json:"stock_qty"`
	IsActive  bool            `json:"is_active"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:      p.ID,
		SKU:     p.SKU,
		Barcode: p.Barcode,
		Name:    p.Name,
		NameAlt: p.NameAlt,
		Unit:    p.Unit,
		Prices: PricesInput{
			Retail:    p.Prices.Retail,
			Wholesale: p.Prices.Wholesale,
			Credit:    p.Prices.Credit,
			Other:     p.Prices.Other,
		},
		StockQty:  p.StockQty,
		IsActive:  p.IsActive,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
