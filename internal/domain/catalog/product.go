package catalog

import (
	"strings"
	"time"

	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PriceTier selects which of a product's list prices applies to a sale
type PriceTier string

const (
	PriceTierRetail    PriceTier = "retail"
	PriceTierWholesale PriceTier = "wholesale"
	PriceTierCredit    PriceTier = "credit"
	PriceTierOther     PriceTier = "other"
)

// IsValid reports whether t is a known tier
func (t PriceTier) IsValid() bool {
	switch t {
	case PriceTierRetail, PriceTierWholesale, PriceTierCredit, PriceTierOther:
		return true
	}
	return false
}

// Prices holds the per-tier list prices
type Prices struct {
	Retail    decimal.Decimal
	Wholesale decimal.Decimal
	Credit    decimal.Decimal
	Other     decimal.Decimal
}

// Product is a sellable SKU. StockQty is a cache of the ledger sum and is
// only ever changed together with a ledger append.
type Product struct {
	shared.BaseAggregateRoot
	SKU      string
	Barcode  string
	Name     string
	NameAlt  string
	Unit     string
	Prices   Prices
	StockQty decimal.Decimal
	IsActive bool
}

// NewProduct creates an active product with zero stock
func NewProduct(sku, name, unit string, prices Prices, now time.Time) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" || len(sku) > 50 {
		return nil, shared.NewInvalidInputError("SKU must be 1-50 characters")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewInvalidInputError("Unit of measure is required")
	}
	if err := prices.validate(); err != nil {
		return nil, err
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		SKU:               sku,
		Name:              strings.TrimSpace(name),
		Unit:              strings.TrimSpace(unit),
		Prices:            prices,
		StockQty:          decimal.Zero,
		IsActive:          true,
	}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || len(name) > 200 {
		return shared.NewInvalidInputError("Product name must be 1-200 characters")
	}
	return nil
}

func (p Prices) validate() error {
	for _, v := range []decimal.Decimal{p.Retail, p.Wholesale, p.Credit, p.Other} {
		if v.IsNegative() {
			return shared.NewInvalidInputError("Prices cannot be negative")
		}
	}
	return nil
}

// Rename sets the display name and its alternate-language variant
func (p *Product) Rename(name, nameAlt string, now time.Time) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(nameAlt) > 200 {
		return shared.NewInvalidInputError("Alternate name cannot exceed 200 characters")
	}
	p.Name = strings.TrimSpace(name)
	p.NameAlt = strings.TrimSpace(nameAlt)
	p.Touch(now)
	p.IncrementVersion()
	return nil
}

// SetBarcode assigns the scan code
func (p *Product) SetBarcode(barcode string, now time.Time) error {
	if len(barcode) > 50 {
		return shared.NewInvalidInputError("Barcode cannot exceed 50 characters")
	}
	p.Barcode = strings.TrimSpace(barcode)
	p.Touch(now)
	p.IncrementVersion()
	return nil
}

// SetPrices replaces all tier prices
func (p *Product) SetPrices(prices Prices, now time.Time) error {
	if err := prices.validate(); err != nil {
		return err
	}
	p.Prices = prices
	p.Touch(now)
	p.IncrementVersion()
	return nil
}

// Deactivate stops the product from being sold
func (p *Product) Deactivate(now time.Time) {
	p.IsActive = false
	p.Touch(now)
	p.IncrementVersion()
}

// Activate makes the product sellable again
func (p *Product) Activate(now time.Time) {
	p.IsActive = true
	p.Touch(now)
	p.IncrementVersion()
}

// PriceFor returns the list price for tier, falling back to retail when the tier has no price
func (p *Product) PriceFor(tier PriceTier) decimal.Decimal {
	var price decimal.Decimal
	switch tier {
	case PriceTierWholesale:
		price = p.Prices.Wholesale
	case PriceTierCredit:
		price = p.Prices.Credit
	case PriceTierOther:
		price = p.Prices.Other
	default:
		return p.Prices.Retail
	}
	if price.IsZero() {
		return p.Prices.Retail
	}
	return price
}

// EnsureSellable rejects inactive products
func (p *Product) EnsureSellable() error {
	if !p.IsActive {
		return shared.ErrProductInactive.WithMessage("Product %s is inactive", p.SKU).WithDetail("product_id", p.ID.String())
	}
	return nil
}
