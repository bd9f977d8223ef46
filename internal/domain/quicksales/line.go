package quicksales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Line is one unposted sale entry. ID is store-assigned and ascending, which
// is the stable order for paging and for the invoice lines built at close.
type Line struct {
	ID          int64
	SessionID   uuid.UUID
	ProductID   uuid.UUID
	SKU         string
	ProductName string
	Qty         decimal.Decimal
	Unit        string
	PriceTier   catalog.PriceTier
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	LineTotal   decimal.Decimal
	CreatedBy   *uuid.UUID
	RequestID   string
	CreatedAt   time.Time
}

// LineInput is what the cashier enters for one line
type LineInput struct {
	Qty       decimal.Decimal
	Discount  decimal.Decimal
	Unit      string
	PriceTier catalog.PriceTier
}

// NewLine prices input against product the way the invoice line built at
// close will: line_total = round(qty*unit_price) - round(discount).
func NewLine(sessionID uuid.UUID, product *catalog.Product, in LineInput, scale int32, now time.Time) (*Line, error) {
	if !in.Qty.IsPositive() {
		return nil, shared.ErrInvalidQuantity
	}
	if err := product.EnsureSellable(); err != nil {
		return nil, err
	}
	tier := in.PriceTier
	if tier == "" {
		tier = catalog.PriceTierRetail
	}
	if !tier.IsValid() {
		return nil, shared.NewInvalidInputError("Unknown price tier %q", tier)
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = product.Unit
	}

	price := product.PriceFor(tier)
	if in.Discount.IsNegative() {
		return nil, shared.NewInvalidInputError("Discount cannot be negative")
	}
	gross, discount, total := shared.LineAmounts(in.Qty, price, in.Discount, scale)
	if discount.GreaterThan(gross) {
		return nil, shared.NewInvalidInputError("Discount %s exceeds line amount %s", discount, gross)
	}

	return &Line{
		SessionID:   sessionID,
		ProductID:   product.ID,
		SKU:         product.SKU,
		ProductName: product.Name,
		Qty:         in.Qty,
		Unit:        unit,
		PriceTier:   tier,
		UnitPrice:   price,
		Discount:    discount,
		LineTotal:   total,
		CreatedAt:   now,
	}, nil
}
