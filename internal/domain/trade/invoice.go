package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceSource records which flow produced an invoice
type InvoiceSource string

const (
	InvoiceSourceCheckout   InvoiceSource = "CHECKOUT"
	InvoiceSourceQuickSales InvoiceSource = "QUICK_SALES"
)

// PaymentMethod is a tender type
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodQRIS     PaymentMethod = "QRIS"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCredit   PaymentMethod = "CREDIT"
	PaymentMethodOther    PaymentMethod = "OTHER"
)

// IsValid reports whether m is a known tender
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodQRIS, PaymentMethodTransfer, PaymentMethodCredit, PaymentMethodOther:
		return true
	}
	return false
}

// LineInput is one cart line. UnitPrice nil means the product's list price for PriceTier.
type LineInput struct {
	ProductID uuid.UUID
	Qty       decimal.Decimal
	Unit      string
	PriceTier catalog.PriceTier
	UnitPrice *decimal.Decimal
	Discount  decimal.Decimal
	TaxRate   decimal.Decimal
}

// PaymentInput is one tender offered against the invoice
type PaymentInput struct {
	Method    PaymentMethod
	Amount    decimal.Decimal
	Reference string
}

// InvoiceDraft is everything needed to build an invoice except its receipt number
type InvoiceDraft struct {
	Source       InvoiceSource
	SessionID    *uuid.UUID
	CashierID    uuid.UUID
	BusinessDate string
	Lines        []LineInput
	Payments     []PaymentInput
	Note         string
	RequestID    string
}

// InvoiceLine is one posted product line. ReturnedQty is the running total of returns against it.
type InvoiceLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	LineNo      int
	ProductID   uuid.UUID
	SKU         string
	ProductName string
	Qty         decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	LineTotal   decimal.Decimal
	ReturnedQty decimal.Decimal
}

// EligibleQty is the quantity still returnable
func (l *InvoiceLine) EligibleQty() decimal.Decimal {
	return l.Qty.Sub(l.ReturnedQty)
}

// InvoicePayment is one tender
type InvoicePayment struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Method    PaymentMethod
	Amount    decimal.Decimal
	Reference string
}

// Invoice is the finalized, immutable sale record
type Invoice struct {
	shared.BaseAggregateRoot
	ReceiptNo     string
	BusinessDate  string
	CashierID     *uuid.UUID
	Source        InvoiceSource
	SessionID     *uuid.UUID
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	NetTotal      decimal.Decimal
	PaidTotal     decimal.Decimal
	Note          string
	RequestID     string
	Lines         []InvoiceLine
	Payments      []InvoicePayment
}

// ProductIDs returns the distinct products referenced by a draft, in first-seen order
func (d InvoiceDraft) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(d.Lines))
	ids := make([]uuid.UUID, 0, len(d.Lines))
	for _, l := range d.Lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}

// ValidateQuantities rejects empty carts and non-positive quantities. It needs no storage access.
func (d InvoiceDraft) ValidateQuantities() error {
	if len(d.Lines) == 0 {
		return shared.NewInvalidInputError("Invoice must have at least one line")
	}
	for i, l := range d.Lines {
		if !l.Qty.IsPositive() {
			return shared.ErrInvalidQuantity.WithMessage("Line %d: quantity must be greater than zero", i+1).WithDetail("line", i+1)
		}
	}
	return nil
}

// NewInvoice prices the draft against products and checks that payments
// cover the net total exactly. Every referenced product must be present in
// products and active.
func NewInvoice(d InvoiceDraft, products map[uuid.UUID]*catalog.Product, scale int32, now time.Time) (*Invoice, error) {
	if err := d.ValidateQuantities(); err != nil {
		return nil, err
	}
	if d.Source == "" {
		d.Source = InvoiceSourceCheckout
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		BusinessDate:      d.BusinessDate,
		Source:            d.Source,
		SessionID:         d.SessionID,
		Note:              strings.TrimSpace(d.Note),
		RequestID:         d.RequestID,
		Subtotal:          decimal.Zero,
		DiscountTotal:     decimal.Zero,
		TaxTotal:          decimal.Zero,
		NetTotal:          decimal.Zero,
		PaidTotal:         decimal.Zero,
		Lines:             make([]InvoiceLine, 0, len(d.Lines)),
		Payments:          make([]InvoicePayment, 0, len(d.Payments)),
	}
	if d.CashierID != uuid.Nil {
		cashier := d.CashierID
		inv.CashierID = &cashier
	}

	for i, in := range d.Lines {
		line, err := buildLine(inv.ID, i+1, in, products[in.ProductID], scale)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, *line)
		inv.Subtotal = inv.Subtotal.Add(line.Qty.Mul(line.UnitPrice).Round(scale))
		inv.DiscountTotal = inv.DiscountTotal.Add(line.Discount)
		inv.TaxTotal = inv.TaxTotal.Add(line.TaxAmount)
		inv.NetTotal = inv.NetTotal.Add(line.LineTotal)
	}

	if len(d.Payments) == 0 {
		return nil, shared.NewInvalidInputError("At least one payment is required")
	}
	for _, p := range d.Payments {
		if !p.Method.IsValid() {
			return nil, shared.NewInvalidInputError("Unknown payment method %q", p.Method)
		}
		if !p.Amount.IsPositive() {
			return nil, shared.NewInvalidInputError("Payment amounts must be greater than zero")
		}
		inv.PaidTotal = inv.PaidTotal.Add(p.Amount)
		inv.Payments = append(inv.Payments, InvoicePayment{
			ID:        uuid.New(),
			InvoiceID: inv.ID,
			Method:    p.Method,
			Amount:    p.Amount,
			Reference: strings.TrimSpace(p.Reference),
		})
	}
	if !inv.PaidTotal.Equal(inv.NetTotal) {
		return nil, shared.NewPaymentMismatchError(inv.NetTotal, inv.PaidTotal)
	}
	return inv, nil
}

func buildLine(invoiceID uuid.UUID, lineNo int, in LineInput, p *catalog.Product, scale int32) (*InvoiceLine, error) {
	if p == nil {
		return nil, shared.ErrProductNotFound.WithMessage("Line %d: product %s not found", lineNo, in.ProductID).
			WithDetail("product_id", in.ProductID.String())
	}
	if err := p.EnsureSellable(); err != nil {
		return nil, err
	}

	price := p.PriceFor(in.PriceTier)
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	if price.IsNegative() {
		return nil, shared.NewInvalidInputError("Line %d: unit price cannot be negative", lineNo)
	}
	if in.Discount.IsNegative() || in.TaxRate.IsNegative() {
		return nil, shared.NewInvalidInputError("Line %d: discount and tax rate cannot be negative", lineNo)
	}

	gross, discount, net := shared.LineAmounts(in.Qty, price, in.Discount, scale)
	if discount.GreaterThan(gross) {
		return nil, shared.NewInvalidInputError("Line %d: discount %s exceeds line amount %s", lineNo, discount, gross)
	}
	tax := net.Mul(in.TaxRate).Round(scale)

	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = p.Unit
	}
	return &InvoiceLine{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		LineNo:      lineNo,
		ProductID:   p.ID,
		SKU:         p.SKU,
		ProductName: p.Name,
		Qty:         in.Qty,
		Unit:        unit,
		UnitPrice:   price,
		Discount:    discount,
		TaxRate:     in.TaxRate,
		TaxAmount:   tax,
		LineTotal:   net.Add(tax),
		ReturnedQty: decimal.Zero,
	}, nil
}

// QuantitiesByProduct sums line quantities per product, for stock checks
func (inv *Invoice) QuantitiesByProduct() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(inv.Lines))
	for _, l := range inv.Lines {
		out[l.ProductID] = out[l.ProductID].Add(l.Qty)
	}
	return out
}

// Line returns the invoice line with id, or nil
func (inv *Invoice) Line(id uuid.UUID) *InvoiceLine {
	for i := range inv.Lines {
		if inv.Lines[i].ID == id {
			return &inv.Lines[i]
		}
	}
	return nil
}
