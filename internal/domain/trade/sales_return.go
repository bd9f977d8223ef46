package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReturnLineInput asks to return qty of one invoice line
type ReturnLineInput struct {
	InvoiceLineID uuid.UUID
	Qty           decimal.Decimal
}

// SalesReturnLine is one returned quantity with its pro-rata refund
type SalesReturnLine struct {
	ID            uuid.UUID
	ReturnID      uuid.UUID
	InvoiceLineID uuid.UUID
	ProductID     uuid.UUID
	Qty           decimal.Decimal
	RefundAmount  decimal.Decimal
}

// SalesReturn records goods coming back against a posted invoice
type SalesReturn struct {
	shared.BaseAggregateRoot
	InvoiceID    uuid.UUID
	Reason       string
	RefundMethod PaymentMethod
	RefundTotal  decimal.Decimal
	ProcessedBy  *uuid.UUID
	RequestID    string
	Lines        []SalesReturnLine
}

// NewSalesReturn checks each requested quantity against the line's eligible
// quantity (sold minus already returned) as loaded in inv. Requests for the
// same line are summed before the check.
func NewSalesReturn(inv *Invoice, reqs []ReturnLineInput, reason string, method PaymentMethod, processedBy uuid.UUID, scale int32, now time.Time) (*SalesReturn, error) {
	if len(reqs) == 0 {
		return nil, shared.NewInvalidInputError("Return must have at least one line")
	}
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, shared.NewInvalidInputError("Unknown refund method %q", method)
	}

	requested := make(map[uuid.UUID]decimal.Decimal, len(reqs))
	order := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		if !r.Qty.IsPositive() {
			return nil, shared.ErrInvalidQuantity
		}
		if inv.Line(r.InvoiceLineID) == nil {
			return nil, shared.ErrNotFound.WithMessage("Invoice line %s is not part of invoice %s", r.InvoiceLineID, inv.ReceiptNo)
		}
		if _, seen := requested[r.InvoiceLineID]; !seen {
			order = append(order, r.InvoiceLineID)
		}
		requested[r.InvoiceLineID] = requested[r.InvoiceLineID].Add(r.Qty)
	}

	ret := &SalesReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		InvoiceID:         inv.ID,
		Reason:            strings.TrimSpace(reason),
		RefundMethod:      method,
		RefundTotal:       decimal.Zero,
		Lines:             make([]SalesReturnLine, 0, len(order)),
	}
	if processedBy != uuid.Nil {
		ret.ProcessedBy = &processedBy
	}

	for _, lineID := range order {
		line := inv.Line(lineID)
		qty := requested[lineID]
		if eligible := line.EligibleQty(); qty.GreaterThan(eligible) {
			return nil, NewReturnExceedsEligibleError(line, qty)
		}
		refund := refundFor(line, qty, scale)
		ret.Lines = append(ret.Lines, SalesReturnLine{
			ID:            uuid.New(),
			ReturnID:      ret.ID,
			InvoiceLineID: lineID,
			ProductID:     line.ProductID,
			Qty:           qty,
			RefundAmount:  refund,
		})
		ret.RefundTotal = ret.RefundTotal.Add(refund)
	}
	return ret, nil
}

// refundFor prices qty against the line's cumulative returned quantity, so
// the refunds of successive returns of a line add up to its line total.
func refundFor(line *InvoiceLine, qty decimal.Decimal, scale int32) decimal.Decimal {
	before := line.LineTotal.Mul(line.ReturnedQty).DivRound(line.Qty, scale)
	after := line.LineTotal.Mul(line.ReturnedQty.Add(qty)).DivRound(line.Qty, scale)
	return after.Sub(before)
}

// NewReturnExceedsEligibleError names the line and the quantities involved
func NewReturnExceedsEligibleError(line *InvoiceLine, requested decimal.Decimal) *shared.DomainError {
	return shared.ErrReturnExceedsEligible.
		WithMessage("Cannot return %s of %s: only %s eligible", requested, line.SKU, line.EligibleQty()).
		WithDetail("invoice_line_id", line.ID.String()).
		WithDetail("sku", line.SKU).
		WithDetail("requested", requested.String()).
		WithDetail("eligible", line.EligibleQty().String())
}
