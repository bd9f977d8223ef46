package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRepository persists invoices with their lines and payments
type InvoiceRepository interface {
	// Create inserts the invoice, its lines and its payments. A duplicate receipt number yields shared.ErrConstraintViolation.
	Create(ctx context.Context, inv *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByReceiptNo(ctx context.Context, receiptNo string) (*Invoice, error)
	ReceiptNoExists(ctx context.Context, receiptNo string) (bool, error)
	// NextReceiptSequence atomically increments and returns the counter for businessDate
	NextReceiptSequence(ctx context.Context, businessDate string) (int64, error)
	// IncrementReturnedQty adds qty to returned_qty only while the line's eligible
	// quantity (quantity - returned_qty) is at least qty. It reports false when the guard rejected the update.
	IncrementReturnedQty(ctx context.Context, lineID uuid.UUID, qty decimal.Decimal) (bool, error)
}

// SalesReturnRepository persists sales returns
type SalesReturnRepository interface {
	Create(ctx context.Context, r *SalesReturn) error
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]SalesReturn, error)
}
