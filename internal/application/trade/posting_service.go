package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/grocerypos/backend/internal/application/inventory"
	appshared "github.com/grocerypos/backend/internal/application/shared"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/domain/trade"
	"github.com/grocerypos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// maxReceiptSuffix bounds the -2, -3, ... collision suffixes tried for one sequence value
const maxReceiptSuffix = 100

// PostingOptions holds store settings used when posting invoices
type PostingOptions struct {
	Location      *time.Location
	CurrencyScale int32
	ReceiptPrefix string
	Clock         shared.Clock
}

// PostingService turns carts and closed quick-sales sessions into invoices and handles returns
type PostingService struct {
	txScope  appshared.TransactionScope
	products catalog.ProductRepository
	invoices trade.InvoiceRepository
	returns  trade.SalesReturnRepository
	loc      *time.Location
	scale    int32
	prefix   string
	clock    shared.Clock
	logger   *zap.Logger
	metrics  *telemetry.POSMetrics
}

// NewPostingService creates a new PostingService
func NewPostingService(
	txScope appshared.TransactionScope,
	products catalog.ProductRepository,
	invoices trade.InvoiceRepository,
	returns trade.SalesReturnRepository,
	opts PostingOptions,
	logger *zap.Logger,
) *PostingService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostingService{
		txScope:  txScope,
		products: products,
		invoices: invoices,
		returns:  returns,
		loc:      opts.Location,
		scale:    opts.CurrencyScale,
		prefix:   opts.ReceiptPrefix,
		clock:    opts.Clock,
		logger:   logger,
	}
}

// SetMetrics sets the business metrics collector
func (s *PostingService) SetMetrics(m *telemetry.POSMetrics) {
	s.metrics = m
}

// PostInvoice validates the cart and payments, then posts the invoice in one transaction
func (s *PostingService) PostInvoice(ctx context.Context, req PostInvoiceRequest) (*InvoiceResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermSalesPost); err != nil {
		return nil, err
	}
	draft := req.draft()
	draft.BusinessDate = s.businessDate(s.clock())

	ctx, span := telemetry.StartSpan(ctx, "invoice.post", telemetry.AttrInvoiceSource.String(string(draft.Source)))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	if err = s.validate(ctx, draft); err != nil {
		s.logger.Debug("invoice rejected", zap.String("request_id", req.RequestID), zap.Error(err))
		return nil, err
	}

	var inv *trade.Invoice
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		inv, err = s.Post(ctx, repos, draft)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordInvoicePosted(ctx, string(inv.Source), inv.NetTotal)
	s.metrics.RecordMovements(ctx, string(inventory.MovementTypeSale), len(inv.Lines))

	s.logger.Info("invoice posted",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("receipt_no", inv.ReceiptNo),
		zap.String("net_total", inv.NetTotal.String()),
		zap.Int("lines", len(inv.Lines)),
		zap.String("request_id", req.RequestID))
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// validate prices the draft against the current catalog without writing anything
func (s *PostingService) validate(ctx context.Context, draft trade.InvoiceDraft) error {
	if err := draft.ValidateQuantities(); err != nil {
		return err
	}
	products, err := s.products.FindByIDs(ctx, draft.ProductIDs())
	if err != nil {
		return err
	}
	_, err = trade.NewInvoice(draft, products, s.scale, s.clock())
	return err
}

// Post writes draft as an invoice inside the caller's transaction. It checks
// each product's summed quantity against its ledger balance, allocates the
// receipt number, inserts the invoice and writes one SALE movement per line.
func (s *PostingService) Post(ctx context.Context, repos appshared.TransactionalRepositories, draft trade.InvoiceDraft) (*trade.Invoice, error) {
	now := s.clock()
	if draft.BusinessDate == "" {
		draft.BusinessDate = s.businessDate(now)
	}

	ids := draft.ProductIDs()
	products, err := repos.ProductRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	inv, err := trade.NewInvoice(draft, products, s.scale, now)
	if err != nil {
		return nil, err
	}

	quantities := inv.QuantitiesByProduct()
	for _, id := range ids {
		if err := appinventory.EnsureAvailable(ctx, repos, products[id], quantities[id]); err != nil {
			s.metrics.RecordInsufficientStock(ctx, string(inv.Source))
			return nil, err
		}
	}

	receiptNo, err := s.allocateReceiptNo(ctx, repos.InvoiceRepo(), inv.BusinessDate)
	if err != nil {
		return nil, err
	}
	inv.ReceiptNo = receiptNo
	if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
		return nil, err
	}

	for _, line := range inv.Lines {
		m, err := inventory.NewSaleMovement(line.ProductID, line.Qty, inv.ID, now)
		if err != nil {
			return nil, err
		}
		m.WithOperator(draft.CashierID, draft.RequestID)
		if err := appinventory.RecordMovement(ctx, repos, m); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// allocateReceiptNo takes the next sequence value for the day. A number that
// already exists (a counter reset or an imported invoice) gets the first free
// -2, -3, ... suffix.
func (s *PostingService) allocateReceiptNo(ctx context.Context, invoices trade.InvoiceRepository, businessDate string) (string, error) {
	seq, err := invoices.NextReceiptSequence(ctx, businessDate)
	if err != nil {
		return "", err
	}
	base := trade.FormatReceiptNo(s.prefix, businessDate, seq)
	candidate := base
	for n := 2; n <= maxReceiptSuffix; n++ {
		exists, err := invoices.ReceiptNoExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = trade.DisambiguateReceiptNo(base, n)
	}
	return "", shared.NewConstraintViolationError("No free receipt number for %s", base)
}

// ProcessReturn books goods coming back against a posted invoice. Each line's
// returned quantity is guarded so concurrent returns can never exceed what was sold.
func (s *PostingService) ProcessReturn(ctx context.Context, req ReturnRequest) (*SalesReturnResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermSalesReturn); err != nil {
		return nil, err
	}
	inputs := make([]trade.ReturnLineInput, len(req.Lines))
	for i, l := range req.Lines {
		inputs[i] = trade.ReturnLineInput{InvoiceLineID: l.InvoiceLineID, Qty: l.Qty}
	}

	now := s.clock()
	var ret *trade.SalesReturn
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		r, err := trade.NewSalesReturn(inv, inputs, req.Reason, trade.PaymentMethod(req.RefundMethod), req.Actor.OperatorID, s.scale, now)
		if err != nil {
			return err
		}
		r.RequestID = req.RequestID

		for _, l := range r.Lines {
			ok, err := repos.InvoiceRepo().IncrementReturnedQty(ctx, l.InvoiceLineID, l.Qty)
			if err != nil {
				return err
			}
			if !ok {
				return trade.NewReturnExceedsEligibleError(inv.Line(l.InvoiceLineID), l.Qty)
			}
		}
		if err := repos.ReturnRepo().Create(ctx, r); err != nil {
			return err
		}
		for _, l := range r.Lines {
			m, err := inventory.NewReturnMovement(l.ProductID, l.Qty, r.ID, now)
			if err != nil {
				return err
			}
			m.WithOperator(req.Actor.OperatorID, req.RequestID)
			if err := appinventory.RecordMovement(ctx, repos, m); err != nil {
				return err
			}
		}
		ret = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordReturn(ctx, ret.RefundTotal)
	s.metrics.RecordMovements(ctx, string(inventory.MovementTypeReturn), len(ret.Lines))

	s.logger.Info("sales return processed",
		zap.String("return_id", ret.ID.String()),
		zap.String("invoice_id", ret.InvoiceID.String()),
		zap.String("refund_total", ret.RefundTotal.String()),
		zap.String("request_id", req.RequestID))
	resp := ToSalesReturnResponse(ret)
	return &resp, nil
}

// GetInvoice returns a posted invoice with its lines and payments
func (s *PostingService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetInvoiceByReceipt looks an invoice up by its printed receipt number
func (s *PostingService) GetInvoiceByReceipt(ctx context.Context, receiptNo string) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByReceiptNo(ctx, receiptNo)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ReturnsFor lists the returns booked against an invoice
func (s *PostingService) ReturnsFor(ctx context.Context, invoiceID uuid.UUID) ([]SalesReturnResponse, error) {
	returns, err := s.returns.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]SalesReturnResponse, len(returns))
	for i := range returns {
		out[i] = ToSalesReturnResponse(&returns[i])
	}
	return out, nil
}

func (s *PostingService) businessDate(t time.Time) string {
	return t.In(s.loc).Format(time.DateOnly)
}
