package quicksales

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	appshared "github.com/grocerypos/backend/internal/application/shared"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/quicksales"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/domain/trade"
	"github.com/grocerypos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoicePoster posts an invoice inside a transaction the caller already holds
type InvoicePoster interface {
	Post(ctx context.Context, repos appshared.TransactionalRepositories, draft trade.InvoiceDraft) (*trade.Invoice, error)
}

// ManagerOptions holds store settings the session manager needs
type ManagerOptions struct {
	Location      *time.Location
	CurrencyScale int32
	DefaultScope  string
	Clock         shared.Clock
}

// SessionManager runs the quick-sales day: at most one open session per
// scope, lines entered against it, and the close that turns it into one invoice.
type SessionManager struct {
	sessions  quicksales.SessionRepository
	products  catalog.ProductRepository
	operators identity.OperatorRepository
	txScope   appshared.TransactionScope
	poster    InvoicePoster
	pins      identity.PinVerifier
	loc       *time.Location
	scale     int32
	scope     string
	clock     shared.Clock
	logger    *zap.Logger
	metrics   *telemetry.POSMetrics
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(
	sessions quicksales.SessionRepository,
	products catalog.ProductRepository,
	operators identity.OperatorRepository,
	txScope appshared.TransactionScope,
	poster InvoicePoster,
	pins identity.PinVerifier,
	opts ManagerOptions,
	logger *zap.Logger,
) *SessionManager {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock
	}
	if opts.DefaultScope == "" {
		opts.DefaultScope = "default"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		sessions:  sessions,
		products:  products,
		operators: operators,
		txScope:   txScope,
		poster:    poster,
		pins:      pins,
		loc:       opts.Location,
		scale:     opts.CurrencyScale,
		scope:     opts.DefaultScope,
		clock:     opts.Clock,
		logger:    logger,
	}
}

// SetMetrics sets the business metrics collector
func (m *SessionManager) SetMetrics(metrics *telemetry.POSMetrics) {
	m.metrics = metrics
}

// EnsureTodayOpen returns the scope's open session, creating today's when the
// scope has none. An open session from an earlier day is returned as it is
// with Stale set; it has to be closed before today's can open. A creation
// race with another terminal surfaces as shared.ErrConcurrentOpenSession and
// the caller should simply ask again.
func (m *SessionManager) EnsureTodayOpen(ctx context.Context, req EnsureOpenRequest) (*EnsureOpenResult, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermQuickSalesSell); err != nil {
		return nil, err
	}
	scope := m.scopeOf(req.Scope)
	today := quicksales.BusinessDate(m.clock(), m.loc)

	open, err := m.sessions.FindOpenByScope(ctx, scope)
	switch {
	case err == nil:
		return &EnsureOpenResult{Session: ToSessionResponse(open), Stale: open.IsStale(today)}, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	closed, err := m.sessions.FindByScopeAndDate(ctx, scope, today)
	switch {
	case err == nil && !closed.IsOpen():
		return nil, shared.ErrSessionClosedForDay.WithDetail("scope", scope).WithDetail("business_date", today)
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	session, err := quicksales.NewSession(scope, today, req.Actor.OperatorID, req.RequestID, m.clock())
	if err != nil {
		return nil, err
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	m.logger.Info("quick sales session opened",
		zap.String("session_id", session.ID.String()),
		zap.String("scope", scope),
		zap.String("business_date", today),
		zap.String("request_id", req.RequestID))
	return &EnsureOpenResult{Session: ToSessionResponse(session), Created: true}, nil
}

// AddLine prices one entry and appends it to the scope's open session. The
// running totals move with one guarded UPDATE in the same transaction as the
// insert, so the cost does not grow with the session.
func (m *SessionManager) AddLine(ctx context.Context, req AddLineRequest) (*AddLineResult, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermQuickSalesSell); err != nil {
		return nil, err
	}
	if !req.Qty.IsPositive() {
		return nil, shared.ErrInvalidQuantity
	}
	product, err := m.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := product.EnsureSellable(); err != nil {
		return nil, err
	}
	scope := m.scopeOf(req.Scope)

	var (
		line    *quicksales.Line
		session *quicksales.Session
	)
	err = m.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		session, err = openSession(ctx, repos.SessionRepo(), scope)
		if err != nil {
			return err
		}
		line, err = quicksales.NewLine(session.ID, product, quicksales.LineInput{
			Qty:       req.Qty,
			Discount:  req.Discount,
			Unit:      req.Unit,
			PriceTier: catalog.PriceTier(req.PriceTier),
		}, m.scale, m.clock())
		if err != nil {
			return err
		}
		if !req.Actor.IsZero() {
			by := req.Actor.OperatorID
			line.CreatedBy = &by
		}
		line.RequestID = req.RequestID

		ok, err := repos.SessionRepo().IncrementTotals(ctx, session.ID, 1, line.LineTotal)
		if err != nil {
			return err
		}
		if !ok {
			return shared.ErrNoOpenSession.WithDetail("scope", scope)
		}
		session.ApplyLine(line)
		return repos.SessionRepo().InsertLine(ctx, line)
	})
	if err != nil {
		m.logger.Debug("quick sales line rejected", zap.String("request_id", req.RequestID), zap.Error(err))
		return nil, err
	}
	m.metrics.RecordQuickSalesLine(ctx, scope)

	return &AddLineResult{
		Line:        ToLineResponse(line),
		TotalLines:  session.TotalLines,
		TotalAmount: session.TotalAmount,
	}, nil
}

// RemoveLine deletes a line from the scope's open session and takes it out of the running totals
func (m *SessionManager) RemoveLine(ctx context.Context, req RemoveLineRequest) error {
	if err := appshared.RequirePermission(req.Actor, identity.PermQuickSalesSell); err != nil {
		return err
	}
	scope := m.scopeOf(req.Scope)

	return m.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		session, err := openSession(ctx, repos.SessionRepo(), scope)
		if err != nil {
			return err
		}
		line, err := repos.SessionRepo().FindLine(ctx, session.ID, req.LineID)
		if err != nil {
			return err
		}
		ok, err := repos.SessionRepo().IncrementTotals(ctx, session.ID, -1, line.LineTotal.Neg())
		if err != nil {
			return err
		}
		if !ok {
			return shared.ErrNoOpenSession.WithDetail("scope", scope)
		}
		return repos.SessionRepo().DeleteLine(ctx, session.ID, line.ID)
	})
}

// GetLines returns one page of the open session's lines in ascending id order.
// The cursor is the NextCursor of the previous page.
func (m *SessionManager) GetLines(ctx context.Context, req GetLinesRequest) (*LinesPage, error) {
	var afterID int64
	if req.Cursor != "" {
		id, err := strconv.ParseInt(req.Cursor, 10, 64)
		if err != nil || id < 0 {
			return nil, shared.NewInvalidInputError("Malformed cursor %q", req.Cursor)
		}
		afterID = id
	}
	limit := shared.ClampLimit(req.Limit, DefaultLinesPageSize, MaxLinesPageSize)

	session, err := openSession(ctx, m.sessions, m.scopeOf(req.Scope))
	if err != nil {
		return nil, err
	}
	lines, err := m.sessions.FindLines(ctx, session.ID, afterID, limit+1)
	if err != nil {
		return nil, err
	}

	count, err := m.sessions.CountLines(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	page := &LinesPage{TotalLines: count}
	if len(lines) > limit {
		lines = lines[:limit]
		page.HasMore = true
		page.NextCursor = strconv.FormatInt(lines[len(lines)-1].ID, 10)
	}
	page.Items = make([]LineResponse, len(lines))
	for i := range lines {
		page.Items[i] = ToLineResponse(&lines[i])
	}
	return page, nil
}

// CloseSession ends the scope's open session. The actor needs the close
// permission and must confirm with their PIN. In one transaction the session
// turns CLOSED and, unless it is empty, every line becomes its own invoice
// line on a single invoice paid in full with the chosen tender. Any failure
// rolls the whole close back and leaves the session OPEN.
func (m *SessionManager) CloseSession(ctx context.Context, req CloseSessionRequest) (*CloseSessionResult, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermQuickSalesClose); err != nil {
		return nil, err
	}
	if err := m.verifyPin(ctx, req.Actor, req.ManagerPin); err != nil {
		m.logger.Warn("quick sales close refused",
			zap.String("operator_id", req.Actor.OperatorID.String()),
			zap.String("request_id", req.RequestID))
		return nil, err
	}
	method := trade.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = trade.PaymentMethodCash
	}
	scope := m.scopeOf(req.Scope)

	ctx, span := telemetry.StartSpan(ctx, "quick_sales.close", telemetry.AttrScope.String(scope))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	var result *CloseSessionResult
	err = m.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		session, err := openSession(ctx, repos.SessionRepo(), scope)
		if err != nil {
			return err
		}
		lines, err := allLines(ctx, repos.SessionRepo(), session)
		if err != nil {
			return err
		}

		result = &CloseSessionResult{
			SessionID:     session.ID,
			BusinessDate:  session.BusinessDate,
			TotalLines:    int64(len(lines)),
			Subtotal:      decimal.Zero,
			DiscountTotal: decimal.Zero,
			TaxTotal:      decimal.Zero,
			NetTotal:      decimal.Zero,
		}
		now := m.clock()

		if len(lines) > 0 {
			inv, err := m.poster.Post(ctx, repos, m.invoiceDraft(session, lines, method, req))
			if err != nil {
				return err
			}
			result.InvoiceID = &inv.ID
			result.ReceiptNo = inv.ReceiptNo
			result.Subtotal = inv.Subtotal
			result.DiscountTotal = inv.DiscountTotal
			result.TaxTotal = inv.TaxTotal
			result.NetTotal = inv.NetTotal
		}

		if err := session.Close(req.Actor.OperatorID, req.Note, result.InvoiceID, now); err != nil {
			return err
		}
		ok, err := repos.SessionRepo().MarkClosed(ctx, session)
		if err != nil {
			return err
		}
		if !ok {
			return shared.ErrNoOpenSession.WithDetail("scope", scope)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.metrics.RecordSessionClosed(ctx, scope)
	if result.InvoiceID != nil {
		m.metrics.RecordInvoicePosted(ctx, string(trade.InvoiceSourceQuickSales), result.NetTotal)
		m.metrics.RecordMovements(ctx, string(inventory.MovementTypeSale), int(result.TotalLines))
	}

	m.logger.Info("quick sales session closed",
		zap.String("session_id", result.SessionID.String()),
		zap.String("scope", scope),
		zap.String("business_date", result.BusinessDate),
		zap.String("receipt_no", result.ReceiptNo),
		zap.Int64("lines", result.TotalLines),
		zap.String("net_total", result.NetTotal.String()),
		zap.String("request_id", req.RequestID))
	return result, nil
}

func (m *SessionManager) verifyPin(ctx context.Context, actor identity.Actor, pin string) error {
	op, err := m.operators.FindByID(ctx, actor.OperatorID)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if !op.VerifyPin(m.pins, pin) {
		return shared.ErrInvalidPin
	}
	return nil
}

// invoiceDraft keeps each session line as its own invoice line and pays the
// net total with a single tender
func (m *SessionManager) invoiceDraft(s *quicksales.Session, lines []quicksales.Line, method trade.PaymentMethod, req CloseSessionRequest) trade.InvoiceDraft {
	sessionID := s.ID
	draft := trade.InvoiceDraft{
		Source:       trade.InvoiceSourceQuickSales,
		SessionID:    &sessionID,
		CashierID:    req.Actor.OperatorID,
		BusinessDate: s.BusinessDate,
		Note:         strings.TrimSpace(fmt.Sprintf("Quick sales %s %s", s.BusinessDate, req.Note)),
		RequestID:    req.RequestID,
		Lines:        make([]trade.LineInput, len(lines)),
	}
	total := decimal.Zero
	for i, l := range lines {
		price := l.UnitPrice
		draft.Lines[i] = trade.LineInput{
			ProductID: l.ProductID,
			Qty:       l.Qty,
			Unit:      l.Unit,
			PriceTier: l.PriceTier,
			UnitPrice: &price,
			Discount:  l.Discount,
		}
		_, _, net := shared.LineAmounts(l.Qty, price, l.Discount, m.scale)
		total = total.Add(net)
	}
	draft.Payments = []trade.PaymentInput{{Method: method, Amount: total}}
	return draft
}

func (m *SessionManager) scopeOf(scope string) string {
	if s := strings.TrimSpace(scope); s != "" {
		return s
	}
	return m.scope
}

func openSession(ctx context.Context, repo quicksales.SessionRepository, scope string) (*quicksales.Session, error) {
	s, err := repo.FindOpenByScope(ctx, scope)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrNoOpenSession.WithDetail("scope", scope)
	}
	return s, err
}

// allLines reads a session's lines in id order, a bounded page at a time
func allLines(ctx context.Context, repo quicksales.SessionRepository, s *quicksales.Session) ([]quicksales.Line, error) {
	lines := make([]quicksales.Line, 0, s.TotalLines)
	var afterID int64
	for {
		page, err := repo.FindLines(ctx, s.ID, afterID, MaxLinesPageSize)
		if err != nil {
			return nil, err
		}
		lines = append(lines, page...)
		if len(page) < MaxLinesPageSize {
			return lines, nil
		}
		afterID = page[len(page)-1].ID
	}
}
