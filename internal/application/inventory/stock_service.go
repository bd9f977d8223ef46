package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	appshared "github.com/grocerypos/backend/internal/application/shared"
	"github.com/grocerypos/backend/internal/domain/identity"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockService writes the stock documents that feed the ledger: goods
// received notes, transfers, adjustments and stock takes. Each document is
// one transaction writing one movement per line.
type StockService struct {
	txScope appshared.TransactionScope
	clock   shared.Clock
	logger  *zap.Logger
	metrics *telemetry.POSMetrics
}

// NewStockService creates a new StockService
func NewStockService(txScope appshared.TransactionScope, clock shared.Clock, logger *zap.Logger) *StockService {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{txScope: txScope, clock: clock, logger: logger}
}

// SetMetrics sets the business metrics collector
func (s *StockService) SetMetrics(m *telemetry.POSMetrics) {
	s.metrics = m
}

// ReceiveGoods records a supplier delivery as costed GRN movements
func (s *StockService) ReceiveGoods(ctx context.Context, req ReceiveGoodsRequest) (*StockDocumentResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermStockReceive); err != nil {
		return nil, err
	}
	ref, err := documentReference(req.Reference, len(req.Lines))
	if err != nil {
		return nil, err
	}

	now := s.clock()
	movements := make([]*inventory.StockMovement, 0, len(req.Lines))
	for _, line := range req.Lines {
		m, err := inventory.NewGRNMovement(line.ProductID, line.Quantity, line.UnitCost, ref, now)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m.WithNote(req.Note).WithOperator(req.Actor.OperatorID, req.RequestID))
	}

	if err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		return recordAll(ctx, repos, movements)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("goods received",
		zap.String("reference", ref),
		zap.Int("lines", len(movements)),
		zap.String("request_id", req.RequestID))
	return s.document(ctx, inventory.ReferenceTypeGRN, ref, movements), nil
}

// TransferOut ships stock to another location. Every product must have
// enough ledger stock for the summed quantity of its lines.
func (s *StockService) TransferOut(ctx context.Context, req TransferRequest) (*StockDocumentResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermStockReceive); err != nil {
		return nil, err
	}
	ref, err := documentReference(req.Reference, len(req.Lines))
	if err != nil {
		return nil, err
	}

	now := s.clock()
	movements := make([]*inventory.StockMovement, 0, len(req.Lines))
	required := make(map[uuid.UUID]decimal.Decimal, len(req.Lines))
	order := make([]uuid.UUID, 0, len(req.Lines))
	for _, line := range req.Lines {
		if !line.Quantity.IsPositive() {
			return nil, shared.ErrInvalidQuantity
		}
		m, err := inventory.NewStockMovement(line.ProductID, inventory.MovementTypeTransferOut,
			inventory.ReferenceTypeTransfer, ref, line.Quantity.Neg(), now)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m.WithNote(req.Note).WithOperator(req.Actor.OperatorID, req.RequestID))
		if _, seen := required[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		required[line.ProductID] = required[line.ProductID].Add(line.Quantity)
	}

	if err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		for _, productID := range order {
			p, err := repos.ProductRepo().FindByID(ctx, productID)
			if err != nil {
				return err
			}
			if err := EnsureAvailable(ctx, repos, p, required[productID]); err != nil {
				return err
			}
		}
		return recordAll(ctx, repos, movements)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("stock transferred out",
		zap.String("reference", ref),
		zap.Int("lines", len(movements)),
		zap.String("request_id", req.RequestID))
	return s.document(ctx, inventory.ReferenceTypeTransfer, ref, movements), nil
}

// TransferIn books stock arriving from another location, costed when the sender supplied a unit cost
func (s *StockService) TransferIn(ctx context.Context, req TransferRequest) (*StockDocumentResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermStockReceive); err != nil {
		return nil, err
	}
	ref, err := documentReference(req.Reference, len(req.Lines))
	if err != nil {
		return nil, err
	}

	now := s.clock()
	movements := make([]*inventory.StockMovement, 0, len(req.Lines))
	for _, line := range req.Lines {
		m, err := inventory.NewStockMovement(line.ProductID, inventory.MovementTypeTransferIn,
			inventory.ReferenceTypeTransfer, ref, line.Quantity, now)
		if err != nil {
			return nil, err
		}
		if line.UnitCost != nil {
			if line.UnitCost.IsNegative() {
				return nil, shared.NewInvalidInputError("Unit cost cannot be negative")
			}
			m.WithUnitCost(*line.UnitCost)
		}
		movements = append(movements, m.WithNote(req.Note).WithOperator(req.Actor.OperatorID, req.RequestID))
	}

	if err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		return recordAll(ctx, repos, movements)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("stock transferred in",
		zap.String("reference", ref),
		zap.Int("lines", len(movements)),
		zap.String("request_id", req.RequestID))
	return s.document(ctx, inventory.ReferenceTypeTransfer, ref, movements), nil
}

// Adjust corrects one product by a signed delta. A unit cost may only accompany a gain.
func (s *StockService) Adjust(ctx context.Context, req AdjustmentRequest) (*StockDocumentResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermStockAdjust); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, shared.NewInvalidInputError("Adjustment reason is required")
	}

	ref := uuid.New().String()
	m, err := inventory.NewStockMovement(req.ProductID, inventory.MovementTypeAdjustment,
		inventory.ReferenceTypeAdjustment, ref, req.Delta, s.clock())
	if err != nil {
		return nil, err
	}
	if req.UnitCost != nil {
		if !m.IsIncoming() {
			return nil, shared.NewInvalidInputError("Unit cost only applies to stock gains")
		}
		if req.UnitCost.IsNegative() {
			return nil, shared.NewInvalidInputError("Unit cost cannot be negative")
		}
		m.WithUnitCost(*req.UnitCost)
	}
	m.WithNote(reason).WithOperator(req.Actor.OperatorID, req.RequestID)

	if err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		return RecordMovement(ctx, repos, m)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("product_id", req.ProductID.String()),
		zap.String("delta", req.Delta.String()),
		zap.String("request_id", req.RequestID))
	return s.document(ctx, inventory.ReferenceTypeAdjustment, ref, []*inventory.StockMovement{m}), nil
}

// StockTake books the difference between each counted quantity and the
// ledger balance. Products whose count matches the ledger get no movement.
func (s *StockService) StockTake(ctx context.Context, req StockTakeRequest) (*StockDocumentResponse, error) {
	if err := appshared.RequirePermission(req.Actor, identity.PermStockAdjust); err != nil {
		return nil, err
	}
	ref, err := documentReference(req.Reference, len(req.Counts))
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(req.Counts))
	for _, c := range req.Counts {
		if c.CountedQty.IsNegative() {
			return nil, shared.ErrInvalidQuantity.WithMessage("Counted quantity cannot be negative")
		}
		if seen[c.ProductID] {
			return nil, shared.NewInvalidInputError("Product %s is counted twice", c.ProductID)
		}
		seen[c.ProductID] = true
	}

	now := s.clock()
	var movements []*inventory.StockMovement
	if err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		movements = movements[:0]
		for _, c := range req.Counts {
			if _, err := repos.ProductRepo().FindByID(ctx, c.ProductID); err != nil {
				return err
			}
			balance, err := repos.MovementRepo().Balance(ctx, c.ProductID)
			if err != nil {
				return err
			}
			delta := c.CountedQty.Sub(balance)
			if delta.IsZero() {
				continue
			}
			m, err := inventory.NewStockMovement(c.ProductID, inventory.MovementTypeStockTake,
				inventory.ReferenceTypeStockTake, ref, delta, now)
			if err != nil {
				return err
			}
			m.WithNote(req.Note).WithOperator(req.Actor.OperatorID, req.RequestID)
			if err := RecordMovement(ctx, repos, m); err != nil {
				return err
			}
			movements = append(movements, m)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("stock take recorded",
		zap.String("reference", ref),
		zap.Int("counted", len(req.Counts)),
		zap.Int("corrected", len(movements)),
		zap.String("request_id", req.RequestID))
	return s.document(ctx, inventory.ReferenceTypeStockTake, ref, movements), nil
}

func documentReference(reference string, lines int) (string, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", shared.NewInvalidInputError("Document reference is required")
	}
	if lines == 0 {
		return "", shared.NewInvalidInputError("Document must have at least one line")
	}
	return ref, nil
}

func recordAll(ctx context.Context, repos appshared.TransactionalRepositories, movements []*inventory.StockMovement) error {
	for _, m := range movements {
		if err := RecordMovement(ctx, repos, m); err != nil {
			return err
		}
	}
	return nil
}

// document builds the response for a committed document and counts its movements
func (s *StockService) document(ctx context.Context, refType inventory.ReferenceType, ref string, movements []*inventory.StockMovement) *StockDocumentResponse {
	resp := &StockDocumentResponse{
		ReferenceType: string(refType),
		ReferenceID:   ref,
		Movements:     make([]MovementResponse, len(movements)),
	}
	byType := make(map[inventory.MovementType]int)
	for i, m := range movements {
		resp.Movements[i] = ToMovementResponse(*m)
		byType[m.MovementType]++
	}
	for t, n := range byType {
		s.metrics.RecordMovements(ctx, string(t), n)
	}
	return resp
}
