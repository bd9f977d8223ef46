package inventory

import (
	"context"

	appshared "github.com/grocerypos/backend/internal/application/shared"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconciliationLockKey names the run-lock taken by RunExclusive
const ReconciliationLockKey = "reconciliation:stock_qty"

// RunLock lets one process among several run a job. TryRun reports false
// without calling fn when another holder has the lock.
type RunLock interface {
	TryRun(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error)
}

// ReconciliationService compares products.stock_qty with the ledger sum
type ReconciliationService struct {
	products  catalog.ProductRepository
	movements inventory.StockMovementRepository
	txScope   appshared.TransactionScope
	lock      RunLock
	clock     shared.Clock
	logger    *zap.Logger
	metrics   *telemetry.POSMetrics
}

// NewReconciliationService creates a new ReconciliationService. lock may be nil for a single instance.
func NewReconciliationService(
	products catalog.ProductRepository,
	movements inventory.StockMovementRepository,
	txScope appshared.TransactionScope,
	lock RunLock,
	clock shared.Clock,
	logger *zap.Logger,
) *ReconciliationService {
	if clock == nil {
		clock = shared.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		products:  products,
		movements: movements,
		txScope:   txScope,
		lock:      lock,
		clock:     clock,
		logger:    logger,
	}
}

// SetMetrics sets the business metrics collector
func (s *ReconciliationService) SetMetrics(m *telemetry.POSMetrics) {
	s.metrics = m
}

// Run reports every product whose stock_qty differs from its ledger balance
func (s *ReconciliationService) Run(ctx context.Context) (*ReconciliationReport, error) {
	report, err := s.compare(ctx, s.products, s.movements)
	if err != nil {
		return nil, err
	}
	s.logDrifts(ctx, report)
	return report, nil
}

// Repair resets each drifting stock_qty to its ledger balance inside one transaction
func (s *ReconciliationService) Repair(ctx context.Context) (*ReconciliationReport, error) {
	var report *ReconciliationReport
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		r, err := s.compare(ctx, repos.ProductRepo(), repos.MovementRepo())
		if err != nil {
			return err
		}
		for _, d := range r.Drifts {
			if err := repos.ProductRepo().SetStockQty(ctx, d.ProductID, d.LedgerQty); err != nil {
				return err
			}
		}
		r.Repaired = r.HasDrift()
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logDrifts(ctx, report)
	return report, nil
}

// RunExclusive runs Run (or Repair when repair is set) under the run-lock.
// It returns a nil report when another instance holds the lock.
func (s *ReconciliationService) RunExclusive(ctx context.Context, repair bool) (*ReconciliationReport, error) {
	run := s.Run
	if repair {
		run = s.Repair
	}
	if s.lock == nil {
		return run(ctx)
	}

	var report *ReconciliationReport
	acquired, err := s.lock.TryRun(ctx, ReconciliationLockKey, func(ctx context.Context) error {
		r, err := run(ctx)
		report = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if !acquired {
		s.logger.Info("reconciliation skipped, another instance holds the lock")
		return nil, nil
	}
	return report, nil
}

func (s *ReconciliationService) compare(ctx context.Context, products catalog.ProductRepository, movements inventory.StockMovementRepository) (*ReconciliationReport, error) {
	all, err := products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := movements.BalancesByProduct(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{Checked: len(all), Drifts: []StockDrift{}, RanAt: s.clock()}
	for _, p := range all {
		ledger, ok := balances[p.ID]
		if !ok {
			ledger = decimal.Zero
		}
		if ledger.Equal(p.StockQty) {
			continue
		}
		report.Drifts = append(report.Drifts, StockDrift{
			ProductID:  p.ID,
			SKU:        p.SKU,
			StockQty:   p.StockQty,
			LedgerQty:  ledger,
			Difference: p.StockQty.Sub(ledger),
		})
	}
	return report, nil
}

func (s *ReconciliationService) logDrifts(ctx context.Context, report *ReconciliationReport) {
	s.metrics.RecordReconciliation(ctx, len(report.Drifts), report.Repaired)
	for _, d := range report.Drifts {
		s.logger.Warn("stock quantity drift",
			zap.String("product_id", d.ProductID.String()),
			zap.String("sku", d.SKU),
			zap.String("stock_qty", d.StockQty.String()),
			zap.String("ledger_qty", d.LedgerQty.String()),
			zap.Bool("repaired", report.Repaired))
	}
	s.logger.Info("stock reconciliation finished",
		zap.Int("checked", report.Checked),
		zap.Int("drifts", len(report.Drifts)))
}
