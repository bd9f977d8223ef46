package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocerypos/backend/internal/domain/catalog"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/grocerypos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const unitCostScale = 4

// CostStrategyProvider resolves costing strategies by method
type CostStrategyProvider interface {
	// GetCostStrategy returns the strategy for method, or the default when method is empty
	GetCostStrategy(method strategy.CostMethod) (strategy.CostCalculationStrategy, error)
	DefaultCostMethod() strategy.CostMethod
}

// SnapshotCache keeps end-of-day reports of past business days, which can no longer change
type SnapshotCache interface {
	// Get returns the cached report, or nil on a miss
	Get(ctx context.Context, date string, method strategy.CostMethod) (*ValuationReport, error)
	Set(ctx context.Context, report *ValuationReport) error
}

// ValuationOptions holds store settings the valuation service needs
type ValuationOptions struct {
	Location      *time.Location
	CurrencyScale int32
	Clock         shared.Clock
}

// ValuationService values stock on hand by replaying the ledger through a cost strategy
type ValuationService struct {
	products   catalog.ProductRepository
	movements  inventory.StockMovementRepository
	strategies CostStrategyProvider
	cache      SnapshotCache
	loc        *time.Location
	scale      int32
	clock      shared.Clock
	logger     *zap.Logger
	metrics    *telemetry.POSMetrics
}

// NewValuationService creates a new ValuationService. cache may be nil.
func NewValuationService(
	products catalog.ProductRepository,
	movements inventory.StockMovementRepository,
	strategies CostStrategyProvider,
	cache SnapshotCache,
	opts ValuationOptions,
	logger *zap.Logger,
) *ValuationService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValuationService{
		products:   products,
		movements:  movements,
		strategies: strategies,
		cache:      cache,
		loc:        opts.Location,
		scale:      opts.CurrencyScale,
		clock:      opts.Clock,
		logger:     logger,
	}
}

// SetMetrics sets the business metrics collector
func (s *ValuationService) SetMetrics(m *telemetry.POSMetrics) {
	s.metrics = m
}

// Valuation values every product from the whole ledger. An empty method selects the store default.
func (s *ValuationService) Valuation(ctx context.Context, method string) (*ValuationReport, error) {
	strat, err := s.resolve(method)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, strat, nil, s.clock())
}

// Snapshot values every product from the movements created up to the end of
// date (YYYY-MM-DD) in the store timezone. Reports for days before today are
// served from and stored in the snapshot cache.
func (s *ValuationService) Snapshot(ctx context.Context, date, method string) (*ValuationReport, error) {
	strat, err := s.resolve(method)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(time.DateOnly, date, s.loc)
	if err != nil {
		return nil, shared.NewInvalidInputError("Snapshot date must be YYYY-MM-DD, got %q", date)
	}
	today := s.clock().In(s.loc).Format(time.DateOnly)
	if date > today {
		return nil, shared.NewInvalidInputError("Snapshot date %s is in the future", date)
	}

	cacheable := s.cache != nil && date < today
	if cacheable {
		started := time.Now()
		cached, err := s.cache.Get(ctx, date, strat.Method())
		if err != nil {
			s.logger.Warn("valuation snapshot cache read failed", zap.String("date", date), zap.Error(err))
		} else if cached != nil {
			s.metrics.RecordValuation(ctx, string(strat.Method()), true, time.Since(started))
			return cached, nil
		}
	}

	// Postgres keeps microseconds, so the last representable instant of the day is one microsecond before midnight.
	end := day.AddDate(0, 0, 1).Add(-time.Microsecond)
	report, err := s.build(ctx, strat, &end, end)
	if err != nil {
		return nil, err
	}
	report.Date = date

	if cacheable {
		if err := s.cache.Set(ctx, report); err != nil {
			s.logger.Warn("valuation snapshot cache write failed", zap.String("date", date), zap.Error(err))
		}
	}
	return report, nil
}

func (s *ValuationService) resolve(method string) (strategy.CostCalculationStrategy, error) {
	var m strategy.CostMethod
	if method != "" {
		parsed, err := strategy.ParseCostMethod(method)
		if err != nil {
			return nil, shared.NewInvalidInputError("Unknown cost method %q", method)
		}
		m = parsed
	}
	return s.strategies.GetCostStrategy(m)
}

func (s *ValuationService) build(ctx context.Context, strat strategy.CostCalculationStrategy, until *time.Time, asOf time.Time) (report *ValuationReport, err error) {
	method := string(strat.Method())
	ctx, span := telemetry.StartSpan(ctx, "valuation.build", telemetry.AttrCostMethod.String(method))
	started := time.Now()
	defer func() {
		telemetry.EndSpan(span, err)
		if err == nil {
			s.metrics.RecordValuation(ctx, method, false, time.Since(started))
		}
	}()

	telemetry.WithProfilingLabels(ctx, func(ctx context.Context) {
		report, err = s.replay(ctx, strat, until, asOf)
	}, "cost_method", method)
	return report, err
}

// replay loads the catalog first because Walk holds its cursor open while fn runs
func (s *ValuationService) replay(ctx context.Context, strat strategy.CostCalculationStrategy, until *time.Time, asOf time.Time) (*ValuationReport, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	positions := make(map[uuid.UUID]strategy.CostPosition, len(products))
	var (
		current uuid.UUID
		tracker strategy.CostTracker
	)
	flush := func() {
		if tracker != nil {
			positions[current] = tracker.Position()
		}
	}
	err = s.movements.Walk(ctx, until, func(m inventory.StockMovement) error {
		if tracker == nil || m.ProductID != current {
			flush()
			current = m.ProductID
			tracker = strat.NewTracker()
		}
		tracker.Apply(strategy.CostMovement{
			ID:        m.ID,
			Quantity:  m.Quantity,
			UnitCost:  m.UnitCost,
			CreatedAt: m.CreatedAt,
		})
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	flush()

	report := &ValuationReport{
		Method:     strat.Method(),
		AsOf:       asOf,
		Products:   make([]ProductValuation, 0, len(products)),
		TotalValue: decimal.Zero,
	}
	for _, p := range products {
		line := ProductValuation{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			QtyOnHand: decimal.Zero,
			Value:     decimal.Zero,
			UnitCost:  decimal.Zero,
		}
		if pos, ok := positions[p.ID]; ok {
			line.QtyOnHand = pos.QtyOnHand
			line.Value = pos.Value.Round(s.scale)
			line.UnitCost = pos.UnitCost.Round(unitCostScale)
			line.HasUnknownCost = pos.HasUnknownCost
		}
		if line.HasUnknownCost {
			report.UnknownCostCount++
		}
		report.TotalValue = report.TotalValue.Add(line.Value)
		report.Products = append(report.Products, line)
	}
	return report, nil
}
