package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Attribute keys shared by spans and metrics
const (
	AttrInvoiceSource = attribute.Key("pos.invoice.source")
	AttrMovementType  = attribute.Key("pos.movement.type")
	AttrCostMethod    = attribute.Key("pos.cost.method")
	AttrScope         = attribute.Key("pos.quick_sales.scope")
	AttrCached        = attribute.Key("pos.valuation.cached")
	AttrRepaired      = attribute.Key("pos.reconciliation.repaired")
)

// StockStatsProvider answers the point-in-time questions behind the observable gauges
type StockStatsProvider interface {
	// OutOfStockCount returns the number of active products with nothing on hand
	OutOfStockCount(ctx context.Context) (int64, error)
	// OpenSessionCount returns the number of quick-sales sessions still open
	OpenSessionCount(ctx context.Context) (int64, error)
}

// POSMetrics records sales, stock and valuation activity. All methods are
// safe on a nil receiver, so services can hold an unset *POSMetrics.
type POSMetrics struct {
	logger *zap.Logger

	invoicesPosted      metric.Int64Counter
	invoiceNetTotal     metric.Float64Counter
	returnsProcessed    metric.Int64Counter
	refundTotal         metric.Float64Counter
	movementsRecorded   metric.Int64Counter
	insufficientStock   metric.Int64Counter
	quickSalesLines     metric.Int64Counter
	sessionsClosed      metric.Int64Counter
	valuationDuration   metric.Float64Histogram
	reconciliationDrift metric.Int64Gauge

	registration metric.Registration
}

// NewPOSMetrics creates the instruments on meter. When stats is non-nil the
// out-of-stock and open-session gauges are observed on every collection.
func NewPOSMetrics(meter metric.Meter, stats StockStatsProvider, logger *zap.Logger) (*POSMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &POSMetrics{logger: logger}

	var errs []error
	track := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error

	m.invoicesPosted, err = meter.Int64Counter("pos.invoices.posted",
		metric.WithDescription("Invoices posted"),
		metric.WithUnit("{invoice}"))
	track(err)
	m.invoiceNetTotal, err = meter.Float64Counter("pos.invoices.net_total",
		metric.WithDescription("Sum of posted invoice net totals"),
		metric.WithUnit("{currency}"))
	track(err)
	m.returnsProcessed, err = meter.Int64Counter("pos.returns.processed",
		metric.WithDescription("Sales returns booked"),
		metric.WithUnit("{return}"))
	track(err)
	m.refundTotal, err = meter.Float64Counter("pos.returns.refund_total",
		metric.WithDescription("Sum of refunded amounts"),
		metric.WithUnit("{currency}"))
	track(err)
	m.movementsRecorded, err = meter.Int64Counter("pos.stock.movements",
		metric.WithDescription("Ledger movements recorded"),
		metric.WithUnit("{movement}"))
	track(err)
	m.insufficientStock, err = meter.Int64Counter("pos.stock.insufficient",
		metric.WithDescription("Sales and stock documents rejected for insufficient stock"),
		metric.WithUnit("{rejection}"))
	track(err)
	m.quickSalesLines, err = meter.Int64Counter("pos.quick_sales.lines",
		metric.WithDescription("Lines entered into quick-sales sessions"),
		metric.WithUnit("{line}"))
	track(err)
	m.sessionsClosed, err = meter.Int64Counter("pos.quick_sales.closed",
		metric.WithDescription("Quick-sales sessions closed"),
		metric.WithUnit("{session}"))
	track(err)
	m.valuationDuration, err = meter.Float64Histogram("pos.valuation.duration",
		metric.WithDescription("Time spent building valuation reports"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30))
	track(err)
	m.reconciliationDrift, err = meter.Int64Gauge("pos.reconciliation.drift",
		metric.WithDescription("Products whose stock_qty differed from the ledger at the last reconciliation"),
		metric.WithUnit("{product}"))
	track(err)

	if stats != nil {
		outOfStock, err := meter.Int64ObservableGauge("pos.stock.out_of_stock",
			metric.WithDescription("Active products with nothing on hand"),
			metric.WithUnit("{product}"))
		track(err)
		openSessions, err := meter.Int64ObservableGauge("pos.quick_sales.open_sessions",
			metric.WithDescription("Quick-sales sessions currently open"),
			metric.WithUnit("{session}"))
		track(err)
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
		m.registration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			if n, err := stats.OutOfStockCount(ctx); err == nil {
				o.ObserveInt64(outOfStock, n)
			} else {
				logger.Debug("out of stock gauge skipped", zap.Error(err))
			}
			if n, err := stats.OpenSessionCount(ctx); err == nil {
				o.ObserveInt64(openSessions, n)
			} else {
				logger.Debug("open sessions gauge skipped", zap.Error(err))
			}
			return nil
		}, outOfStock, openSessions)
		track(err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordInvoicePosted counts one posted invoice and adds its net total
func (m *POSMetrics) RecordInvoicePosted(ctx context.Context, source string, netTotal decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrInvoiceSource.String(source))
	m.invoicesPosted.Add(ctx, 1, attrs)
	m.invoiceNetTotal.Add(ctx, netTotal.InexactFloat64(), attrs)
}

// RecordReturn counts one sales return and adds its refund
func (m *POSMetrics) RecordReturn(ctx context.Context, refund decimal.Decimal) {
	if m == nil {
		return
	}
	m.returnsProcessed.Add(ctx, 1)
	m.refundTotal.Add(ctx, refund.InexactFloat64())
}

// RecordMovements counts n ledger movements of one type
func (m *POSMetrics) RecordMovements(ctx context.Context, movementType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.movementsRecorded.Add(ctx, int64(n), metric.WithAttributes(AttrMovementType.String(movementType)))
}

// RecordInsufficientStock counts a document refused for lack of stock
func (m *POSMetrics) RecordInsufficientStock(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.insufficientStock.Add(ctx, 1, metric.WithAttributes(AttrInvoiceSource.String(source)))
}

// RecordQuickSalesLine counts one line entered in scope
func (m *POSMetrics) RecordQuickSalesLine(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.quickSalesLines.Add(ctx, 1, metric.WithAttributes(AttrScope.String(scope)))
}

// RecordSessionClosed counts one closed quick-sales session
func (m *POSMetrics) RecordSessionClosed(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.sessionsClosed.Add(ctx, 1, metric.WithAttributes(AttrScope.String(scope)))
}

// RecordValuation records how long one valuation or snapshot took
func (m *POSMetrics) RecordValuation(ctx context.Context, method string, cached bool, d time.Duration) {
	if m == nil {
		return
	}
	m.valuationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		AttrCostMethod.String(method),
		AttrCached.Bool(cached)))
}

// RecordReconciliation records the number of drifting products found by a run
func (m *POSMetrics) RecordReconciliation(ctx context.Context, drifts int, repaired bool) {
	if m == nil {
		return
	}
	m.reconciliationDrift.Record(ctx, int64(drifts), metric.WithAttributes(AttrRepaired.Bool(repaired)))
}

// Close unregisters the observable gauge callback
func (m *POSMetrics) Close() error {
	if m == nil || m.registration == nil {
		return nil
	}
	return m.registration.Unregister()
}

// GormStockStatsProvider reads gauge values straight from the database
type GormStockStatsProvider struct {
	db *gorm.DB
}

// NewGormStockStatsProvider creates a new GormStockStatsProvider
func NewGormStockStatsProvider(db *gorm.DB) *GormStockStatsProvider {
	return &GormStockStatsProvider{db: db}
}

// OutOfStockCount implements StockStatsProvider
func (p *GormStockStatsProvider) OutOfStockCount(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("is_active = ? AND stock_qty <= 0", true).
		Count(&n).Error
	return n, err
}

// OpenSessionCount implements StockStatsProvider
func (p *GormStockStatsProvider) OpenSessionCount(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).
		Table("quick_sales_sessions").
		Where("status = ?", "OPEN").
		Count(&n).Error
	return n, err
}
