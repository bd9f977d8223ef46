package telemetry

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBInstrumentation configures InstrumentDatabase
type DBInstrumentation struct {
	// Driver is reported as db.system, "postgresql" or "sqlite"
	Driver     string
	Trace      bool
	LogFullSQL bool
}

// InstrumentDatabase adds query spans through otelgorm when Trace is set and
// publishes connection pool statistics as observable gauges on meter.
// Query variables stay out of spans unless LogFullSQL is set.
func InstrumentDatabase(db *gorm.DB, cfg DBInstrumentation, meter metric.Meter, logger *zap.Logger) (metric.Registration, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Trace {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.Driver)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("failed to register otelgorm plugin: %w", err)
		}
		logger.Info("Database tracing enabled", zap.String("db_system", cfg.Driver), zap.Bool("full_sql", cfg.LogFullSQL))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	open, err := meter.Int64ObservableGauge("db.pool.open_connections",
		metric.WithDescription("Open connections, in use and idle"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	inUse, err := meter.Int64ObservableGauge("db.pool.in_use",
		metric.WithDescription("Connections currently in use"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	idle, err := meter.Int64ObservableGauge("db.pool.idle",
		metric.WithDescription("Idle connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("db.pool.wait_count",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return nil, err
	}

	system := metric.WithAttributes(attribute.String("db.system", cfg.Driver))
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections), system)
		o.ObserveInt64(inUse, int64(stats.InUse), system)
		o.ObserveInt64(idle, int64(stats.Idle), system)
		o.ObserveInt64(waits, stats.WaitCount, system)
		return nil
	}, open, inUse, idle, waits)
}
