package scheduler

import (
	"context"
	"fmt"
	"time"

	inventoryapp "github.com/grocerypos/backend/internal/application/inventory"
	"go.uber.org/zap"
)

// Reconciler runs the stock_qty versus ledger check under the run-lock
type Reconciler interface {
	RunExclusive(ctx context.Context, repair bool) (*inventoryapp.ReconciliationReport, error)
}

// SnapshotBuilder builds (and caches) the valuation snapshot of a past day
type SnapshotBuilder interface {
	Snapshot(ctx context.Context, date, method string) (*inventoryapp.ValuationReport, error)
}

// ReconciliationJob checks every product against its ledger each night
func ReconciliationJob(r Reconciler, repair bool, logger *zap.Logger) Job {
	return Job{
		Name: "reconciliation",
		Run: func(ctx context.Context, _ time.Time) error {
			report, err := r.RunExclusive(ctx, repair)
			if err != nil {
				return err
			}
			if report == nil {
				logger.Info("Nightly reconciliation skipped, another instance holds the lock")
				return nil
			}
			logger.Info("Nightly reconciliation done",
				zap.Int("checked", report.Checked),
				zap.Int("drifts", len(report.Drifts)),
				zap.Bool("repaired", report.Repaired))
			return nil
		},
	}
}

// SnapshotJob builds the closing valuation of the previous day for each
// method, which stores it in the snapshot cache and archive
func SnapshotJob(b SnapshotBuilder, methods []string) Job {
	return Job{
		Name: "valuation-snapshot",
		Run: func(ctx context.Context, day time.Time) error {
			date := day.Format(time.DateOnly)
			for _, method := range methods {
				if _, err := b.Snapshot(ctx, date, method); err != nil {
					return fmt.Errorf("snapshot %s %s: %w", date, method, err)
				}
			}
			return nil
		},
	}
}
