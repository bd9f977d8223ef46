package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	appinventory "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"go.uber.org/zap"
)

// Tier is one named level of a TieredSnapshotCache
type Tier struct {
	Name  string
	Cache appinventory.SnapshotCache
}

// TieredSnapshotCache reads through its tiers in order (fastest first) and
// backfills the faster tiers on a hit further down. Writes go to every tier.
// A failing tier is logged and skipped so a Redis or object store outage
// only costs a recomputation.
type TieredSnapshotCache struct {
	tiers  []Tier
	logger *zap.Logger

	hits   []int64
	misses int64
}

// NewTieredSnapshotCache creates a cache over tiers, fastest first
func NewTieredSnapshotCache(logger *zap.Logger, tiers ...Tier) *TieredSnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredSnapshotCache{
		tiers:  tiers,
		logger: logger,
		hits:   make([]int64, len(tiers)),
	}
}

// Get returns the first tier's hit, or nil when every tier misses
func (c *TieredSnapshotCache) Get(ctx context.Context, date string, method strategy.CostMethod) (*appinventory.ValuationReport, error) {
	for i, tier := range c.tiers {
		report, err := tier.Cache.Get(ctx, date, method)
		if err != nil {
			c.logger.Warn("snapshot cache tier read failed",
				zap.String("tier", tier.Name),
				zap.String("date", date),
				zap.Error(err))
			continue
		}
		if report == nil {
			continue
		}
		atomic.AddInt64(&c.hits[i], 1)
		c.backfill(ctx, i, report)
		return report, nil
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, nil
}

func (c *TieredSnapshotCache) backfill(ctx context.Context, upTo int, report *appinventory.ValuationReport) {
	for _, tier := range c.tiers[:upTo] {
		if err := tier.Cache.Set(ctx, report); err != nil {
			c.logger.Warn("snapshot cache backfill failed", zap.String("tier", tier.Name), zap.Error(err))
		}
	}
}

// Set writes report to every tier and reports the tiers that failed
func (c *TieredSnapshotCache) Set(ctx context.Context, report *appinventory.ValuationReport) error {
	var errs []error
	for _, tier := range c.tiers {
		if err := tier.Cache.Set(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Stats returns hits per tier name and the number of full misses
func (c *TieredSnapshotCache) Stats() (hits map[string]int64, misses int64) {
	hits = make(map[string]int64, len(c.tiers))
	for i, tier := range c.tiers {
		hits[tier.Name] = atomic.LoadInt64(&c.hits[i])
	}
	return hits, atomic.LoadInt64(&c.misses)
}

var _ appinventory.SnapshotCache = (*TieredSnapshotCache)(nil)
