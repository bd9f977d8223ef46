package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appinventory "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/redis/go-redis/v9"
)

const defaultSnapshotKeyPrefix = "valuation:snapshot:"

// RedisSnapshotCache keeps past-day valuation snapshots in Redis so every
// server instance shares them. Past days never change, so the TTL only
// bounds memory use.
type RedisSnapshotCache struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSnapshotCache creates a snapshot cache on an existing client.
// An empty keyPrefix selects "valuation:snapshot:".
func NewRedisSnapshotCache(client redis.Cmdable, keyPrefix string, ttl time.Duration) *RedisSnapshotCache {
	if keyPrefix == "" {
		keyPrefix = defaultSnapshotKeyPrefix
	}
	return &RedisSnapshotCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached snapshot, or nil when the key is absent
func (c *RedisSnapshotCache) Get(ctx context.Context, date string, method strategy.CostMethod) (*appinventory.ValuationReport, error) {
	raw, err := c.client.Get(ctx, c.key(date, method)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read valuation snapshot: %w", err)
	}

	var report appinventory.ValuationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to decode valuation snapshot: %w", err)
	}
	return &report, nil
}

// Set stores report under its date and method
func (c *RedisSnapshotCache) Set(ctx context.Context, report *appinventory.ValuationReport) error {
	if report == nil || report.Date == "" {
		return nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode valuation snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key(report.Date, report.Method), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write valuation snapshot: %w", err)
	}
	return nil
}

func (c *RedisSnapshotCache) key(date string, method strategy.CostMethod) string {
	return c.keyPrefix + date + ":" + string(method)
}

var _ appinventory.SnapshotCache = (*RedisSnapshotCache)(nil)
