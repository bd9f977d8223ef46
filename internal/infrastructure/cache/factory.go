package cache

import (
	"context"
	"fmt"

	appinventory "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/grocerypos/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backends are the cache-backed collaborators handed to the application services
type Backends struct {
	Snapshots appinventory.SnapshotCache
	RunLock   appinventory.RunLock
	client    *redis.Client
}

// Redis returns the shared client, or nil when Redis is disabled or unreachable
func (b *Backends) Redis() *redis.Client {
	return b.client
}

// Close releases the Redis connection, if any
func (b *Backends) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Factory builds Backends from configuration
type Factory struct {
	redisConfig    config.RedisConfig
	valuation      config.ValuationConfig
	reconciliation config.ReconciliationConfig
	archive        appinventory.SnapshotCache
	logger         *zap.Logger
	allowFallback  bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory and the caches it builds
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithArchive adds a durable tier behind Redis, typically the object store
func WithArchive(archive appinventory.SnapshotCache) FactoryOption {
	return func(f *Factory) {
		f.archive = archive
	}
}

// WithLocalFallback controls whether an unreachable Redis degrades to
// process-local caching and locking instead of failing startup
func WithLocalFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowFallback = allow
	}
}

// NewFactory creates a new Factory
func NewFactory(cfg *config.Config, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:    cfg.Redis,
		valuation:      cfg.Valuation,
		reconciliation: cfg.Reconciliation,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build returns the snapshot cache and run lock. With Redis enabled the
// snapshot tiers are memory, Redis, then the archive, and the run lock is
// shared across instances.
func (f *Factory) Build(ctx context.Context) (*Backends, error) {
	local := NewInMemorySnapshotCache()

	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-process snapshot cache and run lock")
		return &Backends{Snapshots: f.tiered(Tier{Name: "memory", Cache: local}), RunLock: NewLocalRunLock()}, nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		if !f.allowFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-process snapshot cache and run lock. "+
			"Concurrent instances may each run startup reconciliation.",
			zap.Error(err))
		return &Backends{Snapshots: f.tiered(Tier{Name: "memory", Cache: local}), RunLock: NewLocalRunLock()}, nil
	}

	f.logger.Info("using Redis snapshot cache and run lock", zap.String("addr", f.redisConfig.Addr()))
	return &Backends{
		Snapshots: f.tiered(
			Tier{Name: "memory", Cache: local},
			Tier{Name: "redis", Cache: NewRedisSnapshotCache(client, "", f.valuation.SnapshotCacheTTL)},
		),
		RunLock: NewRedisRunLock(client, f.reconciliation.LockTTL, f.logger),
		client:  client,
	}, nil
}

func (f *Factory) tiered(tiers ...Tier) *TieredSnapshotCache {
	if f.archive != nil {
		tiers = append(tiers, Tier{Name: "archive", Cache: f.archive})
	}
	return NewTieredSnapshotCache(f.logger, tiers...)
}
