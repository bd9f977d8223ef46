package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	appinventory "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
)

const defaultInMemoryTTL = 10 * time.Minute

// cacheEntry wraps a cached value with its expiration time
type cacheEntry[T any] struct {
	value     *T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemorySnapshotCache is a process-local snapshot cache. It serves a single
// terminal on its own and sits in front of Redis otherwise. Expired entries
// are dropped when they are next read.
type InMemorySnapshotCache struct {
	entries sync.Map // map[string]*cacheEntry[appinventory.ValuationReport]
	ttl     time.Duration
	now     func() time.Time

	hits   int64
	misses int64
}

// InMemorySnapshotCacheOption configures an InMemorySnapshotCache
type InMemorySnapshotCacheOption func(*InMemorySnapshotCache)

// WithInMemoryTTL sets how long entries live
func WithInMemoryTTL(ttl time.Duration) InMemorySnapshotCacheOption {
	return func(c *InMemorySnapshotCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryClock replaces the wall clock used for expiry
func WithInMemoryClock(now func() time.Time) InMemorySnapshotCacheOption {
	return func(c *InMemorySnapshotCache) {
		c.now = now
	}
}

// NewInMemorySnapshotCache creates a new in-memory snapshot cache
func NewInMemorySnapshotCache(opts ...InMemorySnapshotCacheOption) *InMemorySnapshotCache {
	c := &InMemorySnapshotCache{
		ttl: defaultInMemoryTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached snapshot, or nil on a miss
func (c *InMemorySnapshotCache) Get(_ context.Context, date string, method strategy.CostMethod) (*appinventory.ValuationReport, error) {
	key := snapshotKey(date, method)
	v, ok := c.entries.Load(key)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, nil
	}
	entry := v.(*cacheEntry[appinventory.ValuationReport])
	if entry.isExpired(c.now()) {
		c.entries.CompareAndDelete(key, v)
		atomic.AddInt64(&c.misses, 1)
		return nil, nil
	}
	atomic.AddInt64(&c.hits, 1)
	return entry.value, nil
}

// Set stores report under its date and method
func (c *InMemorySnapshotCache) Set(_ context.Context, report *appinventory.ValuationReport) error {
	if report == nil || report.Date == "" {
		return nil
	}
	c.entries.Store(snapshotKey(report.Date, report.Method), &cacheEntry[appinventory.ValuationReport]{
		value:     report,
		expiresAt: c.now().Add(c.ttl),
	})
	return nil
}

// Stats returns hit and miss counts
func (c *InMemorySnapshotCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

func snapshotKey(date string, method strategy.CostMethod) string {
	return date + ":" + string(method)
}

var _ appinventory.SnapshotCache = (*InMemorySnapshotCache)(nil)
