package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	appinventory "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLockTTL = 2 * time.Minute

// RedisRunLock lets one server instance at a time run a job across a fleet
type RedisRunLock struct {
	locker *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRunLock creates a run lock whose leases last ttl
func NewRedisRunLock(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisRunLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisRunLock{
		locker: redislock.New(client),
		ttl:    ttl,
		logger: logger,
	}
}

// TryRun runs fn while holding key. It returns false without running fn when
// another instance holds the lock. The lease is refreshed at half its TTL
// until fn returns.
func (l *RedisRunLock) TryRun(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go l.keepAlive(ctx, lock, done)

	return true, fn(ctx)
}

func (l *RedisRunLock) keepAlive(ctx context.Context, lock *redislock.Lock, done <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Refresh(ctx, l.ttl, nil); err != nil {
				l.logger.Warn("failed to refresh lock", zap.String("key", lock.Key()), zap.Error(err))
				return
			}
		}
	}
}

// LocalRunLock serializes jobs inside one process. It is used when Redis is
// disabled, which only makes sense for a single instance.
type LocalRunLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalRunLock creates a new LocalRunLock
func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{locks: make(map[string]*sync.Mutex)}
}

// TryRun runs fn unless another call with the same key is in progress
func (l *LocalRunLock) TryRun(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return false, nil
	}
	defer m.Unlock()
	return true, fn(ctx)
}

var (
	_ appinventory.RunLock = (*RedisRunLock)(nil)
	_ appinventory.RunLock = (*LocalRunLock)(nil)
)
