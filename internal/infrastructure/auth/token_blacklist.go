package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes access tokens before they expire: a single token on
// logout, or every token of an operator when the operator is deactivated.
type TokenBlacklist interface {
	// AddToBlacklist revokes one token by its JTI for ttl, the token's remaining lifetime
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// InvalidateOperator revokes every token of the operator issued up to now
	InvalidateOperator(ctx context.Context, operatorID string, ttl time.Duration) error
	// IsOperatorInvalidated reports whether a token issued at issuedAt was revoked by InvalidateOperator
	IsOperatorInvalidated(ctx context.Context, operatorID string, issuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist shares revocations across server instances
type RedisTokenBlacklist struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisTokenBlacklist creates a blacklist on an existing Redis client
func NewRedisTokenBlacklist(client redis.Cmdable) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: "token:blacklist:",
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) operatorKey(operatorID string) string {
	return b.keyPrefix + "operator:" + operatorID
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// InvalidateOperator stores the current Unix time as the operator's cut-off
func (b *RedisTokenBlacklist) InvalidateOperator(ctx context.Context, operatorID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.operatorKey(operatorID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate operator tokens: %w", err)
	}
	return nil
}

// IsOperatorInvalidated compares issuedAt with the stored cut-off
func (b *RedisTokenBlacklist) IsOperatorInvalidated(ctx context.Context, operatorID string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.operatorKey(operatorID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check operator token invalidation: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return issuedAt.Unix() <= cutoff, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory. It is only
// correct for a single server instance.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	jtis    map[string]time.Time // JTI -> expiration
	cutoffs map[string]time.Time // operator ID -> invalidation time
	now     func() time.Time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:    make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
		now:     time.Now,
	}
}

// AddToBlacklist adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = b.now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token's JTI is blacklisted and not yet expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.jtis[jti]
	if !exists {
		return false, nil
	}
	if b.now().After(expiration) {
		delete(b.jtis, jti)
		return false, nil
	}
	return true, nil
}

// InvalidateOperator records the operator's cut-off time
func (b *InMemoryTokenBlacklist) InvalidateOperator(_ context.Context, operatorID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cutoffs[operatorID] = b.now()
	return nil
}

// IsOperatorInvalidated compares issuedAt with the recorded cut-off
func (b *InMemoryTokenBlacklist) IsOperatorInvalidated(_ context.Context, operatorID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff, exists := b.cutoffs[operatorID]
	if !exists {
		return false, nil
	}
	return !issuedAt.After(cutoff), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
