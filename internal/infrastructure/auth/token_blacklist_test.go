package auth

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_AddToBlacklist(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))

	listed, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = blacklist.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestInMemoryTokenBlacklist_Expiration(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	blacklist.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Minute))
	now = now.Add(2 * time.Minute)

	listed, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed)
	assert.Empty(t, blacklist.jtis, "expired entries are dropped on read")
}

func TestInMemoryTokenBlacklist_InvalidateOperator(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	blacklist.now = func() time.Time { return now }
	ctx := context.Background()

	invalidated, err := blacklist.IsOperatorInvalidated(ctx, "op-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, invalidated)

	require.NoError(t, blacklist.InvalidateOperator(ctx, "op-1", time.Hour))

	invalidated, err = blacklist.IsOperatorInvalidated(ctx, "op-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, invalidated, "tokens issued before the cut-off are revoked")

	invalidated, err = blacklist.IsOperatorInvalidated(ctx, "op-1", now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, invalidated, "tokens issued after the cut-off stay valid")

	invalidated, err = blacklist.IsOperatorInvalidated(ctx, "op-2", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist_Keys(t *testing.T) {
	b := NewRedisTokenBlacklist(nil)
	assert.Equal(t, "token:blacklist:jti:abc", b.jtiKey("abc"))
	assert.Equal(t, "token:blacklist:operator:42", b.operatorKey("42"))
}

func TestRedisTokenBlacklist_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	b := NewRedisTokenBlacklist(client)

	_, err := b.IsBlacklisted(context.Background(), "jti")
	assert.Error(t, err)
	_, err = b.IsOperatorInvalidated(context.Background(), "op", time.Now())
	assert.Error(t, err)
}
