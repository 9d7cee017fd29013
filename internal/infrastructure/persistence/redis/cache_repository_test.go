package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/healthyplate/server/internal/ports/outbound"
	"github.com/healthyplate/server/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*miniredis.Miniredis, *CacheRepository) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), config.RedisConfig{}, mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return mr, NewCacheRepository(client, "hp:", zap.NewNop())
}

func TestCacheRepository_RoundTrip(t *testing.T) {
	mr, repo := setup(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "recipes:id:1", []byte(`{"id":1}`), time.Minute))
	assert.True(t, mr.Exists("hp:recipes:id:1"), "keys are prefixed")

	data, err := repo.Get(ctx, "recipes:id:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(data))

	ok, err := repo.Exists(ctx, "recipes:id:1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "recipes:id:1"))
	_, err = repo.Get(ctx, "recipes:id:1")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)
}

func TestCacheRepository_Expiry(t *testing.T) {
	mr, repo := setup(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := repo.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss)

	ok, err := repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRepository_MissDoesNotTripBreaker(t *testing.T) {
	_, repo := setup(t)
	for i := 0; i < 10; i++ {
		_, err := repo.Get(context.Background(), "absent")
		assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	}
	assert.Equal(t, healthcheck.StateClosed, repo.Breaker().GetState())
}

func TestCacheRepository_OpensBreakerWhenRedisIsDown(t *testing.T) {
	mr, repo := setup(t)
	mr.Close()

	for i := 0; i < 5; i++ {
		_, err := repo.Get(context.Background(), "k")
		require.Error(t, err)
	}
	assert.Equal(t, healthcheck.StateOpen, repo.Breaker().GetState())

	_, err := repo.Get(context.Background(), "k")
	assert.ErrorIs(t, err, healthcheck.ErrCircuitOpen)
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(context.Background(), config.RedisConfig{DialTimeout: 100 * time.Millisecond}, addr)
	assert.Error(t, err)
}
