// Package redis provides the Redis implementation of the cache repository
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/healthyplate/server/internal/ports/outbound"
	"github.com/healthyplate/server/pkg/healthcheck"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient creates a Redis client from configuration and verifies the
// connection
func NewClient(ctx context.Context, cfg config.RedisConfig, addr string) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:           []string{addr},
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxIdleTime: 5 * time.Minute,
		PoolTimeout:     10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// CacheRepository implements outbound.CacheRepository on Redis. Every key
// is namespaced with a prefix. Calls go through a circuit breaker so a dead
// Redis fails fast instead of costing a timeout per request.
type CacheRepository struct {
	client  redis.UniversalClient
	prefix  string
	breaker *healthcheck.CircuitBreaker
	logger  *zap.Logger
}

// NewCacheRepository creates a new Redis cache repository
func NewCacheRepository(client redis.UniversalClient, prefix string, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{
		client: client,
		prefix: prefix,
		breaker: healthcheck.NewCircuitBreaker("redis", healthcheck.CircuitBreakerConfig{
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
		}),
		logger: logger.Named("redis-cache"),
	}
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// Get returns outbound.ErrCacheMiss for absent keys
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		data []byte
		miss bool
	)
	err := r.breaker.Execute(func() error {
		var err error
		data, err = r.client.Get(ctx, r.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		r.logger.Debug("Redis GET failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if miss {
		return nil, outbound.ErrCacheMiss
	}
	return data, nil
}

// Set stores value under key with ttl
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.breaker.Execute(func() error {
		return r.client.Set(ctx, r.key(key), value, ttl).Err()
	})
	if err != nil {
		r.logger.Warn("Redis SET failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Delete removes key
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	return r.breaker.Execute(func() error {
		return r.client.Del(ctx, r.key(key)).Err()
	})
}

// Exists checks whether key is present
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.breaker.Execute(func() error {
		var err error
		n, err = r.client.Exists(ctx, r.key(key)).Result()
		return err
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Breaker exposes the circuit breaker for health reporting
func (r *CacheRepository) Breaker() *healthcheck.CircuitBreaker {
	return r.breaker
}

func (r *CacheRepository) key(key string) string {
	return r.prefix + key
}
