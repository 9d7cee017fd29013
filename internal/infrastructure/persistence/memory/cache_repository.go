// Package memory provides in-memory cache repository implementation
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/healthyplate/server/internal/ports/outbound"
)

const (
	defaultTTL      = 24 * time.Hour
	cleanupInterval = time.Minute
)

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// CacheRepository is a process-local cache used when Redis is disabled
type CacheRepository struct {
	data map[string]cacheItem
	mu   sync.RWMutex
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewCacheRepository creates a cache and starts its cleanup goroutine.
// Call Close to stop it.
func NewCacheRepository() *CacheRepository {
	r := &CacheRepository{
		data: make(map[string]cacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go r.cleanup(cleanupInterval)
	return r
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// Get returns outbound.ErrCacheMiss for absent or expired keys
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	item, ok := r.data[key]
	r.mu.RUnlock()

	if !ok || !r.now().Before(item.expiresAt) {
		return nil, outbound.ErrCacheMiss
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a copy of value. A zero ttl keeps the entry for a day.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	r.mu.Lock()
	r.data[key] = cacheItem{value: stored, expiresAt: r.now().Add(ttl)}
	r.mu.Unlock()
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	delete(r.data, key)
	r.mu.Unlock()
	return nil
}

// Exists checks whether a live entry exists for key
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	item, ok := r.data[key]
	r.mu.RUnlock()
	return ok && r.now().Before(item.expiresAt), nil
}

// Len returns the number of stored entries, expired ones included
func (r *CacheRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Close stops the cleanup goroutine
func (r *CacheRepository) Close() error {
	r.once.Do(func() { close(r.stop) })
	return nil
}

func (r *CacheRepository) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictExpired()
		case <-r.stop:
			return
		}
	}
}

func (r *CacheRepository) evictExpired() {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, item := range r.data {
		if !now.Before(item.expiresAt) {
			delete(r.data, key)
		}
	}
}
