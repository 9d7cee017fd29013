// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/domain/recipe"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// ProfileRepository persists one health profile per client
type ProfileRepository interface {
	// Get returns profile.ErrProfileNotFound when nothing is stored
	Get(ctx context.Context, clientID string) (*profile.HealthProfile, error)
	Save(ctx context.Context, clientID string, p *profile.HealthProfile) error
}

// FavoriteRepository persists the ordered favorites of each client
type FavoriteRepository interface {
	List(ctx context.Context, clientID string) ([]int64, error)

	// Update loads the favorites, applies fn and stores the result
	// atomically. Nothing is stored when fn returns an error.
	Update(ctx context.Context, clientID string, fn func(*profile.Favorites) error) error
}

// GenerationRepository records generate requests made by signed-in users
type GenerationRepository interface {
	Create(ctx context.Context, g *recipe.Generation) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*recipe.Generation, error)
}

// SavedRecipeRepository stores full recipe snapshots saved by users
type SavedRecipeRepository interface {
	Save(ctx context.Context, s *recipe.SavedRecipe) error
	ListByUser(ctx context.Context, userID string) ([]*recipe.SavedRecipe, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ArchiveStore keeps raw upstream payloads for later analysis
type ArchiveStore interface {
	// Put stores data under key and returns its location
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
