// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeProvider provides a mock implementation of RecipeProvider
type MockRecipeProvider struct {
	mock.Mock
}

// Fetch forwards a raw request
func (m *MockRecipeProvider) Fetch(ctx context.Context, req outbound.UpstreamRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// SearchRecipes searches for recipes
func (m *MockRecipeProvider) SearchRecipes(ctx context.Context, filters recipe.Filters) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recipe.Recipe), args.Error(1)
}

// GetRecipe fetches a recipe
func (m *MockRecipeProvider) GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recipe.Recipe), args.Error(1)
}

// GenerateRecipes generates recipes
func (m *MockRecipeProvider) GenerateRecipes(ctx context.Context, prompt recipe.GenerationPrompt) ([]*recipe.Recipe, json.RawMessage, error) {
	args := m.Called(ctx, prompt)
	var recipes []*recipe.Recipe
	if args.Get(0) != nil {
		recipes = args.Get(0).([]*recipe.Recipe)
	}
	var raw json.RawMessage
	if args.Get(1) != nil {
		raw = args.Get(1).(json.RawMessage)
	}
	return recipes, raw, args.Error(2)
}

// Name returns the provider name
func (m *MockRecipeProvider) Name() string {
	return "spoonacular"
}

// MockProfileRepository provides a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

// Get loads a profile
func (m *MockProfileRepository) Get(ctx context.Context, clientID string) (*profile.HealthProfile, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.HealthProfile), args.Error(1)
}

// Save stores a profile
func (m *MockProfileRepository) Save(ctx context.Context, clientID string, p *profile.HealthProfile) error {
	args := m.Called(ctx, clientID, p)
	return args.Error(0)
}

// MockGenerationRepository provides a mock implementation of GenerationRepository
type MockGenerationRepository struct {
	mock.Mock
}

// Create stores a generation
func (m *MockGenerationRepository) Create(ctx context.Context, g *recipe.Generation) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

// ListByUser lists a user's generations
func (m *MockGenerationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*recipe.Generation, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recipe.Generation), args.Error(1)
}

// MockSavedRecipeRepository provides a mock implementation of SavedRecipeRepository
type MockSavedRecipeRepository struct {
	mock.Mock
}

// Save stores a saved recipe
func (m *MockSavedRecipeRepository) Save(ctx context.Context, s *recipe.SavedRecipe) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// ListByUser lists a user's saved recipes
func (m *MockSavedRecipeRepository) ListByUser(ctx context.Context, userID string) ([]*recipe.SavedRecipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recipe.SavedRecipe), args.Error(1)
}

// MockArchiveStore provides a mock implementation of ArchiveStore
type MockArchiveStore struct {
	mock.Mock
}

// Put stores an object
func (m *MockArchiveStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

// FakeFavoriteRepository is an in-memory FavoriteRepository
type FakeFavoriteRepository struct {
	mu  sync.Mutex
	ids map[string][]int64
	Err error
}

// NewFakeFavoriteRepository creates an empty favorites store
func NewFakeFavoriteRepository() *FakeFavoriteRepository {
	return &FakeFavoriteRepository{ids: make(map[string][]int64)}
}

// List returns the stored favorites
func (f *FakeFavoriteRepository) List(_ context.Context, clientID string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return profile.NewFavorites(f.ids[clientID]).IDs(), nil
}

// Update applies fn to the stored favorites
func (f *FakeFavoriteRepository) Update(_ context.Context, clientID string, fn func(*profile.Favorites) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	favs := profile.NewFavorites(f.ids[clientID])
	if err := fn(favs); err != nil {
		return err
	}
	f.ids[clientID] = favs.IDs()
	return nil
}

// Set replaces the favorites of clientID
func (f *FakeFavoriteRepository) Set(clientID string, ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[clientID] = ids
}

// MockCacheRepository provides an in-memory cache that records traffic
type MockCacheRepository struct {
	mu   sync.Mutex
	data map[string][]byte
	Sets map[string]time.Duration
	Err  error
}

// NewMockCacheRepository creates an empty cache
func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
		Sets: make(map[string]time.Duration),
	}
}

// Get retrieves a value
func (m *MockCacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	return v, nil
}

// Set stores a value
func (m *MockCacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.data[key] = value
	m.Sets[key] = ttl
	return nil
}

// Delete removes a value
func (m *MockCacheRepository) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Exists reports whether key is cached
func (m *MockCacheRepository) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// Put seeds a raw value
func (m *MockCacheRepository) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Keys returns the cached keys
func (m *MockCacheRepository) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
