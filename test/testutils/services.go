package testutils

import (
	"context"
	"encoding/json"

	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeService provides a mock implementation of inbound.RecipeService
type MockRecipeService struct {
	mock.Mock
}

var _ inbound.RecipeService = (*MockRecipeService)(nil)

// SearchRecipes searches recipes
func (m *MockRecipeService) SearchRecipes(ctx context.Context, filters recipe.Filters) (*inbound.RecipeList, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.RecipeList), args.Error(1)
}

// GetRecipe fetches one recipe
func (m *MockRecipeService) GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recipe.Recipe), args.Error(1)
}

// GenerateRecipes generates recipes
func (m *MockRecipeService) GenerateRecipes(ctx context.Context, cmd inbound.GenerateRecipesCommand) (*inbound.RecipeList, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.RecipeList), args.Error(1)
}

// RecommendForProfile recommends recipes for a stored profile
func (m *MockRecipeService) RecommendForProfile(ctx context.Context, clientID string) (*inbound.RecipeList, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.RecipeList), args.Error(1)
}

// GetFavoriteRecipes resolves favorites
func (m *MockRecipeService) GetFavoriteRecipes(ctx context.Context, clientID string) ([]*recipe.Recipe, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recipe.Recipe), args.Error(1)
}

// Proxy forwards a raw request
func (m *MockRecipeService) Proxy(ctx context.Context, req outbound.UpstreamRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockProfileService provides a mock implementation of inbound.ProfileService
type MockProfileService struct {
	mock.Mock
}

var _ inbound.ProfileService = (*MockProfileService)(nil)

// SaveHealthProfile stores a profile
func (m *MockProfileService) SaveHealthProfile(ctx context.Context, clientID string, p *inbound.HealthProfileInput) (*inbound.HealthProfileDTO, error) {
	args := m.Called(ctx, clientID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.HealthProfileDTO), args.Error(1)
}

// GetHealthProfile loads a profile
func (m *MockProfileService) GetHealthProfile(ctx context.Context, clientID string) (*inbound.HealthProfileDTO, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.HealthProfileDTO), args.Error(1)
}

// ToggleFavorite flips a favorite
func (m *MockProfileService) ToggleFavorite(ctx context.Context, clientID string, recipeID int64) (bool, error) {
	args := m.Called(ctx, clientID, recipeID)
	return args.Bool(0), args.Error(1)
}

// FavoriteIDs lists favorite ids
func (m *MockProfileService) FavoriteIDs(ctx context.Context, clientID string) ([]int64, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// SaveRecipe saves a recipe snapshot
func (m *MockProfileService) SaveRecipe(ctx context.Context, userID string, r *recipe.Recipe) (*recipe.SavedRecipe, error) {
	args := m.Called(ctx, userID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recipe.SavedRecipe), args.Error(1)
}

// ListSavedRecipes lists saved recipes
func (m *MockProfileService) ListSavedRecipes(ctx context.Context, userID string) ([]*recipe.SavedRecipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recipe.SavedRecipe), args.Error(1)
}
