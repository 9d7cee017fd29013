// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"encoding/json"

	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/outbound"
)

// RecipeService defines the recipe recommendation use cases
type RecipeService interface {
	SearchRecipes(ctx context.Context, filters recipe.Filters) (*RecipeList, error)
	GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error)
	GenerateRecipes(ctx context.Context, cmd GenerateRecipesCommand) (*RecipeList, error)
	RecommendForProfile(ctx context.Context, clientID string) (*RecipeList, error)
	GetFavoriteRecipes(ctx context.Context, clientID string) ([]*recipe.Recipe, error)

	// Proxy forwards a raw request to the recipe API and returns its JSON
	Proxy(ctx context.Context, req outbound.UpstreamRequest) (json.RawMessage, error)
}

// ProfileService defines the health profile and favorites use cases
type ProfileService interface {
	SaveHealthProfile(ctx context.Context, clientID string, p *HealthProfileInput) (*HealthProfileDTO, error)
	GetHealthProfile(ctx context.Context, clientID string) (*HealthProfileDTO, error)

	ToggleFavorite(ctx context.Context, clientID string, recipeID int64) (bool, error)
	FavoriteIDs(ctx context.Context, clientID string) ([]int64, error)

	SaveRecipe(ctx context.Context, userID string, r *recipe.Recipe) (*recipe.SavedRecipe, error)
	ListSavedRecipes(ctx context.Context, userID string) ([]*recipe.SavedRecipe, error)
}

// GenerateRecipesCommand asks for recipes built around ingredients
type GenerateRecipesCommand struct {
	UserID       string   `json:"-"`
	Ingredients  []string `json:"ingredients" validate:"required,min=1,max=20,dive,ingredient"`
	MealType     string   `json:"mealType,omitempty" validate:"omitempty,max=50,no_xss"`
	Diet         string   `json:"diet,omitempty" validate:"omitempty,max=50,no_xss"`
	Intolerances []string `json:"intolerances,omitempty" validate:"omitempty,max=10,dive,max=50,no_xss"`
}

// Prompt returns the recorded part of the command
func (c GenerateRecipesCommand) Prompt() recipe.GenerationPrompt {
	return recipe.GenerationPrompt{
		Ingredients:  c.Ingredients,
		MealType:     c.MealType,
		Diet:         c.Diet,
		Intolerances: c.Intolerances,
	}
}

// RecipeList is a list of recipes with their origin
type RecipeList struct {
	Recipes []*recipe.Recipe `json:"recipes"`
	Total   int              `json:"total"`
	Source  recipe.Source    `json:"source"`
	Cached  bool             `json:"cached,omitempty"`
}

// NewRecipeList wraps recipes, never returning a nil slice
func NewRecipeList(recipes []*recipe.Recipe, source recipe.Source) *RecipeList {
	if recipes == nil {
		recipes = []*recipe.Recipe{}
	}
	return &RecipeList{Recipes: recipes, Total: len(recipes), Source: source}
}
