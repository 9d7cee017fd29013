package outbound

import (
	"context"
	"encoding/json"

	"github.com/healthyplate/server/internal/domain/recipe"
)

// Upstream endpoint discriminators
const (
	EndpointSearch   = "search"
	EndpointRecipe   = "recipe"
	EndpointGenerate = "generate"
)

// UpstreamRequest is the body accepted by the recipe API proxy. Only the
// fields relevant to Endpoint are read.
type UpstreamRequest struct {
	Endpoint string `json:"endpoint"`

	// search
	Query            string   `json:"query,omitempty"`
	Diet             string   `json:"diet,omitempty"`
	Intolerances     []string `json:"intolerances,omitempty"`
	MaxReadyTime     int      `json:"maxReadyTime,omitempty"`
	HealthConditions []string `json:"healthConditions,omitempty"`

	// recipe
	ID int64 `json:"id,omitempty"`

	// generate
	Ingredients []string `json:"ingredients,omitempty"`
	MealType    string   `json:"mealType,omitempty"`
	UserID      string   `json:"userId,omitempty"`
}

// GeneratePrompt returns the part of a generate request that is recorded
func (r UpstreamRequest) GeneratePrompt() recipe.GenerationPrompt {
	return recipe.GenerationPrompt{
		Ingredients:  r.Ingredients,
		MealType:     r.MealType,
		Diet:         r.Diet,
		Intolerances: r.Intolerances,
	}
}

// RecipeProvider is the third-party recipe API
type RecipeProvider interface {
	// Fetch performs req and returns the upstream JSON unchanged
	Fetch(ctx context.Context, req UpstreamRequest) (json.RawMessage, error)

	SearchRecipes(ctx context.Context, filters recipe.Filters) ([]*recipe.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error)

	// GenerateRecipes also returns the raw payload so it can be recorded
	GenerateRecipes(ctx context.Context, prompt recipe.GenerationPrompt) ([]*recipe.Recipe, json.RawMessage, error)

	// Name identifies the provider in logs, metrics and stored generations
	Name() string
}
