package recipe

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GenerationPrompt is what a user asked the generator for
type GenerationPrompt struct {
	Ingredients  []string `json:"ingredients"`
	MealType     string   `json:"mealType,omitempty"`
	Diet         string   `json:"diet,omitempty"`
	Intolerances []string `json:"intolerances,omitempty"`
}

// Generation records a generate request and the upstream answer
type Generation struct {
	ID         uuid.UUID        `json:"id"`
	UserID     string           `json:"userId"`
	Prompt     GenerationPrompt `json:"prompt"`
	Result     json.RawMessage  `json:"result"`
	Model      string           `json:"aiModel"`
	ArchiveURL string           `json:"archiveUrl,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// NewGeneration creates a generation record with a fresh id
func NewGeneration(userID string, prompt GenerationPrompt, result json.RawMessage, model string) *Generation {
	return &Generation{
		ID:        uuid.New(),
		UserID:    userID,
		Prompt:    prompt,
		Result:    result,
		Model:     model,
		CreatedAt: time.Now().UTC(),
	}
}

// SavedRecipe is a recipe snapshot kept by a signed-in user
type SavedRecipe struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	RecipeID  int64     `json:"recipeId"`
	Recipe    *Recipe   `json:"recipe"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSavedRecipe creates a saved recipe with a fresh id
func NewSavedRecipe(userID string, r *Recipe) *SavedRecipe {
	return &SavedRecipe{
		ID:        uuid.New(),
		UserID:    userID,
		RecipeID:  r.ID,
		Recipe:    r,
		CreatedAt: time.Now().UTC(),
	}
}
