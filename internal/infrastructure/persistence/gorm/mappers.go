package gorm

import (
	"encoding/json"
	"fmt"

	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/domain/recipe"
)

// ProfileToModel converts a domain profile to a GORM model
func ProfileToModel(clientID string, p *profile.HealthProfile) *HealthProfileModel {
	return &HealthProfileModel{
		ClientID:           clientID,
		Age:                p.Age,
		Gender:             p.Gender,
		Height:             p.Height,
		Weight:             p.Weight,
		ActivityLevel:      p.ActivityLevel,
		HealthConditions:   StringSlice(p.HealthConditions),
		Allergies:          StringSlice(p.Allergies),
		DietaryPreferences: p.DietaryPreferences,
		OtherDietaryInfo:   p.OtherDietaryInfo,
		Medications:        p.Medications,
		UpdatedAt:          p.UpdatedAt,
	}
}

// ModelToProfile converts a GORM model to a domain profile
func ModelToProfile(m *HealthProfileModel) *profile.HealthProfile {
	p := &profile.HealthProfile{
		Age:                m.Age,
		Gender:             m.Gender,
		Height:             m.Height,
		Weight:             m.Weight,
		ActivityLevel:      m.ActivityLevel,
		HealthConditions:   []string(m.HealthConditions),
		Allergies:          []string(m.Allergies),
		DietaryPreferences: m.DietaryPreferences,
		OtherDietaryInfo:   m.OtherDietaryInfo,
		Medications:        m.Medications,
		UpdatedAt:          m.UpdatedAt,
	}
	p.ApplyDefaults()
	return p
}

// GenerationToModel converts a domain generation to a GORM model
func GenerationToModel(g *recipe.Generation) (*GenerationModel, error) {
	prompt, err := json.Marshal(g.Prompt)
	if err != nil {
		return nil, fmt.Errorf("encode prompt: %w", err)
	}
	return &GenerationModel{
		ID:         g.ID,
		UserID:     g.UserID,
		Prompt:     RawJSON(prompt),
		Result:     RawJSON(g.Result),
		AIModel:    g.Model,
		ArchiveURL: g.ArchiveURL,
		CreatedAt:  g.CreatedAt,
	}, nil
}

// ModelToGeneration converts a GORM model to a domain generation
func ModelToGeneration(m *GenerationModel) (*recipe.Generation, error) {
	var prompt recipe.GenerationPrompt
	if err := json.Unmarshal(m.Prompt, &prompt); err != nil {
		return nil, fmt.Errorf("decode prompt of generation %s: %w", m.ID, err)
	}
	return &recipe.Generation{
		ID:         m.ID,
		UserID:     m.UserID,
		Prompt:     prompt,
		Result:     json.RawMessage(m.Result),
		Model:      m.AIModel,
		ArchiveURL: m.ArchiveURL,
		CreatedAt:  m.CreatedAt,
	}, nil
}

// SavedRecipeToModel converts a saved recipe to a GORM model
func SavedRecipeToModel(s *recipe.SavedRecipe) (*SavedRecipeModel, error) {
	data, err := json.Marshal(s.Recipe)
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	return &SavedRecipeModel{
		ID:        s.ID,
		UserID:    s.UserID,
		RecipeID:  s.RecipeID,
		Recipe:    RawJSON(data),
		CreatedAt: s.CreatedAt,
	}, nil
}

// ModelToSavedRecipe converts a GORM model to a saved recipe
func ModelToSavedRecipe(m *SavedRecipeModel) (*recipe.SavedRecipe, error) {
	var r recipe.Recipe
	if err := json.Unmarshal(m.Recipe, &r); err != nil {
		return nil, fmt.Errorf("decode saved recipe %s: %w", m.ID, err)
	}
	return &recipe.SavedRecipe{
		ID:        m.ID,
		UserID:    m.UserID,
		RecipeID:  m.RecipeID,
		Recipe:    &r,
		CreatedAt: m.CreatedAt,
	}, nil
}
