package gorm

import (
	"context"

	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedRecipeRepository implements the saved recipe repository interface using GORM
type SavedRecipeRepository struct {
	db *gorm.DB
}

// NewSavedRecipeRepository creates a new saved recipe repository
func NewSavedRecipeRepository(db *gorm.DB) *SavedRecipeRepository {
	return &SavedRecipeRepository{db: db}
}

var _ outbound.SavedRecipeRepository = (*SavedRecipeRepository)(nil)

// Save stores the snapshot. Saving the same recipe again refreshes it and
// keeps the stored id, which is written back into s.
func (r *SavedRecipeRepository) Save(ctx context.Context, s *recipe.SavedRecipe) error {
	model, err := SavedRecipeToModel(s)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"recipe", "created_at"}),
		}).Create(model).Error
		if err != nil {
			return err
		}

		var stored SavedRecipeModel
		err = tx.Select("id", "created_at").
			Where("user_id = ? AND recipe_id = ?", s.UserID, s.RecipeID).
			Take(&stored).Error
		if err != nil {
			return err
		}
		s.ID = stored.ID
		s.CreatedAt = stored.CreatedAt
		return nil
	})
}

// ListByUser returns the recipes saved by userID, newest first
func (r *SavedRecipeRepository) ListByUser(ctx context.Context, userID string) ([]*recipe.SavedRecipe, error) {
	var models []SavedRecipeModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	saved := make([]*recipe.SavedRecipe, 0, len(models))
	for i := range models {
		s, err := ModelToSavedRecipe(&models[i])
		if err != nil {
			return nil, err
		}
		saved = append(saved, s)
	}
	return saved, nil
}
