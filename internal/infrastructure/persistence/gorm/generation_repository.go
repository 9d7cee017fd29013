package gorm

import (
	"context"

	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/outbound"
	"gorm.io/gorm"
)

const defaultGenerationLimit = 50

// GenerationRepository implements the generation repository interface using GORM
type GenerationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository creates a new generation repository
func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

var _ outbound.GenerationRepository = (*GenerationRepository)(nil)

// Create records a generation
func (r *GenerationRepository) Create(ctx context.Context, g *recipe.Generation) error {
	model, err := GenerationToModel(g)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// ListByUser returns the newest generations of userID
func (r *GenerationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*recipe.Generation, error) {
	if limit <= 0 {
		limit = defaultGenerationLimit
	}

	var models []GenerationModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	generations := make([]*recipe.Generation, 0, len(models))
	for i := range models {
		g, err := ModelToGeneration(&models[i])
		if err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}
	return generations, nil
}
