package gorm

import (
	"context"
	"errors"

	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository implements the profile repository interface using GORM
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ outbound.ProfileRepository = (*ProfileRepository)(nil)

// Get finds the profile of clientID
func (r *ProfileRepository) Get(ctx context.Context, clientID string) (*profile.HealthProfile, error) {
	var model HealthProfileModel

	result := r.db.WithContext(ctx).First(&model, "client_id = ?", clientID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, result.Error
	}

	return ModelToProfile(&model), nil
}

// Save inserts or replaces the profile of clientID
func (r *ProfileRepository) Save(ctx context.Context, clientID string, p *profile.HealthProfile) error {
	model := ProfileToModel(clientID, p)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns(profileUpdateColumns),
		}).
		Create(model).Error
}

var profileUpdateColumns = []string{
	"age", "gender", "height", "weight", "activity_level",
	"health_conditions", "allergies", "dietary_preferences",
	"other_dietary_info", "medications", "updated_at",
}
