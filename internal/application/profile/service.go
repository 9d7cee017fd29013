// Package profile provides the application layer for health profiles,
// favorites and saved recipes
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/internal/ports/outbound"
	apperrors "github.com/healthyplate/server/pkg/errors"
	"go.uber.org/zap"
)

// Validator validates profiles before they are stored
type Validator interface {
	Struct(s interface{}) error
}

// ProfileService implements the profile use cases
type ProfileService struct {
	profiles  outbound.ProfileRepository
	favorites outbound.FavoriteRepository
	saved     outbound.SavedRecipeRepository
	validator Validator
	now       func() time.Time
	logger    *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	profiles outbound.ProfileRepository,
	favorites outbound.FavoriteRepository,
	saved outbound.SavedRecipeRepository,
	validator Validator,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		favorites: favorites,
		saved:     saved,
		validator: validator,
		now:       time.Now,
		logger:    logger.Named("profile-service"),
	}
}

var _ inbound.ProfileService = (*ProfileService)(nil)

// SaveHealthProfile validates and stores the profile of clientID,
// replacing any previous one
func (s *ProfileService) SaveHealthProfile(ctx context.Context, clientID string, in *inbound.HealthProfileInput) (*inbound.HealthProfileDTO, error) {
	if clientID == "" {
		return nil, apperrors.NewBadRequestError(profile.ErrMissingClientID.Error())
	}
	if in == nil {
		return nil, apperrors.NewValidationError("health profile is required")
	}

	p := in.ToDomain()
	if err := s.validator.Struct(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.profiles.Save(ctx, clientID, p); err != nil {
		return nil, apperrors.NewDatabaseError("save health profile", err)
	}

	s.logger.Info("Health profile saved",
		zap.String("client_id", clientID),
		zap.Int("conditions", len(p.HealthConditions)),
		zap.Int("allergies", len(p.Allergies)),
	)
	return inbound.NewHealthProfileDTO(clientID, p), nil
}

// GetHealthProfile returns the stored profile of clientID
func (s *ProfileService) GetHealthProfile(ctx context.Context, clientID string) (*inbound.HealthProfileDTO, error) {
	if clientID == "" {
		return nil, apperrors.NewBadRequestError(profile.ErrMissingClientID.Error())
	}

	p, err := s.profiles.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, apperrors.NewProfileNotFoundError(clientID)
		}
		return nil, apperrors.NewDatabaseError("load health profile", err)
	}
	return inbound.NewHealthProfileDTO(clientID, p), nil
}

// ToggleFavorite adds or removes recipeID and returns whether it is now a
// favorite
func (s *ProfileService) ToggleFavorite(ctx context.Context, clientID string, recipeID int64) (bool, error) {
	if clientID == "" {
		return false, apperrors.NewBadRequestError(profile.ErrMissingClientID.Error())
	}
	if recipeID <= 0 {
		return false, apperrors.NewValidationError(recipe.ErrInvalidRecipeID.Error())
	}

	var favorite bool
	err := s.favorites.Update(ctx, clientID, func(f *profile.Favorites) error {
		favorite = f.Toggle(recipeID)
		return nil
	})
	if err != nil {
		return false, apperrors.NewDatabaseError("update favorites", err)
	}

	s.logger.Debug("Favorite toggled",
		zap.String("client_id", clientID),
		zap.Int64("recipe_id", recipeID),
		zap.Bool("favorite", favorite),
	)
	return favorite, nil
}

// FavoriteIDs returns the favorites of clientID in the order they were added
func (s *ProfileService) FavoriteIDs(ctx context.Context, clientID string) ([]int64, error) {
	if clientID == "" {
		return nil, apperrors.NewBadRequestError(profile.ErrMissingClientID.Error())
	}

	ids, err := s.favorites.List(ctx, clientID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list favorites", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// SaveRecipe stores a snapshot of r for a signed-in user
func (s *ProfileService) SaveRecipe(ctx context.Context, userID string, r *recipe.Recipe) (*recipe.SavedRecipe, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError(profile.ErrMissingUserID.Error())
	}
	if r == nil || r.ID <= 0 {
		return nil, apperrors.NewValidationError(recipe.ErrInvalidRecipeID.Error())
	}

	saved := recipe.NewSavedRecipe(userID, r)
	if err := s.saved.Save(ctx, saved); err != nil {
		return nil, apperrors.NewDatabaseError("save recipe", err)
	}
	return saved, nil
}

// ListSavedRecipes returns the recipes a user saved, newest first
func (s *ProfileService) ListSavedRecipes(ctx context.Context, userID string) ([]*recipe.SavedRecipe, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError(profile.ErrMissingUserID.Error())
	}

	saved, err := s.saved.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list saved recipes", err)
	}
	if saved == nil {
		saved = []*recipe.SavedRecipe{}
	}
	return saved, nil
}
