package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/infrastructure/http/middleware"
	"github.com/healthyplate/server/internal/infrastructure/http/response"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/pkg/errors"
	"go.uber.org/zap"
)

// ProfileHandlers serves health profiles, favorites and saved recipes
type ProfileHandlers struct {
	profiles inbound.ProfileService
	logger   *zap.Logger
}

// NewProfileHandlers creates the profile handlers
func NewProfileHandlers(profiles inbound.ProfileService, logger *zap.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		profiles: profiles,
		logger:   logger.Named("profile-handlers"),
	}
}

// GetProfile handles GET /profile
func (h *ProfileHandlers) GetProfile(c *gin.Context) {
	p, err := h.profiles.GetHealthProfile(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, p, "")
}

// SaveProfile handles PUT /profile
func (h *ProfileHandlers) SaveProfile(c *gin.Context) {
	var in inbound.HealthProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(errors.NewBadRequestError("Invalid request body").WithCause(err))
		return
	}

	p, err := h.profiles.SaveHealthProfile(c.Request.Context(), middleware.ClientID(c), &in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, p, "Health profile saved")
}

// FavoriteIDs handles GET /favorites
func (h *ProfileHandlers) FavoriteIDs(c *gin.Context) {
	ids, err := h.profiles.FavoriteIDs(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"recipeIds": ids}, "")
}

// ToggleFavorite handles POST /favorites/:id/toggle
func (h *ProfileHandlers) ToggleFavorite(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	favorite, err := h.profiles.ToggleFavorite(c.Request.Context(), middleware.ClientID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	message := "Removed from favorites"
	if favorite {
		message = "Added to favorites"
	}
	response.OK(c, http.StatusOK, gin.H{"recipeId": id, "favorite": favorite}, message)
}

// ListSavedRecipes handles GET /saved-recipes
func (h *ProfileHandlers) ListSavedRecipes(c *gin.Context) {
	saved, err := h.profiles.ListSavedRecipes(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, saved, "")
}

// SaveRecipe handles POST /saved-recipes
func (h *ProfileHandlers) SaveRecipe(c *gin.Context) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		_ = c.Error(errors.NewBadRequestError("Invalid request body").WithCause(err))
		return
	}

	saved, err := h.profiles.SaveRecipe(c.Request.Context(), middleware.UserID(c), &r)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusCreated, saved, "Recipe saved")
}
