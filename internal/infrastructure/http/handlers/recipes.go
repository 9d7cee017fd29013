// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/infrastructure/http/middleware"
	"github.com/healthyplate/server/internal/infrastructure/http/response"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/pkg/errors"
	"go.uber.org/zap"
)

// RecipeHandlers serves recipe search, lookup, generation and
// recommendations
type RecipeHandlers struct {
	recipes inbound.RecipeService
	logger  *zap.Logger
}

// NewRecipeHandlers creates the recipe handlers
func NewRecipeHandlers(recipes inbound.RecipeService, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		recipes: recipes,
		logger:  logger.Named("recipe-handlers"),
	}
}

// SearchRecipes handles GET /recipes
func (h *RecipeHandlers) SearchRecipes(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	list, err := h.recipes.SearchRecipes(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, list, "")
}

// GetRecipe handles GET /recipes/:id
func (h *RecipeHandlers) GetRecipe(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	r, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, r, "")
}

// GenerateRecipes handles POST /recipes/generate. Signed-in users get the
// generation recorded.
func (h *RecipeHandlers) GenerateRecipes(c *gin.Context) {
	var cmd inbound.GenerateRecipesCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		_ = c.Error(errors.NewBadRequestError("Invalid request body").WithCause(err))
		return
	}
	cmd.UserID = middleware.UserID(c)

	list, err := h.recipes.GenerateRecipes(c.Request.Context(), cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, list, "Recipes generated")
}

// Recommendations handles GET /recommendations
func (h *RecipeHandlers) Recommendations(c *gin.Context) {
	list, err := h.recipes.RecommendForProfile(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, http.StatusOK, list, "")
}

// FavoriteRecipes handles GET /favorites/recipes
func (h *RecipeHandlers) FavoriteRecipes(c *gin.Context) {
	recipes, err := h.recipes.GetFavoriteRecipes(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if recipes == nil {
		recipes = []*recipe.Recipe{}
	}
	response.OK(c, http.StatusOK, gin.H{"recipes": recipes, "total": len(recipes)}, "")
}

func parseFilters(c *gin.Context) (recipe.Filters, error) {
	f := recipe.Filters{
		Query:            c.Query("query"),
		Diet:             c.Query("diet"),
		HealthConditions: splitList(c.Query("healthConditions")),
		Allergies:        splitList(c.Query("allergies")),
	}

	if raw := c.Query("maxReadyTime"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			return f, errors.NewValidationError("maxReadyTime must be a non-negative integer")
		}
		f.MaxReadyTime = minutes
	}
	return f, nil
}

// splitList splits a comma separated query value, dropping blanks
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func recipeID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(recipe.ErrInvalidRecipeID.Error())
	}
	return id, nil
}
