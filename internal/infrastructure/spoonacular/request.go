package spoonacular

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/outbound"
	apperrors "github.com/healthyplate/server/pkg/errors"
)

const (
	complexSearchPath = "/recipes/complexSearch"
	searchResultCount = 10
	generateCount     = 3
)

// Nutrient ceilings applied to searches for specific health conditions
const (
	diabetesMaxSugar     = "10"
	diabetesDiet         = "low-carb"
	lowSodiumMaxSodium   = "500"
	cholesterolMaxChol   = "50"
	cholesterolMaxSatFat = "8"
)

// buildURL turns an upstream request into the full API URL, apiKey included
func buildURL(baseURL, apiKey string, req outbound.UpstreamRequest) (string, error) {
	params := url.Values{}
	params.Set("apiKey", apiKey)

	var path string
	switch req.Endpoint {
	case outbound.EndpointSearch:
		path = complexSearchPath
		searchParams(params, req)
	case outbound.EndpointRecipe:
		if req.ID <= 0 {
			return "", apperrors.NewBadRequestError("Recipe ID is required").WithMetadata("endpoint", req.Endpoint)
		}
		path = fmt.Sprintf("/recipes/%d/information", req.ID)
		params.Set("includeNutrition", "true")
	case outbound.EndpointGenerate:
		path = complexSearchPath
		generateParams(params, req)
	default:
		return "", apperrors.NewInvalidEndpointError(req.Endpoint)
	}

	return strings.TrimRight(baseURL, "/") + path + "?" + params.Encode(), nil
}

func searchParams(params url.Values, req outbound.UpstreamRequest) {
	if req.Query != "" {
		params.Set("query", req.Query)
	}
	if req.Diet != "" {
		params.Set("diet", req.Diet)
	}
	if len(req.Intolerances) > 0 {
		params.Set("intolerances", strings.Join(req.Intolerances, ","))
	}
	if req.MaxReadyTime > 0 {
		params.Set("maxReadyTime", strconv.Itoa(req.MaxReadyTime))
	}

	conditions := make(map[string]bool, len(req.HealthConditions))
	for _, c := range req.HealthConditions {
		conditions[strings.ToLower(strings.TrimSpace(c))] = true
	}
	if conditions[recipe.ConditionDiabetes] {
		params.Set("maxSugar", diabetesMaxSugar)
		if params.Get("diet") == "" {
			params.Set("diet", diabetesDiet)
		}
	}
	if conditions[recipe.ConditionHeartDisease] || conditions[recipe.ConditionHypertension] {
		params.Set("maxSodium", lowSodiumMaxSodium)
	}
	if conditions[recipe.ConditionCholesterol] {
		params.Set("maxCholesterol", cholesterolMaxChol)
		params.Set("maxSaturatedFat", cholesterolMaxSatFat)
	}

	params.Set("addRecipeNutrition", "true")
	params.Set("number", strconv.Itoa(searchResultCount))
}

func generateParams(params url.Values, req outbound.UpstreamRequest) {
	if len(req.Ingredients) > 0 {
		params.Set("includeIngredients", strings.Join(req.Ingredients, ","))
	}
	if req.MealType != "" {
		params.Set("type", req.MealType)
	}
	if req.Diet != "" {
		params.Set("diet", req.Diet)
	}
	if len(req.Intolerances) > 0 {
		params.Set("intolerances", strings.Join(req.Intolerances, ","))
	}

	params.Set("addRecipeNutrition", "true")
	params.Set("number", strconv.Itoa(generateCount))
	params.Set("sort", "random")
}

// searchRequest converts recipe filters into an upstream search. The diet is
// lower-cased and allergies become intolerances.
func searchRequest(f recipe.Filters) outbound.UpstreamRequest {
	return outbound.UpstreamRequest{
		Endpoint:         outbound.EndpointSearch,
		Query:            strings.TrimSpace(f.Query),
		Diet:             strings.ToLower(strings.TrimSpace(f.Diet)),
		Intolerances:     f.Allergies,
		MaxReadyTime:     f.MaxReadyTime,
		HealthConditions: f.HealthConditions,
	}
}
