package recipe

import "errors"

// Domain errors for recipe operations

var (
	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrInvalidRecipeID  = errors.New("recipe id must be a positive integer")
	ErrNoIngredients    = errors.New("at least one ingredient is required")
	ErrUpstreamDisabled = errors.New("recipe provider is not configured")
)
