package spoonacular

import "github.com/healthyplate/server/internal/domain/recipe"

// apiRecipe is the subset of the upstream recipe payload that is mapped
type apiRecipe struct {
	ID                   int64               `json:"id"`
	Title                string              `json:"title"`
	Image                string              `json:"image"`
	ReadyInMinutes       int                 `json:"readyInMinutes"`
	Servings             int                 `json:"servings"`
	Summary              string              `json:"summary"`
	VeryHealthy          bool                `json:"veryHealthy"`
	VeryPopular          bool                `json:"veryPopular"`
	GlutenFree           bool                `json:"glutenFree"`
	Vegetarian           bool                `json:"vegetarian"`
	Vegan                bool                `json:"vegan"`
	DairyFree            bool                `json:"dairyFree"`
	Nutrition            *apiNutrition       `json:"nutrition"`
	ExtendedIngredients  []apiIngredient     `json:"extendedIngredients"`
	AnalyzedInstructions []apiInstructionSet `json:"analyzedInstructions"`
}

type apiNutrition struct {
	Nutrients []apiNutrient `json:"nutrients"`
}

type apiNutrient struct {
	Name                string  `json:"name"`
	Amount              float64 `json:"amount"`
	Unit                string  `json:"unit"`
	PercentOfDailyNeeds float64 `json:"percentOfDailyNeeds"`
}

type apiIngredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type apiInstructionSet struct {
	Steps []apiStep `json:"steps"`
}

type apiStep struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

// searchResponse is the complexSearch envelope
type searchResponse struct {
	Results      []apiRecipe `json:"results"`
	TotalResults int         `json:"totalResults"`
}

// Nutrient thresholds for derived labels
const (
	lowGlycemicMaxSugar = 5.0
	highFiberMinFiber   = 5.0
	lowSodiumThreshold  = 140.0
)

// toDomain maps an upstream recipe onto the client recipe shape
func toDomain(r apiRecipe) *recipe.Recipe {
	var nutrients []apiNutrient
	if r.Nutrition != nil {
		nutrients = r.Nutrition.Nutrients
	}

	out := &recipe.Recipe{
		ID:             r.ID,
		Title:          r.Title,
		Image:          r.Image,
		ReadyInMinutes: r.ReadyInMinutes,
		Servings:       r.Servings,
		Summary:        r.Summary,
		HealthLabels:   healthLabels(r, nutrients),
		Ingredients:    make([]recipe.Ingredient, 0, len(r.ExtendedIngredients)),
		Instructions:   []recipe.Instruction{},
	}

	for _, ing := range r.ExtendedIngredients {
		out.Ingredients = append(out.Ingredients, recipe.Ingredient{
			Name:   ing.Name,
			Amount: ing.Amount,
			Unit:   ing.Unit,
		})
	}

	if len(r.AnalyzedInstructions) > 0 {
		for _, s := range r.AnalyzedInstructions[0].Steps {
			out.Instructions = append(out.Instructions, recipe.Instruction{
				Step:        s.Number,
				Description: s.Step,
			})
		}
	}

	out.Nutrition = recipe.Nutrition{
		Calories:  findNutrient(nutrients, "Calories").Amount,
		Carbs:     macro(nutrients, "Carbohydrates"),
		Protein:   macro(nutrients, "Protein"),
		Fat:       macro(nutrients, "Fat"),
		Fiber:     macro(nutrients, "Fiber"),
		Nutrients: make([]recipe.Nutrient, 0, len(nutrients)),
	}
	for _, n := range nutrients {
		out.Nutrition.Nutrients = append(out.Nutrition.Nutrients, recipe.Nutrient(n))
	}

	return out
}

func healthLabels(r apiRecipe, nutrients []apiNutrient) []string {
	labels := []string{}
	if r.VeryHealthy {
		labels = append(labels, "Heart Healthy")
	}
	if r.VeryPopular {
		labels = append(labels, "Popular")
	}
	if r.GlutenFree {
		labels = append(labels, "Gluten-Free")
	}
	if r.Vegetarian {
		labels = append(labels, "Vegetarian")
	}
	if r.Vegan {
		labels = append(labels, "Vegan")
	}
	if r.DairyFree {
		labels = append(labels, "Dairy-Free")
	}

	if n, ok := lookupNutrient(nutrients, "Sugar"); ok && n.Amount < lowGlycemicMaxSugar {
		labels = append(labels, "Low Glycemic")
	}
	if n, ok := lookupNutrient(nutrients, "Fiber"); ok && n.Amount > highFiberMinFiber {
		labels = append(labels, "High Fiber")
	}
	if n, ok := lookupNutrient(nutrients, "Sodium"); ok && n.Amount < lowSodiumThreshold {
		labels = append(labels, "Low Sodium")
	}
	return labels
}

// macro returns a named macro nutrient in grams, zero when absent
func macro(nutrients []apiNutrient, name string) recipe.Nutrient {
	n := findNutrient(nutrients, name)
	return recipe.Nutrient{
		Name:                name,
		Amount:              n.Amount,
		Unit:                "g",
		PercentOfDailyNeeds: n.PercentOfDailyNeeds,
	}
}

func findNutrient(nutrients []apiNutrient, name string) apiNutrient {
	n, _ := lookupNutrient(nutrients, name)
	return n
}

func lookupNutrient(nutrients []apiNutrient, name string) (apiNutrient, bool) {
	for _, n := range nutrients {
		if n.Name == name {
			return n, true
		}
	}
	return apiNutrient{}, false
}
