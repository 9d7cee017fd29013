package recipe

import "strings"

// Health condition identifiers accepted in Filters.HealthConditions
const (
	ConditionDiabetes     = "diabetes"
	ConditionHeartDisease = "heart-disease"
	ConditionHypertension = "hypertension"
	ConditionPCOS         = "pcos"
	ConditionCholesterol  = "cholesterol"
	ConditionThyroid      = "thyroid"
	ConditionIBS          = "ibs"
)

// Diet identifiers with local filtering rules
const (
	DietVegetarian    = "vegetarian"
	DietVegan         = "vegan"
	DietPaleo         = "paleo"
	DietKeto          = "keto"
	DietMediterranean = "mediterranean"
	DietDASH          = "dash"
)

// conditionLabels maps a health condition to the labels that suit it.
// Conditions without an entry don't narrow the result.
var conditionLabels = map[string][]string{
	ConditionDiabetes:     {"Diabetes Friendly", "Low Glycemic", "Low Carb"},
	ConditionHeartDisease: {"Heart Healthy", "Low Sodium"},
	ConditionHypertension: {"Low Sodium", "Hypertension Friendly"},
	ConditionPCOS:         {"PCOS Friendly", "Low Carb", "Anti-Inflammatory"},
	ConditionCholesterol:  {"Heart Healthy", "Low Carb"},
}

// allergenKeywords maps an allergy to ingredient name fragments to avoid
var allergenKeywords = map[string][]string{
	"dairy":     {"milk", "cheese", "yogurt", "cream", "butter"},
	"gluten":    {"wheat", "barley", "rye", "bread", "pasta"},
	"nuts":      {"almond", "walnut", "pecan", "cashew", "pistachio", "hazelnut"},
	"eggs":      {"egg", "omelet", "mayonnaise"},
	"soy":       {"soy", "tofu", "edamame", "soy sauce"},
	"shellfish": {"shrimp", "crab", "lobster", "scallop", "clam"},
}

var (
	meatKeywords          = []string{"chicken", "beef", "pork", "turkey", "meat", "fish", "salmon"}
	animalKeywords        = append(append([]string{}, meatKeywords...), "milk", "cheese", "yogurt", "cream", "egg")
	mediterraneanKeywords = []string{"olive oil", "fish", "legume", "vegetable", "fruit", "nut", "seed", "herb"}
)

const (
	ketoMaxCarbs = 20.0
	ketoMinFat   = 15.0
)

// LabelsForConditions returns the union of labels relevant to conditions
func LabelsForConditions(conditions []string) []string {
	var labels []string
	for _, c := range conditions {
		labels = append(labels, conditionLabels[strings.ToLower(strings.TrimSpace(c))]...)
	}
	return labels
}

// AllergenKeywords returns the ingredient fragments avoided for an allergy
func AllergenKeywords(allergy string) []string {
	return allergenKeywords[strings.ToLower(strings.TrimSpace(allergy))]
}

// Filter applies f to recipes and returns the matches in their original
// order. Empty filters return recipes unchanged. Values are trimmed and
// matched case-insensitively, the same way CacheKey normalizes them, so
// filters sharing a cache key select the same recipes.
func Filter(recipes []*Recipe, f Filters) []*Recipe {
	if f.IsEmpty() {
		return recipes
	}

	out := recipes
	if labels := LabelsForConditions(f.HealthConditions); len(labels) > 0 {
		out = keep(out, func(r *Recipe) bool { return hasAnyLabel(r, labels) })
	}

	for _, allergy := range f.Allergies {
		if avoid := AllergenKeywords(allergy); len(avoid) > 0 {
			out = keep(out, func(r *Recipe) bool { return !hasAnyIngredient(r, avoid) })
		}
	}

	if f.Diet != "" {
		out = filterDiet(out, strings.ToLower(strings.TrimSpace(f.Diet)))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		out = keep(out, func(r *Recipe) bool {
			return strings.Contains(strings.ToLower(r.Title), strings.ToLower(q)) || r.HasIngredient(q)
		})
	}

	return out
}

func filterDiet(recipes []*Recipe, diet string) []*Recipe {
	switch diet {
	case DietVegetarian:
		return keep(recipes, func(r *Recipe) bool { return !hasAnyIngredient(r, meatKeywords) })
	case DietVegan:
		return keep(recipes, func(r *Recipe) bool { return !hasAnyIngredient(r, animalKeywords) })
	case DietKeto:
		return keep(recipes, func(r *Recipe) bool {
			return r.Nutrition.Carbs.Amount < ketoMaxCarbs && r.Nutrition.Fat.Amount > ketoMinFat
		})
	case DietMediterranean:
		return keep(recipes, func(r *Recipe) bool { return hasAnyIngredient(r, mediterraneanKeywords) })
	case DietDASH:
		return keep(recipes, func(r *Recipe) bool { return r.HasLabel("low sodium") || r.HasLabel("heart healthy") })
	default:
		// paleo and unknown diets have no local rule
		return recipes
	}
}

func keep(recipes []*Recipe, pred func(*Recipe) bool) []*Recipe {
	out := make([]*Recipe, 0, len(recipes))
	for _, r := range recipes {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func hasAnyLabel(r *Recipe, labels []string) bool {
	for _, l := range labels {
		if r.HasLabel(l) {
			return true
		}
	}
	return false
}

func hasAnyIngredient(r *Recipe, keywords []string) bool {
	for _, k := range keywords {
		if r.HasIngredient(k) {
			return true
		}
	}
	return false
}
