// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/healthyplate/server/internal/domain/profile"
	"github.com/healthyplate/server/internal/domain/recipe"
	"github.com/healthyplate/server/internal/ports/inbound"
)

// RecipeFactory provides methods to create test recipes
type RecipeFactory struct {
	faker *gofakeit.Faker
	next  int64
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
		next:  1000,
	}
}

// Recipe returns a recipe with a unique id and plausible content
func (f *RecipeFactory) Recipe() *recipe.Recipe {
	f.next++
	ingredients := make([]recipe.Ingredient, 0, 4)
	for i := 0; i < 4; i++ {
		ingredients = append(ingredients, recipe.Ingredient{
			Name:   strings.ToLower(f.faker.Vegetable()),
			Amount: float64(f.faker.Number(1, 500)),
			Unit:   f.faker.RandomString([]string{"g", "cup", "tbsp", "piece"}),
		})
	}

	return &recipe.Recipe{
		ID:             f.next,
		Title:          f.faker.Dinner(),
		Image:          f.faker.URL(),
		ReadyInMinutes: f.faker.Number(10, 90),
		Servings:       f.faker.Number(1, 6),
		Summary:        f.faker.Sentence(12),
		HealthLabels:   []string{"Heart Healthy"},
		Ingredients:    ingredients,
		Instructions: []recipe.Instruction{
			{Step: 1, Description: f.faker.Sentence(8)},
			{Step: 2, Description: f.faker.Sentence(8)},
		},
		Nutrition: recipe.Nutrition{
			Calories: float64(f.faker.Number(150, 900)),
			Carbs:    recipe.Nutrient{Name: "Carbohydrates", Amount: float64(f.faker.Number(5, 80)), Unit: "g"},
			Protein:  recipe.Nutrient{Name: "Protein", Amount: float64(f.faker.Number(5, 50)), Unit: "g"},
			Fat:      recipe.Nutrient{Name: "Fat", Amount: float64(f.faker.Number(2, 40)), Unit: "g"},
			Fiber:    recipe.Nutrient{Name: "Fiber", Amount: float64(f.faker.Number(1, 15)), Unit: "g"},
		},
	}
}

// Recipes returns n recipes
func (f *RecipeFactory) Recipes(n int) []*recipe.Recipe {
	out := make([]*recipe.Recipe, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.Recipe())
	}
	return out
}

// ProfileFactory provides methods to create health profiles
type ProfileFactory struct {
	faker *gofakeit.Faker
}

// NewProfileFactory creates a new profile factory with seeded faker
func NewProfileFactory(seed int64) *ProfileFactory {
	return &ProfileFactory{faker: gofakeit.New(seed)}
}

// Input returns a valid profile form submission
func (f *ProfileFactory) Input() *inbound.HealthProfileInput {
	return &inbound.HealthProfileInput{
		Age:    f.faker.Number(18, 90),
		Gender: f.faker.RandomString([]string{profile.GenderMale, profile.GenderFemale, profile.GenderNonBinary}),
		Height: float64(f.faker.Number(150, 200)),
		Weight: float64(f.faker.Number(45, 120)),
		ActivityLevel: f.faker.RandomString([]string{
			profile.ActivitySedentary,
			profile.ActivityLightlyActive,
			profile.ActivityVeryActive,
		}),
		HealthConditions:   []string{recipe.ConditionDiabetes},
		Allergies:          []string{"dairy"},
		DietaryPreferences: profile.DietVegetarian,
		OtherDietaryInfo:   f.faker.Sentence(6),
	}
}

// Profile returns a valid profile entity
func (f *ProfileFactory) Profile() *profile.HealthProfile {
	return f.Input().ToDomain()
}

// ClientID returns a random client identifier
func (f *ProfileFactory) ClientID() string {
	return f.faker.UUID()
}
