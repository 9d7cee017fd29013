// Package profile defines a client's health profile and favorites.
package profile

import (
	"time"

	"github.com/healthyplate/server/internal/domain/recipe"
)

// Gender options offered by the health profile form
const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderNonBinary      = "non-binary"
	GenderPreferNotToSay = "prefer-not-to-say"
)

// ActivityLevel options
const (
	ActivitySedentary        = "sedentary"
	ActivityLightlyActive    = "lightly-active"
	ActivityModeratelyActive = "moderately-active"
	ActivityVeryActive       = "very-active"
	ActivityExtremelyActive  = "extremely-active"
)

// DietaryPreference options
const (
	DietOmnivore    = "omnivore"
	DietVegetarian  = "vegetarian"
	DietVegan       = "vegan"
	DietPescatarian = "pescatarian"
	DietOther       = "other"
)

// HealthProfile is the self-reported health information of a client
type HealthProfile struct {
	Age                int      `json:"age" validate:"required,min=1,max=120"`
	Gender             string   `json:"gender" validate:"required,oneof=male female non-binary prefer-not-to-say"`
	Height             float64  `json:"height" validate:"required,gt=0,lte=300"`
	Weight             float64  `json:"weight" validate:"required,gt=0,lte=700"`
	ActivityLevel      string   `json:"activityLevel" validate:"required,oneof=sedentary lightly-active moderately-active very-active extremely-active"`
	HealthConditions   []string `json:"healthConditions" validate:"dive,oneof=diabetes heart-disease hypertension pcos cholesterol thyroid ibs"`
	Allergies          []string `json:"allergies" validate:"dive,oneof=dairy gluten nuts eggs soy shellfish"`
	DietaryPreferences string   `json:"dietaryPreferences" validate:"required,oneof=omnivore vegetarian vegan pescatarian other"`
	OtherDietaryInfo   string   `json:"otherDietaryInfo,omitempty" validate:"max=1000,no_xss"`
	Medications        string   `json:"medications,omitempty" validate:"max=1000,no_xss"`

	UpdatedAt time.Time `json:"updatedAt" validate:"-"`
}

// ApplyDefaults fills the optional selections the form pre-selects
func (p *HealthProfile) ApplyDefaults() {
	if p.ActivityLevel == "" {
		p.ActivityLevel = ActivityModeratelyActive
	}
	if p.DietaryPreferences == "" {
		p.DietaryPreferences = DietOmnivore
	}
	if p.HealthConditions == nil {
		p.HealthConditions = []string{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
}

// ToFilters derives the recipe filters implied by the profile. Only the
// vegetarian and vegan preferences have a matching recipe diet.
func (p *HealthProfile) ToFilters() recipe.Filters {
	f := recipe.Filters{
		HealthConditions: append([]string(nil), p.HealthConditions...),
		Allergies:        append([]string(nil), p.Allergies...),
	}
	switch p.DietaryPreferences {
	case DietVegetarian:
		f.Diet = recipe.DietVegetarian
	case DietVegan:
		f.Diet = recipe.DietVegan
	}
	return f
}

// Favorites is an ordered set of recipe IDs
type Favorites struct {
	ids []int64
}

// NewFavorites builds a set from ids, dropping duplicates and keeping the
// first occurrence.
func NewFavorites(ids []int64) *Favorites {
	f := &Favorites{ids: make([]int64, 0, len(ids))}
	for _, id := range ids {
		if !f.Contains(id) {
			f.ids = append(f.ids, id)
		}
	}
	return f
}

// Contains reports whether id is a favorite
func (f *Favorites) Contains(id int64) bool {
	for _, v := range f.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle removes id if present, otherwise appends it. It returns the new
// state: true when id is now a favorite.
func (f *Favorites) Toggle(id int64) bool {
	for i, v := range f.ids {
		if v == id {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			return false
		}
	}
	f.ids = append(f.ids, id)
	return true
}

// IDs returns the favorites in insertion order, never nil
func (f *Favorites) IDs() []int64 {
	out := make([]int64, len(f.ids))
	copy(out, f.ids)
	return out
}
