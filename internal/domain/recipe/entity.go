// Package recipe contains the core domain model for recipe recommendations.
// Recipes are flat values: they come from the upstream recipe API or the
// embedded fallback catalog and are never mutated by the service.
package recipe

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Source identifies where a set of recipes came from
type Source string

const (
	SourceSpoonacular Source = "spoonacular"
	SourceFallback    Source = "fallback"
)

// Recipe represents a recipe as shown to clients
type Recipe struct {
	ID             int64         `json:"id" yaml:"id"`
	Title          string        `json:"title" yaml:"title"`
	Image          string        `json:"image" yaml:"image"`
	ReadyInMinutes int           `json:"readyInMinutes" yaml:"readyInMinutes"`
	Servings       int           `json:"servings" yaml:"servings"`
	Summary        string        `json:"summary" yaml:"summary"`
	HealthLabels   []string      `json:"healthLabels" yaml:"healthLabels"`
	Ingredients    []Ingredient  `json:"ingredients" yaml:"ingredients"`
	Instructions   []Instruction `json:"instructions" yaml:"instructions"`
	Nutrition      Nutrition     `json:"nutrition" yaml:"nutrition"`
}

// Ingredient is a single recipe ingredient
type Ingredient struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// Instruction is a numbered cooking step
type Instruction struct {
	Step        int    `json:"step" yaml:"step"`
	Description string `json:"description" yaml:"description"`
}

// Nutrient is an amount of a named nutrient per serving
type Nutrient struct {
	Name                string  `json:"name" yaml:"name"`
	Amount              float64 `json:"amount" yaml:"amount"`
	Unit                string  `json:"unit" yaml:"unit"`
	PercentOfDailyNeeds float64 `json:"percentOfDailyNeeds" yaml:"percentOfDailyNeeds"`
}

// Nutrition holds the macro nutrients plus the full nutrient list
type Nutrition struct {
	Calories  float64    `json:"calories" yaml:"calories"`
	Carbs     Nutrient   `json:"carbs" yaml:"carbs"`
	Protein   Nutrient   `json:"protein" yaml:"protein"`
	Fat       Nutrient   `json:"fat" yaml:"fat"`
	Fiber     Nutrient   `json:"fiber" yaml:"fiber"`
	Nutrients []Nutrient `json:"nutrients" yaml:"nutrients"`
}

// HasLabel reports whether any health label contains label, ignoring case
func (r *Recipe) HasLabel(label string) bool {
	label = strings.ToLower(label)
	for _, l := range r.HealthLabels {
		if strings.Contains(strings.ToLower(l), label) {
			return true
		}
	}
	return false
}

// HasIngredient reports whether any ingredient name contains keyword, ignoring case
func (r *Recipe) HasIngredient(keyword string) bool {
	keyword = strings.ToLower(keyword)
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), keyword) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can't alter shared catalog data
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.HealthLabels = append([]string(nil), r.HealthLabels...)
	c.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	c.Instructions = append([]Instruction(nil), r.Instructions...)
	c.Nutrition.Nutrients = append([]Nutrient(nil), r.Nutrition.Nutrients...)
	return &c
}

// Filters narrows a recipe search
type Filters struct {
	HealthConditions []string `json:"healthConditions,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	Diet             string   `json:"diet,omitempty"`
	Query            string   `json:"query,omitempty"`
	MaxReadyTime     int      `json:"maxReadyTime,omitempty"`
}

// IsEmpty reports whether the filters constrain nothing
func (f Filters) IsEmpty() bool {
	return len(f.HealthConditions) == 0 &&
		len(f.Allergies) == 0 &&
		f.Diet == "" &&
		f.Query == "" &&
		f.MaxReadyTime == 0
}

// Normalize lower-cases and trims every value, drops blanks and sorts the
// lists so that equivalent filters compare equal.
func (f Filters) Normalize() Filters {
	return Filters{
		HealthConditions: normalizeList(f.HealthConditions),
		Allergies:        normalizeList(f.Allergies),
		Diet:             strings.ToLower(strings.TrimSpace(f.Diet)),
		Query:            strings.TrimSpace(f.Query),
		MaxReadyTime:     f.MaxReadyTime,
	}
}

// CacheKey returns a stable digest of the normalized filters
func (f Filters) CacheKey() string {
	n := f.Normalize()
	n.Query = strings.ToLower(n.Query)
	data, _ := json.Marshal(n)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
