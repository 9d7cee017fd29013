// Package catalog holds the fallback recipes served while the upstream
// recipe API is unreachable.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/healthyplate/server/internal/domain/recipe"
	"gopkg.in/yaml.v3"
)

//go:embed recipes.yaml
var recipesYAML []byte

// Catalog is an immutable, ordered set of recipes
type Catalog struct {
	recipes []*recipe.Recipe
	byID    map[int64]*recipe.Recipe
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded fallback catalog. The embedded file is part
// of the binary, so a parse failure is a programming error.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(recipesYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded recipes: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse builds a catalog from a YAML list of recipes
func Parse(data []byte) (*Catalog, error) {
	var recipes []*recipe.Recipe
	if err := yaml.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	return New(recipes)
}

// New builds a catalog from recipes. IDs must be positive and unique.
func New(recipes []*recipe.Recipe) (*Catalog, error) {
	c := &Catalog{
		recipes: make([]*recipe.Recipe, 0, len(recipes)),
		byID:    make(map[int64]*recipe.Recipe, len(recipes)),
	}
	for _, r := range recipes {
		if r == nil {
			continue
		}
		if r.ID <= 0 {
			return nil, fmt.Errorf("recipe %q: %w", r.Title, recipe.ErrInvalidRecipeID)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate recipe id %d", r.ID)
		}
		c.recipes = append(c.recipes, r)
		c.byID[r.ID] = r
	}
	return c, nil
}

// All returns copies of every recipe in catalog order
func (c *Catalog) All() []*recipe.Recipe {
	out := make([]*recipe.Recipe, len(c.recipes))
	for i, r := range c.recipes {
		out[i] = r.Clone()
	}
	return out
}

// Find returns a copy of the recipe with id
func (c *Catalog) Find(id int64) (*recipe.Recipe, bool) {
	r, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Filter returns the recipes matching f
func (c *Catalog) Filter(f recipe.Filters) []*recipe.Recipe {
	return recipe.Filter(c.All(), f)
}

// Len returns the number of recipes
func (c *Catalog) Len() int {
	return len(c.recipes)
}
