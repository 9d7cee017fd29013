// Package gorm provides GORM model definitions and repositories
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HealthProfileModel represents the GORM model for health profiles
type HealthProfileModel struct {
	ClientID           string      `gorm:"type:varchar(64);primaryKey"`
	Age                int         `gorm:"not null"`
	Gender             string      `gorm:"type:varchar(32);not null"`
	Height             float64     `gorm:"not null"`
	Weight             float64     `gorm:"not null"`
	ActivityLevel      string      `gorm:"type:varchar(32);not null"`
	HealthConditions   StringSlice `gorm:"type:json"`
	Allergies          StringSlice `gorm:"type:json"`
	DietaryPreferences string      `gorm:"type:varchar(32);not null"`
	OtherDietaryInfo   string      `gorm:"type:text"`
	Medications        string      `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FavoriteModel is one favorite recipe of a client. Position keeps the
// order in which favorites were added.
type FavoriteModel struct {
	ClientID  string `gorm:"type:varchar(64);primaryKey"`
	RecipeID  int64  `gorm:"primaryKey;autoIncrement:false"`
	Position  int    `gorm:"not null"`
	CreatedAt time.Time
}

// GenerationModel represents a recorded recipe generation
type GenerationModel struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID     string    `gorm:"type:varchar(128);not null;index"`
	Prompt     RawJSON   `gorm:"type:json;not null"`
	Result     RawJSON   `gorm:"type:json"`
	AIModel    string    `gorm:"column:ai_model;type:varchar(64);not null"`
	ArchiveURL string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
}

// SavedRecipeModel represents a recipe snapshot saved by a user
type SavedRecipeModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_saved_recipes_user_recipe"`
	RecipeID  int64     `gorm:"not null;uniqueIndex:idx_saved_recipes_user_recipe"`
	Recipe    RawJSON   `gorm:"type:json;not null"`
	CreatedAt time.Time
}

// TableName overrides
func (HealthProfileModel) TableName() string { return "health_profiles" }
func (FavoriteModel) TableName() string      { return "favorites" }
func (GenerationModel) TableName() string    { return "recipe_generations" }
func (SavedRecipeModel) TableName() string   { return "saved_recipes" }

// BeforeCreate hooks
func (m *GenerationModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *SavedRecipeModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Models lists every model managed by AutoMigrate
func Models() []interface{} {
	return []interface{}{
		&HealthProfileModel{},
		&FavoriteModel{},
		&GenerationModel{},
		&SavedRecipeModel{},
	}
}

// StringSlice is a string slice stored as a JSON array
type StringSlice []string

// Value implements driver.Valuer
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	data, err := asBytes(value)
	if err != nil {
		return err
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*s = out
	return nil
}

// RawJSON is an opaque JSON document
type RawJSON []byte

// Value implements driver.Valuer
func (j RawJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner
func (j *RawJSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	data, err := asBytes(value)
	if err != nil {
		return err
	}
	*j = append((*j)[:0], data...)
	return nil
}

func asBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot scan %T into a JSON column", value)
	}
}
