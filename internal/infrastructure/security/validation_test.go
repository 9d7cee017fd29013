package security

import (
	"testing"

	"github.com/healthyplate/server/internal/domain/profile"
	apperrors "github.com/healthyplate/server/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() profile.HealthProfile {
	return profile.HealthProfile{
		Age:                34,
		Gender:             profile.GenderFemale,
		Height:             168,
		Weight:             61.5,
		ActivityLevel:      profile.ActivityLightlyActive,
		HealthConditions:   []string{"pcos", "thyroid"},
		Allergies:          []string{"gluten"},
		DietaryPreferences: profile.DietPescatarian,
		Medications:        "levothyroxine",
	}
}

func TestValidator_ValidProfile(t *testing.T) {
	v := NewValidator()
	p := validProfile()
	assert.NoError(t, v.Struct(&p))
}

func TestValidator_InvalidProfile(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		mutate func(p *profile.HealthProfile)
		field  string
		tag    string
	}{
		{"missing age", func(p *profile.HealthProfile) { p.Age = 0 }, "HealthProfile.age", "required"},
		{"age too high", func(p *profile.HealthProfile) { p.Age = 130 }, "HealthProfile.age", "max"},
		{"unknown gender", func(p *profile.HealthProfile) { p.Gender = "robot" }, "HealthProfile.gender", "oneof"},
		{"negative weight", func(p *profile.HealthProfile) { p.Weight = -1 }, "HealthProfile.weight", "gt"},
		{"unknown condition", func(p *profile.HealthProfile) { p.HealthConditions = []string{"flu"} }, "HealthProfile.healthConditions[0]", "oneof"},
		{"unknown allergy", func(p *profile.HealthProfile) { p.Allergies = []string{"latex"} }, "HealthProfile.allergies[0]", "oneof"},
		{"script in medications", func(p *profile.HealthProfile) { p.Medications = "<script>alert(1)</script>" }, "HealthProfile.medications", "no_xss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)

			err := v.Struct(&p)
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)

			fields, ok := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors)
			require.True(t, ok)
			require.Len(t, fields, 1)
			assert.Equal(t, tt.field, fields[0].Field)
			assert.Equal(t, tt.tag, fields[0].Tag)
		})
	}
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "take with food", SanitizeText("  take <b>with</b>\n\tfood ", 0))
	assert.Equal(t, "hello", SanitizeText(`<script>steal()</script>hello`, 0))
	assert.Equal(t, "a & b", SanitizeText("a &amp; b", 0))
	assert.Equal(t, "abc", SanitizeText("abcdef", 3))
}
