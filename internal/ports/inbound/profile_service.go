package inbound

import "github.com/healthyplate/server/internal/domain/profile"

// HealthProfileInput is the body of a profile update. Optional selections
// receive the same defaults the form pre-selects.
type HealthProfileInput struct {
	Age                int      `json:"age"`
	Gender             string   `json:"gender"`
	Height             float64  `json:"height"`
	Weight             float64  `json:"weight"`
	ActivityLevel      string   `json:"activityLevel"`
	HealthConditions   []string `json:"healthConditions"`
	Allergies          []string `json:"allergies"`
	DietaryPreferences string   `json:"dietaryPreferences"`
	OtherDietaryInfo   string   `json:"otherDietaryInfo"`
	Medications        string   `json:"medications"`
}

// ToDomain converts the input into a profile entity
func (in *HealthProfileInput) ToDomain() *profile.HealthProfile {
	p := &profile.HealthProfile{
		Age:                in.Age,
		Gender:             in.Gender,
		Height:             in.Height,
		Weight:             in.Weight,
		ActivityLevel:      in.ActivityLevel,
		HealthConditions:   in.HealthConditions,
		Allergies:          in.Allergies,
		DietaryPreferences: in.DietaryPreferences,
		OtherDietaryInfo:   in.OtherDietaryInfo,
		Medications:        in.Medications,
	}
	p.ApplyDefaults()
	return p
}

// HealthProfileDTO is the profile as returned to clients
type HealthProfileDTO struct {
	ClientID string `json:"clientId"`
	profile.HealthProfile
}

// NewHealthProfileDTO builds the response form of a stored profile
func NewHealthProfileDTO(clientID string, p *profile.HealthProfile) *HealthProfileDTO {
	return &HealthProfileDTO{
		ClientID:      clientID,
		HealthProfile: *p,
	}
}
