// Package security provides input validation, sanitization and token
// verification for the HTTP layer.
package security

import (
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/healthyplate/server/pkg/errors"
)

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	scriptRegex    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	eventAttrRegex = regexp.MustCompile(`(?i)on[a-z]+\s*=\s*["'][^"']*["']`)
	jsURLRegex     = regexp.MustCompile(`(?i)javascript:\s*[^"'\s>]*`)
	spaceRegex     = regexp.MustCompile(`\s+`)
)

// Validator validates request and domain structs with go-playground/validator
// and reports failures as *AppError values.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the custom rules registered
func NewValidator() *Validator {
	validate := validator.New()

	// Report JSON field names rather than Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("ingredient", validateIngredient)
	_ = validate.RegisterValidation("no_xss", validateNoXSS)

	return &Validator{validate: validate}
}

// Engine exposes the underlying validator so gin binding can share it
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Struct validates s. It returns nil or a VALIDATION_FAILED *AppError.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToAppError(err)
}

// ToAppError converts validator failures into a VALIDATION_FAILED error.
// Other errors are returned unchanged.
func ToAppError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Namespace(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "ingredient":
		return fmt.Sprintf("%s is not a valid ingredient name", field)
	case "no_xss":
		return fmt.Sprintf("%s contains disallowed markup", field)
	default:
		return fmt.Sprintf("%s failed on %s", field, fe.Tag())
	}
}

// SanitizeText strips markup and scripts from free text and collapses
// whitespace. maxLen <= 0 disables truncation.
func SanitizeText(input string, maxLen int) string {
	result := scriptRegex.ReplaceAllString(input, "")
	result = eventAttrRegex.ReplaceAllString(result, "")
	result = jsURLRegex.ReplaceAllString(result, "")
	result = htmlTagRegex.ReplaceAllString(result, "")
	result = html.UnescapeString(result)
	result = strings.TrimSpace(spaceRegex.ReplaceAllString(result, " "))

	if maxLen > 0 {
		if runes := []rune(result); len(runes) > maxLen {
			result = string(runes[:maxLen])
		}
	}
	return result
}

// validateIngredient accepts short names free of markup
func validateIngredient(fl validator.FieldLevel) bool {
	ingredient := strings.TrimSpace(fl.Field().String())
	if len(ingredient) < 1 || len(ingredient) > 200 {
		return false
	}
	return !containsMarkup(ingredient)
}

func validateNoXSS(fl validator.FieldLevel) bool {
	return !containsMarkup(fl.Field().String())
}

func containsMarkup(value string) bool {
	lower := strings.ToLower(value)
	for _, pattern := range []string{
		"<script", "</script>", "javascript:", "vbscript:",
		"onload=", "onerror=", "onclick=", "onmouseover=",
		"<", ">",
	} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
