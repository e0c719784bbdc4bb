package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

// Validation rule patterns
var (
	// Username: letters, digits and underscores
	UsernamePattern = `^[A-Za-z0-9_]{3,30}$`

	// Password min length
	PasswordMinLength = 8

	PostMaxLength    = 5000
	CommentMaxLength = 2000
	MessageMaxLength = 2000

	RatingMin = 1
	RatingMax = 5
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Username *regexp.Regexp
}{
	Username: regexp.MustCompile(UsernamePattern),
}

// RegisterCustomValidations adds the project's tags to v
func RegisterCustomValidations(v *validator.Validate) error {
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.Username.MatchString(fl.Field().String())
	})
}

// String validation
type StringValidation struct {
	Field    string
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(field, value string) *StringValidation {
	return &StringValidation{
		Field:    field,
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate returns a validation error describing the first failed rule, or nil.
// Lengths count runes; surrounding whitespace does not satisfy Required.
func (v *StringValidation) Validate() error {
	trimmed := strings.TrimSpace(v.Value)
	if trimmed == "" {
		if v.Required {
			return apperrors.NewValidationError(v.Field + " is required")
		}
		return nil
	}

	n := utf8.RuneCountInString(v.Value)
	if v.MinLen > 0 && n < v.MinLen {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be at least %d characters", v.Field, v.MinLen))
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters", v.Field, v.MaxLen))
	}
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return apperrors.NewValidationError(v.Field + " has an invalid format")
	}
	return nil
}

// Numeric validation
type NumericValidation struct {
	Field string
	Value int
	Min   int
	Max   int
}

// NewNumericValidation creates a new numeric validation
func NewNumericValidation(field string, value int) *NumericValidation {
	return &NumericValidation{Field: field, Value: value}
}

// Between sets the inclusive range
func (v *NumericValidation) Between(min, max int) *NumericValidation {
	v.Min = min
	v.Max = max
	return v
}

// Validate returns a validation error when the value is outside the range
func (v *NumericValidation) Validate() error {
	if v.Value < v.Min || v.Value > v.Max {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be between %d and %d", v.Field, v.Min, v.Max))
	}
	return nil
}
