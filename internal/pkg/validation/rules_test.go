package validation

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

func TestStringValidation(t *testing.T) {
	tests := []struct {
		name    string
		rule    *StringValidation
		wantErr bool
	}{
		{"ok", NewStringValidation("content", "hello").WithMaxLength(10), false},
		{"blank required", NewStringValidation("content", "   "), true},
		{"blank optional", NewStringValidation("bio", "").WithRequired(false), false},
		{"too long", NewStringValidation("content", strings.Repeat("a", 11)).WithMaxLength(10), true},
		{"runes not bytes", NewStringValidation("content", "ğğğ").WithMaxLength(3), false},
		{"pattern", NewStringValidation("username", "bad name").WithPattern(CompiledPatterns.Username), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNumericValidation(t *testing.T) {
	assert.NoError(t, NewNumericValidation("score", 5).Between(RatingMin, RatingMax).Validate())
	assert.Error(t, NewNumericValidation("score", 0).Between(RatingMin, RatingMax).Validate())
	assert.Error(t, NewNumericValidation("score", 6).Between(RatingMin, RatingMax).Validate())
}

func TestUsernameTag(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterCustomValidations(v))

	type req struct {
		Username string `validate:"username"`
	}
	assert.NoError(t, v.Struct(req{Username: "ada_99"}))
	assert.Error(t, v.Struct(req{Username: "a"}))
	assert.Error(t, v.Struct(req{Username: "has space"}))
}
