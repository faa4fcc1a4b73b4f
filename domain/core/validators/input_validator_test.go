package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ideamap/domain/config"
	"ideamap/domain/core/valueobjects"
	"ideamap/pkg/errors"
)

func TestInputValidator_ValidateUserInput(t *testing.T) {
	v := NewInputValidator(nil)

	tests := []struct {
		name    string
		input   valueobjects.UserInput
		wantErr bool
	}{
		{name: "interests only", input: valueobjects.UserInput{Interests: "baking"}},
		{name: "skills only", input: valueobjects.UserInput{Skills: "accounting"}},
		{name: "all fields", input: valueobjects.UserInput{Interests: "a", Skills: "b", MarketTrends: "c"}},
		{name: "all blank", input: valueobjects.UserInput{}, wantErr: true},
		{name: "whitespace only", input: valueobjects.UserInput{Interests: "   ", MarketTrends: "\n"}, wantErr: true},
		{name: "field too long", input: valueobjects.UserInput{Interests: strings.Repeat("x", 2001)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUserInput(tt.input)
			if tt.wantErr {
				assert.True(t, errors.IsValidation(err), "expected validation error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInputValidator_ConfiguredLimit(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxInputFieldLength = 5
	v := NewInputValidator(cfg)

	err := v.ValidateUserInput(valueobjects.UserInput{Skills: "cooking"})

	appErr := errors.GetAppError(err)
	if assert.NotNil(t, appErr) {
		assert.Equal(t, "skills", appErr.Details["field"])
	}
	assert.NoError(t, v.ValidateUserInput(valueobjects.UserInput{Skills: "cook"}))
}
