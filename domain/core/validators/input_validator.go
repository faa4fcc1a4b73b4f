package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"ideamap/domain/config"
	"ideamap/domain/core/valueobjects"
	"ideamap/pkg/errors"
)

// InputValidator validates user input before any model call is made
type InputValidator struct {
	validate       *validator.Validate
	maxFieldLength int
}

// NewInputValidator creates a validator using the given domain rules
func NewInputValidator(cfg *config.DomainConfig) *InputValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &InputValidator{
		validate:       validator.New(),
		maxFieldLength: cfg.MaxInputFieldLength,
	}
}

// ValidateUserInput rejects input where every field is blank or a field is too long
func (v *InputValidator) ValidateUserInput(input valueobjects.UserInput) error {
	if input.IsBlank() {
		return errors.NewValidationError("at least one of interests, skills or market trends is required").
			WithCode("EMPTY_INPUT")
	}

	if err := v.validate.Struct(input); err != nil {
		return v.toValidationError(err)
	}

	fields := []struct{ name, value string }{
		{"interests", input.Interests},
		{"skills", input.Skills},
		{"marketTrends", input.MarketTrends},
	}
	for _, f := range fields {
		if v.maxFieldLength > 0 && utf8.RuneCountInString(f.value) > v.maxFieldLength {
			return errors.NewValidationError(fmt.Sprintf("%s exceeds maximum length of %d characters", f.name, v.maxFieldLength)).
				WithDetail("field", f.name)
		}
	}
	return nil
}

func (v *InputValidator) toValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fe.Field())
		switch fe.Tag() {
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return errors.NewValidationError(strings.Join(messages, "; ")).WithDetail("fields", fields)
}
