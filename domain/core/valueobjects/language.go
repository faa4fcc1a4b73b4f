package valueobjects

import (
	"fmt"
	"strings"

	pkgerrors "ideamap/pkg/errors"
)

// Language is the output language requested for generated content
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageVietnamese Language = "vi"
)

// DefaultLanguage is used when no language is given
const DefaultLanguage = LanguageEnglish

// ParseLanguage returns the Language for a code. An empty code yields the default.
func ParseLanguage(code string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case "":
		return DefaultLanguage, nil
	case LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageVietnamese:
		return LanguageVietnamese, nil
	default:
		return "", pkgerrors.NewValidationError(fmt.Sprintf("unsupported language %q", code)).
			WithDetail("supported", []string{string(LanguageEnglish), string(LanguageVietnamese)})
	}
}

// DisplayName is the language name used inside prompts
func (l Language) DisplayName() string {
	switch l {
	case LanguageVietnamese:
		return "Vietnamese"
	default:
		return "English"
	}
}

func (l Language) String() string {
	return string(l)
}
