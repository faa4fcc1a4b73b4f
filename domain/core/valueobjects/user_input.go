package valueobjects

import "strings"

// UserInput is what the user typed into the input form
type UserInput struct {
	Interests    string `json:"interests" validate:"max=2000"`
	Skills       string `json:"skills" validate:"max=2000"`
	MarketTrends string `json:"marketTrends" validate:"max=2000"`
}

// Normalized returns a copy with surrounding whitespace removed
func (u UserInput) Normalized() UserInput {
	return UserInput{
		Interests:    strings.TrimSpace(u.Interests),
		Skills:       strings.TrimSpace(u.Skills),
		MarketTrends: strings.TrimSpace(u.MarketTrends),
	}
}

// IsBlank reports whether every field is empty or whitespace
func (u UserInput) IsBlank() bool {
	n := u.Normalized()
	return n.Interests == "" && n.Skills == "" && n.MarketTrends == ""
}
