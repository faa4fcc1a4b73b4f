package commands

import (
	"strings"

	"github.com/google/uuid"

	"ideamap/domain/core/valueobjects"
	pkgerrors "ideamap/pkg/errors"
)

// CreateSessionCommand opens a new session under a caller-chosen id
type CreateSessionCommand struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd CreateSessionCommand) Validate() error {
	return validateSessionID(cmd.SessionID)
}

// SubmitGenerationCommand starts a new generation for the session. When
// Wait is set the handler returns only after every task request settled.
type SubmitGenerationCommand struct {
	SessionID    string `json:"session_id" validate:"required"`
	Interests    string `json:"interests"`
	Skills       string `json:"skills"`
	MarketTrends string `json:"market_trends"`
	Language     string `json:"language"`
	Wait         bool   `json:"wait"`
}

// Validate validates the command. Input content is checked by the
// orchestrator so that it is rejected the same way for every caller.
func (cmd SubmitGenerationCommand) Validate() error {
	if err := validateSessionID(cmd.SessionID); err != nil {
		return err
	}
	if cmd.Language != "" {
		if _, err := valueobjects.ParseLanguage(cmd.Language); err != nil {
			return err
		}
	}
	return nil
}

// UserInput returns the submitted form fields
func (cmd SubmitGenerationCommand) UserInput() valueobjects.UserInput {
	return valueobjects.UserInput{
		Interests:    cmd.Interests,
		Skills:       cmd.Skills,
		MarketTrends: cmd.MarketTrends,
	}
}

// SelectNodeCommand selects a node by kind and layout id
type SelectNodeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=central problem idea phase"`
	NodeID    string `json:"node_id"`
}

// Validate validates the command
func (cmd SelectNodeCommand) Validate() error {
	if err := validateSessionID(cmd.SessionID); err != nil {
		return err
	}
	_, err := cmd.Ref()
	return err
}

// Ref parses the node reference
func (cmd SelectNodeCommand) Ref() (valueobjects.NodeRef, error) {
	return valueobjects.ParseNodeRef(cmd.Kind, cmd.NodeID)
}

// DeselectNodeCommand clears the selection
type DeselectNodeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the command
func (cmd DeselectNodeCommand) Validate() error {
	return validateSessionID(cmd.SessionID)
}

// ResizeSurfaceCommand records a new drawing surface size. Zero restores
// the default surface.
type ResizeSurfaceCommand struct {
	SessionID string  `json:"session_id" validate:"required"`
	Width     float64 `json:"width" validate:"gte=0"`
	Height    float64 `json:"height" validate:"gte=0"`
}

// Validate validates the command
func (cmd ResizeSurfaceCommand) Validate() error {
	if err := validateSessionID(cmd.SessionID); err != nil {
		return err
	}
	if cmd.Width < 0 || cmd.Height < 0 {
		return pkgerrors.NewValidationError("surface size must not be negative")
	}
	if cmd.Width > MaxSurfaceDimension || cmd.Height > MaxSurfaceDimension {
		return pkgerrors.NewValidationError("surface size is too large")
	}
	return nil
}

// SetLanguageCommand changes the language of the next generation
type SetLanguageCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	Language  string `json:"language" validate:"required"`
}

// Validate validates the command
func (cmd SetLanguageCommand) Validate() error {
	if err := validateSessionID(cmd.SessionID); err != nil {
		return err
	}
	if strings.TrimSpace(cmd.Language) == "" {
		return pkgerrors.NewValidationError("language is required")
	}
	_, err := valueobjects.ParseLanguage(cmd.Language)
	return err
}

// DeleteSessionCommand closes a session and cancels its outstanding work
type DeleteSessionCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Validate validates the command
func (cmd DeleteSessionCommand) Validate() error {
	return validateSessionID(cmd.SessionID)
}

const MaxSurfaceDimension = 100000

func validateSessionID(id string) error {
	if id == "" {
		return pkgerrors.NewValidationError("session ID is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return pkgerrors.NewValidationError("session ID must be a valid UUID")
	}
	return nil
}
