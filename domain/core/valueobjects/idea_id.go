package valueobjects

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// IdeaID identifies one idea within a generation session. It is the
// correlation key between the tree and the task breakdowns generated for it.
type IdeaID struct {
	value string
}

// NewIdeaID creates a new random IdeaID
func NewIdeaID() IdeaID {
	return IdeaID{value: uuid.New().String()}
}

// NewIdeaIDFromString parses an IdeaID from its string form
func NewIdeaIDFromString(id string) (IdeaID, error) {
	if id == "" {
		return IdeaID{}, errors.New("idea ID cannot be empty")
	}
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || strings.TrimSpace(id) != id {
		return IdeaID{}, errors.New("idea ID must be a valid UUID")
	}
	return IdeaID{value: parsed.String()}, nil
}

// String returns the string representation of the IdeaID
func (id IdeaID) String() string {
	return id.value
}

// Equals checks if two IdeaIDs are equal
func (id IdeaID) Equals(other IdeaID) bool {
	return id.value == other.value
}

// IsZero checks if the IdeaID is the zero value
func (id IdeaID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler so IdeaID works as a JSON map key.
func (id IdeaID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *IdeaID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*id = IdeaID{}
		return nil
	}
	parsed, err := NewIdeaIDFromString(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
