package queries

import (
	"github.com/google/uuid"

	"ideamap/domain/core/aggregates"
	"ideamap/domain/core/entities"
	"ideamap/domain/core/valueobjects"
	"ideamap/domain/layout"
	pkgerrors "ideamap/pkg/errors"
)

// GetSessionQuery returns a summary of a session
type GetSessionQuery struct {
	SessionID string
}

// Validate validates the query
func (q GetSessionQuery) Validate() error { return validateSessionID(q.SessionID) }

// SessionView summarizes the state of a session
type SessionView struct {
	ID             string                 `json:"id"`
	Epoch          uint64                 `json:"epoch"`
	Status         string                 `json:"status"`
	Language       valueobjects.Language  `json:"language"`
	Input          valueobjects.UserInput `json:"input"`
	Topic          string                 `json:"topic,omitempty"`
	TreeEpoch      uint64                 `json:"treeEpoch,omitempty"`
	ProblemCount   int                    `json:"problemCount"`
	IdeaCount      int                    `json:"ideaCount"`
	BreakdownCount int                    `json:"breakdownCount"`
	FailedIdeas    []string               `json:"failedIdeas"`
	Pending        int                    `json:"pending"`
	Error          string                 `json:"error,omitempty"`
	Selected       valueobjects.NodeRef   `json:"selected"`
	Surface        layout.Size            `json:"surface"`
	UpdatedAt      string                 `json:"updatedAt"`
}

// GetTreeQuery returns the current tree
type GetTreeQuery struct {
	SessionID string
}

// Validate validates the query
func (q GetTreeQuery) Validate() error { return validateSessionID(q.SessionID) }

// TreeView is the current tree of a session
type TreeView struct {
	SessionID string              `json:"sessionId"`
	Epoch     uint64              `json:"epoch"`
	Status    string              `json:"status"`
	Tree      *aggregates.MindMap `json:"tree"`
}

// GetTasksQuery returns the task breakdowns accepted for the current tree
type GetTasksQuery struct {
	SessionID string
}

// Validate validates the query
func (q GetTasksQuery) Validate() error { return validateSessionID(q.SessionID) }

// TasksView lists the task breakdowns of the current tree in idea order
type TasksView struct {
	Epoch      uint64                    `json:"epoch"`
	Status     string                    `json:"status"`
	Pending    int                       `json:"pending"`
	Breakdowns []*entities.TaskBreakdown `json:"breakdowns"`
	Failures   []TaskFailure             `json:"failures"`
}

// TaskFailure reports an idea whose task request failed
type TaskFailure struct {
	IdeaID valueobjects.IdeaID `json:"ideaId"`
	Title  string              `json:"title"`
	Reason string              `json:"reason"`
}

// GetLayoutQuery computes the layout of the current tree. A positive Width
// and Height override the session surface for this query only.
type GetLayoutQuery struct {
	SessionID    string
	ExpandPhases bool
	Width        float64
	Height       float64
}

// Validate validates the query
func (q GetLayoutQuery) Validate() error {
	if err := validateSessionID(q.SessionID); err != nil {
		return err
	}
	return validateSurface(q.Width, q.Height)
}

// LayoutView is a computed layout with the selection to highlight
type LayoutView struct {
	Epoch    uint64         `json:"epoch"`
	Status   string         `json:"status"`
	Surface  layout.Size    `json:"surface"`
	Selected string         `json:"selected,omitempty"`
	Layout   *layout.Result `json:"layout"`
}

// GetSelectionQuery resolves the selected node against the latest state
type GetSelectionQuery struct {
	SessionID string
}

// Validate validates the query
func (q GetSelectionQuery) Validate() error { return validateSessionID(q.SessionID) }

// RenderMapQuery draws the current layout
type RenderMapQuery struct {
	SessionID    string
	Format       string
	ExpandPhases bool
	Width        float64
	Height       float64
}

// Validate validates the query
func (q RenderMapQuery) Validate() error {
	if err := validateSessionID(q.SessionID); err != nil {
		return err
	}
	if q.Format == "" {
		return pkgerrors.NewValidationError("format is required")
	}
	return validateSurface(q.Width, q.Height)
}

// RenderedMap is an encoded image of the map
type RenderedMap struct {
	ContentType string
	Body        []byte
	Epoch       uint64
}

func validateSessionID(id string) error {
	if id == "" {
		return pkgerrors.NewValidationError("session ID is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return pkgerrors.NewValidationError("session ID must be a valid UUID")
	}
	return nil
}

func validateSurface(width, height float64) error {
	if width < 0 || height < 0 {
		return pkgerrors.NewValidationError("surface size must not be negative")
	}
	return nil
}
