package orchestrator

import (
	"time"

	"ideamap/domain/core/aggregates"
	"ideamap/domain/core/entities"
	"ideamap/domain/core/valueobjects"
	"ideamap/domain/layout"
)

// Status is the lifecycle state of a session's current generation
type Status string

const (
	StatusIdle       Status = "idle"
	StatusGenerating Status = "generating"
	StatusExpanding  Status = "expanding"
	StatusReady      Status = "ready"
	StatusPartial    Status = "partial"
	StatusFailed     Status = "failed"

	// StatusSuperseded is only reported by a Generation replaced by a newer one
	StatusSuperseded Status = "superseded"
)

// Snapshot is an immutable view of a session. A new Snapshot is published
// for every change; published snapshots are never modified.
type Snapshot struct {
	Epoch    uint64
	Status   Status
	Language valueobjects.Language
	Input    valueobjects.UserInput

	// Tree is the last successfully generated tree, nil before the first one
	Tree       *aggregates.MindMap
	Breakdowns map[valueobjects.IdeaID]*entities.TaskBreakdown
	Failures   map[valueobjects.IdeaID]string
	// Pending counts task requests of the tree's epoch that have not settled
	Pending int
	// Err is the failure of the last generation attempt, if it failed
	Err error

	Selected  valueobjects.NodeRef
	Surface   layout.Size
	UpdatedAt time.Time
}

func initialSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Status:     StatusIdle,
		Language:   valueobjects.DefaultLanguage,
		Breakdowns: map[valueobjects.IdeaID]*entities.TaskBreakdown{},
		Failures:   map[valueobjects.IdeaID]string{},
		Surface:    layout.DefaultSurface,
		UpdatedAt:  now,
	}
}

// clone returns a shallow copy with private maps, ready to be modified
// before publication.
func (s *Snapshot) clone(now time.Time) *Snapshot {
	next := *s
	next.Breakdowns = make(map[valueobjects.IdeaID]*entities.TaskBreakdown, len(s.Breakdowns))
	for k, v := range s.Breakdowns {
		next.Breakdowns[k] = v
	}
	next.Failures = make(map[valueobjects.IdeaID]string, len(s.Failures))
	for k, v := range s.Failures {
		next.Failures[k] = v
	}
	next.UpdatedAt = now
	return &next
}

// Breakdown returns the accepted task breakdown for an idea. The breakdown is
// re-validated against the current tree: the idea must exist in it and the
// breakdown must be keyed by that idea and belong to the tree's epoch.
func (s *Snapshot) Breakdown(id valueobjects.IdeaID) (*entities.TaskBreakdown, bool) {
	if s.Tree == nil || !s.Tree.HasIdea(id) {
		return nil, false
	}
	b, ok := s.Breakdowns[id]
	if !ok || b == nil {
		return nil, false
	}
	if !b.CorrelationID().Equals(id) || b.Epoch() != s.Tree.Epoch() {
		return nil, false
	}
	return b, true
}

// TaskFailed reports whether the task request for an idea of the current tree failed
func (s *Snapshot) TaskFailed(id valueobjects.IdeaID) bool {
	if s.Tree == nil || !s.Tree.HasIdea(id) {
		return false
	}
	_, failed := s.Failures[id]
	return failed
}

// ValidBreakdowns returns the accepted breakdowns of the current tree in idea order
func (s *Snapshot) ValidBreakdowns() []*entities.TaskBreakdown {
	if s.Tree == nil {
		return nil
	}
	out := make([]*entities.TaskBreakdown, 0, len(s.Breakdowns))
	for _, idea := range s.Tree.Ideas() {
		if b, ok := s.Breakdown(idea.ID); ok {
			out = append(out, b)
		}
	}
	return out
}

// FailedIdeas returns the ideas of the current tree whose task request failed, in idea order
func (s *Snapshot) FailedIdeas() []valueobjects.IdeaID {
	if s.Tree == nil {
		return nil
	}
	var out []valueobjects.IdeaID
	for _, idea := range s.Tree.Ideas() {
		if s.TaskFailed(idea.ID) {
			out = append(out, idea.ID)
		}
	}
	return out
}

// Contains reports whether ref names a node that exists in this snapshot
func (s *Snapshot) Contains(ref valueobjects.NodeRef) bool {
	if s.Tree == nil {
		return false
	}
	switch ref.Kind() {
	case valueobjects.NodeKindCentral:
		return true
	case valueobjects.NodeKindProblem:
		return ref.ProblemIndex() >= 0 && ref.ProblemIndex() < s.Tree.ProblemCount()
	case valueobjects.NodeKindIdea:
		return s.Tree.HasIdea(ref.IdeaID())
	case valueobjects.NodeKindPhase:
		b, ok := s.Breakdown(ref.IdeaID())
		return ok && ref.PhaseIndex() >= 0 && ref.PhaseIndex() < b.PhaseCount()
	default:
		return false
	}
}

// IsSettled reports whether no work is outstanding for the snapshot's epoch
func (s *Snapshot) IsSettled() bool {
	switch s.Status {
	case StatusGenerating, StatusExpanding:
		return false
	default:
		return true
	}
}
