package selection

import (
	"ideamap/application/orchestrator"
	"ideamap/domain/core/entities"
	"ideamap/domain/core/valueobjects"
)

// TaskStatus describes the availability of an idea's task breakdown
type TaskStatus string

const (
	TaskStatusPending     TaskStatus = "pending"
	TaskStatusReady       TaskStatus = "ready"
	TaskStatusUnavailable TaskStatus = "unavailable"
)

// SelectedNode describes the node the user selected. Fields that do not
// apply to the node kind are left empty.
type SelectedNode struct {
	Ref    valueobjects.NodeRef  `json:"ref"`
	Kind   valueobjects.NodeKind `json:"kind"`
	NodeID string                `json:"nodeId"`
	Title  string                `json:"title"`

	Description string `json:"description,omitempty"`
	IdeaCount   int    `json:"ideaCount,omitempty"`

	IdeaID        *valueobjects.IdeaID    `json:"ideaId,omitempty"`
	TaskBreakdown *entities.TaskBreakdown `json:"taskBreakdown"`
	TaskStatus    TaskStatus              `json:"taskStatus,omitempty"`

	Phase *entities.Phase `json:"phase,omitempty"`
}

// Resolver turns node references into descriptors. It only reads the
// snapshot it is given.
type Resolver struct{}

// NewResolver creates a resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve describes the node ref points at, or returns nil when the ref is
// empty or the node does not exist in snap.
func (r *Resolver) Resolve(snap *orchestrator.Snapshot, ref valueobjects.NodeRef) *SelectedNode {
	if snap == nil || snap.Tree == nil || ref.IsZero() {
		return nil
	}

	node := &SelectedNode{
		Ref:    ref,
		Kind:   ref.Kind(),
		NodeID: ref.NodeID(),
	}

	switch ref.Kind() {
	case valueobjects.NodeKindCentral:
		node.Title = snap.Tree.Topic()
		return node

	case valueobjects.NodeKindProblem:
		p, ok := snap.Tree.Problem(ref.ProblemIndex())
		if !ok {
			return nil
		}
		node.Title = p.Title
		node.IdeaCount = len(p.Ideas)
		return node

	case valueobjects.NodeKindIdea:
		idea, ok := snap.Tree.Idea(ref.IdeaID())
		if !ok {
			return nil
		}
		id := idea.ID
		node.Title = idea.Title
		node.Description = idea.Description
		node.IdeaID = &id
		node.TaskBreakdown, node.TaskStatus = taskState(snap, id)
		return node

	case valueobjects.NodeKindPhase:
		b, ok := snap.Breakdown(ref.IdeaID())
		if !ok {
			return nil
		}
		phase, ok := b.Phase(ref.PhaseIndex())
		if !ok {
			return nil
		}
		id := ref.IdeaID()
		node.Title = phase.Name
		node.Description = phase.Duration
		node.IdeaID = &id
		node.Phase = &phase
		return node
	}
	return nil
}

// Current resolves the snapshot's own selection
func (r *Resolver) Current(snap *orchestrator.Snapshot) *SelectedNode {
	if snap == nil {
		return nil
	}
	return r.Resolve(snap, snap.Selected)
}

func taskState(snap *orchestrator.Snapshot, id valueobjects.IdeaID) (*entities.TaskBreakdown, TaskStatus) {
	if b, ok := snap.Breakdown(id); ok {
		return b, TaskStatusReady
	}
	if snap.TaskFailed(id) {
		return nil, TaskStatusUnavailable
	}
	// the tree still on screen may belong to an older epoch whose fan-out
	// was cancelled; its missing breakdowns will never arrive
	if snap.Status == orchestrator.StatusExpanding && snap.Tree.Epoch() == snap.Epoch {
		return nil, TaskStatusPending
	}
	return nil, TaskStatusUnavailable
}
