package valueobjects

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	pkgerrors "ideamap/pkg/errors"
)

// NodeKind is the closed set of node kinds in a mind map
type NodeKind string

const (
	NodeKindCentral NodeKind = "central"
	NodeKindProblem NodeKind = "problem"
	NodeKindIdea    NodeKind = "idea"
	NodeKindPhase   NodeKind = "phase"
)

// CentralNodeID is the layout id of the topic node
const CentralNodeID = "central-topic"

const (
	problemIDPrefix = "problem-"
	phaseIDInfix    = "/phase-"
)

// NodeRef identifies one node of a mind map. Only the fields that belong to
// its kind are meaningful: a problem carries its index, an idea its id and a
// phase both its idea id and phase index.
type NodeRef struct {
	kind    NodeKind
	problem int
	idea    IdeaID
	phase   int
}

// CentralRef references the topic node
func CentralRef() NodeRef {
	return NodeRef{kind: NodeKindCentral}
}

// ProblemRef references the problem at index i
func ProblemRef(i int) NodeRef {
	return NodeRef{kind: NodeKindProblem, problem: i}
}

// IdeaRef references an idea by id
func IdeaRef(id IdeaID) NodeRef {
	return NodeRef{kind: NodeKindIdea, idea: id}
}

// PhaseRef references phase j of the task breakdown for an idea
func PhaseRef(id IdeaID, j int) NodeRef {
	return NodeRef{kind: NodeKindPhase, idea: id, phase: j}
}

func (r NodeRef) Kind() NodeKind { return r.kind }

func (r NodeRef) ProblemIndex() int { return r.problem }

func (r NodeRef) IdeaID() IdeaID { return r.idea }

func (r NodeRef) PhaseIndex() int { return r.phase }

func (r NodeRef) IsZero() bool { return r.kind == "" }

func (r NodeRef) Equals(o NodeRef) bool { return r == o }

// NodeID returns the layout node id for the reference
func (r NodeRef) NodeID() string {
	switch r.kind {
	case NodeKindCentral:
		return CentralNodeID
	case NodeKindProblem:
		return problemIDPrefix + strconv.Itoa(r.problem)
	case NodeKindIdea:
		return r.idea.String()
	case NodeKindPhase:
		return r.idea.String() + phaseIDInfix + strconv.Itoa(r.phase)
	default:
		return ""
	}
}

func (r NodeRef) String() string {
	if r.IsZero() {
		return "none"
	}
	return string(r.kind) + ":" + r.NodeID()
}

// ParseNodeRef builds a reference from the kind and node id sent by the
// presentation shell. The id of a central node is ignored. Problem ids may be
// given either as "problem-<i>" or as a bare index.
func ParseNodeRef(kind, id string) (NodeRef, error) {
	id = strings.TrimSpace(id)
	switch NodeKind(strings.ToLower(strings.TrimSpace(kind))) {
	case NodeKindCentral:
		return CentralRef(), nil
	case NodeKindProblem:
		i, err := strconv.Atoi(strings.TrimPrefix(id, problemIDPrefix))
		if err != nil || i < 0 {
			return NodeRef{}, pkgerrors.NewValidationError(fmt.Sprintf("invalid problem node id %q", id))
		}
		return ProblemRef(i), nil
	case NodeKindIdea:
		ideaID, err := NewIdeaIDFromString(id)
		if err != nil {
			return NodeRef{}, pkgerrors.NewValidationError(err.Error()).WithDetail("node_id", id)
		}
		return IdeaRef(ideaID), nil
	case NodeKindPhase:
		idx := strings.LastIndex(id, phaseIDInfix)
		if idx < 0 {
			return NodeRef{}, pkgerrors.NewValidationError(fmt.Sprintf("invalid phase node id %q", id))
		}
		ideaID, err := NewIdeaIDFromString(id[:idx])
		if err != nil {
			return NodeRef{}, pkgerrors.NewValidationError(err.Error()).WithDetail("node_id", id)
		}
		j, err := strconv.Atoi(id[idx+len(phaseIDInfix):])
		if err != nil || j < 0 {
			return NodeRef{}, pkgerrors.NewValidationError(fmt.Sprintf("invalid phase node id %q", id))
		}
		return PhaseRef(ideaID, j), nil
	default:
		return NodeRef{}, pkgerrors.NewValidationError(fmt.Sprintf("unknown node kind %q", kind))
	}
}

// ParseNodeID infers the kind of a layout node id and parses it
func ParseNodeID(id string) (NodeRef, error) {
	switch {
	case id == CentralNodeID:
		return CentralRef(), nil
	case strings.HasPrefix(id, problemIDPrefix):
		return ParseNodeRef(string(NodeKindProblem), id)
	case strings.Contains(id, phaseIDInfix):
		return ParseNodeRef(string(NodeKindPhase), id)
	default:
		return ParseNodeRef(string(NodeKindIdea), id)
	}
}

type nodeRefJSON struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`
}

// MarshalJSON implements json.Marshaler
func (r NodeRef) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(nodeRefJSON{Kind: r.kind, ID: r.NodeID()})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *NodeRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NodeRef{}
		return nil
	}
	var raw nodeRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseNodeRef(string(raw.Kind), raw.ID)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
