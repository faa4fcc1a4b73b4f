package layout

import (
	"ideamap/domain/core/aggregates"
	"ideamap/domain/core/entities"
	"ideamap/domain/core/valueobjects"
)

// Arrangement says how a node places its children
type Arrangement int

const (
	// Row places children left to right beneath the parent
	Row Arrangement = iota
	// Column stacks children top to bottom beneath the parent
	Column
)

// ArrangementFor returns the child arrangement of a node kind. The topic
// spreads its problems in a row; every other kind stacks its children.
func ArrangementFor(kind valueobjects.NodeKind) Arrangement {
	if kind == valueobjects.NodeKindCentral {
		return Row
	}
	return Column
}

// Node is one node of a layout tree
type Node struct {
	ID       string
	Kind     valueobjects.NodeKind
	Label    string
	Detail   string
	Children []*Node
}

// Count returns the number of nodes in the subtree rooted at n
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Options controls how a mind map is turned into a layout tree
type Options struct {
	// ExpandPhases adds the phases of every resolved task breakdown beneath its idea
	ExpandPhases bool
}

// FromMindMap builds the layout tree for a mind map. Breakdowns are only
// used when they belong to an idea of this tree and to the tree's epoch.
func FromMindMap(tree *aggregates.MindMap, breakdowns map[valueobjects.IdeaID]*entities.TaskBreakdown, opts Options) *Node {
	root := &Node{
		ID:    valueobjects.CentralNodeID,
		Kind:  valueobjects.NodeKindCentral,
		Label: tree.Topic(),
	}

	for pi, p := range tree.Problems() {
		pn := &Node{
			ID:    valueobjects.ProblemRef(pi).NodeID(),
			Kind:  valueobjects.NodeKindProblem,
			Label: p.Title,
		}
		for _, idea := range p.Ideas {
			in := &Node{
				ID:     valueobjects.IdeaRef(idea.ID).NodeID(),
				Kind:   valueobjects.NodeKindIdea,
				Label:  idea.Title,
				Detail: idea.Description,
			}
			if opts.ExpandPhases {
				if b, ok := breakdowns[idea.ID]; ok && b != nil &&
					b.CorrelationID().Equals(idea.ID) && b.Epoch() == tree.Epoch() {
					for j, ph := range b.Phases() {
						in.Children = append(in.Children, &Node{
							ID:     valueobjects.PhaseRef(idea.ID, j).NodeID(),
							Kind:   valueobjects.NodeKindPhase,
							Label:  ph.Name,
							Detail: ph.Duration,
						})
					}
				}
			}
			pn.Children = append(pn.Children, in)
		}
		root.Children = append(root.Children, pn)
	}
	return root
}
