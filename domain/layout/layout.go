package layout

import (
	"fmt"

	"ideamap/domain/core/valueobjects"
	pkgerrors "ideamap/pkg/errors"
)

// Placement is the computed geometry of one node
type Placement struct {
	ID       string                `json:"id"`
	Kind     valueobjects.NodeKind `json:"kind"`
	Label    string                `json:"label"`
	Detail   string                `json:"detail,omitempty"`
	Depth    int                   `json:"depth"`
	ParentID string                `json:"parent_id,omitempty"`
	// Center of the node box
	Position Point `json:"position"`
	Size     Size  `json:"size"`
	// Area reserved for the node and all of its descendants
	Subtree Rect `json:"subtree"`
}

// Box returns the node box
func (p Placement) Box() Rect { return rectAround(p.Position, p.Size) }

// TopAnchor is where an incoming connector ends
func (p Placement) TopAnchor() Point {
	return Point{X: p.Position.X, Y: p.Position.Y - p.Size.Height/2}
}

// BottomAnchor is where outgoing connectors start
func (p Placement) BottomAnchor() Point {
	return Point{X: p.Position.X, Y: p.Position.Y + p.Size.Height/2}
}

// Connector is a directed curve from a parent to one of its children
type Connector struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Curve Cubic  `json:"curve"`
	Path  string `json:"path"`
}

// Result is the output of one layout pass
type Result struct {
	Nodes      []Placement      `json:"nodes"`
	Positions  map[string]Point `json:"positions"`
	Connectors []Connector      `json:"connectors"`
	// Content extent including padding
	Bounds Rect `json:"bounds"`
	// Drawing surface needed to show the content, at least the requested surface
	Canvas Size `json:"canvas"`

	index map[string]int
}

// Node returns the placement of a node by id
func (r *Result) Node(id string) (Placement, bool) {
	i, ok := r.index[id]
	if !ok {
		return Placement{}, false
	}
	return r.Nodes[i], true
}

type measured struct {
	node     *Node
	box      Size
	width    float64
	height   float64
	children []*measured
}

// Compute lays out the tree for the given surface. It is a pure function:
// a bottom-up pass measures the extent of every subtree, then a top-down
// pass assigns positions and emits one connector per parent/child edge.
func Compute(root *Node, surface Size, rules SizingRules) (*Result, error) {
	if root == nil {
		return nil, pkgerrors.NewValidationError("layout tree is empty")
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, 16)
	m, err := measure(root, rules, seen)
	if err != nil {
		return nil, err
	}

	left := rules.Padding
	if surface.Width > m.width+2*rules.Padding {
		left = (surface.Width - m.width) / 2
	}
	top := rules.Padding

	res := &Result{
		Nodes:      make([]Placement, 0, len(seen)),
		Positions:  make(map[string]Point, len(seen)),
		Connectors: make([]Connector, 0, len(seen)-1),
		index:      make(map[string]int, len(seen)),
	}
	place(res, m, rules, left, top, 0, "")

	res.Bounds = Rect{
		X:      left - rules.Padding,
		Y:      0,
		Width:  m.width + 2*rules.Padding,
		Height: m.height + 2*rules.Padding,
	}
	res.Canvas = Size{
		Width:  maxf(surface.Width, res.Bounds.Right()),
		Height: maxf(surface.Height, res.Bounds.Bottom()),
	}
	return res, nil
}

func measure(n *Node, rules SizingRules, seen map[string]struct{}) (*measured, error) {
	if n.ID == "" {
		return nil, pkgerrors.NewValidationError("layout node has no id")
	}
	if _, dup := seen[n.ID]; dup {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("duplicate layout node id %q", n.ID))
	}
	seen[n.ID] = struct{}{}

	box, ok := rules.BoxFor(n.Kind)
	if !ok {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("no box size for node kind %q", n.Kind))
	}

	m := &measured{node: n, box: box, width: box.Width, height: box.Height}
	if len(n.Children) == 0 {
		return m, nil
	}

	var childrenWidth, childrenHeight float64
	arrangement := ArrangementFor(n.Kind)
	for i, c := range n.Children {
		cm, err := measure(c, rules, seen)
		if err != nil {
			return nil, err
		}
		m.children = append(m.children, cm)

		switch arrangement {
		case Row:
			if i > 0 {
				childrenWidth += rules.SiblingGap
			}
			childrenWidth += cm.width
			childrenHeight = maxf(childrenHeight, cm.height)
		default:
			if i > 0 {
				childrenHeight += rules.StackGap
			}
			childrenHeight += cm.height
			childrenWidth = maxf(childrenWidth, cm.width)
		}
	}

	m.width = maxf(box.Width, childrenWidth)
	m.height = box.Height + rules.LevelGap + childrenHeight
	return m, nil
}

func place(res *Result, m *measured, rules SizingRules, left, top float64, depth int, parentID string) {
	p := Placement{
		ID:       m.node.ID,
		Kind:     m.node.Kind,
		Label:    m.node.Label,
		Detail:   m.node.Detail,
		Depth:    depth,
		ParentID: parentID,
		Position: Point{X: left + m.width/2, Y: top + m.box.Height/2},
		Size:     m.box,
		Subtree:  Rect{X: left, Y: top, Width: m.width, Height: m.height},
	}
	res.index[p.ID] = len(res.Nodes)
	res.Nodes = append(res.Nodes, p)
	res.Positions[p.ID] = p.Position

	if len(m.children) == 0 {
		return
	}

	// Connectors of one parent are emitted together, in child order.
	type origin struct{ left, top float64 }
	origins := make([]origin, len(m.children))
	childTop := top + m.box.Height + rules.LevelGap

	switch ArrangementFor(m.node.Kind) {
	case Row:
		var childrenWidth float64
		for i, c := range m.children {
			if i > 0 {
				childrenWidth += rules.SiblingGap
			}
			childrenWidth += c.width
		}
		x := left + (m.width-childrenWidth)/2
		for i, c := range m.children {
			origins[i] = origin{left: x, top: childTop}
			x += c.width + rules.SiblingGap
		}
	default:
		y := childTop
		for i, c := range m.children {
			origins[i] = origin{left: left + (m.width-c.width)/2, top: y}
			y += c.height + rules.StackGap
		}
	}

	start := p.BottomAnchor()
	for i, c := range m.children {
		end := Point{X: origins[i].left + c.width/2, Y: origins[i].top}
		curve := ConnectorCurve(start, end)
		res.Connectors = append(res.Connectors, Connector{
			From:  p.ID,
			To:    c.node.ID,
			Curve: curve,
			Path:  curve.SVGPath(),
		})
	}

	for i, c := range m.children {
		place(res, c, rules, origins[i].left, origins[i].top, depth+1, p.ID)
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
