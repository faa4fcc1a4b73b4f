package layout

import (
	"fmt"

	"ideamap/domain/core/valueobjects"
	pkgerrors "ideamap/pkg/errors"
)

// SizingRules supplies the intrinsic box size per node kind and the spacing
// constants used by Compute.
type SizingRules struct {
	Boxes map[valueobjects.NodeKind]Size `json:"boxes" yaml:"boxes"`

	// Horizontal gap between sibling subtrees laid out in a row
	SiblingGap float64 `json:"sibling_gap" yaml:"sibling_gap"`
	// Vertical gap between a parent box and its first row of children
	LevelGap float64 `json:"level_gap" yaml:"level_gap"`
	// Vertical gap between subtrees stacked in a column
	StackGap float64 `json:"stack_gap" yaml:"stack_gap"`
	// Margin around the content
	Padding float64 `json:"padding" yaml:"padding"`
}

// DefaultSurface is the minimum drawing surface of the map page
var DefaultSurface = Size{Width: 1200, Height: 800}

// DefaultSizingRules returns the rules matching the map page styling
func DefaultSizingRules() SizingRules {
	return SizingRules{
		Boxes: map[valueobjects.NodeKind]Size{
			valueobjects.NodeKindCentral: {Width: 240, Height: 64},
			valueobjects.NodeKindProblem: {Width: 200, Height: 52},
			valueobjects.NodeKindIdea:    {Width: 240, Height: 96},
			valueobjects.NodeKindPhase:   {Width: 220, Height: 72},
		},
		SiblingGap: 64,
		LevelGap:   96,
		StackGap:   24,
		Padding:    80,
	}
}

// Validate checks that every box is positive and no gap is negative
func (r SizingRules) Validate() error {
	if len(r.Boxes) == 0 {
		return pkgerrors.NewValidationError("sizing rules define no boxes")
	}
	for kind, s := range r.Boxes {
		if s.Width <= 0 || s.Height <= 0 {
			return pkgerrors.NewValidationError(fmt.Sprintf("box for %q must have positive width and height", kind))
		}
	}
	gaps := []struct {
		name  string
		value float64
	}{
		{"sibling_gap", r.SiblingGap},
		{"level_gap", r.LevelGap},
		{"stack_gap", r.StackGap},
		{"padding", r.Padding},
	}
	for _, g := range gaps {
		if g.value < 0 {
			return pkgerrors.NewValidationError(fmt.Sprintf("%s must not be negative", g.name))
		}
	}
	return nil
}

// BoxFor returns the box size for a kind
func (r SizingRules) BoxFor(kind valueobjects.NodeKind) (Size, bool) {
	s, ok := r.Boxes[kind]
	return s, ok
}

// Merge returns r with every box and non-zero gap of o applied on top
func (r SizingRules) Merge(o SizingRules) SizingRules {
	out := SizingRules{
		Boxes:      make(map[valueobjects.NodeKind]Size, len(r.Boxes)),
		SiblingGap: r.SiblingGap,
		LevelGap:   r.LevelGap,
		StackGap:   r.StackGap,
		Padding:    r.Padding,
	}
	for k, v := range r.Boxes {
		out.Boxes[k] = v
	}
	for k, v := range o.Boxes {
		out.Boxes[k] = v
	}
	if o.SiblingGap != 0 {
		out.SiblingGap = o.SiblingGap
	}
	if o.LevelGap != 0 {
		out.LevelGap = o.LevelGap
	}
	if o.StackGap != 0 {
		out.StackGap = o.StackGap
	}
	if o.Padding != 0 {
		out.Padding = o.Padding
	}
	return out
}
