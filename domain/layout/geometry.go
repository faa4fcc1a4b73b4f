package layout

import (
	"strconv"
	"strings"
)

// Point is a 2-D coordinate. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// IsZero reports whether both dimensions are zero
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Rect is an axis-aligned box given by its top-left corner and size
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the center point of the box
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Overlaps reports whether two boxes share any interior area
func (r Rect) Overlaps(o Rect) bool {
	return r.Left() < o.Right() && o.Left() < r.Right() && r.Top() < o.Bottom() && o.Top() < r.Bottom()
}

// rectAround builds the box of the given size centered on c
func rectAround(c Point, s Size) Rect {
	return Rect{X: c.X - s.Width/2, Y: c.Y - s.Height/2, Width: s.Width, Height: s.Height}
}

// Cubic is a cubic Bezier curve from P0 to P3 with control points P1 and P2
type Cubic struct {
	P0 Point `json:"p0"`
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
	P3 Point `json:"p3"`
}

// ConnectorCurve returns the curve between two anchors. Both control points
// sit on the vertical midpoint, one above the start and one above the end, so
// the curve is a straight drop when the anchors are vertically aligned and a
// symmetric S otherwise.
func ConnectorCurve(start, end Point) Cubic {
	midY := (start.Y + end.Y) / 2
	return Cubic{
		P0: start,
		P1: Point{X: start.X, Y: midY},
		P2: Point{X: end.X, Y: midY},
		P3: end,
	}
}

// At evaluates the curve at t in [0, 1]
func (c Cubic) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// SVGPath renders the curve as SVG path data
func (c Cubic) SVGPath() string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, c.P0)
	b.WriteString(" C ")
	writePoint(&b, c.P1)
	b.WriteString(", ")
	writePoint(&b, c.P2)
	b.WriteString(", ")
	writePoint(&b, c.P3)
	return b.String()
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}
