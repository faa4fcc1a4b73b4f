package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"ideamap/application/ports"
	"ideamap/domain/layout"
)

// SVGRenderer draws a layout as an SVG document
type SVGRenderer struct{}

var _ ports.MapRenderer = SVGRenderer{}

func NewSVGRenderer() SVGRenderer { return SVGRenderer{} }

func (SVGRenderer) Format() string      { return "svg" }
func (SVGRenderer) ContentType() string { return "image/svg+xml" }

// Render writes the connectors first and the node boxes on top of them
func (SVGRenderer) Render(w io.Writer, result *layout.Result, opts ports.RenderOptions) error {
	if result == nil {
		return fmt.Errorf("nothing to render")
	}
	width := int(math.Ceil(result.Canvas.Width))
	height := int(math.Ceil(result.Canvas.Height))

	canvas := svg.New(w)
	canvas.Start(width, height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Rect(0, 0, width, height, "fill:"+backgroundColor)

	canvas.Gid("connectors")
	for _, c := range result.Connectors {
		canvas.Path(c.Curve.SVGPath(), fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", connectorColor))
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range result.Nodes {
		box := n.Box()
		p := paletteFor(n.Kind)
		stroke, strokeWidth := p.stroke, 1.5
		if n.ID == opts.Highlight {
			stroke, strokeWidth = highlightColor, 4
		}

		canvas.Group(fmt.Sprintf(`id="%s"`, svgID(n.ID)), fmt.Sprintf(`data-kind="%s"`, n.Kind))
		canvas.Roundrect(
			int(math.Round(box.X)), int(math.Round(box.Y)),
			int(math.Round(box.Width)), int(math.Round(box.Height)),
			cornerRadius, cornerRadius,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.1f", p.fill, stroke, strokeWidth),
		)

		maxChars := int(box.Width / (fontSize * 0.6))
		maxLines := int((box.Height - 8) / lineHeight)
		lines := wrapText(n.Label, maxChars, maxLines)
		top := n.Position.Y - float64(len(lines)-1)*lineHeight/2 + fontSize/3
		for i, line := range lines {
			canvas.Text(
				int(math.Round(n.Position.X)), int(math.Round(top+float64(i)*lineHeight)),
				line,
				fmt.Sprintf("text-anchor:middle;font-family:sans-serif;font-size:%dpx;fill:%s", fontSize, p.text),
			)
		}
		canvas.Gend()
	}
	canvas.Gend()

	canvas.End()
	return nil
}

// svgID turns a layout id into a valid XML id
func svgID(id string) string {
	out := make([]rune, 0, len(id)+2)
	out = append(out, 'n', '-')
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
