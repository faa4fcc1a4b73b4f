package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"git.sr.ht/~sbinet/gg"

	"ideamap/application/ports"
	"ideamap/domain/layout"
)

// maxPNGPixels bounds the raster size of one image
const maxPNGPixels = 64 << 20

// PNGRenderer rasterises a layout
type PNGRenderer struct {
	scale float64
}

var _ ports.MapRenderer = (*PNGRenderer)(nil)

// NewPNGRenderer creates a renderer drawing at the given scale, 1 if zero
func NewPNGRenderer(scale float64) *PNGRenderer {
	if scale <= 0 {
		scale = 1
	}
	return &PNGRenderer{scale: scale}
}

func (r *PNGRenderer) Format() string      { return "png" }
func (r *PNGRenderer) ContentType() string { return "image/png" }

func (r *PNGRenderer) Render(w io.Writer, result *layout.Result, opts ports.RenderOptions) error {
	if result == nil {
		return fmt.Errorf("nothing to render")
	}
	width := int(math.Ceil(result.Canvas.Width * r.scale))
	height := int(math.Ceil(result.Canvas.Height * r.scale))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("empty canvas %dx%d", width, height)
	}
	if width*height > maxPNGPixels {
		return fmt.Errorf("canvas %dx%d is too large to rasterise", width, height)
	}

	dc := gg.NewContext(width, height)
	dc.Scale(r.scale, r.scale)

	dc.SetColor(hexColor(backgroundColor))
	dc.Clear()

	dc.SetColor(hexColor(connectorColor))
	dc.SetLineWidth(2)
	for _, c := range result.Connectors {
		dc.MoveTo(c.Curve.P0.X, c.Curve.P0.Y)
		dc.CubicTo(c.Curve.P1.X, c.Curve.P1.Y, c.Curve.P2.X, c.Curve.P2.Y, c.Curve.P3.X, c.Curve.P3.Y)
		dc.Stroke()
	}

	for _, n := range result.Nodes {
		box := n.Box()
		p := paletteFor(n.Kind)

		dc.DrawRoundedRectangle(box.X, box.Y, box.Width, box.Height, cornerRadius)
		dc.SetColor(hexColor(p.fill))
		dc.FillPreserve()
		if n.ID == opts.Highlight {
			dc.SetColor(hexColor(highlightColor))
			dc.SetLineWidth(4)
		} else {
			dc.SetColor(hexColor(p.stroke))
			dc.SetLineWidth(1.5)
		}
		dc.Stroke()

		dc.SetColor(hexColor(p.text))
		lines := dc.WordWrap(n.Label, box.Width-16)
		maxLines := int((box.Height - 8) / lineHeight)
		if len(lines) > maxLines {
			lines = lines[:maxLines]
		}
		top := n.Position.Y - float64(len(lines)-1)*lineHeight/2
		for i, line := range lines {
			dc.DrawStringAnchored(line, n.Position.X, top+float64(i)*lineHeight, 0.5, 0.35)
		}
	}

	return dc.EncodePNG(w)
}

// hexColor parses #rrggbb; anything else is black
func hexColor(s string) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return color.Black
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
