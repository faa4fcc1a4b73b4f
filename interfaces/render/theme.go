// Package render draws computed map layouts as SVG or PNG images.
package render

import (
	"strings"

	"ideamap/domain/core/valueobjects"
)

type palette struct {
	fill   string
	stroke string
	text   string
}

var palettes = map[valueobjects.NodeKind]palette{
	valueobjects.NodeKindCentral: {fill: "#4f46e5", stroke: "#3730a3", text: "#ffffff"},
	valueobjects.NodeKindProblem: {fill: "#fef3c7", stroke: "#d97706", text: "#78350f"},
	valueobjects.NodeKindIdea:    {fill: "#ecfdf5", stroke: "#059669", text: "#064e3b"},
	valueobjects.NodeKindPhase:   {fill: "#f1f5f9", stroke: "#64748b", text: "#1e293b"},
}

const (
	backgroundColor = "#f8fafc"
	connectorColor  = "#94a3b8"
	highlightColor  = "#e11d48"
	cornerRadius    = 10
	fontSize        = 13
	lineHeight      = 16
)

func paletteFor(kind valueobjects.NodeKind) palette {
	if p, ok := palettes[kind]; ok {
		return p
	}
	return palettes[valueobjects.NodeKindPhase]
}

// wrapText breaks s into lines of at most width runes, never splitting a
// word unless it is longer than a line, and keeps at most maxLines lines.
func wrapText(s string, width, maxLines int) []string {
	if width <= 0 || maxLines <= 0 {
		return nil
	}
	var lines []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, string(current))
			current = current[:0]
		}
	}
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > width {
			flush()
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(current) == 0:
			current = append(current, w...)
		case len(current)+1+len(w) <= width:
			current = append(current, ' ')
			current = append(current, w...)
		default:
			flush()
			current = append(current, w...)
		}
	}
	flush()

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		last := []rune(lines[maxLines-1])
		if len(last) >= width {
			last = last[:width-1]
		}
		lines[maxLines-1] = string(last) + "…"
	}
	return lines
}
