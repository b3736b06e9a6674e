// Package sheet renders packed sheet layouts as SVG previews and PDF
// cut documents.
package sheet

import (
	"bytes"
	"fmt"

	"github.com/alexkibler/sticker-nester/pkg/nest"
)

// color is an RGB fill for a placed part.
type color struct {
	R, G, B int
}

// palette cycles per part ID so every copy of a part shares a color.
var palette = []color{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

const sheetGap = 0.5 // vertical gap between stacked sheets, in sheet units

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	scale      float64 // output pixels per sheet unit
	showLabels bool
}

// WithScale sets the output resolution in pixels per sheet unit.
func WithScale(s float64) SVGOption { return func(r *svgRenderer) { r.scale = s } }

// WithLabels draws the part ID at each placement's centroid.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.showLabels = true } }

// RenderSVG renders every sheet of the result into one SVG document,
// sheets stacked vertically. Coordinates are flipped so the packing
// origin (bottom-left) appears at the bottom of each drawn sheet.
func RenderSVG(result *nest.Result, opts ...SVGOption) []byte {
	r := svgRenderer{scale: 40}
	for _, opt := range opts {
		opt(&r)
	}

	var width, height float64
	for _, s := range result.Sheets {
		if s.Width > width {
			width = s.Width
		}
		height += s.Height + sheetGap
	}
	if height > 0 {
		height -= sheetGap
	}

	colors := assignColors(result)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`+"\n",
		width, height, width*r.scale, height*r.scale)

	var top float64
	for _, s := range result.Sheets {
		renderSheet(&buf, &r, s, top, colors)
		top += s.Height + sheetGap
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func assignColors(result *nest.Result) map[string]color {
	colors := make(map[string]color)
	next := 0
	for _, s := range result.Sheets {
		for _, p := range s.Placements {
			if _, ok := colors[p.PartID]; !ok {
				colors[p.PartID] = palette[next%len(palette)]
				next++
			}
		}
	}
	return colors
}

func renderSheet(buf *bytes.Buffer, r *svgRenderer, s nest.SheetResult, top float64, colors map[string]color) {
	fmt.Fprintf(buf, `  <g id="sheet-%d">`+"\n", s.Index)
	fmt.Fprintf(buf, `    <rect x="0" y="%.2f" width="%.2f" height="%.2f" fill="#fafafa" stroke="#666" stroke-width="0.04"/>`+"\n",
		top, s.Width, s.Height)

	for _, p := range s.Placements {
		c := colors[p.PartID]
		fmt.Fprintf(buf, `    <polygon points="%s" fill="rgb(%d,%d,%d)" fill-opacity="0.8" stroke="#1e1e1e" stroke-width="0.03"/>`+"\n",
			polygonPoints(p, s.Height, top), c.R, c.G, c.B)
		if r.showLabels {
			cx, cy := placementCenter(p, s.Height, top)
			fmt.Fprintf(buf, `    <text x="%.2f" y="%.2f" font-size="0.3" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
				cx, cy, p.PartID)
		}
	}
	buf.WriteString("  </g>\n")
}

// polygonPoints serializes the outline in SVG coordinates: y grows
// downward, so sheet y is mirrored within the sheet's band.
func polygonPoints(p nest.Placement, sheetHeight, top float64) string {
	var b bytes.Buffer
	for i, pt := range p.Outline {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.3f,%.3f", pt.X, top+sheetHeight-pt.Y)
	}
	return b.String()
}

func placementCenter(p nest.Placement, sheetHeight, top float64) (float64, float64) {
	bb := p.Outline.BoundingBox()
	cx := (bb.MinX + bb.MaxX) / 2
	cy := (bb.MinY + bb.MaxY) / 2
	return cx, top + sheetHeight - cy
}
