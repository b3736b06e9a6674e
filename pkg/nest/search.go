package nest

import (
	"math"

	"github.com/alexkibler/sticker-nester/pkg/geom"
)

// candidate is one precomputed rotation of a part outline, normalized so
// its bounding-box origin is at (0, 0).
type candidate struct {
	rotation float64 // degrees, normalized to [0, 360)
	poly     geom.Polygon
	width    float64
	height   float64
}

// position is a feasible placement found by the search.
type position struct {
	x, y     float64
	rotation float64
	poly     geom.Polygon // outline translated onto the sheet
}

// orient precomputes the placement candidates for an outline, one per
// allowed rotation angle, in the caller-supplied order. The order matters:
// the search tries candidates in this order at every scan position, which
// keeps results reproducible for identical inputs.
func orient(outline geom.Polygon, rotations []float64) []candidate {
	cands := make([]candidate, 0, len(rotations))
	for _, deg := range rotations {
		p := outline.Oriented(deg)
		bb := p.BoundingBox()
		cands = append(cands, candidate{
			rotation: normalizeDeg(deg),
			poly:     p,
			width:    bb.Width(),
			height:   bb.Height(),
		})
	}
	return cands
}

// normalizeDeg maps an angle to [0, 360).
func normalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// findPlacement scans the sheet for the first feasible position/rotation
// pair. The scan is a deterministic raster from the bottom-left corner in
// row-major order (y outer, x inner), advancing by step; every rotation
// candidate is tried at each position before the scan advances. The first
// position satisfying Fits is accepted - greedy, not globally optimal,
// which keeps the per-part search bounded and is the engine's chief
// source of suboptimality.
// Scan positions are computed as margin + i*step rather than by repeated
// addition, so float error does not accumulate across a long scan.
func findPlacement(g *Grid, cands []candidate, margin, step float64) (position, bool) {
	for iy := 0; ; iy++ {
		y := margin + float64(iy)*step
		if y > g.height-margin+boundsEps {
			break
		}
		for ix := 0; ; ix++ {
			x := margin + float64(ix)*step
			if x > g.width-margin+boundsEps {
				break
			}
			for _, c := range cands {
				if x+c.width+margin > g.width+boundsEps ||
					y+c.height+margin > g.height+boundsEps {
					continue
				}
				placed := c.poly.Translate(x, y)
				if g.Fits(placed, margin) {
					return position{x: x, y: y, rotation: c.rotation, poly: placed}, true
				}
			}
		}
	}
	return position{}, false
}
