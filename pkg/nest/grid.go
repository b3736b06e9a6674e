package nest

import (
	"math"

	"github.com/alexkibler/sticker-nester/pkg/geom"
)

// Grid is the rasterized per-sheet collision structure. It lets placement
// feasibility be tested in near-constant time instead of via exact
// polygon-polygon intersection, at the cost of slightly pessimistic
// density: rasterization is conservative, so a polygon edge crossing a
// cell marks the whole cell occupied.
//
// A Grid is exclusively owned by the sheet it represents and is mutated
// only by the single goroutine executing that packing run. Cells only
// ever transition free -> occupied; the grid is never cleared mid-run.
type Grid struct {
	width  float64 // sheet width in units
	height float64 // sheet height in units
	res    float64 // cells per unit
	cols   int
	rows   int
	cells  []bool
}

// NewGrid creates an occupancy grid for a sheet of the given dimensions
// at res cells per unit length.
func NewGrid(width, height, res float64) *Grid {
	cols := int(math.Ceil(width * res))
	rows := int(math.Ceil(height * res))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &Grid{
		width:  width,
		height: height,
		res:    res,
		cols:   cols,
		rows:   rows,
		cells:  make([]bool, cols*rows),
	}
}

// Fits reports whether the margin-expanded polygon lies fully inside the
// sheet and touches only unoccupied cells. A polygon whose expanded
// bounding box cannot fit the sheet never fits, regardless of position;
// callers must treat that as unplaceable rather than retrying.
func (g *Grid) Fits(poly geom.Polygon, margin float64) bool {
	bb := poly.BoundingBox().Expand(margin)
	if bb.MinX < -boundsEps || bb.MinY < -boundsEps ||
		bb.MaxX > g.width+boundsEps || bb.MaxY > g.height+boundsEps {
		return false
	}

	x0, y0, x1, y1 := g.cellRange(bb)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if !g.cells[cy*g.cols+cx] {
				continue
			}
			if g.covers(poly, margin, cx, cy) {
				return false
			}
		}
	}
	return true
}

// Mark rasterizes the margin-expanded polygon onto the grid, setting
// every intersected cell occupied.
func (g *Grid) Mark(poly geom.Polygon, margin float64) {
	bb := poly.BoundingBox().Expand(margin)
	x0, y0, x1, y1 := g.cellRange(bb)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if g.cells[cy*g.cols+cx] {
				continue
			}
			if g.covers(poly, margin, cx, cy) {
				g.cells[cy*g.cols+cx] = true
			}
		}
	}
}

// Occupied counts occupied cells, mainly for tests and debug logging.
func (g *Grid) Occupied() int {
	n := 0
	for _, c := range g.cells {
		if c {
			n++
		}
	}
	return n
}

// boundsEps absorbs float error at the sheet boundary so that a part
// flush against the edge is not rejected.
const boundsEps = 1e-9

// covers reports whether the polygon, dilated by margin, touches cell
// (cx, cy). The dilation is realized by inflating the cell rectangle by
// the margin before the exact polygon/rect intersection test. A square
// of half-width margin contains the disk of radius margin, so the result
// over-estimates coverage and spacing is never violated. The rect is
// shrunk by boundsEps so a polygon flush against a cell boundary does
// not count as touching it; at spacing zero parts may abut exactly.
func (g *Grid) covers(poly geom.Polygon, margin float64, cx, cy int) bool {
	cell := geom.Rect{
		MinX: float64(cx) / g.res,
		MinY: float64(cy) / g.res,
		MaxX: float64(cx+1) / g.res,
		MaxY: float64(cy+1) / g.res,
	}
	return poly.IntersectsRect(cell.Expand(margin - boundsEps))
}

// cellRange clamps a bounding box to valid cell coordinates.
func (g *Grid) cellRange(bb geom.Rect) (x0, y0, x1, y1 int) {
	x0 = clampCell(int(math.Floor(bb.MinX*g.res)), g.cols)
	y0 = clampCell(int(math.Floor(bb.MinY*g.res)), g.rows)
	x1 = clampCell(int(math.Ceil(bb.MaxX*g.res))-1, g.cols)
	y1 = clampCell(int(math.Ceil(bb.MaxY*g.res))-1, g.rows)
	return x0, y0, x1, y1
}

func clampCell(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
