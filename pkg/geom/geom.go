// Package geom provides the 2D geometry primitives used by the nesting engine.
//
// A part outline is a Polygon: an ordered sequence of points, implicitly
// closed (the last point connects back to the first). All transformations
// return new polygons; the inputs are never mutated.
//
// # Reference point
//
// The engine positions parts by the bounding-box min corner of the
// transformed outline: Oriented rotates a polygon and renormalizes it so
// its bbox origin sits at (0, 0), and a placement offset then translates
// that origin onto the sheet. Spacing and offset computations elsewhere
// rely on this convention.
package geom

import (
	"math"

	"github.com/alexkibler/sticker-nester/pkg/errors"
)

// Point is a 2D coordinate in sheet units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle described by its min and max corners.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Expand returns the rectangle grown outward by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinY: r.MinY - d, MaxX: r.MaxX + d, MaxY: r.MaxY + d}
}

// Contains reports whether the point lies inside or on the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Polygon is a simple closed outline as an ordered point sequence.
type Polygon []Point

// zeroAreaEps is the threshold below which a polygon is considered degenerate.
const zeroAreaEps = 1e-9

// BoundingBox returns the axis-aligned bounding box of the polygon.
// A nil or empty polygon yields the zero Rect.
func (p Polygon) BoundingBox() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	r := Rect{MinX: p[0].X, MinY: p[0].Y, MaxX: p[0].X, MaxY: p[0].Y}
	for _, pt := range p[1:] {
		r.MinX = math.Min(r.MinX, pt.X)
		r.MinY = math.Min(r.MinY, pt.Y)
		r.MaxX = math.Max(r.MaxX, pt.X)
		r.MaxY = math.Max(r.MaxY, pt.Y)
	}
	return r
}

// Area returns the enclosed area computed with the shoelace formula.
// The result is always non-negative regardless of winding order.
func (p Polygon) Area() float64 {
	return math.Abs(p.signedArea())
}

func (p Polygon) signedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum float64
	for i, a := range p {
		b := p[(i+1)%len(p)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// Rotate returns the polygon rotated by deg degrees counter-clockwise
// about the origin.
func (p Polygon) Rotate(deg float64) Polygon {
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{
			X: pt.X*cos - pt.Y*sin,
			Y: pt.X*sin + pt.Y*cos,
		}
	}
	return out
}

// Translate returns the polygon shifted by (dx, dy).
func (p Polygon) Translate(dx, dy float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{X: pt.X + dx, Y: pt.Y + dy}
	}
	return out
}

// Normalize returns the polygon translated so its bounding-box min corner
// sits at the origin.
func (p Polygon) Normalize() Polygon {
	bb := p.BoundingBox()
	return p.Translate(-bb.MinX, -bb.MinY)
}

// Oriented returns the polygon rotated by deg degrees and normalized so
// its bounding-box origin is at (0, 0). This is the canonical placement
// candidate: translating it by a placement offset puts its reference
// point exactly at that offset.
func (p Polygon) Oriented(deg float64) Polygon {
	if deg == 0 {
		return p.Normalize()
	}
	return p.Rotate(deg).Normalize()
}

// Contains reports whether pt lies inside the polygon, using even-odd
// ray crossing. Points exactly on an edge may land on either side; the
// occupancy grid compensates by testing conservatively.
func (p Polygon) Contains(pt Point) bool {
	inside := false
	n := len(p)
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// IntersectsRect reports whether the polygon and the rectangle share any
// area or boundary. The test is exact for simple polygons: it checks
// rectangle corners against the polygon, polygon vertices against the
// rectangle, and edge/edge crossings.
func (p Polygon) IntersectsRect(r Rect) bool {
	if len(p) < 3 {
		return false
	}
	corners := [4]Point{
		{r.MinX, r.MinY}, {r.MaxX, r.MinY},
		{r.MaxX, r.MaxY}, {r.MinX, r.MaxY},
	}
	for _, c := range corners {
		if p.Contains(c) {
			return true
		}
	}
	for _, pt := range p {
		if r.Contains(pt) {
			return true
		}
	}
	n := len(p)
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		for j := 0; j < 4; j++ {
			c, d := corners[j], corners[(j+1)%4]
			if segmentsIntersect(a, b, c, d) {
				return true
			}
		}
	}
	return false
}

// Validate checks that the polygon is usable as a part outline. It
// rejects outlines with fewer than 3 vertices, near-zero area, or
// self-intersecting edges with an INVALID_GEOMETRY error.
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return errors.New(errors.ErrCodeInvalidGeometry, "outline has %d points, need at least 3", len(p))
	}
	if p.Area() < zeroAreaEps {
		return errors.New(errors.ErrCodeInvalidGeometry, "outline encloses no area")
	}
	if p.selfIntersects() {
		return errors.New(errors.ErrCodeInvalidGeometry, "outline is self-intersecting")
	}
	return nil
}

// selfIntersects reports whether any two non-adjacent edges properly cross.
// Adjacent edges share an endpoint and are skipped.
func (p Polygon) selfIntersects() bool {
	n := len(p)
	for i := 0; i < n; i++ {
		a, b := p[i], p[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip the edge itself and its neighbors.
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			c, d := p[j], p[(j+1)%n]
			if properIntersect(a, b, c, d) {
				return true
			}
		}
	}
	return false
}

// cross returns the z component of (b-a) × (c-a).
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// properIntersect reports whether segments ab and cd cross at a single
// interior point. Touching endpoints do not count.
func properIntersect(a, b, c, d Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// segmentsIntersect reports whether segments ab and cd intersect at all,
// including touching endpoints and collinear overlap.
func segmentsIntersect(a, b, c, d Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(c, d, a)) ||
		(d2 == 0 && onSegment(c, d, b)) ||
		(d3 == 0 && onSegment(a, b, c)) ||
		(d4 == 0 && onSegment(a, b, d))
}

// onSegment reports whether p lies on segment ab, assuming collinearity.
func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}
