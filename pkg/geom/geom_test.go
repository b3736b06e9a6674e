package geom

import (
	"math"
	"testing"

	"github.com/alexkibler/sticker-nester/pkg/errors"
)

// square returns a unit-spaced axis-aligned square of the given side.
func square(side float64) Polygon {
	return Polygon{{0, 0}, {side, 0}, {side, side}, {0, side}}
}

func TestBoundingBox(t *testing.T) {
	p := Polygon{{1, 2}, {5, -1}, {3, 4}}
	bb := p.BoundingBox()

	if bb.MinX != 1 || bb.MinY != -1 || bb.MaxX != 5 || bb.MaxY != 4 {
		t.Errorf("BoundingBox = %+v", bb)
	}
	if bb.Width() != 4 || bb.Height() != 5 {
		t.Errorf("Width/Height = %v/%v, want 4/5", bb.Width(), bb.Height())
	}
}

func TestArea(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		want float64
	}{
		{"unit square", square(1), 1},
		{"3x3 square", square(3), 9},
		{"right triangle", Polygon{{0, 0}, {4, 0}, {0, 3}}, 6},
		{"clockwise winding", Polygon{{0, 0}, {0, 3}, {4, 0}}, 6},
		{"degenerate", Polygon{{0, 0}, {1, 1}}, 0},
	}

	for _, tt := range tests {
		if got := tt.poly.Area(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Area = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRotatePreservesArea(t *testing.T) {
	p := Polygon{{0, 0}, {4, 0}, {4, 2}, {2, 3}, {0, 2}}
	for _, deg := range []float64{0, 45, 90, 180, 270, 33.3} {
		r := p.Rotate(deg)
		if math.Abs(r.Area()-p.Area()) > 1e-9 {
			t.Errorf("rotation by %v changed area: %v -> %v", deg, p.Area(), r.Area())
		}
	}
}

func TestRotate90SwapsExtents(t *testing.T) {
	p := Polygon{{0, 0}, {4, 0}, {4, 2}, {0, 2}}
	bb := p.Oriented(90).BoundingBox()

	if math.Abs(bb.Width()-2) > 1e-9 || math.Abs(bb.Height()-4) > 1e-9 {
		t.Errorf("90 degree bbox = %vx%v, want 2x4", bb.Width(), bb.Height())
	}
}

func TestOrientedNormalizesOrigin(t *testing.T) {
	p := Polygon{{10, 20}, {14, 20}, {14, 22}, {10, 22}}
	for _, deg := range []float64{0, 90, 180, 270} {
		bb := p.Oriented(deg).BoundingBox()
		if math.Abs(bb.MinX) > 1e-9 || math.Abs(bb.MinY) > 1e-9 {
			t.Errorf("Oriented(%v) bbox min = (%v, %v), want origin", deg, bb.MinX, bb.MinY)
		}
	}
}

func TestTranslate(t *testing.T) {
	p := square(2).Translate(3, -1)
	bb := p.BoundingBox()
	if bb.MinX != 3 || bb.MinY != -1 || bb.MaxX != 5 || bb.MaxY != 1 {
		t.Errorf("translated bbox = %+v", bb)
	}
}

func TestContains(t *testing.T) {
	p := square(4)

	inside := []Point{{2, 2}, {0.5, 3.5}, {3.9, 0.1}}
	for _, pt := range inside {
		if !p.Contains(pt) {
			t.Errorf("Contains(%v) = false, want true", pt)
		}
	}

	outside := []Point{{-1, 2}, {5, 2}, {2, 4.5}, {2, -0.1}}
	for _, pt := range outside {
		if p.Contains(pt) {
			t.Errorf("Contains(%v) = true, want false", pt)
		}
	}
}

func TestIntersectsRect(t *testing.T) {
	p := square(4)

	tests := []struct {
		name string
		rect Rect
		want bool
	}{
		{"rect inside polygon", Rect{1, 1, 2, 2}, true},
		{"polygon inside rect", Rect{-1, -1, 5, 5}, true},
		{"partial overlap", Rect{3, 3, 6, 6}, true},
		{"edge touch", Rect{4, 1, 6, 2}, true},
		{"disjoint", Rect{5, 5, 7, 7}, false},
		{"disjoint below", Rect{0, -3, 4, -1}, false},
	}

	for _, tt := range tests {
		if got := p.IntersectsRect(tt.rect); got != tt.want {
			t.Errorf("%s: IntersectsRect = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIntersectsRectConcaveGap(t *testing.T) {
	// U-shaped polygon: a rect sitting fully inside the notch touches nothing.
	u := Polygon{{0, 0}, {6, 0}, {6, 6}, {4, 6}, {4, 2}, {2, 2}, {2, 6}, {0, 6}}
	if u.IntersectsRect(Rect{2.5, 3, 3.5, 5}) {
		t.Error("rect inside the notch should not intersect")
	}
	if !u.IntersectsRect(Rect{2.5, 1, 3.5, 5}) {
		t.Error("rect reaching into the base should intersect")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		poly    Polygon
		wantErr bool
	}{
		{"valid square", square(1), false},
		{"valid triangle", Polygon{{0, 0}, {2, 0}, {1, 2}}, false},
		{"too few points", Polygon{{0, 0}, {1, 1}}, true},
		{"zero area", Polygon{{0, 0}, {1, 1}, {2, 2}}, true},
		{"self-intersecting bowtie", Polygon{{0, 0}, {2, 2}, {2, 0}, {0, 2}}, true},
	}

	for _, tt := range tests {
		err := tt.poly.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidGeometry) {
			t.Errorf("%s: error code = %s, want INVALID_GEOMETRY", tt.name, errors.GetCode(err))
		}
	}
}
