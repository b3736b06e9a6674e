package nest

import (
	"time"

	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/geom"
)

// Placement is a committed position, rotation, and sheet assignment for
// one copy of a part. Placements are immutable once recorded.
type Placement struct {
	// PartID identifies the part this placement is a copy of.
	PartID string `json:"id"`

	// X and Y position the reference point (the bounding-box min corner
	// of the rotated outline) on the sheet.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Rotation is the chosen angle in degrees, normalized to [0, 360).
	Rotation float64 `json:"rotation"`

	// SheetIndex is the owning sheet, 0-based.
	SheetIndex int `json:"sheetIndex"`

	// Outline is the transformed polygon in sheet coordinates. It is not
	// part of the wire contract but feeds the SVG/PDF renderers.
	Outline geom.Polygon `json:"-"`
}

// SheetResult is one packed sheet with its placements and utilization.
type SheetResult struct {
	Index       int         `json:"sheetIndex"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Placements  []Placement `json:"placements"`
	Utilization float64     `json:"utilization"` // percent of sheet area covered
}

// Failure records a part that could not be packed, with the reason.
// Failures accompany an otherwise successful result; partial success is a
// normal outcome, not an exception.
type Failure struct {
	PartID string      `json:"id"`
	Code   errors.Code `json:"code"`
	Reason string      `json:"reason"`
}

// Stats contains packing execution statistics.
type Stats struct {
	PartCount   int           // distinct parts submitted
	PlacedCount int           // total copies placed
	SheetCount  int           // sheets in the result
	PackTime    time.Duration // wall-clock packing time
}

// Result is the terminal output of one packing run.
type Result struct {
	// Sheets is ordered by sheet index.
	Sheets []SheetResult `json:"sheets"`

	// TotalUtilization is the sum of all placed areas over the sum of all
	// sheet areas, as a percentage.
	TotalUtilization float64 `json:"totalUtilization"`

	// Quantities maps part ID to the number of copies placed. The count
	// never exceeds the part's requested quantity when one was given.
	Quantities map[string]int `json:"quantities"`

	// Failures lists parts that were rejected or could not be placed.
	Failures []Failure `json:"failures,omitempty"`

	// Stats contains timing and size information.
	Stats Stats `json:"-"`
}

// PlacedArea returns the total true polygon area placed on the sheet,
// not the margin-expanded area.
func (s *SheetResult) PlacedArea() float64 {
	var sum float64
	for _, p := range s.Placements {
		sum += p.Outline.Area()
	}
	return sum
}
