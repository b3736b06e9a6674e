package nest

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/geom"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Job Controller
// =============================================================================

const (
	// DefaultSpacing is the minimum clearance between placed parts and
	// between parts and sheet edges, in sheet units.
	DefaultSpacing = 0.0625

	// DefaultCellsPerUnit is the occupancy-grid resolution. Higher values
	// trade memory and raster time for tighter packing.
	DefaultCellsPerUnit = 10.0

	// DefaultStepSize is the placement-search scan step, independent from
	// the grid resolution. Coarser steps speed up the search at the cost
	// of packing tightness.
	DefaultStepSize = 0.1
)

// DefaultRotations is the default set of allowed placement angles in degrees.
var DefaultRotations = []float64{0, 90, 180, 270}

// Part is one irregular shape to be packed. Parts are immutable once
// submitted; the packer never modifies them.
type Part struct {
	// ID uniquely identifies the part within a request.
	ID string `json:"id"`

	// Outline is the part's polygon in the same units as the sheet
	// dimensions. It is implicitly closed and must be simple.
	Outline geom.Polygon `json:"points"`

	// Width and Height are the axis-aligned extents of the outline,
	// used for fast candidate filtering.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Quantity is the requested number of copies. Zero means one copy in
	// exhaustive mode, and no backfill limit in exact-count mode.
	Quantity int `json:"quantity,omitempty"`
}

// Options contains all configuration for a packing run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Parts []Part `json:"parts"`

	// Sheet geometry
	SheetWidth  float64 `json:"sheetWidth"`
	SheetHeight float64 `json:"sheetHeight"`
	Spacing     float64 `json:"spacing"`

	// Placement search
	Rotations    []float64 `json:"rotations,omitempty"`
	CellsPerUnit float64   `json:"cellsPerInch,omitempty"`
	StepSize     float64   `json:"stepSize,omitempty"`

	// Objective: exhaustive mode creates sheets until everything is
	// placed; otherwise exactly SheetCount sheets are produced and
	// leftover area is backfilled with extra copies.
	PackAllItems bool `json:"packAllItems,omitempty"`
	SheetCount   int  `json:"sheetCount,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Invalid parameters are rejected with an INVALID_CONFIG error before any
// placement work starts. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.SheetWidth <= 0 || o.SheetHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"sheet dimensions must be positive, got %gx%g", o.SheetWidth, o.SheetHeight)
	}
	if o.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "spacing must not be negative, got %g", o.Spacing)
	}
	if o.CellsPerUnit < 0 || o.StepSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"grid resolution and step size must be positive")
	}
	if !o.PackAllItems && o.SheetCount <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"exact-count mode requires a positive sheetCount, got %d", o.SheetCount)
	}
	// nil means "use the default set"; an explicitly empty set is a
	// configuration error because no placement could ever be produced.
	if o.Rotations != nil && len(o.Rotations) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "rotation set must not be empty")
	}
	for _, q := range o.Parts {
		if q.Quantity < 0 {
			return errors.New(errors.ErrCodeInvalidConfig,
				"part %q: quantity must not be negative, got %d", q.ID, q.Quantity)
		}
	}

	if len(o.Rotations) == 0 {
		o.Rotations = append([]float64(nil), DefaultRotations...)
	}
	if o.CellsPerUnit == 0 {
		o.CellsPerUnit = DefaultCellsPerUnit
	}
	if o.StepSize == 0 {
		o.StepSize = DefaultStepSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// Mode returns a short label for the active objective, for logs and stats.
func (o *Options) Mode() string {
	if o.PackAllItems {
		return "exhaustive"
	}
	return "exact-count"
}

// Complexity estimates the work a run implies: part count times sheet
// count times grid resolution. The job controller uses it to decide
// between synchronous and asynchronous execution.
func (o *Options) Complexity() float64 {
	sheets := o.SheetCount
	if o.PackAllItems || sheets <= 0 {
		sheets = 1
	}
	cells := o.CellsPerUnit
	if cells == 0 {
		cells = DefaultCellsPerUnit
	}
	return float64(len(o.Parts)) * float64(sheets) * cells
}
