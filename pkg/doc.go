// Package pkg provides the core libraries for the nester polygon packer.
//
// # Overview
//
// Nester places irregular 2D outlines onto fixed-size sheets while keeping
// a minimum clearance between parts. The pkg directory is organized into
// five areas:
//
//  1. [geom] - Polygon primitives (area, rotation, containment, validation)
//  2. [nest] - The packing engine (occupancy grid, placement search, packer)
//  3. [job] - Asynchronous job lifecycle with memory and Redis stores
//  4. [render/sheet] - SVG and PDF layout rendering
//  5. [errors] / [observability] - Structured errors and instrumentation hooks
//
// # Architecture
//
// The typical data flow:
//
//	Request (parts + sheet geometry)
//	         ↓
//	    [nest] package (validate, rasterize, place)
//	         ↓
//	    [job] package (sync or background execution)
//	         ↓
//	    [render/sheet] package (SVG/PDF output)
//
// # Quick Start
//
// Pack three copies of a part and render the layout:
//
//	opts := nest.Options{
//	    Parts: []nest.Part{
//	        {ID: "star", Outline: outline, Quantity: 3},
//	    },
//	    SheetWidth:   12,
//	    SheetHeight:  12,
//	    PackAllItems: true,
//	}
//	result, err := nest.Pack(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	svg := sheet.RenderSVG(result, sheet.WithLabels())
//
// # Main Packages
//
// [geom] - Polygon math shared by the engine and renderers. Polygons are
// implicitly closed vertex lists; validation rejects self-intersecting and
// degenerate outlines.
//
// [nest] - The packing engine. A conservative occupancy grid tracks claimed
// sheet area, a raster scan finds the first feasible position per rotation,
// and the packer runs either exhaustive mode (open sheets until everything
// is placed) or exact-count mode (fixed sheets plus backfill).
//
// [job] - Submission, polling, and cancellation of packing runs. Small
// requests run inline; large ones run in background goroutines with results
// kept in a pluggable store (memory for development, Redis for production).
//
// [render/sheet] - Renders a packing result as a stacked-sheet SVG document
// or a multi-page PDF with a summary table.
//
// [geom]: https://pkg.go.dev/github.com/alexkibler/sticker-nester/pkg/geom
// [nest]: https://pkg.go.dev/github.com/alexkibler/sticker-nester/pkg/nest
// [job]: https://pkg.go.dev/github.com/alexkibler/sticker-nester/pkg/job
// [render/sheet]: https://pkg.go.dev/github.com/alexkibler/sticker-nester/pkg/render/sheet
// [errors]: https://pkg.go.dev/github.com/alexkibler/sticker-nester/pkg/errors
// [observability]: https://pkg.go.dev/github.com/alexkibler/sticker-nester/pkg/observability
package pkg
