// Package nest implements the polygon nesting engine: given irregular 2D
// part outlines and fixed-size rectangular sheets, it computes placements
// (position, rotation, sheet assignment) that maximize material
// utilization while enforcing a minimum clearance between parts and
// between parts and sheet edges.
//
// The engine is a bounded-time heuristic, not an optimal solver: parts
// are placed largest-area-first by a greedy first-fit raster scan over a
// conservative occupancy grid. Results are deterministic for identical
// inputs.
//
// # Usage
//
//	opts := nest.Options{
//	    Parts:       parts,
//	    SheetWidth:  12,
//	    SheetHeight: 12,
//	    Spacing:     0.0625,
//	    PackAllItems: true,
//	}
//	result, err := nest.Pack(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	for _, sheet := range result.Sheets {
//	    fmt.Printf("sheet %d: %.1f%%\n", sheet.Index, sheet.Utilization)
//	}
package nest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/observability"
)

// workItem pairs a part with its precomputed rotation candidates.
type workItem struct {
	part   Part
	cands  []candidate
	area   float64
	placed int  // copies placed so far
	stuck  bool // no further copy can fit; permanent because grids only fill
}

// sheet is the mutable packing state for one output sheet.
type sheet struct {
	index      int
	grid       *Grid
	placements []Placement
	usedArea   float64
}

// packer holds the state of one packing run. A packer is used by exactly
// one goroutine; independent runs share nothing.
type packer struct {
	opts     Options
	sheets   []*sheet
	items    []*workItem
	failures []Failure
}

// Pack runs one complete packing job and returns its result.
//
// Configuration errors abort the run before any sheet exists. Per-part
// errors (degenerate outlines, unplaceable parts) are accumulated into
// Result.Failures while the remaining parts are still packed.
// Cancellation is observed at part and sheet boundaries; a cancelled or
// timed-out run returns an error and no partial result.
func Pack(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Packer().OnPackStart(ctx, len(opts.Parts), opts.Mode())

	p := &packer{opts: opts}
	p.prepare(ctx)

	var err error
	if opts.PackAllItems {
		err = p.packExhaustive(ctx)
	} else {
		err = p.packExactCount(ctx)
	}
	if err != nil {
		observability.Packer().OnPackComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}

	result := p.result(time.Since(start))
	observability.Packer().OnPackComplete(ctx, result.Stats.PlacedCount, len(result.Failures), result.Stats.PackTime, nil)

	opts.Logger.Info("packing complete",
		"mode", opts.Mode(),
		"sheets", result.Stats.SheetCount,
		"placed", result.Stats.PlacedCount,
		"failures", len(result.Failures),
		"utilization", fmt.Sprintf("%.1f%%", result.TotalUtilization),
		"duration", result.Stats.PackTime.Round(time.Millisecond))

	return result, nil
}

// prepare validates outlines, precomputes rotation candidates, and sorts
// parts largest-area-first with ties broken by part ID for determinism.
// Parts that can never fit the sheet are rejected up front so the packer
// does not open sheets for them.
func (p *packer) prepare(ctx context.Context) {
	for _, part := range p.opts.Parts {
		if err := part.Outline.Validate(); err != nil {
			p.opts.Logger.Warn("rejected part", "part", part.ID, "err", errors.UserMessage(err))
			p.failures = append(p.failures, Failure{
				PartID: part.ID,
				Code:   errors.ErrCodeInvalidGeometry,
				Reason: errors.UserMessage(err),
			})
			continue
		}

		item := &workItem{
			part:  part,
			cands: orient(part.Outline, p.opts.Rotations),
			area:  part.Outline.Area(),
		}
		if !p.anyCandidateFitsSheet(item) {
			p.failures = append(p.failures, Failure{
				PartID: part.ID,
				Code:   errors.ErrCodePlacementFailed,
				Reason: fmt.Sprintf("part exceeds sheet dimensions %gx%g at every allowed rotation",
					p.opts.SheetWidth, p.opts.SheetHeight),
			})
			continue
		}
		p.items = append(p.items, item)
	}

	sort.Slice(p.items, func(i, j int) bool {
		if p.items[i].area != p.items[j].area {
			return p.items[i].area > p.items[j].area
		}
		return p.items[i].part.ID < p.items[j].part.ID
	})
}

// anyCandidateFitsSheet reports whether at least one rotation of the part,
// with spacing margin on both sides, fits inside the sheet rectangle.
func (p *packer) anyCandidateFitsSheet(item *workItem) bool {
	for _, c := range item.cands {
		if c.width+2*p.opts.Spacing <= p.opts.SheetWidth+boundsEps &&
			c.height+2*p.opts.Spacing <= p.opts.SheetHeight+boundsEps {
			return true
		}
	}
	return false
}

// packExhaustive opens as many sheets as needed until every requested
// part/quantity has been placed. No sheet-count cap applies.
func (p *packer) packExhaustive(ctx context.Context) error {
	for _, item := range p.items {
		if err := checkCtx(ctx); err != nil {
			return err
		}

		copies := item.part.Quantity
		if copies == 0 {
			copies = 1
		}
		for c := 0; c < copies; c++ {
			if p.placeFirstFit(ctx, item) {
				continue
			}
			// A brand-new empty sheet is the last resort; failure there
			// makes the part permanently unplaceable. If the last sheet is
			// still empty the first-fit pass already proved that, so no
			// second empty sheet is opened.
			if n := len(p.sheets); n == 0 || len(p.sheets[n-1].placements) > 0 {
				if s := p.openSheet(ctx); p.placeOn(ctx, s, item) {
					continue
				}
			}
			p.failures = append(p.failures, Failure{
				PartID: item.part.ID,
				Code:   errors.ErrCodePlacementFailed,
				Reason: fmt.Sprintf("no feasible placement on an empty sheet (%d of %d copies placed)", item.placed, copies),
			})
			break
		}
	}

	// The last sheet can end up empty when the final part only failed
	// there; an empty trailing sheet carries no placements and is dropped.
	if n := len(p.sheets); n > 0 && len(p.sheets[n-1].placements) == 0 {
		p.sheets = p.sheets[:n-1]
	}
	return nil
}

// packExactCount fills exactly opts.SheetCount sheets. Pass one places a
// single copy of every part; pass two backfills leftover area with extra
// copies, smallest parts preferred, bounded by each part's quantity (or
// unbounded when none was requested).
func (p *packer) packExactCount(ctx context.Context) error {
	for i := 0; i < p.opts.SheetCount; i++ {
		p.openSheet(ctx)
	}

	for _, item := range p.items {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		if !p.placeFirstFit(ctx, item) {
			item.stuck = true
			p.failures = append(p.failures, Failure{
				PartID: item.part.ID,
				Code:   errors.ErrCodePlacementFailed,
				Reason: fmt.Sprintf("no feasible placement within the %d-sheet budget", p.opts.SheetCount),
			})
		}
	}

	return p.backfill(ctx)
}

// backfill places additional copies round-robin over the parts ordered
// smallest-area-first, one copy per part per cycle, until a full cycle
// places nothing. Because grids only ever fill, a part that fails once
// can never fit again and is skipped from then on.
func (p *packer) backfill(ctx context.Context) error {
	order := make([]*workItem, len(p.items))
	copy(order, p.items)
	sort.Slice(order, func(i, j int) bool {
		if order[i].area != order[j].area {
			return order[i].area < order[j].area
		}
		return order[i].part.ID < order[j].part.ID
	})

	for {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		progress := false
		for _, item := range order {
			if item.stuck || item.placed == 0 {
				continue
			}
			if item.part.Quantity > 0 && item.placed >= item.part.Quantity {
				continue
			}
			if p.placeFirstFit(ctx, item) {
				progress = true
			} else {
				item.stuck = true
			}
		}
		if !progress {
			return nil
		}
	}
}

// placeFirstFit tries every existing sheet in index order and commits the
// first feasible placement.
func (p *packer) placeFirstFit(ctx context.Context, item *workItem) bool {
	for _, s := range p.sheets {
		if p.placeOn(ctx, s, item) {
			return true
		}
	}
	return false
}

// placeOn searches one sheet and, on success, commits the placement and
// rasterizes it onto the sheet's grid.
func (p *packer) placeOn(ctx context.Context, s *sheet, item *workItem) bool {
	pos, ok := findPlacement(s.grid, item.cands, p.opts.Spacing, p.opts.StepSize)
	if !ok {
		return false
	}

	s.grid.Mark(pos.poly, p.opts.Spacing)
	s.placements = append(s.placements, Placement{
		PartID:     item.part.ID,
		X:          pos.x,
		Y:          pos.y,
		Rotation:   pos.rotation,
		SheetIndex: s.index,
		Outline:    pos.poly,
	})
	s.usedArea += item.area
	item.placed++

	observability.Packer().OnPlacement(ctx, item.part.ID, s.index, pos.rotation)
	p.opts.Logger.Debug("placed part",
		"part", item.part.ID, "sheet", s.index,
		"x", pos.x, "y", pos.y, "rotation", pos.rotation)
	return true
}

func (p *packer) openSheet(ctx context.Context) *sheet {
	s := &sheet{
		index: len(p.sheets),
		grid:  NewGrid(p.opts.SheetWidth, p.opts.SheetHeight, p.opts.CellsPerUnit),
	}
	p.sheets = append(p.sheets, s)
	observability.Packer().OnSheetOpened(ctx, s.index)
	p.opts.Logger.Debug("opened sheet", "index", s.index)
	return s
}

// result assembles the immutable Result from the packing state.
func (p *packer) result(elapsed time.Duration) *Result {
	sheetArea := p.opts.SheetWidth * p.opts.SheetHeight

	res := &Result{
		Sheets:     make([]SheetResult, 0, len(p.sheets)),
		Quantities: make(map[string]int, len(p.items)),
		Failures:   p.failures,
	}

	var totalUsed float64
	placed := 0
	for _, s := range p.sheets {
		totalUsed += s.usedArea
		placed += len(s.placements)
		res.Sheets = append(res.Sheets, SheetResult{
			Index:       s.index,
			Width:       p.opts.SheetWidth,
			Height:      p.opts.SheetHeight,
			Placements:  s.placements,
			Utilization: s.usedArea / sheetArea * 100,
		})
	}
	if len(p.sheets) > 0 {
		res.TotalUtilization = totalUsed / (sheetArea * float64(len(p.sheets))) * 100
	}
	for _, item := range p.items {
		if item.placed > 0 {
			res.Quantities[item.part.ID] = item.placed
		}
	}

	res.Stats = Stats{
		PartCount:   len(p.opts.Parts),
		PlacedCount: placed,
		SheetCount:  len(p.sheets),
		PackTime:    elapsed,
	}
	return res
}

// checkCtx translates context termination into the engine's error
// taxonomy: a deadline becomes TIMEOUT, everything else CANCELLED.
func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return errors.New(errors.ErrCodeTimeout, "packing deadline exceeded")
		}
		return errors.New(errors.ErrCodeCancelled, "packing cancelled")
	default:
		return nil
	}
}
