package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexkibler/sticker-nester/pkg/nest"
	"github.com/alexkibler/sticker-nester/pkg/render/sheet"
)

// packRequest is the on-disk request format, identical to the HTTP API
// request body. Spacing is a pointer so an explicit zero survives the
// default overlay.
type packRequest struct {
	Stickers     []nest.Part `json:"stickers"`
	SheetWidth   float64     `json:"sheetWidth"`
	SheetHeight  float64     `json:"sheetHeight"`
	Spacing      *float64    `json:"spacing"`
	Rotations    []float64   `json:"rotations"`
	CellsPerInch float64     `json:"cellsPerInch"`
	StepSize     float64     `json:"stepSize"`
	PackAllItems bool        `json:"packAllItems"`
	SheetCount   int         `json:"sheetCount"`
}

func newPackCmd() *cobra.Command {
	var (
		sheetWidth  float64
		sheetHeight float64
		spacing     float64
		sheetCount  int
		packAll     bool
		svgPath     string
		pdfPath     string
		labels      bool
	)

	cmd := &cobra.Command{
		Use:   "pack <request.json>",
		Short: "Pack a request file and write the layout",
		Long: `Pack reads a JSON request file describing part outlines and sheet
geometry, computes a nesting layout, and prints a summary. The layout
can additionally be written as SVG or PDF.

The request file uses the same format as the HTTP API:

  {
    "stickers": [
      {"id": "star", "points": [{"x":0,"y":0}, ...], "quantity": 3}
    ],
    "sheetWidth": 12,
    "sheetHeight": 12,
    "packAllItems": true
  }

Flags override the corresponding fields of the request file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read request file: %w", err)
			}
			var req packRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("failed to parse request file: %w", err)
			}

			opts := nest.Options{
				Parts:        req.Stickers,
				SheetWidth:   req.SheetWidth,
				SheetHeight:  req.SheetHeight,
				Spacing:      nest.DefaultSpacing,
				Rotations:    req.Rotations,
				CellsPerUnit: req.CellsPerInch,
				StepSize:     req.StepSize,
				PackAllItems: req.PackAllItems,
				SheetCount:   req.SheetCount,
				Logger:       logger,
			}
			if req.Spacing != nil {
				opts.Spacing = *req.Spacing
			}
			if cmd.Flags().Changed("sheet-width") {
				opts.SheetWidth = sheetWidth
			}
			if cmd.Flags().Changed("sheet-height") {
				opts.SheetHeight = sheetHeight
			}
			if cmd.Flags().Changed("spacing") {
				opts.Spacing = spacing
			}
			if cmd.Flags().Changed("sheets") {
				opts.SheetCount = sheetCount
			}
			if cmd.Flags().Changed("all") {
				opts.PackAllItems = packAll
			}

			logger.Debug("Packing request", "parts", len(opts.Parts), "mode", opts.Mode())
			prog := newProgress(logger)

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Packing %d parts...", len(opts.Parts)))
			spinner.Start()

			result, err := nest.Pack(ctx, opts)
			if err != nil {
				if spinner.Cancelled() {
					spinner.StopWithError("Packing cancelled")
				} else {
					spinner.StopWithError("Packing failed")
				}
				return err
			}
			spinner.Stop()
			prog.done(fmt.Sprintf("Packed %d parts onto %d sheets",
				result.Stats.PlacedCount, result.Stats.SheetCount))

			printSummary(result)

			if svgPath != "" {
				svgOpts := []sheet.SVGOption{}
				if labels {
					svgOpts = append(svgOpts, sheet.WithLabels())
				}
				if err := os.WriteFile(svgPath, sheet.RenderSVG(result, svgOpts...), 0o644); err != nil {
					return fmt.Errorf("failed to write SVG: %w", err)
				}
				printFile(svgPath)
			}
			if pdfPath != "" {
				if err := sheet.RenderPDF(pdfPath, result); err != nil {
					return fmt.Errorf("failed to write PDF: %w", err)
				}
				printFile(pdfPath)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&sheetWidth, "sheet-width", 0, "override the sheet width")
	cmd.Flags().Float64Var(&sheetHeight, "sheet-height", 0, "override the sheet height")
	cmd.Flags().Float64Var(&spacing, "spacing", nest.DefaultSpacing, "minimum clearance between parts")
	cmd.Flags().IntVar(&sheetCount, "sheets", 0, "pack exactly this many sheets and backfill leftover area")
	cmd.Flags().BoolVar(&packAll, "all", false, "open sheets until every part is placed")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write the layout as SVG to this path")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "write the layout as PDF to this path")
	cmd.Flags().BoolVar(&labels, "labels", false, "draw part IDs on the SVG layout")

	return cmd
}

// printSummary prints the packing outcome in a compact, styled form.
func printSummary(result *nest.Result) {
	fmt.Println()
	fmt.Println(StyleTitle.Render("Layout"))
	for _, s := range result.Sheets {
		printDetail("sheet %d: %d placements, %.1f%% utilization",
			s.Index, len(s.Placements), s.Utilization)
	}
	printKeyValue("Total utilization", fmt.Sprintf("%.1f%%", result.TotalUtilization))

	if len(result.Quantities) > 0 {
		printKeyValue("Placed", formatQuantities(result.Quantities))
	}

	for _, f := range result.Failures {
		printWarning("%s: %s", f.PartID, f.Reason)
	}
}

// formatQuantities renders placed-copy counts in part-ID order, so the
// summary line is stable across runs.
func formatQuantities(quantities map[string]int) string {
	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s×%d", id, quantities[id]))
	}
	return strings.Join(parts, ", ")
}

// printKeyValue prints an aligned key/value line.
func printKeyValue(key, value string) {
	fmt.Printf("  %s %s\n", StyleDim.Render(key+":"), StyleValue.Render(value))
}
