package sheet

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/nest"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// RenderPDF writes the result as a PDF: one page per sheet with the
// placed outlines drawn to scale, then a summary page.
func RenderPDF(path string, result *nest.Result) error {
	if len(result.Sheets) == 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "result has no sheets to render")
	}

	colors := assignColors(result)

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for _, s := range result.Sheets {
		pdf.AddPage()
		renderSheetPage(pdf, s, colors)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, result)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write pdf to %s", path)
	}
	return nil
}

func renderSheetPage(pdf *fpdf.Fpdf, s nest.SheetResult, colors map[string]color) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Sheet %d (%g x %g)", s.Index+1, s.Width, s.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Parts: %d | Utilization: %.1f%%", len(s.Placements), s.Utilization)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom

	// Scale the sheet to fit the drawing area, preserving aspect ratio.
	scale := math.Min(drawWidth/s.Width, drawHeight/s.Height)
	canvasW := s.Width * scale
	canvasH := s.Height * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	pdf.SetFillColor(250, 250, 250)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	for _, p := range s.Placements {
		c := colors[p.PartID]
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)

		pts := make([]fpdf.PointType, len(p.Outline))
		for i, pt := range p.Outline {
			// The packing origin is bottom-left; PDF y grows downward.
			pts[i] = fpdf.PointType{
				X: offsetX + pt.X*scale,
				Y: offsetY + canvasH - pt.Y*scale,
			}
		}
		pdf.Polygon(pts, "FD")

		bb := p.Outline.BoundingBox()
		pw, ph := bb.Width()*scale, bb.Height()*scale
		if pw > 12 && ph > 6 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			pdf.SetTextColor(0, 0, 0)
			labelW := pdf.GetStringWidth(p.PartID)
			if labelW < pw-2 {
				cx := offsetX + (bb.MinX+bb.MaxX)/2*scale
				cy := offsetY + canvasH - (bb.MinY+bb.MaxY)/2*scale
				pdf.SetXY(cx-labelW/2, cy-2)
				pdf.CellFormat(labelW, 4, p.PartID, "", 0, "C", false, 0, "")
			}
		}
	}
}

func renderSummaryPage(pdf *fpdf.Fpdf, result *nest.Result) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Nesting Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	placed := 0
	for _, q := range result.Quantities {
		placed += q
	}

	items := []struct {
		label string
		value string
	}{
		{"Sheets", fmt.Sprintf("%d", len(result.Sheets))},
		{"Parts Placed", fmt.Sprintf("%d", placed)},
		{"Total Utilization", fmt.Sprintf("%.1f%%", result.TotalUtilization)},
		{"Failures", fmt.Sprintf("%d", len(result.Failures))},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	// Per-sheet breakdown table.
	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Sheet Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{25, 50, 40, 40}
	headers := []string{"Sheet", "Dimensions", "Parts", "Utilization"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	x := marginLeft
	for i, h := range headers {
		pdf.SetXY(x, y)
		pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
		x += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, s := range result.Sheets {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		row := []string{
			fmt.Sprintf("%d", s.Index+1),
			fmt.Sprintf("%g x %g", s.Width, s.Height),
			fmt.Sprintf("%d", len(s.Placements)),
			fmt.Sprintf("%.1f%%", s.Utilization),
		}
		x = marginLeft
		for j, cell := range row {
			pdf.SetXY(x, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			x += colWidths[j]
		}
		y += 6
	}

	if len(result.Failures) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "Unplaced Parts", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, f := range result.Failures {
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(250, 5, fmt.Sprintf("- %s: %s", f.PartID, f.Reason), "", 0, "L", false, 0, "")
			y += 5
		}
	}
}

func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}
