package sheet

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexkibler/sticker-nester/pkg/geom"
	"github.com/alexkibler/sticker-nester/pkg/nest"
)

func packedResult(t *testing.T) *nest.Result {
	t.Helper()
	result, err := nest.Pack(context.Background(), nest.Options{
		Parts: []nest.Part{
			{ID: "square", Outline: geom.Polygon{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}, Quantity: 2},
			{ID: "wedge", Outline: geom.Polygon{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 0, Y: 2}}, Quantity: 1},
		},
		SheetWidth:   8,
		SheetHeight:  8,
		Spacing:      0.125,
		PackAllItems: true,
	})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	return result
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(packedResult(t)))

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(strings.TrimSpace(svg), "</svg>") {
		t.Fatal("output is not a complete SVG document")
	}
	if !strings.Contains(svg, `id="sheet-0"`) {
		t.Error("missing sheet group")
	}
	if strings.Count(svg, "<polygon") != 3 {
		t.Errorf("got %d polygons, want 3", strings.Count(svg, "<polygon"))
	}
	// Labels are off by default.
	if strings.Contains(svg, "<text") {
		t.Error("labels rendered without WithLabels")
	}
}

func TestRenderSVGWithLabels(t *testing.T) {
	svg := string(RenderSVG(packedResult(t), WithLabels()))

	if !strings.Contains(svg, ">square<") || !strings.Contains(svg, ">wedge<") {
		t.Error("part labels missing from labeled output")
	}
}

func TestRenderSVGScale(t *testing.T) {
	small := RenderSVG(packedResult(t), WithScale(10))
	large := RenderSVG(packedResult(t), WithScale(100))

	if !strings.Contains(string(small), `width="80"`) {
		t.Errorf("scale 10 should yield an 80px wide document")
	}
	if !strings.Contains(string(large), `width="800"`) {
		t.Errorf("scale 100 should yield an 800px wide document")
	}
}

func TestRenderSVGStacksSheets(t *testing.T) {
	result, err := nest.Pack(context.Background(), nest.Options{
		Parts:        []nest.Part{{ID: "tile", Outline: geom.Polygon{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}, Quantity: 12}},
		SheetWidth:   6,
		SheetHeight:  6,
		Spacing:      0,
		PackAllItems: true,
	})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	svg := string(RenderSVG(result))
	if !strings.Contains(svg, `id="sheet-0"`) || !strings.Contains(svg, `id="sheet-1"`) {
		t.Error("multi-sheet result should render every sheet")
	}
}

func TestRenderPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.pdf")
	if err := RenderPDF(path, packedResult(t)); err != nil {
		t.Fatalf("RenderPDF failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}

func TestRenderPDFEmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := RenderPDF(path, &nest.Result{}); err == nil {
		t.Error("rendering an empty result should error")
	}
}
