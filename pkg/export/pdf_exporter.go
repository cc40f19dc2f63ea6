package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a timetable grid into a landscape PDF table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the grid laid out slot-by-day.
func (e *PDFExporter) Render(grid *Grid) ([]byte, error) {
	if grid == nil || len(grid.DayLabels) == 0 || grid.SlotsPerDay <= 0 {
		return nil, fmt.Errorf("pdf export requires a non-empty grid")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(grid.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	slotColWidth := 16.0
	colWidth := (277.0 - slotColWidth) / float64(len(grid.DayLabels))

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(slotColWidth, 8, "Slot", "1", 0, "C", false, 0, "")
	for _, label := range grid.DayLabels {
		pdf.CellFormat(colWidth, 8, label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for slot := 0; slot < grid.SlotsPerDay; slot++ {
		pdf.CellFormat(slotColWidth, 10, fmt.Sprintf("%d", slot+1), "1", 0, "C", false, 0, "")
		for day := range grid.DayLabels {
			pdf.CellFormat(colWidth, 10, grid.Cells[GridKey{Day: day, Slot: slot}].text(), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
