package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a timetable grid into CSV bytes, one row per slot with
// a column per day.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the grid.
func (e *CSVExporter) Render(grid *Grid) ([]byte, error) {
	if grid == nil || len(grid.DayLabels) == 0 || grid.SlotsPerDay <= 0 {
		return nil, fmt.Errorf("csv export requires a non-empty grid")
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := make([]string, 0, len(grid.DayLabels)+1)
	header = append(header, "Slot")
	header = append(header, grid.DayLabels...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for slot := 0; slot < grid.SlotsPerDay; slot++ {
		record := make([]string, len(grid.DayLabels)+1)
		record[0] = fmt.Sprintf("%d", slot+1)
		for day := range grid.DayLabels {
			record[day+1] = grid.Cells[GridKey{Day: day, Slot: slot}].text()
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
