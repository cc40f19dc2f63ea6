package export

import "fmt"

// Cell is the rendered content of one (day, slot) position.
type Cell struct {
	Subject string
	Faculty string
	Room    string
}

// Grid is a day-by-slot timetable prepared for rendering.
type Grid struct {
	Title       string
	DayLabels   []string
	SlotsPerDay int
	Cells       map[GridKey]Cell
}

// GridKey addresses one cell of the grid.
type GridKey struct {
	Day  int
	Slot int
}

// NewGrid allocates an empty grid for the given dimensions.
func NewGrid(title string, dayLabels []string, slotsPerDay int) *Grid {
	return &Grid{
		Title:       title,
		DayLabels:   dayLabels,
		SlotsPerDay: slotsPerDay,
		Cells:       make(map[GridKey]Cell),
	}
}

// Set places a cell; out-of-range coordinates are rejected.
func (g *Grid) Set(day, slot int, cell Cell) error {
	if day < 0 || day >= len(g.DayLabels) {
		return fmt.Errorf("day %d outside grid of %d days", day, len(g.DayLabels))
	}
	if slot < 0 || slot >= g.SlotsPerDay {
		return fmt.Errorf("slot %d outside grid of %d slots", slot, g.SlotsPerDay)
	}
	g.Cells[GridKey{Day: day, Slot: slot}] = cell
	return nil
}

func (c Cell) text() string {
	if c.Subject == "" {
		return ""
	}
	out := c.Subject
	if c.Faculty != "" {
		out += " / " + c.Faculty
	}
	if c.Room != "" {
		out += " @ " + c.Room
	}
	return out
}
