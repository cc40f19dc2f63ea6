package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tabula-api/internal/models"
)

func TestFacultyAvailableDeclaredTable(t *testing.T) {
	table := models.AvailabilityTable{
		"fac-anand-a1b2c3": models.AvailabilityDays{0: {1, 2}},
	}

	assert.True(t, FacultyAvailable("fac-anand-a1b2c3", 0, 1, nil, table))
	assert.False(t, FacultyAvailable("fac-anand-a1b2c3", 0, 3, nil, table))
	// A day without a declared entry carries no restriction.
	assert.True(t, FacultyAvailable("fac-anand-a1b2c3", 1, 5, nil, table))
	// No declared record at all means always available.
	assert.True(t, FacultyAvailable("fac-bhat-d4e5f6", 0, 3, nil, table))
}

func TestFacultyAvailableOccupancy(t *testing.T) {
	assignments := []models.ClassAssignment{
		{ID: "a", Day: 2, Slot: 4, FacultyIDs: []string{"fac-anand-a1b2c3", "fac-bhat-d4e5f6"}},
	}

	assert.False(t, FacultyAvailable("fac-anand-a1b2c3", 2, 4, assignments, nil))
	assert.False(t, FacultyAvailable("fac-bhat-d4e5f6", 2, 4, assignments, nil))
	assert.True(t, FacultyAvailable("fac-anand-a1b2c3", 2, 5, assignments, nil))
	assert.True(t, FacultyAvailable("fac-chitra-778899", 2, 4, assignments, nil))
}

func TestRoomAvailable(t *testing.T) {
	lab := models.Room{ID: "room-lab-111111", Name: "Lab 101", Category: models.RoomLab, Capacity: 30}
	hall := models.Room{ID: "room-lh-222222", Name: "LH-1", Category: models.RoomLectureHall, Capacity: 60}
	practical := models.Subject{ID: "sub-ds-333333", Category: models.SubjectPractical}
	theory := models.Subject{ID: "sub-math-444444", Category: models.SubjectTheory}
	smallBatch := models.Batch{ID: "batch-csa-555555", StudentCount: 25}
	bigBatch := models.Batch{ID: "batch-csb-666666", StudentCount: 45}

	// Capacity.
	assert.True(t, RoomAvailable(lab.ID, 0, 0, smallBatch, practical, lab, nil))
	assert.False(t, RoomAvailable(lab.ID, 0, 0, bigBatch, practical, lab, nil))

	// Category: practicals need labs, theory needs lecture halls.
	assert.False(t, RoomAvailable(hall.ID, 0, 0, smallBatch, practical, hall, nil))
	assert.True(t, RoomAvailable(hall.ID, 0, 0, smallBatch, theory, hall, nil))
	assert.False(t, RoomAvailable(lab.ID, 0, 0, smallBatch, theory, lab, nil))

	// Occupancy.
	occupied := []models.ClassAssignment{{ID: "a", Day: 0, Slot: 0, RoomID: lab.ID}}
	assert.False(t, RoomAvailable(lab.ID, 0, 0, smallBatch, practical, lab, occupied))
	assert.True(t, RoomAvailable(lab.ID, 0, 1, smallBatch, practical, lab, occupied))
}

func TestBatchAvailable(t *testing.T) {
	assignments := []models.ClassAssignment{
		{ID: "a", Day: 3, Slot: 2, BatchID: "batch-csa-444444"},
	}

	assert.False(t, BatchAvailable("batch-csa-444444", 3, 2, assignments))
	assert.True(t, BatchAvailable("batch-csa-444444", 3, 3, assignments))
	assert.True(t, BatchAvailable("batch-csb-555555", 3, 2, assignments))
}

func TestScheduleStateReplaceScope(t *testing.T) {
	state := NewScheduleState()
	state.Refresh([]models.ClassAssignment{
		{ID: "a", BatchID: "batch-1"},
		{ID: "b", BatchID: "batch-2"},
	})

	state.ReplaceScope("batch-1", []models.ClassAssignment{{ID: "c", BatchID: "batch-1"}})

	got := state.Assignments()
	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	assert.ElementsMatch(t, []string{"b", "c"}, ids)

	state.ReplaceScope("", []models.ClassAssignment{{ID: "d", BatchID: "batch-3"}})
	got = state.Assignments()
	assert.Len(t, got, 1)
	assert.Equal(t, "d", got[0].ID)

	state.Clear()
	assert.Empty(t, state.Assignments())
}
