package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabula-api/internal/models"
)

func testReferenceSet() ReferenceSet {
	return BuildReferenceSet(
		[]models.Faculty{
			{ID: "fac-anand-a1b2c3", Name: "Anand"},
			{ID: "fac-bhat-d4e5f6", Name: "Bhat"},
		},
		[]models.Room{
			{ID: "room-r1-111111", Name: "R1", Category: models.RoomLectureHall, Capacity: 60},
			{ID: "room-lh1-222222", Name: "LH-1", Category: models.RoomLectureHall, Capacity: 30},
		},
		[]models.Subject{
			{ID: "sub-math-333333", Code: "MATH", Name: "Mathematics", Category: models.SubjectTheory},
		},
		[]models.Batch{
			{ID: "batch-csa-444444", Name: "CS-A", StudentCount: 40},
			{ID: "batch-csb-555555", Name: "CS-B", StudentCount: 35},
		},
	)
}

func assignment(id string, day, slot int, room, batch string, faculty ...string) models.ClassAssignment {
	return models.ClassAssignment{
		ID:         id,
		Day:        day,
		Slot:       slot,
		SubjectID:  "sub-math-333333",
		FacultyIDs: faculty,
		RoomID:     room,
		BatchID:    batch,
	}
}

func kinds(conflicts []models.Conflict) []models.ConflictKind {
	out := make([]models.ConflictKind, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, c.Kind)
	}
	return out
}

func TestCheckConflictsRoomDoubleBooking(t *testing.T) {
	svc := NewConflictService(nil)
	draft := []models.ClassAssignment{
		assignment("x", 0, 2, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
		assignment("y", 0, 2, "room-r1-111111", "batch-csb-555555", "fac-bhat-d4e5f6"),
	}

	result := svc.CheckConflicts(draft, nil, testReferenceSet())

	require.Contains(t, result, "x")
	require.Contains(t, result, "y")
	assert.Contains(t, kinds(result["x"]), models.ConflictRoom)
	assert.Contains(t, kinds(result["y"]), models.ConflictRoom)
	assert.Contains(t, result["x"][0].Message, "R1")
}

func TestCheckConflictsFacultyOverlap(t *testing.T) {
	svc := NewConflictService(nil)
	draft := []models.ClassAssignment{
		assignment("a", 1, 3, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3", "fac-bhat-d4e5f6"),
		assignment("b", 1, 3, "room-lh1-222222", "batch-csb-555555", "fac-anand-a1b2c3"),
	}

	result := svc.CheckConflicts(draft, nil, testReferenceSet())

	require.Contains(t, result, "a")
	require.Contains(t, result, "b")
	assert.Contains(t, kinds(result["a"]), models.ConflictFaculty)
	assert.Contains(t, result["a"][0].Message, "Anand")
}

func TestCheckConflictsDisjointFacultyNoConflict(t *testing.T) {
	svc := NewConflictService(nil)
	draft := []models.ClassAssignment{
		assignment("a", 1, 3, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
		assignment("b", 1, 3, "room-lh1-222222", "batch-csb-555555", "fac-bhat-d4e5f6"),
	}

	result := svc.CheckConflicts(draft, nil, testReferenceSet())

	assert.Empty(t, result)
}

func TestCheckConflictsBatchDoubleBooking(t *testing.T) {
	svc := NewConflictService(nil)
	draft := []models.ClassAssignment{
		assignment("a", 2, 0, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
		assignment("b", 2, 0, "room-lh1-222222", "batch-csa-444444", "fac-bhat-d4e5f6"),
	}

	result := svc.CheckConflicts(draft, nil, testReferenceSet())

	require.Contains(t, result, "a")
	require.Contains(t, result, "b")
	assert.Contains(t, kinds(result["a"]), models.ConflictBatch)
	assert.Contains(t, kinds(result["b"]), models.ConflictBatch)
}

func TestCheckConflictsCapacity(t *testing.T) {
	svc := NewConflictService(nil)
	// CS-A has 40 students; LH-1 seats 30. No slot collision involved.
	draft := []models.ClassAssignment{
		assignment("a", 3, 1, "room-lh1-222222", "batch-csa-444444", "fac-anand-a1b2c3"),
	}

	result := svc.CheckConflicts(draft, nil, testReferenceSet())

	require.Contains(t, result, "a")
	require.Len(t, result["a"], 1)
	assert.Equal(t, models.ConflictCapacity, result["a"][0].Kind)
	assert.Contains(t, result["a"][0].Message, "LH-1")
	assert.Contains(t, result["a"][0].Message, "CS-A")
}

func TestCheckConflictsExternalNeverFlagged(t *testing.T) {
	svc := NewConflictService(nil)
	draft := []models.ClassAssignment{
		assignment("draft-1", 0, 0, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	}
	external := []models.ClassAssignment{
		assignment("ext-1", 0, 0, "room-r1-111111", "batch-csb-555555", "fac-bhat-d4e5f6"),
	}

	result := svc.CheckConflicts(draft, external, testReferenceSet())

	require.Contains(t, result, "draft-1")
	assert.NotContains(t, result, "ext-1")
	assert.Contains(t, kinds(result["draft-1"]), models.ConflictRoom)
}

func TestCheckConflictsEveryDraftMemberFlagged(t *testing.T) {
	svc := NewConflictService(nil)
	// Three draft assignments share a room in the same slot; all three are
	// flagged, not just one designated loser.
	draft := []models.ClassAssignment{
		assignment("a", 0, 0, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
		assignment("b", 0, 0, "room-r1-111111", "batch-csb-555555", "fac-bhat-d4e5f6"),
		assignment("c", 0, 0, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	}

	result := svc.CheckConflicts(draft, nil, testReferenceSet())

	for _, id := range []string{"a", "b", "c"} {
		require.Contains(t, result, id)
		assert.Contains(t, kinds(result[id]), models.ConflictRoom)
	}
}

func TestCheckConflictsCleanDraftAbsentFromMap(t *testing.T) {
	svc := NewConflictService(nil)
	draft := []models.ClassAssignment{
		assignment("a", 0, 0, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
		assignment("b", 0, 1, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	}

	result := svc.CheckConflicts(draft, nil, testReferenceSet())

	// Missing key means no conflict; ids never appear with empty lists.
	assert.NotContains(t, result, "a")
	assert.NotContains(t, result, "b")
}

func TestCheckConflictsIdempotent(t *testing.T) {
	svc := NewConflictService(nil)
	draft := []models.ClassAssignment{
		assignment("a", 0, 2, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
		assignment("b", 0, 2, "room-r1-111111", "batch-csb-555555", "fac-anand-a1b2c3"),
		assignment("c", 3, 1, "room-lh1-222222", "batch-csa-444444", "fac-bhat-d4e5f6"),
	}
	external := []models.ClassAssignment{
		assignment("ext", 0, 2, "room-lh1-222222", "batch-csb-555555", "fac-bhat-d4e5f6"),
	}

	first := svc.CheckConflicts(draft, external, testReferenceSet())
	second := svc.CheckConflicts(draft, external, testReferenceSet())

	assert.Equal(t, first, second)
}

func TestCheckConflictsUnknownReferencesStillDetected(t *testing.T) {
	svc := NewConflictService(nil)
	// Dangling room/batch ids degrade to "Unknown" labels, not skipped checks.
	draft := []models.ClassAssignment{
		assignment("a", 0, 0, "room-ghost", "batch-csa-444444", "fac-anand-a1b2c3"),
		assignment("b", 0, 0, "room-ghost", "batch-csb-555555", "fac-bhat-d4e5f6"),
	}

	result := svc.CheckConflicts(draft, nil, testReferenceSet())

	require.Contains(t, result, "a")
	assert.Contains(t, result["a"][0].Message, "Unknown")
}
