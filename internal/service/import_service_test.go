package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabula-api/internal/models"
)

type mockDepartmentReplacer struct{ got []models.Department }

func (m *mockDepartmentReplacer) ReplaceAll(ctx context.Context, departments []models.Department, chunkSize int) error {
	m.got = departments
	return nil
}

type mockRoomReplacer struct{ got []models.Room }

func (m *mockRoomReplacer) ReplaceAll(ctx context.Context, rooms []models.Room, chunkSize int) error {
	m.got = rooms
	return nil
}

type mockSubjectReplacer struct{ got []models.Subject }

func (m *mockSubjectReplacer) ReplaceAll(ctx context.Context, subjects []models.Subject, chunkSize int) error {
	m.got = subjects
	return nil
}

type mockFacultyReplacer struct{ got []models.Faculty }

func (m *mockFacultyReplacer) ReplaceAll(ctx context.Context, faculty []models.Faculty, chunkSize int) error {
	m.got = faculty
	return nil
}

type mockBatchReplacer struct{ got []models.Batch }

func (m *mockBatchReplacer) ReplaceAll(ctx context.Context, batches []models.Batch, chunkSize int) error {
	m.got = batches
	return nil
}

type mockAvailabilityReplacer struct{ got []models.FacultyAvailability }

func (m *mockAvailabilityReplacer) ReplaceAll(ctx context.Context, records []models.FacultyAvailability, chunkSize int) error {
	m.got = records
	return nil
}

type mockScheduleSaver struct {
	got   []models.ClassAssignment
	scope string
}

func (m *mockScheduleSaver) SaveSchedule(ctx context.Context, assignments []models.ClassAssignment, targetScope string) error {
	m.got = assignments
	m.scope = targetScope
	return nil
}

func newImportFixture() (*ImportService, *mockDepartmentReplacer, *mockRoomReplacer, *mockSubjectReplacer, *mockFacultyReplacer, *mockBatchReplacer, *mockAvailabilityReplacer, *mockScheduleSaver) {
	departments := &mockDepartmentReplacer{}
	rooms := &mockRoomReplacer{}
	subjects := &mockSubjectReplacer{}
	faculty := &mockFacultyReplacer{}
	batches := &mockBatchReplacer{}
	availability := &mockAvailabilityReplacer{}
	saver := &mockScheduleSaver{}
	svc := NewImportService(departments, rooms, subjects, faculty, batches, availability, saver, testScheduleConfig(), nil)
	return svc, departments, rooms, subjects, faculty, batches, availability, saver
}

func strPtr(s string) *string { return &s }

func TestCanonicalizeAssignsPrefixedIDs(t *testing.T) {
	svc, _, _, _, _, _, _, _ := newImportFixture()

	out := svc.Canonicalize(models.Snapshot{
		Departments: []models.Department{{ID: "1", Code: "CSE", Name: "Computer Science"}},
		Rooms:       []models.Room{{ID: "2", Name: "Lab 101", Category: models.RoomLab, Capacity: 30}},
		Subjects:    []models.Subject{{ID: "3", Code: "DS", Name: "Data Structures", Category: models.SubjectTheory}},
		Faculty:     []models.Faculty{{ID: "4", Name: "Anand Rao"}},
		Batches:     []models.Batch{{ID: "5", Name: "CS-A", StudentCount: 40}},
	})

	assert.True(t, strings.HasPrefix(out.Departments[0].ID, "dept-cse-"))
	assert.True(t, strings.HasPrefix(out.Rooms[0].ID, "room-lab-101-"))
	assert.True(t, strings.HasPrefix(out.Subjects[0].ID, "sub-ds-"))
	assert.True(t, strings.HasPrefix(out.Faculty[0].ID, "fac-anand-rao-"))
	assert.True(t, strings.HasPrefix(out.Batches[0].ID, "batch-cs-a-"))

	// prefix + slug + 6-char disambiguator
	parts := strings.Split(out.Faculty[0].ID, "-")
	assert.Len(t, parts[len(parts)-1], 6)
}

func TestCanonicalizeKeepsCanonicalIDs(t *testing.T) {
	svc, _, _, _, _, _, _, _ := newImportFixture()

	out := svc.Canonicalize(models.Snapshot{
		Rooms: []models.Room{{ID: "room-lab-101-abc123", Name: "Lab 101"}},
	})

	assert.Equal(t, "room-lab-101-abc123", out.Rooms[0].ID)
}

func TestCanonicalizeRewritesReferences(t *testing.T) {
	svc, _, _, _, _, _, _, _ := newImportFixture()

	out := svc.Canonicalize(models.Snapshot{
		Departments: []models.Department{{ID: "d1", Code: "CSE", Name: "Computer Science"}},
		Rooms:       []models.Room{{ID: "r1", Name: "LH-1"}},
		Subjects:    []models.Subject{{ID: "s1", Code: "DS", Name: "Data Structures"}},
		Faculty: []models.Faculty{
			{ID: "f1", Name: "Anand", DepartmentID: strPtr("d1"), SubjectIDs: []string{"s1"}},
		},
		Batches: []models.Batch{
			{
				ID:           "b1",
				Name:         "CS-A",
				DepartmentID: strPtr("d1"),
				FixedRoomID:  strPtr("r1"),
				SubjectIDs:   []string{"s1"},
				SubjectAssignments: models.BatchSubjectAssignments{
					{SubjectID: "s1", FacultyIDs: []string{"f1"}},
				},
			},
		},
		Availability: []models.FacultyAvailability{
			{ID: "av1", FacultyID: "f1", Days: models.AvailabilityDays{0: {1, 2}}},
		},
		Assignments: []models.ClassAssignment{
			{ID: "a1", Day: 0, Slot: 1, SubjectID: "s1", FacultyIDs: []string{"f1"}, RoomID: "r1", BatchID: "b1"},
		},
	})

	dept := out.Departments[0].ID
	room := out.Rooms[0].ID
	subject := out.Subjects[0].ID
	faculty := out.Faculty[0].ID
	batch := out.Batches[0].ID

	require.NotNil(t, out.Faculty[0].DepartmentID)
	assert.Equal(t, dept, *out.Faculty[0].DepartmentID)
	assert.Equal(t, []string{subject}, []string(out.Faculty[0].SubjectIDs))

	require.NotNil(t, out.Batches[0].FixedRoomID)
	assert.Equal(t, room, *out.Batches[0].FixedRoomID)
	assert.Equal(t, []string{subject}, []string(out.Batches[0].SubjectIDs))
	assert.Equal(t, subject, out.Batches[0].SubjectAssignments[0].SubjectID)
	assert.Equal(t, []string{faculty}, out.Batches[0].SubjectAssignments[0].FacultyIDs)

	assert.Equal(t, faculty, out.Availability[0].FacultyID)

	got := out.Assignments[0]
	assert.True(t, strings.HasPrefix(got.ID, "asg-"))
	assert.Equal(t, subject, got.SubjectID)
	assert.Equal(t, []string{faculty}, []string(got.FacultyIDs))
	assert.Equal(t, room, got.RoomID)
	assert.Equal(t, batch, got.BatchID)
}

func TestCanonicalizeCollidingLegacyIDs(t *testing.T) {
	svc, _, _, _, _, _, _, _ := newImportFixture()

	out := svc.Canonicalize(models.Snapshot{
		Faculty: []models.Faculty{
			{ID: "f1", Name: "Anand"},
			{ID: "f1", Name: "Bhat"},
		},
		Batches: []models.Batch{
			{ID: "b1", Name: "CS-A", SubjectAssignments: models.BatchSubjectAssignments{
				{SubjectID: "s1", FacultyIDs: []string{"f1"}},
			}},
		},
	})

	// Each record receives its own distinct canonical id.
	first := out.Faculty[0].ID
	second := out.Faculty[1].ID
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "fac-anand-"))
	assert.True(t, strings.HasPrefix(second, "fac-bhat-"))

	// References to the shared legacy key resolve deterministically to the
	// first record's canonical id.
	assert.Equal(t, []string{first}, out.Batches[0].SubjectAssignments[0].FacultyIDs)
}

func TestCanonicalizeLeavesDanglingReferencesUnchanged(t *testing.T) {
	svc, _, _, _, _, _, _, _ := newImportFixture()

	out := svc.Canonicalize(models.Snapshot{
		Assignments: []models.ClassAssignment{
			{ID: "a1", SubjectID: "ghost-subject", FacultyIDs: []string{"ghost-fac"}, RoomID: "ghost-room", BatchID: "ghost-batch"},
		},
	})

	// Unresolvable ids stay as-is and surface later as "Unknown" instead of
	// being dropped or nulled.
	got := out.Assignments[0]
	assert.Equal(t, "ghost-subject", got.SubjectID)
	assert.Equal(t, []string{"ghost-fac"}, []string(got.FacultyIDs))
	assert.Equal(t, "ghost-room", got.RoomID)
	assert.Equal(t, "ghost-batch", got.BatchID)
}

func TestImportSnapshotReplaysAllCollections(t *testing.T) {
	svc, departments, rooms, subjects, faculty, batches, availability, saver := newImportFixture()

	snapshot := models.Snapshot{
		Departments: []models.Department{{ID: "d1", Code: "CSE", Name: "Computer Science"}},
		Rooms:       []models.Room{{ID: "r1", Name: "LH-1"}},
		Subjects:    []models.Subject{{ID: "s1", Code: "DS", Name: "Data Structures"}},
		Faculty:     []models.Faculty{{ID: "f1", Name: "Anand", SubjectIDs: []string{"s1"}}},
		Batches:     []models.Batch{{ID: "b1", Name: "CS-A"}},
		Availability: []models.FacultyAvailability{
			{ID: "av1", FacultyID: "f1", Days: models.AvailabilityDays{0: {1}}},
		},
		Assignments: []models.ClassAssignment{
			{ID: "a1", Day: 0, Slot: 1, SubjectID: "s1", FacultyIDs: []string{"f1"}, RoomID: "r1", BatchID: "b1"},
		},
	}

	canonical, err := svc.ImportSnapshot(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, canonical.Departments, departments.got)
	assert.Equal(t, canonical.Rooms, rooms.got)
	assert.Equal(t, canonical.Subjects, subjects.got)
	assert.Equal(t, canonical.Faculty, faculty.got)
	assert.Equal(t, canonical.Batches, batches.got)
	assert.Equal(t, canonical.Availability, availability.got)
	assert.Equal(t, canonical.Assignments, saver.got)

	// Whole-set replacement, not a scoped save.
	assert.Empty(t, saver.scope)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "lab-101", slugify("Lab 101"))
	assert.Equal(t, "cs-a", slugify("CS-A"))
	assert.Equal(t, "data-structures", slugify("  Data  Structures  "))
	assert.Equal(t, "item", slugify("***"))
}
