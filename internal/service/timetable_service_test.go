package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/pkg/config"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
	"github.com/noah-isme/tabula-api/pkg/export"
)

type mockAssignmentReader struct {
	assignments []models.ClassAssignment
	listCalls   int
	updated     *models.ClassAssignment
	deleted     string
}

func (m *mockAssignmentReader) ListAll(_ context.Context) ([]models.ClassAssignment, error) {
	m.listCalls++
	return m.assignments, nil
}

func (m *mockAssignmentReader) ListByBatch(_ context.Context, batchID string) ([]models.ClassAssignment, error) {
	m.listCalls++
	var out []models.ClassAssignment
	for _, a := range m.assignments {
		if a.BatchID == batchID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAssignmentReader) ListByFaculty(_ context.Context, facultyID string) ([]models.ClassAssignment, error) {
	m.listCalls++
	var out []models.ClassAssignment
	for _, a := range m.assignments {
		for _, fid := range a.FacultyIDs {
			if fid == facultyID {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (m *mockAssignmentReader) FindByID(_ context.Context, id string) (*models.ClassAssignment, error) {
	for i := range m.assignments {
		if m.assignments[i].ID == id {
			return &m.assignments[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentReader) Update(_ context.Context, assignment *models.ClassAssignment) error {
	m.updated = assignment
	return nil
}

func (m *mockAssignmentReader) Delete(_ context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockViewCache struct {
	entries    map[string][]byte
	hits       int
	misses     int
	flushed    []string
	setFailure error
}

func (m *mockViewCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		m.misses++
		return appErrors.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dest)
}

func (m *mockViewCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.setFailure != nil {
		return m.setFailure
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = raw
	return nil
}

func (m *mockViewCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.flushed = append(m.flushed, pattern)
	m.entries = map[string][]byte{}
	return nil
}

func newTimetableFixture(assignments []models.ClassAssignment) (*TimetableService, *mockAssignmentReader, *mockViewCache) {
	reader := &mockAssignmentReader{assignments: assignments}
	cache := &mockViewCache{}
	svc := NewTimetableService(
		reader,
		&mockSubjectLister{subjects: []models.Subject{{ID: "sub-math-333333", Code: "MATH", Name: "Mathematics", Category: models.SubjectTheory}}},
		&mockFacultyLister{faculty: []models.Faculty{{ID: "fac-anand-a1b2c3", Name: "Anand"}}},
		&mockRoomLister{rooms: []models.Room{{ID: "room-r1-111111", Name: "R1", Category: models.RoomLectureHall, Capacity: 60}}},
		&mockBatchLister{batches: []models.Batch{{ID: "batch-csa-444444", Name: "CS-A", StudentCount: 40}}},
		cache,
		nil,
		testScheduleConfig(),
		config.ExportConfig{Title: "Timetable"},
		nil,
	)
	return svc, reader, cache
}

func TestBatchViewResolvesLabels(t *testing.T) {
	svc, _, _ := newTimetableFixture([]models.ClassAssignment{
		assignment("a", 0, 1, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	})

	view, err := svc.BatchView(context.Background(), "batch-csa-444444")

	require.NoError(t, err)
	require.Len(t, view.Assignments, 1)
	cell := view.Labels["a"]
	assert.Equal(t, "Mathematics", cell.Subject)
	assert.Equal(t, "Anand", cell.Faculty)
	assert.Equal(t, "R1", cell.Room)
	assert.Equal(t, "CS-A", cell.Batch)
}

func TestBatchViewRendersUnknownForDanglingReferences(t *testing.T) {
	svc, _, _ := newTimetableFixture([]models.ClassAssignment{
		assignment("a", 0, 1, "room-gone-999999", "batch-csa-444444", "fac-gone-999999"),
	})

	view, err := svc.BatchView(context.Background(), "batch-csa-444444")

	require.NoError(t, err)
	cell := view.Labels["a"]
	assert.Equal(t, "Unknown", cell.Faculty)
	assert.Equal(t, "Unknown", cell.Room)
}

func TestBatchViewServesSecondReadFromCache(t *testing.T) {
	svc, reader, cache := newTimetableFixture([]models.ClassAssignment{
		assignment("a", 0, 1, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	})

	first, err := svc.BatchView(context.Background(), "batch-csa-444444")
	require.NoError(t, err)
	callsAfterMiss := reader.listCalls

	second, err := svc.BatchView(context.Background(), "batch-csa-444444")
	require.NoError(t, err)

	assert.Equal(t, callsAfterMiss, reader.listCalls, "cached read must not hit the store")
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.Labels, second.Labels)
}

func TestMoveRelocatesAssignmentAndFlushesCache(t *testing.T) {
	svc, reader, cache := newTimetableFixture([]models.ClassAssignment{
		assignment("a", 0, 1, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	})
	_, err := svc.BatchView(context.Background(), "batch-csa-444444")
	require.NoError(t, err)

	target, err := svc.Find(context.Background(), "a")
	require.NoError(t, err)
	require.NoError(t, svc.Move(context.Background(), target, MoveAssignmentRequest{Day: 3, Slot: 4, RoomID: "room-lh1-222222"}))

	require.NotNil(t, reader.updated)
	assert.Equal(t, 3, reader.updated.Day)
	assert.Equal(t, 4, reader.updated.Slot)
	assert.Equal(t, "room-lh1-222222", reader.updated.RoomID)
	assert.Contains(t, cache.flushed, "timetable:*")
}

func TestMoveRejectsLockedAssignment(t *testing.T) {
	locked := assignment("a", 0, 1, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3")
	locked.Locked = true
	svc, reader, _ := newTimetableFixture([]models.ClassAssignment{locked})

	target, err := svc.Find(context.Background(), "a")
	require.NoError(t, err)
	err = svc.Move(context.Background(), target, MoveAssignmentRequest{Day: 3, Slot: 4})

	require.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	assert.Nil(t, reader.updated)
}

func TestMoveRejectsOutOfGridTarget(t *testing.T) {
	svc, _, _ := newTimetableFixture([]models.ClassAssignment{
		assignment("a", 0, 1, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	})

	target, err := svc.Find(context.Background(), "a")
	require.NoError(t, err)
	err = svc.Move(context.Background(), target, MoveAssignmentRequest{Day: 6, Slot: 0})

	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFindMapsMissingAssignmentToNotFound(t *testing.T) {
	svc, _, _ := newTimetableFixture(nil)

	_, err := svc.Find(context.Background(), "missing")

	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportGridPlacesResolvedCells(t *testing.T) {
	svc, _, _ := newTimetableFixture([]models.ClassAssignment{
		assignment("a", 0, 1, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	})
	view, err := svc.BatchView(context.Background(), "batch-csa-444444")
	require.NoError(t, err)

	grid, err := svc.ExportGrid(view, "CS-A Week 12")

	require.NoError(t, err)
	assert.Equal(t, "CS-A Week 12", grid.Title)
	require.Len(t, grid.DayLabels, 6)
	assert.Equal(t, "Monday", grid.DayLabels[0])
	cell, ok := grid.Cells[export.GridKey{Day: 0, Slot: 1}]
	require.True(t, ok)
	assert.Equal(t, "Mathematics", cell.Subject)
	assert.Equal(t, "Anand", cell.Faculty)
}
