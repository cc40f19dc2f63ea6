package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabula-api/internal/models"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

type mockAvailabilityRepo struct {
	records  map[string]*models.FacultyAvailability
	upserted *models.FacultyAvailability
	deleted  string
}

func (m *mockAvailabilityRepo) ListAll(_ context.Context) ([]models.FacultyAvailability, error) {
	out := make([]models.FacultyAvailability, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockAvailabilityRepo) GetByFaculty(_ context.Context, facultyID string) (*models.FacultyAvailability, error) {
	record, ok := m.records[facultyID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return record, nil
}

func (m *mockAvailabilityRepo) Upsert(_ context.Context, record *models.FacultyAvailability) error {
	m.upserted = record
	if m.records == nil {
		m.records = map[string]*models.FacultyAvailability{}
	}
	m.records[record.FacultyID] = record
	return nil
}

func (m *mockAvailabilityRepo) Delete(_ context.Context, facultyID string) error {
	m.deleted = facultyID
	delete(m.records, facultyID)
	return nil
}

type mockFacultyFinder struct{ known map[string]bool }

func (m *mockFacultyFinder) FindByID(_ context.Context, id string) (*models.Faculty, error) {
	if !m.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Faculty{ID: id}, nil
}

func newAvailabilityService(repo *mockAvailabilityRepo, assignments []models.ClassAssignment) *AvailabilityService {
	finder := &mockFacultyFinder{known: map[string]bool{"fac-anand-a1b2c3": true}}
	return NewAvailabilityService(repo, finder, &mockAssignmentLister{assignments: assignments}, nil, testScheduleConfig(), nil)
}

func TestAvailabilityGetDefaultsToUnrestricted(t *testing.T) {
	svc := newAvailabilityService(&mockAvailabilityRepo{}, nil)

	record, err := svc.GetByFaculty(context.Background(), "fac-anand-a1b2c3")

	require.NoError(t, err)
	assert.Equal(t, "fac-anand-a1b2c3", record.FacultyID)
	assert.Empty(t, record.Days)
	assert.True(t, record.Days.Allows(0, 0))
}

func TestAvailabilitySetPersistsDeclaredTable(t *testing.T) {
	repo := &mockAvailabilityRepo{}
	svc := newAvailabilityService(repo, nil)

	record, err := svc.Set(context.Background(), "fac-anand-a1b2c3", SetAvailabilityRequest{
		Days: map[int][]int{0: {0, 1, 2}, 2: {4}},
	})

	require.NoError(t, err)
	require.NotNil(t, repo.upserted)
	assert.True(t, record.Days.Allows(0, 1))
	assert.False(t, record.Days.Allows(0, 5))
	assert.True(t, record.Days.Allows(1, 7), "undeclared day stays unrestricted")
}

func TestAvailabilitySetRejectsOutOfGridSlots(t *testing.T) {
	svc := newAvailabilityService(&mockAvailabilityRepo{}, nil)

	_, err := svc.Set(context.Background(), "fac-anand-a1b2c3", SetAvailabilityRequest{
		Days: map[int][]int{0: {99}},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAvailabilitySetRejectsUnknownFaculty(t *testing.T) {
	svc := newAvailabilityService(&mockAvailabilityRepo{}, nil)

	_, err := svc.Set(context.Background(), "fac-ghost-000000", SetAvailabilityRequest{
		Days: map[int][]int{0: {1}},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAvailabilityClearRestoresDefault(t *testing.T) {
	repo := &mockAvailabilityRepo{records: map[string]*models.FacultyAvailability{
		"fac-anand-a1b2c3": {FacultyID: "fac-anand-a1b2c3", Days: models.AvailabilityDays{0: {1}}},
	}}
	svc := newAvailabilityService(repo, nil)

	require.NoError(t, svc.Clear(context.Background(), "fac-anand-a1b2c3"))
	assert.Equal(t, "fac-anand-a1b2c3", repo.deleted)

	record, err := svc.GetByFaculty(context.Background(), "fac-anand-a1b2c3")
	require.NoError(t, err)
	assert.True(t, record.Days.Allows(5, 7))
}

func TestIsFacultyAvailableConsidersOccupancyAndDeclaration(t *testing.T) {
	repo := &mockAvailabilityRepo{records: map[string]*models.FacultyAvailability{
		"fac-anand-a1b2c3": {FacultyID: "fac-anand-a1b2c3", Days: models.AvailabilityDays{0: {0, 1}}},
	}}
	committed := []models.ClassAssignment{
		assignment("a", 0, 0, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	}
	svc := newAvailabilityService(repo, committed)

	occupied, err := svc.IsFacultyAvailable(context.Background(), "fac-anand-a1b2c3", SlotQuery{Day: 0, Slot: 0})
	require.NoError(t, err)
	assert.False(t, occupied, "already teaching at that cell")

	free, err := svc.IsFacultyAvailable(context.Background(), "fac-anand-a1b2c3", SlotQuery{Day: 0, Slot: 1})
	require.NoError(t, err)
	assert.True(t, free)

	undeclared, err := svc.IsFacultyAvailable(context.Background(), "fac-anand-a1b2c3", SlotQuery{Day: 0, Slot: 5})
	require.NoError(t, err)
	assert.False(t, undeclared, "declared table excludes the slot")
}

func TestIsBatchAvailable(t *testing.T) {
	committed := []models.ClassAssignment{
		assignment("a", 2, 3, "room-r1-111111", "batch-csa-444444", "fac-anand-a1b2c3"),
	}
	svc := newAvailabilityService(&mockAvailabilityRepo{}, committed)

	busy, err := svc.IsBatchAvailable(context.Background(), "batch-csa-444444", SlotQuery{Day: 2, Slot: 3})
	require.NoError(t, err)
	assert.False(t, busy)

	free, err := svc.IsBatchAvailable(context.Background(), "batch-csa-444444", SlotQuery{Day: 2, Slot: 4})
	require.NoError(t, err)
	assert.True(t, free)
}
