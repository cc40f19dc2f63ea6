package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/pkg/config"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

type mockAssignmentStore struct {
	persisted map[string]models.ClassAssignment

	deleteChunks [][]string
	insertChunks [][]models.ClassAssignment

	failInsertAt int
}

func newMockAssignmentStore(existing ...models.ClassAssignment) *mockAssignmentStore {
	m := &mockAssignmentStore{persisted: make(map[string]models.ClassAssignment), failInsertAt: -1}
	for _, a := range existing {
		m.persisted[a.ID] = a
	}
	return m
}

func (m *mockAssignmentStore) ListAll(ctx context.Context) ([]models.ClassAssignment, error) {
	var out []models.ClassAssignment
	for _, a := range m.persisted {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAssignmentStore) ListIDs(ctx context.Context, batchID string) ([]string, error) {
	var ids []string
	for id, a := range m.persisted {
		if batchID == "" || a.BatchID == batchID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockAssignmentStore) DeleteChunk(ctx context.Context, ids []string) error {
	m.deleteChunks = append(m.deleteChunks, append([]string(nil), ids...))
	for _, id := range ids {
		delete(m.persisted, id)
	}
	return nil
}

func (m *mockAssignmentStore) InsertChunk(ctx context.Context, assignments []models.ClassAssignment) error {
	if m.failInsertAt >= 0 && len(m.insertChunks) == m.failInsertAt {
		return errors.New("transaction aborted")
	}
	m.insertChunks = append(m.insertChunks, append([]models.ClassAssignment(nil), assignments...))
	for _, a := range assignments {
		m.persisted[a.ID] = a
	}
	return nil
}

func testScheduleConfig() config.ScheduleConfig {
	return config.ScheduleConfig{
		DaysPerWeek:    6,
		SlotsPerDay:    8,
		PeriodDuration: 45 * time.Minute,
		ChunkSize:      400,
		StoreOpLimit:   500,
	}
}

func makeAssignments(count int, batchID string) []models.ClassAssignment {
	out := make([]models.ClassAssignment, count)
	for i := range out {
		out[i] = models.ClassAssignment{
			ID:         fmt.Sprintf("asg-gen-%06d", i),
			Day:        i % 6,
			Slot:       (i / 6) % 8,
			SubjectID:  "sub-math-333333",
			FacultyIDs: []string{"fac-anand-a1b2c3"},
			RoomID:     "room-r1-111111",
			BatchID:    batchID,
		}
	}
	return out
}

func TestSaveScheduleChunksWrites(t *testing.T) {
	store := newMockAssignmentStore()
	svc := NewSyncService(store, nil, nil, nil, testScheduleConfig(), nil)

	err := svc.SaveSchedule(context.Background(), makeAssignments(1000, "batch-csa-444444"), "")
	require.NoError(t, err)

	// 1000 assignments at chunk size 400 issue exactly 3 write transactions.
	require.Len(t, store.insertChunks, 3)
	assert.Len(t, store.insertChunks[0], 400)
	assert.Len(t, store.insertChunks[1], 400)
	assert.Len(t, store.insertChunks[2], 200)
}

func TestSaveScheduleChunksDeletes(t *testing.T) {
	existing := makeAssignments(900, "batch-csa-444444")
	store := newMockAssignmentStore(existing...)
	svc := NewSyncService(store, nil, nil, nil, testScheduleConfig(), nil)

	err := svc.SaveSchedule(context.Background(), nil, "")
	require.NoError(t, err)

	require.Len(t, store.deleteChunks, 3)
	total := 0
	for _, chunk := range store.deleteChunks {
		assert.LessOrEqual(t, len(chunk), 400)
		total += len(chunk)
	}
	assert.Equal(t, 900, total)
	assert.Empty(t, store.persisted)
}

func TestSaveScheduleScopedLeavesOtherBatchesUntouched(t *testing.T) {
	otherA := models.ClassAssignment{ID: "asg-old-a", Day: 0, Slot: 0, BatchID: "batch-csb-555555", RoomID: "r", FacultyIDs: []string{"f"}}
	otherB := models.ClassAssignment{ID: "asg-old-b", Day: 1, Slot: 1, BatchID: "batch-csb-555555", RoomID: "r", FacultyIDs: []string{"f"}}
	stale := models.ClassAssignment{ID: "asg-stale", Day: 2, Slot: 2, BatchID: "batch-csa-444444", RoomID: "r", FacultyIDs: []string{"f"}}
	store := newMockAssignmentStore(otherA, otherB, stale)

	state := NewScheduleState()
	state.Refresh([]models.ClassAssignment{otherA, otherB, stale})
	svc := NewSyncService(store, state, nil, nil, testScheduleConfig(), nil)

	replacement := makeAssignments(3, "batch-csa-444444")
	err := svc.SaveSchedule(context.Background(), replacement, "batch-csa-444444")
	require.NoError(t, err)

	// The other batch survives bit-for-bit in the store.
	assert.Equal(t, otherA, store.persisted["asg-old-a"])
	assert.Equal(t, otherB, store.persisted["asg-old-b"])
	assert.NotContains(t, store.persisted, "asg-stale")
	assert.Len(t, store.persisted, 5)

	// And in local state.
	var localOther, localScoped int
	for _, a := range state.Assignments() {
		switch a.BatchID {
		case "batch-csb-555555":
			localOther++
		case "batch-csa-444444":
			localScoped++
			assert.NotEqual(t, "asg-stale", a.ID)
		}
	}
	assert.Equal(t, 2, localOther)
	assert.Equal(t, 3, localScoped)
}

func TestSaveScheduleRejectsAssignmentOutsideScope(t *testing.T) {
	store := newMockAssignmentStore()
	svc := NewSyncService(store, nil, nil, nil, testScheduleConfig(), nil)

	draft := makeAssignments(2, "batch-csb-555555")
	err := svc.SaveSchedule(context.Background(), draft, "batch-csa-444444")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.insertChunks)
	assert.Empty(t, store.deleteChunks)
}

func TestSaveScheduleRejectsEmptyFaculty(t *testing.T) {
	store := newMockAssignmentStore()
	svc := NewSyncService(store, nil, nil, nil, testScheduleConfig(), nil)

	draft := []models.ClassAssignment{{ID: "asg-x", Day: 0, Slot: 0, BatchID: "b", RoomID: "r"}}
	err := svc.SaveSchedule(context.Background(), draft, "")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveScheduleRejectsOutOfGridCells(t *testing.T) {
	store := newMockAssignmentStore()
	svc := NewSyncService(store, nil, nil, nil, testScheduleConfig(), nil)

	draft := []models.ClassAssignment{{ID: "asg-x", Day: 6, Slot: 0, BatchID: "b", RoomID: "r", FacultyIDs: []string{"f"}}}
	err := svc.SaveSchedule(context.Background(), draft, "")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveScheduleRejectsInvalidChunkConfig(t *testing.T) {
	cfg := testScheduleConfig()
	cfg.ChunkSize = 600 // above the store transaction limit of 500
	svc := NewSyncService(newMockAssignmentStore(), nil, nil, nil, cfg, nil)

	err := svc.SaveSchedule(context.Background(), makeAssignments(1, "b"), "")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErrors.FromError(err).Code)
}

func TestSaveSchedulePartialFailureKeepsCommittedChunks(t *testing.T) {
	store := newMockAssignmentStore()
	store.failInsertAt = 1 // first chunk commits, second aborts
	svc := NewSyncService(store, nil, nil, nil, testScheduleConfig(), nil)

	err := svc.SaveSchedule(context.Background(), makeAssignments(800, "batch-csa-444444"), "")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPersistence.Code, appErr.Code)
	// The committed chunk is not rolled back; atomicity holds per chunk only.
	require.Len(t, store.insertChunks, 1)
	assert.Len(t, store.persisted, 400)
}

func TestResetScheduleClearsEverything(t *testing.T) {
	existing := makeAssignments(500, "batch-csa-444444")
	store := newMockAssignmentStore(existing...)
	state := NewScheduleState()
	state.Refresh(existing)
	svc := NewSyncService(store, state, nil, nil, testScheduleConfig(), nil)

	err := svc.ResetSchedule(context.Background())
	require.NoError(t, err)

	assert.Empty(t, store.persisted)
	assert.Empty(t, state.Assignments())
	require.Len(t, store.deleteChunks, 2)
}

func TestRefreshReconcilesLocalState(t *testing.T) {
	existing := makeAssignments(5, "batch-csa-444444")
	store := newMockAssignmentStore(existing...)
	state := NewScheduleState()
	svc := NewSyncService(store, state, nil, nil, testScheduleConfig(), nil)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Len(t, state.Assignments(), 5)
}
