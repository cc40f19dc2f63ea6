package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabula-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func assignmentRows(assignments ...models.ClassAssignment) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "day", "slot", "subject_id", "faculty_ids", "room_id", "batch_id", "locked", "created_at", "updated_at"})
	for _, a := range assignments {
		rows.AddRow(a.ID, a.Day, a.Slot, a.SubjectID, pq.StringArray(a.FacultyIDs), a.RoomID, a.BatchID, a.Locked, time.Now(), time.Now())
	}
	return rows
}

func TestAssignmentRepositoryListByBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, day, slot, subject_id, faculty_ids, room_id, batch_id, locked, created_at, updated_at FROM class_assignments WHERE batch_id = $1")).
		WithArgs("batch-csa-444444").
		WillReturnRows(assignmentRows(models.ClassAssignment{
			ID: "asg-1", Day: 0, Slot: 1, SubjectID: "sub-1",
			FacultyIDs: []string{"fac-1"}, RoomID: "room-1", BatchID: "batch-csa-444444",
		}))

	assignments, err := repo.ListByBatch(context.Background(), "batch-csa-444444")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "asg-1", assignments[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListIDsScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM class_assignments WHERE batch_id = $1")).
		WithArgs("batch-csa-444444").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("asg-1").AddRow("asg-2"))

	ids, err := repo.ListIDs(context.Background(), "batch-csa-444444")
	require.NoError(t, err)
	require.Equal(t, []string{"asg-1", "asg-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteChunkCommitsOneTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_assignments WHERE id = ANY($1)")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteChunk(context.Background(), []string{"asg-1", "asg-2"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDeleteChunkEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	require.NoError(t, repo.DeleteChunk(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryInsertChunkCommitsOneTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	assignments := []models.ClassAssignment{
		{Day: 0, Slot: 1, SubjectID: "sub-1", FacultyIDs: []string{"fac-1"}, RoomID: "room-1", BatchID: "batch-1"},
		{Day: 0, Slot: 2, SubjectID: "sub-1", FacultyIDs: []string{"fac-1"}, RoomID: "room-1", BatchID: "batch-1"},
	}
	require.NoError(t, repo.InsertChunk(context.Background(), assignments))

	// Missing ids are filled in during the insert.
	require.NotEmpty(t, assignments[0].ID)
	require.NotEmpty(t, assignments[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryInsertChunkRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_assignments")).
		WillReturnError(errors.New("duplicate key value"))
	mock.ExpectRollback()

	err := repo.InsertChunk(context.Background(), []models.ClassAssignment{
		{ID: "asg-1", FacultyIDs: []string{"fac-1"}},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_assignments SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assignment := &models.ClassAssignment{
		ID: "asg-1", Day: 1, Slot: 3, SubjectID: "sub-1",
		FacultyIDs: []string{"fac-1"}, RoomID: "room-2", BatchID: "batch-1",
	}
	require.NoError(t, repo.Update(context.Background(), assignment))
	require.False(t, assignment.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
