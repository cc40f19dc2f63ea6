package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tabula-api/internal/models"
)

// AssignmentRepository persists class assignments. Bulk mutations are
// exposed as single-chunk operations, each running in its own committed
// transaction; the synchronizer owns chunk partitioning and sequencing.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = "id, day, slot, subject_id, faculty_ids, room_id, batch_id, locked, created_at, updated_at"

// ListAll returns every persisted assignment ordered by day/slot.
func (r *AssignmentRepository) ListAll(ctx context.Context) ([]models.ClassAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM class_assignments ORDER BY day ASC, slot ASC", assignmentColumns)
	var assignments []models.ClassAssignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListByBatch returns assignments for one batch ordered by day/slot.
func (r *AssignmentRepository) ListByBatch(ctx context.Context, batchID string) ([]models.ClassAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM class_assignments WHERE batch_id = $1 ORDER BY day ASC, slot ASC", assignmentColumns)
	var assignments []models.ClassAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, batchID); err != nil {
		return nil, fmt.Errorf("list assignments by batch: %w", err)
	}
	return assignments, nil
}

// ListByFaculty returns assignments that include a faculty member.
func (r *AssignmentRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.ClassAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM class_assignments WHERE $1 = ANY(faculty_ids) ORDER BY day ASC, slot ASC", assignmentColumns)
	var assignments []models.ClassAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, facultyID); err != nil {
		return nil, fmt.Errorf("list assignments by faculty: %w", err)
	}
	return assignments, nil
}

// FindByID loads a single assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.ClassAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM class_assignments WHERE id = $1", assignmentColumns)
	var assignment models.ClassAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListIDs returns every assignment id, optionally scoped to one batch.
func (r *AssignmentRepository) ListIDs(ctx context.Context, batchID string) ([]string, error) {
	var ids []string
	if batchID == "" {
		if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM class_assignments"); err != nil {
			return nil, fmt.Errorf("list assignment ids: %w", err)
		}
		return ids, nil
	}
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM class_assignments WHERE batch_id = $1", batchID); err != nil {
		return nil, fmt.Errorf("list assignment ids by batch: %w", err)
	}
	return ids, nil
}

// DeleteChunk removes one bounded id set in a single committed transaction.
func (r *AssignmentRepository) DeleteChunk(ctx context.Context, ids []string) error {
	return deleteIDChunk(ctx, r.db, "class_assignments", ids)
}

// InsertChunk writes one bounded assignment set in a single committed
// transaction.
func (r *AssignmentRepository) InsertChunk(ctx context.Context, assignments []models.ClassAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert assignment chunk: %w", err)
	}
	if err = insertAssignments(ctx, tx, assignments); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit insert assignment chunk: %w", err)
	}
	return nil
}

func insertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.ClassAssignment) error {
	now := time.Now().UTC()
	const query = `INSERT INTO class_assignments (id, day, slot, subject_id, faculty_ids, room_id, batch_id, locked, created_at, updated_at)
VALUES (:id, :day, :slot, :subject_id, :faculty_ids, :room_id, :batch_id, :locked, :created_at, :updated_at)`
	for i := range assignments {
		payload := assignments[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, query, &payload); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		assignments[i] = payload
	}
	return nil
}

// Update modifies a single assignment in place (drag/drop reassignment).
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.ClassAssignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_assignments SET day = :day, slot = :slot, subject_id = :subject_id, faculty_ids = :faculty_ids, room_id = :room_id, batch_id = :batch_id, locked = :locked, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// Delete removes a single assignment by id.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
