package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tabula-api/internal/models"
)

// BatchRepository handles persistence for student batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository creates a new repository instance.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

const batchColumns = "id, name, department_id, student_count, subject_ids, subject_assignments, fixed_room_id, created_at, updated_at"

// List returns batches matching filters with pagination metadata.
func (r *BatchRepository) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error) {
	base := "FROM batches WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := sanitizeSort(filter.SortBy, map[string]bool{"name": true, "student_count": true, "created_at": true}, "name")
	order := sanitizeOrder(filter.SortOrder)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", batchColumns, base, sortBy, order, limit, offset)
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	return batches, total, nil
}

// ListAll returns every batch for lookup tables.
func (r *BatchRepository) ListAll(ctx context.Context) ([]models.Batch, error) {
	query := fmt.Sprintf("SELECT %s FROM batches ORDER BY name ASC", batchColumns)
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list all batches: %w", err)
	}
	return batches, nil
}

// FindByID loads a batch by id.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	query := fmt.Sprintf("SELECT %s FROM batches WHERE id = $1", batchColumns)
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Create stores a new batch.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	batch.CreatedAt = now
	batch.UpdatedAt = now

	const query = `INSERT INTO batches (id, name, department_id, student_count, subject_ids, subject_assignments, fixed_room_id, created_at, updated_at)
VALUES (:id, :name, :department_id, :student_count, :subject_ids, :subject_assignments, :fixed_room_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// Update modifies a batch record.
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch) error {
	batch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE batches SET name = :name, department_id = :department_id, student_count = :student_count, subject_ids = :subject_ids, subject_assignments = :subject_assignments, fixed_room_id = :fixed_room_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, batch); err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return nil
}

// Delete removes a batch by id.
func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection using chunked transactions.
func (r *BatchRepository) ReplaceAll(ctx context.Context, batches []models.Batch, chunkSize int) error {
	ids, err := listTableIDs(ctx, r.db, "batches")
	if err != nil {
		return err
	}
	for _, chunk := range chunkStrings(ids, chunkSize) {
		if err := deleteIDChunk(ctx, r.db, "batches", chunk); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	const query = `INSERT INTO batches (id, name, department_id, student_count, subject_ids, subject_assignments, fixed_room_id, created_at, updated_at)
VALUES (:id, :name, :department_id, :student_count, :subject_ids, :subject_assignments, :fixed_room_id, :created_at, :updated_at)`
	for start := 0; start < len(batches); start += chunkSize {
		end := start + chunkSize
		if end > len(batches) {
			end = len(batches)
		}
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert batch chunk: %w", err)
		}
		for i := start; i < end; i++ {
			payload := batches[i]
			if payload.ID == "" {
				payload.ID = uuid.NewString()
			}
			if payload.CreatedAt.IsZero() {
				payload.CreatedAt = now
			}
			payload.UpdatedAt = now
			if _, err := sqlx.NamedExecContext(ctx, tx, query, &payload); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert batch: %w", err)
			}
			batches[i] = payload
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert batch chunk: %w", err)
		}
	}
	return nil
}
