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

// FacultyRepository handles persistence for faculty members.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository creates a new repository instance.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

const facultyColumns = "id, name, department_id, subject_ids, created_at, updated_at"

// List returns faculty matching filters with pagination metadata.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	base := "FROM faculty WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(subject_ids)", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := sanitizeSort(filter.SortBy, map[string]bool{"name": true, "created_at": true}, "name")
	order := sanitizeOrder(filter.SortOrder)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", facultyColumns, base, sortBy, order, limit, offset)
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}

	return faculty, total, nil
}

// ListAll returns every faculty member for lookup tables.
func (r *FacultyRepository) ListAll(ctx context.Context) ([]models.Faculty, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty ORDER BY name ASC", facultyColumns)
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list all faculty: %w", err)
	}
	return faculty, nil
}

// FindByID loads a faculty member by id.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty WHERE id = $1", facultyColumns)
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, id); err != nil {
		return nil, err
	}
	return &faculty, nil
}

// Create stores a new faculty member.
func (r *FacultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	if faculty.ID == "" {
		faculty.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	faculty.CreatedAt = now
	faculty.UpdatedAt = now

	const query = `INSERT INTO faculty (id, name, department_id, subject_ids, created_at, updated_at) VALUES (:id, :name, :department_id, :subject_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, faculty); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update modifies a faculty record.
func (r *FacultyRepository) Update(ctx context.Context, faculty *models.Faculty) error {
	faculty.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET name = :name, department_id = :department_id, subject_ids = :subject_ids, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, faculty); err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return nil
}

// Delete removes a faculty member by id.
func (r *FacultyRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM faculty WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection using chunked transactions.
func (r *FacultyRepository) ReplaceAll(ctx context.Context, faculty []models.Faculty, chunkSize int) error {
	ids, err := listTableIDs(ctx, r.db, "faculty")
	if err != nil {
		return err
	}
	for _, chunk := range chunkStrings(ids, chunkSize) {
		if err := deleteIDChunk(ctx, r.db, "faculty", chunk); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	const query = `INSERT INTO faculty (id, name, department_id, subject_ids, created_at, updated_at) VALUES (:id, :name, :department_id, :subject_ids, :created_at, :updated_at)`
	for start := 0; start < len(faculty); start += chunkSize {
		end := start + chunkSize
		if end > len(faculty) {
			end = len(faculty)
		}
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert faculty chunk: %w", err)
		}
		for i := start; i < end; i++ {
			payload := faculty[i]
			if payload.ID == "" {
				payload.ID = uuid.NewString()
			}
			if payload.CreatedAt.IsZero() {
				payload.CreatedAt = now
			}
			payload.UpdatedAt = now
			if _, err := sqlx.NamedExecContext(ctx, tx, query, &payload); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert faculty: %w", err)
			}
			faculty[i] = payload
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert faculty chunk: %w", err)
		}
	}
	return nil
}
