package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tabula-api/internal/models"
)

// AvailabilityRepository handles persistence for declared faculty
// availability tables.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new repository instance.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = "id, faculty_id, days, created_at, updated_at"

// ListAll returns every declared availability record.
func (r *AvailabilityRepository) ListAll(ctx context.Context) ([]models.FacultyAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty_availability", availabilityColumns)
	var records []models.FacultyAvailability
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return records, nil
}

// GetByFaculty loads the declared table for one faculty member.
func (r *AvailabilityRepository) GetByFaculty(ctx context.Context, facultyID string) (*models.FacultyAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty_availability WHERE faculty_id = $1", availabilityColumns)
	var record models.FacultyAvailability
	if err := r.db.GetContext(ctx, &record, query, facultyID); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert writes the declared table for a faculty member.
func (r *AvailabilityRepository) Upsert(ctx context.Context, record *models.FacultyAvailability) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO faculty_availability (id, faculty_id, days, created_at, updated_at)
VALUES (:id, :faculty_id, :days, :created_at, :updated_at)
ON CONFLICT (faculty_id) DO UPDATE SET days = EXCLUDED.days, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert availability: %w", err)
	}
	return nil
}

// Delete removes the declared table for a faculty member, restoring the
// default "always available" state.
func (r *AvailabilityRepository) Delete(ctx context.Context, facultyID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM faculty_availability WHERE faculty_id = $1`, facultyID); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection using chunked transactions.
func (r *AvailabilityRepository) ReplaceAll(ctx context.Context, records []models.FacultyAvailability, chunkSize int) error {
	ids, err := listTableIDs(ctx, r.db, "faculty_availability")
	if err != nil {
		return err
	}
	for _, chunk := range chunkStrings(ids, chunkSize) {
		if err := deleteIDChunk(ctx, r.db, "faculty_availability", chunk); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	const query = `INSERT INTO faculty_availability (id, faculty_id, days, created_at, updated_at) VALUES (:id, :faculty_id, :days, :created_at, :updated_at)`
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert availability chunk: %w", err)
		}
		for i := start; i < end; i++ {
			payload := records[i]
			if payload.ID == "" {
				payload.ID = uuid.NewString()
			}
			if payload.CreatedAt.IsZero() {
				payload.CreatedAt = now
			}
			payload.UpdatedAt = now
			if _, err := sqlx.NamedExecContext(ctx, tx, query, &payload); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert availability: %w", err)
			}
			records[i] = payload
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert availability chunk: %w", err)
		}
	}
	return nil
}
