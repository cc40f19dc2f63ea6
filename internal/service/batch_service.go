package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tabula-api/internal/models"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

type batchRepository interface {
	List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, int, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id string) error
}

// BatchSubjectAssignmentRequest pairs a subject with its teaching faculty.
type BatchSubjectAssignmentRequest struct {
	SubjectID  string   `json:"subject_id" validate:"required"`
	FacultyIDs []string `json:"faculty_ids" validate:"required,min=1"`
}

// CreateBatchRequest describes payload for creating a batch.
type CreateBatchRequest struct {
	Name               string                          `json:"name" validate:"required"`
	DepartmentID       *string                         `json:"department_id"`
	StudentCount       int                             `json:"student_count" validate:"gte=0"`
	SubjectIDs         []string                        `json:"subject_ids"`
	SubjectAssignments []BatchSubjectAssignmentRequest `json:"subject_assignments" validate:"dive"`
	FixedRoomID        *string                         `json:"fixed_room_id"`
}

// UpdateBatchRequest updates an existing batch.
type UpdateBatchRequest struct {
	Name               string                          `json:"name" validate:"required"`
	DepartmentID       *string                         `json:"department_id"`
	StudentCount       int                             `json:"student_count" validate:"gte=0"`
	SubjectIDs         []string                        `json:"subject_ids"`
	SubjectAssignments []BatchSubjectAssignmentRequest `json:"subject_assignments" validate:"dive"`
	FixedRoomID        *string                         `json:"fixed_room_id"`
}

// BatchService manages student batches.
type BatchService struct {
	repo      batchRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBatchService instantiates BatchService.
func NewBatchService(repo batchRepository, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{repo: repo, validator: validate, logger: logger}
}

// List returns batches with pagination metadata.
func (s *BatchService) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, *models.Pagination, error) {
	batches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get loads one batch.
func (s *BatchService) Get(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

// Create inserts a new batch.
func (s *BatchService) Create(ctx context.Context, req CreateBatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	batch := models.Batch{
		Name:               req.Name,
		DepartmentID:       req.DepartmentID,
		StudentCount:       req.StudentCount,
		SubjectIDs:         req.SubjectIDs,
		SubjectAssignments: toSubjectAssignments(req.SubjectAssignments),
		FixedRoomID:        req.FixedRoomID,
	}
	if err := s.repo.Create(ctx, &batch); err != nil {
		return nil, storageError(err, "failed to create batch")
	}
	return &batch, nil
}

// Update modifies an existing batch.
func (s *BatchService) Update(ctx context.Context, id string, req UpdateBatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = req.Name
	existing.DepartmentID = req.DepartmentID
	existing.StudentCount = req.StudentCount
	existing.SubjectIDs = req.SubjectIDs
	existing.SubjectAssignments = toSubjectAssignments(req.SubjectAssignments)
	existing.FixedRoomID = req.FixedRoomID
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, storageError(err, "failed to update batch")
	}
	return existing, nil
}

// Delete removes a batch.
func (s *BatchService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch")
	}
	return nil
}

func toSubjectAssignments(reqs []BatchSubjectAssignmentRequest) models.BatchSubjectAssignments {
	if reqs == nil {
		return nil
	}
	out := make(models.BatchSubjectAssignments, len(reqs))
	for i, r := range reqs {
		out[i] = models.BatchSubjectAssignment{SubjectID: r.SubjectID, FacultyIDs: r.FacultyIDs}
	}
	return out
}
