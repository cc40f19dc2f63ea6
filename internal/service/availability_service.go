package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/pkg/config"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

type availabilityRepository interface {
	ListAll(ctx context.Context) ([]models.FacultyAvailability, error)
	GetByFaculty(ctx context.Context, facultyID string) (*models.FacultyAvailability, error)
	Upsert(ctx context.Context, record *models.FacultyAvailability) error
	Delete(ctx context.Context, facultyID string) error
}

type facultyFinder interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

// SetAvailabilityRequest declares the slots a faculty member can teach.
type SetAvailabilityRequest struct {
	Days map[int][]int `json:"days" validate:"required"`
}

// SlotQuery identifies one cell of the weekly grid.
type SlotQuery struct {
	Day  int `json:"day"`
	Slot int `json:"slot"`
}

// AvailabilityService manages declared faculty availability and answers
// point availability queries against the committed schedule.
type AvailabilityService struct {
	repo        availabilityRepository
	faculty     facultyFinder
	assignments assignmentLister
	validator   *validator.Validate
	schedule    config.ScheduleConfig
	logger      *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, faculty facultyFinder, assignments assignmentLister, validate *validator.Validate, schedule config.ScheduleConfig, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, faculty: faculty, assignments: assignments, validator: validate, schedule: schedule, logger: logger}
}

// GetByFaculty returns the declared table for one faculty member. Faculty
// without a declared record get an empty, unrestricted table.
func (s *AvailabilityService) GetByFaculty(ctx context.Context, facultyID string) (*models.FacultyAvailability, error) {
	record, err := s.repo.GetByFaculty(ctx, facultyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.FacultyAvailability{FacultyID: facultyID, Days: models.AvailabilityDays{}}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return record, nil
}

// Set declares the availability table for a faculty member.
func (s *AvailabilityService) Set(ctx context.Context, facultyID string, req SetAvailabilityRequest) (*models.FacultyAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	for day, slots := range req.Days {
		if day < 0 || day >= s.schedule.DaysPerWeek {
			return nil, appErrors.Clone(appErrors.ErrValidation, "availability day is outside the configured week")
		}
		for _, slot := range slots {
			if slot < 0 || slot >= s.schedule.SlotsPerDay {
				return nil, appErrors.Clone(appErrors.ErrValidation, "availability slot is outside the configured day")
			}
		}
	}

	if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	record := &models.FacultyAvailability{FacultyID: facultyID, Days: models.AvailabilityDays(req.Days)}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save availability")
	}
	return record, nil
}

// Clear removes the declared table, returning the faculty member to the
// default unrestricted state.
func (s *AvailabilityService) Clear(ctx context.Context, facultyID string) error {
	if err := s.repo.Delete(ctx, facultyID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear availability")
	}
	return nil
}

// IsFacultyAvailable answers whether a faculty member is free at the given
// cell, considering both the declared table and committed occupancy.
func (s *AvailabilityService) IsFacultyAvailable(ctx context.Context, facultyID string, query SlotQuery) (bool, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return FacultyAvailable(facultyID, query.Day, query.Slot, assignments, models.BuildAvailabilityTable(records)), nil
}

// IsRoomAvailable answers whether a room can host a session of the subject
// for the batch at the given cell.
func (s *AvailabilityService) IsRoomAvailable(ctx context.Context, room models.Room, batch models.Batch, subject models.Subject, query SlotQuery) (bool, error) {
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return RoomAvailable(room.ID, query.Day, query.Slot, batch, subject, room, assignments), nil
}

// IsBatchAvailable answers whether a batch is free at the given cell.
func (s *AvailabilityService) IsBatchAvailable(ctx context.Context, batchID string, query SlotQuery) (bool, error) {
	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return BatchAvailable(batchID, query.Day, query.Slot, assignments), nil
}
