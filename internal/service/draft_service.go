package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/pkg/config"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

type subjectLister interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type facultyLister interface {
	ListAll(ctx context.Context) ([]models.Faculty, error)
}

type roomLister interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type batchLister interface {
	ListAll(ctx context.Context) ([]models.Batch, error)
}

type availabilityLister interface {
	ListAll(ctx context.Context) ([]models.FacultyAvailability, error)
}

type assignmentLister interface {
	ListAll(ctx context.Context) ([]models.ClassAssignment, error)
}

type scheduleGenerator interface {
	Generate(ctx context.Context, payload GeneratorRequest) ([]models.ClassAssignment, error)
}

type conflictChecker interface {
	CheckConflicts(draft []models.ClassAssignment, external []models.ClassAssignment, ref ReferenceSet) models.ConflictMap
}

type conflictRecorder interface {
	ObserveConflict(kind string)
}

// DraftResult pairs a candidate assignment set with its conflict annotations.
// Conflicts are advisory; the caller decides whether to accept the draft.
type DraftResult struct {
	Assignments []models.ClassAssignment `json:"assignments"`
	Conflicts   models.ConflictMap       `json:"conflicts"`
}

// DraftService produces and validates draft schedules. Generation is
// delegated to the external generator; validation runs locally against the
// committed assignment set.
type DraftService struct {
	subjects     subjectLister
	faculty      facultyLister
	rooms        roomLister
	batches      batchLister
	availability availabilityLister
	assignments  assignmentLister
	generator    scheduleGenerator
	conflicts    conflictChecker
	sync         scheduleSaver
	metrics      conflictRecorder
	schedule     config.ScheduleConfig
	logger       *zap.Logger
}

// NewDraftService instantiates DraftService.
func NewDraftService(
	subjects subjectLister,
	faculty facultyLister,
	rooms roomLister,
	batches batchLister,
	availability availabilityLister,
	assignments assignmentLister,
	generator scheduleGenerator,
	conflicts conflictChecker,
	sync scheduleSaver,
	metrics conflictRecorder,
	schedule config.ScheduleConfig,
	logger *zap.Logger,
) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftService{
		subjects:     subjects,
		faculty:      faculty,
		rooms:        rooms,
		batches:      batches,
		availability: availability,
		assignments:  assignments,
		generator:    generator,
		conflicts:    conflicts,
		sync:         sync,
		metrics:      metrics,
		schedule:     schedule,
		logger:       logger,
	}
}

// Generate asks the external generator for a candidate schedule and
// annotates it with conflicts against committed assignments. Preconditions
// are checked before any call leaves the service: generation with no
// subjects, faculty, rooms, or batches defined is blocked up front.
func (s *DraftService) Generate(ctx context.Context) (*DraftResult, error) {
	if err := s.schedule.Validate(); err != nil {
		return nil, err
	}

	subjects, faculty, rooms, batches, err := s.loadEntities(ctx)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot generate a schedule without subjects")
	}
	if len(faculty) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot generate a schedule without faculty")
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot generate a schedule without rooms")
	}
	if len(batches) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot generate a schedule without batches")
	}

	availability, err := s.availability.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	draft, err := s.generator.Generate(ctx, GeneratorRequest{
		Subjects:     subjects,
		Faculty:      faculty,
		Rooms:        rooms,
		Batches:      batches,
		Availability: availability,
		DaysPerWeek:  s.schedule.DaysPerWeek,
		SlotsPerDay:  s.schedule.SlotsPerDay,
	})
	if err != nil {
		return nil, err
	}

	return s.annotate(ctx, draft, subjects, faculty, rooms, batches)
}

// Check annotates an externally supplied draft (manual edit, re-validation)
// with conflicts against the committed assignment set.
func (s *DraftService) Check(ctx context.Context, draft []models.ClassAssignment) (*DraftResult, error) {
	subjects, faculty, rooms, batches, err := s.loadEntities(ctx)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, draft, subjects, faculty, rooms, batches)
}

// Accept pushes a draft through the synchronizer. Conflicts never block
// acceptance; last writer wins.
func (s *DraftService) Accept(ctx context.Context, draft []models.ClassAssignment, targetScope string) error {
	return s.sync.SaveSchedule(ctx, draft, targetScope)
}

func (s *DraftService) annotate(ctx context.Context, draft []models.ClassAssignment, subjects []models.Subject, faculty []models.Faculty, rooms []models.Room, batches []models.Batch) (*DraftResult, error) {
	external, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committed assignments")
	}

	ref := BuildReferenceSet(faculty, rooms, subjects, batches)
	conflicts := s.conflicts.CheckConflicts(draft, external, ref)
	if s.metrics != nil {
		for _, list := range conflicts {
			for _, conflict := range list {
				s.metrics.ObserveConflict(string(conflict.Kind))
			}
		}
	}

	s.logger.Info("draft validated",
		zap.Int("draft_size", len(draft)),
		zap.Int("external_size", len(external)),
		zap.Int("flagged", len(conflicts)))
	return &DraftResult{Assignments: draft, Conflicts: conflicts}, nil
}

func (s *DraftService) loadEntities(ctx context.Context) ([]models.Subject, []models.Faculty, []models.Room, []models.Batch, error) {
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	faculty, err := s.faculty.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	batches, err := s.batches.ListAll(ctx)
	if err != nil {
		return nil, nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}
	return subjects, faculty, rooms, batches, nil
}
