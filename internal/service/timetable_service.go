package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/pkg/config"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
	"github.com/noah-isme/tabula-api/pkg/export"
)

var defaultDayLabels = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

type assignmentReader interface {
	ListAll(ctx context.Context) ([]models.ClassAssignment, error)
	ListByBatch(ctx context.Context, batchID string) ([]models.ClassAssignment, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.ClassAssignment, error)
	FindByID(ctx context.Context, id string) (*models.ClassAssignment, error)
	Update(ctx context.Context, assignment *models.ClassAssignment) error
	Delete(ctx context.Context, id string) error
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheLookupRecorder interface {
	RecordCacheLookup(hit bool)
}

// TimetableView is one entity's weekly schedule with names resolved.
type TimetableView struct {
	Scope       string                   `json:"scope"`
	ScopeID     string                   `json:"scope_id"`
	Assignments []models.ClassAssignment `json:"assignments"`
	Labels      map[string]TimetableCell `json:"labels"`
}

// TimetableCell resolves the display names for one assignment. Ids that no
// lookup table resolves render as "Unknown".
type TimetableCell struct {
	Subject string `json:"subject"`
	Faculty string `json:"faculty"`
	Room    string `json:"room"`
	Batch   string `json:"batch"`
}

// MoveAssignmentRequest relocates one assignment on the grid (drag/drop).
type MoveAssignmentRequest struct {
	Day    int    `json:"day"`
	Slot   int    `json:"slot"`
	RoomID string `json:"room_id"`
}

// TimetableService serves resolved timetable views, with a Redis cache in
// front of the store, and single-assignment mutations.
type TimetableService struct {
	assignments assignmentReader
	subjects    subjectLister
	faculty     facultyLister
	rooms       roomLister
	batches     batchLister
	cache       timetableCache
	metrics     cacheLookupRecorder
	schedule    config.ScheduleConfig
	exportCfg   config.ExportConfig
	logger      *zap.Logger
}

// NewTimetableService instantiates TimetableService.
func NewTimetableService(
	assignments assignmentReader,
	subjects subjectLister,
	faculty facultyLister,
	rooms roomLister,
	batches batchLister,
	cache timetableCache,
	metrics cacheLookupRecorder,
	schedule config.ScheduleConfig,
	exportCfg config.ExportConfig,
	logger *zap.Logger,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		assignments: assignments,
		subjects:    subjects,
		faculty:     faculty,
		rooms:       rooms,
		batches:     batches,
		cache:       cache,
		metrics:     metrics,
		schedule:    schedule,
		exportCfg:   exportCfg,
		logger:      logger,
	}
}

// BatchView returns the resolved weekly timetable of one batch.
func (s *TimetableService) BatchView(ctx context.Context, batchID string) (*TimetableView, error) {
	key := fmt.Sprintf("timetable:batch:%s", batchID)
	if view := s.cached(ctx, key); view != nil {
		return view, nil
	}

	assignments, err := s.assignments.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch timetable")
	}
	view, err := s.buildView(ctx, "batch", batchID, assignments)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, view)
	return view, nil
}

// FacultyView returns the resolved weekly timetable of one faculty member.
func (s *TimetableService) FacultyView(ctx context.Context, facultyID string) (*TimetableView, error) {
	key := fmt.Sprintf("timetable:faculty:%s", facultyID)
	if view := s.cached(ctx, key); view != nil {
		return view, nil
	}

	assignments, err := s.assignments.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty timetable")
	}
	view, err := s.buildView(ctx, "faculty", facultyID, assignments)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, view)
	return view, nil
}

// MasterView returns the resolved timetable across every batch.
func (s *TimetableService) MasterView(ctx context.Context) (*TimetableView, error) {
	key := "timetable:master"
	if view := s.cached(ctx, key); view != nil {
		return view, nil
	}

	assignments, err := s.assignments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	view, err := s.buildView(ctx, "master", "", assignments)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, view)
	return view, nil
}

// Find loads one assignment.
func (s *TimetableService) Find(ctx context.Context, id string) (*models.ClassAssignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Move relocates one assignment on the grid, optionally changing rooms.
func (s *TimetableService) Move(ctx context.Context, assignment *models.ClassAssignment, req MoveAssignmentRequest) error {
	if assignment.Locked {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment is locked")
	}
	if req.Day < 0 || req.Day >= s.schedule.DaysPerWeek || req.Slot < 0 || req.Slot >= s.schedule.SlotsPerDay {
		return appErrors.Clone(appErrors.ErrValidation, "target cell is outside the configured weekly grid")
	}

	assignment.Day = req.Day
	assignment.Slot = req.Slot
	if req.RoomID != "" {
		assignment.RoomID = req.RoomID
	}
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to move assignment")
	}
	s.invalidate(ctx)
	return nil
}

// Remove deletes one assignment.
func (s *TimetableService) Remove(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete assignment")
	}
	s.invalidate(ctx)
	return nil
}

// ExportGrid renders a view into the export grid shape consumed by the CSV
// and PDF exporters.
func (s *TimetableService) ExportGrid(view *TimetableView, title string) (*export.Grid, error) {
	if title == "" {
		title = s.exportCfg.Title
	}
	days := s.schedule.DaysPerWeek
	if days > len(defaultDayLabels) {
		days = len(defaultDayLabels)
	}
	grid := export.NewGrid(title, defaultDayLabels[:days], s.schedule.SlotsPerDay)

	for _, a := range view.Assignments {
		labels := view.Labels[a.ID]
		if err := grid.Set(a.Day, a.Slot, export.Cell{
			Subject: labels.Subject,
			Faculty: labels.Faculty,
			Room:    labels.Room,
		}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "assignment outside exportable grid")
		}
	}
	return grid, nil
}

func (s *TimetableService) buildView(ctx context.Context, scope, scopeID string, assignments []models.ClassAssignment) (*TimetableView, error) {
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	faculty, err := s.faculty.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	batches, err := s.batches.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batches")
	}

	ref := BuildReferenceSet(faculty, rooms, subjects, batches)
	labels := make(map[string]TimetableCell, len(assignments))
	for _, a := range assignments {
		names := make([]string, 0, len(a.FacultyIDs))
		for _, fid := range a.FacultyIDs {
			names = append(names, ref.facultyName(fid))
		}
		subjectName := "Unknown"
		if sub, ok := ref.Subjects[a.SubjectID]; ok {
			subjectName = sub.Name
		}
		labels[a.ID] = TimetableCell{
			Subject: subjectName,
			Faculty: strings.Join(names, ", "),
			Room:    ref.roomName(a.RoomID),
			Batch:   ref.batchName(a.BatchID),
		}
	}

	return &TimetableView{Scope: scope, ScopeID: scopeID, Assignments: assignments, Labels: labels}, nil
}

func (s *TimetableService) cached(ctx context.Context, key string) *TimetableView {
	if s.cache == nil {
		return nil
	}
	var view TimetableView
	if err := s.cache.Get(ctx, key, &view); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
		return nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(true)
	}
	return &view
}

func (s *TimetableService) store(ctx context.Context, key string, view *TimetableView) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, view, s.schedule.CacheTTL); err != nil {
		s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *TimetableService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
	}
}
