package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/pkg/config"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

type assignmentStore interface {
	ListAll(ctx context.Context) ([]models.ClassAssignment, error)
	ListIDs(ctx context.Context, batchID string) ([]string, error)
	DeleteChunk(ctx context.Context, ids []string) error
	InsertChunk(ctx context.Context, assignments []models.ClassAssignment) error
}

type timetableCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type syncMetrics interface {
	ObserveSyncChunk(operation string)
}

// SyncService makes the persisted assignment set match a freshly computed
// one without exceeding the store's per-transaction operation limit.
//
// Chunked deletes and writes each commit in their own transaction and run
// sequentially. The operation is atomic per chunk, never across chunks:
// chunks committed before a failure stay committed, the local view diverges
// from the store, and the caller reconciles with a refresh. The mutex keeps
// two chunked sequences from interleaving on overlapping scopes.
type SyncService struct {
	store    assignmentStore
	state    *ScheduleState
	cache    timetableCacheInvalidator
	metrics  syncMetrics
	schedule config.ScheduleConfig
	logger   *zap.Logger

	mu sync.Mutex
}

// NewSyncService instantiates SyncService.
func NewSyncService(store assignmentStore, state *ScheduleState, cache timetableCacheInvalidator, metrics syncMetrics, schedule config.ScheduleConfig, logger *zap.Logger) *SyncService {
	if state == nil {
		state = NewScheduleState()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{store: store, state: state, cache: cache, metrics: metrics, schedule: schedule, logger: logger}
}

// State exposes the local schedule view.
func (s *SyncService) State() *ScheduleState {
	return s.state
}

// SaveSchedule replaces the persisted assignment set with newAssignments.
// A non-empty targetScope (a batch id) restricts replacement to that batch;
// assignments of every other batch are untouched locally and remotely.
func (s *SyncService) SaveSchedule(ctx context.Context, newAssignments []models.ClassAssignment, targetScope string) error {
	if err := s.schedule.Validate(); err != nil {
		return err
	}
	if targetScope != "" {
		for _, a := range newAssignments {
			if a.BatchID != targetScope {
				return appErrors.Clone(appErrors.ErrValidation, "assignment outside the target batch scope")
			}
		}
	}
	for _, a := range newAssignments {
		if len(a.FacultyIDs) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "assignment requires at least one faculty member")
		}
		if a.Day < 0 || a.Day >= s.schedule.DaysPerWeek || a.Slot < 0 || a.Slot >= s.schedule.SlotsPerDay {
			return appErrors.Clone(appErrors.ErrValidation, "assignment is outside the configured weekly grid")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Local state first, before any network confirmation.
	s.state.ReplaceScope(targetScope, newAssignments)

	existingIDs, err := s.store.ListIDs(ctx, targetScope)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read current schedule scope")
	}

	if err := s.deleteChunked(ctx, existingIDs); err != nil {
		return err
	}

	for _, chunk := range chunkAssignments(newAssignments, s.schedule.ChunkSize) {
		if err := s.store.InsertChunk(ctx, chunk); err != nil {
			s.logger.Error("schedule write chunk failed",
				zap.String("scope", targetScope),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "a schedule write failed partway; refresh to reconcile")
		}
		if s.metrics != nil {
			s.metrics.ObserveSyncChunk("insert")
		}
	}

	s.invalidateViews(ctx)
	s.logger.Info("schedule saved",
		zap.String("scope", targetScope),
		zap.Int("assignments", len(newAssignments)),
		zap.Int("deleted", len(existingIDs)))
	return nil
}

// ResetSchedule clears every assignment, locally and remotely, with the same
// chunked delete strategy.
func (s *SyncService) ResetSchedule(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Clear()

	ids, err := s.store.ListIDs(ctx, "")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to read current schedule")
	}
	if err := s.deleteChunked(ctx, ids); err != nil {
		return err
	}

	s.invalidateViews(ctx)
	s.logger.Info("schedule reset", zap.Int("deleted", len(ids)))
	return nil
}

// Refresh reloads the local view from the store. Callers run this after a
// partial chunk failure or an external store change.
func (s *SyncService) Refresh(ctx context.Context) error {
	assignments, err := s.store.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to refresh schedule")
	}
	s.state.Refresh(assignments)
	return nil
}

func (s *SyncService) deleteChunked(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += s.schedule.ChunkSize {
		end := start + s.schedule.ChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := s.store.DeleteChunk(ctx, ids[start:end]); err != nil {
			s.logger.Error("schedule delete chunk failed",
				zap.Int("chunk_size", end-start),
				zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "a schedule delete failed partway; refresh to reconcile")
		}
		if s.metrics != nil {
			s.metrics.ObserveSyncChunk("delete")
		}
	}
	return nil
}

func (s *SyncService) invalidateViews(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
	}
}

func chunkAssignments(assignments []models.ClassAssignment, size int) [][]models.ClassAssignment {
	if size <= 0 || len(assignments) == 0 {
		if len(assignments) == 0 {
			return nil
		}
		return [][]models.ClassAssignment{assignments}
	}
	var chunks [][]models.ClassAssignment
	for start := 0; start < len(assignments); start += size {
		end := start + size
		if end > len(assignments) {
			end = len(assignments)
		}
		chunks = append(chunks, assignments[start:end])
	}
	return chunks
}
