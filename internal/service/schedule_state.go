package service

import (
	"sync"

	"github.com/noah-isme/tabula-api/internal/models"
)

// ScheduleState is the in-memory view of the persisted assignment set. It is
// mutated optimistically before network confirmation, so it can diverge from
// the store after a partial chunk failure until the next Refresh.
type ScheduleState struct {
	mu          sync.RWMutex
	assignments []models.ClassAssignment
}

// NewScheduleState creates an empty local schedule view.
func NewScheduleState() *ScheduleState {
	return &ScheduleState{}
}

// Assignments returns a copy of the current local assignment set.
func (s *ScheduleState) Assignments() []models.ClassAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ClassAssignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// Refresh replaces the local view wholesale from a store read. This is the
// consistency backstop after a partial chunk failure.
func (s *ScheduleState) Refresh(assignments []models.ClassAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = make([]models.ClassAssignment, len(assignments))
	copy(s.assignments, assignments)
}

// ReplaceScope swaps the assignments of one batch, or the whole set when
// batchID is empty. Assignments outside the scope are left untouched.
func (s *ScheduleState) ReplaceScope(batchID string, assignments []models.ClassAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if batchID == "" {
		s.assignments = make([]models.ClassAssignment, len(assignments))
		copy(s.assignments, assignments)
		return
	}

	kept := s.assignments[:0]
	for _, a := range s.assignments {
		if a.BatchID != batchID {
			kept = append(kept, a)
		}
	}
	s.assignments = append(kept, assignments...)
}

// Clear drops every local assignment.
func (s *ScheduleState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = nil
}
