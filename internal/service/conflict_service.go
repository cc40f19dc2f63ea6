package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/tabula-api/internal/models"
)

// ReferenceSet carries the lookup tables the conflict detector consults.
// Faculty and Rooms participate in detection; Subjects and Batches are
// optional and only enrich conflict messages. Missing entries degrade to
// "Unknown" labels, never to a skipped check.
type ReferenceSet struct {
	Faculty  map[string]models.Faculty
	Rooms    map[string]models.Room
	Subjects map[string]models.Subject
	Batches  map[string]models.Batch
}

// BuildReferenceSet indexes entity slices by id.
func BuildReferenceSet(faculty []models.Faculty, rooms []models.Room, subjects []models.Subject, batches []models.Batch) ReferenceSet {
	ref := ReferenceSet{
		Faculty:  make(map[string]models.Faculty, len(faculty)),
		Rooms:    make(map[string]models.Room, len(rooms)),
		Subjects: make(map[string]models.Subject, len(subjects)),
		Batches:  make(map[string]models.Batch, len(batches)),
	}
	for _, f := range faculty {
		ref.Faculty[f.ID] = f
	}
	for _, r := range rooms {
		ref.Rooms[r.ID] = r
	}
	for _, s := range subjects {
		ref.Subjects[s.ID] = s
	}
	for _, b := range batches {
		ref.Batches[b.ID] = b
	}
	return ref
}

func (r ReferenceSet) facultyName(id string) string {
	if f, ok := r.Faculty[id]; ok {
		return f.Name
	}
	return "Unknown"
}

func (r ReferenceSet) roomName(id string) string {
	if room, ok := r.Rooms[id]; ok {
		return room.Name
	}
	return "Unknown"
}

func (r ReferenceSet) batchName(id string) string {
	if b, ok := r.Batches[id]; ok {
		return b.Name
	}
	return "Unknown"
}

// ConflictService validates draft assignment sets against committed context.
type ConflictService struct {
	logger *zap.Logger
}

// NewConflictService instantiates ConflictService.
func NewConflictService(logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{logger: logger}
}

type slotKey struct {
	day  int
	slot int
}

// CheckConflicts annotates a draft assignment set with every violated
// constraint, using externally committed assignments as read-only context.
//
// Pairwise checks run only within (day, slot) buckets. Conflicts attach to
// every draft-side id of a clashing pair and never to ids that exist solely
// in the external set; an approved, published schedule is not actionable
// from someone else's draft. Ids with no conflicts are absent from the map.
func (s *ConflictService) CheckConflicts(draft []models.ClassAssignment, external []models.ClassAssignment, ref ReferenceSet) models.ConflictMap {
	draftIDs := make(map[string]bool, len(draft))
	for _, a := range draft {
		draftIDs[a.ID] = true
	}

	buckets := make(map[slotKey][]models.ClassAssignment)
	for _, a := range draft {
		key := slotKey{day: a.Day, slot: a.Slot}
		buckets[key] = append(buckets[key], a)
	}
	for _, a := range external {
		if draftIDs[a.ID] {
			continue
		}
		key := slotKey{day: a.Day, slot: a.Slot}
		buckets[key] = append(buckets[key], a)
	}

	result := make(models.ConflictMap)
	attach := func(conflict models.Conflict, ids ...string) {
		for _, id := range ids {
			if !draftIDs[id] {
				continue
			}
			result[id] = append(result[id], conflict)
		}
	}

	for _, bucket := range buckets {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if !draftIDs[a.ID] && !draftIDs[b.ID] {
					continue
				}

				if a.RoomID != "" && a.RoomID == b.RoomID {
					attach(models.Conflict{
						Kind:          models.ConflictRoom,
						Message:       fmt.Sprintf("room %s is double-booked by %s and %s", ref.roomName(a.RoomID), ref.batchName(a.BatchID), ref.batchName(b.BatchID)),
						AssignmentIDs: []string{a.ID, b.ID},
					}, a.ID, b.ID)
				}

				for _, facultyID := range overlappingFaculty(a.FacultyIDs, b.FacultyIDs) {
					attach(models.Conflict{
						Kind:          models.ConflictFaculty,
						Message:       fmt.Sprintf("%s is scheduled for both %s and %s", ref.facultyName(facultyID), ref.batchName(a.BatchID), ref.batchName(b.BatchID)),
						AssignmentIDs: []string{a.ID, b.ID},
					}, a.ID, b.ID)
				}

				if a.BatchID != "" && a.BatchID == b.BatchID {
					attach(models.Conflict{
						Kind:          models.ConflictBatch,
						Message:       fmt.Sprintf("batch %s has two sessions in the same period", ref.batchName(a.BatchID)),
						AssignmentIDs: []string{a.ID, b.ID},
					}, a.ID, b.ID)
				}
			}
		}
	}

	// Capacity is a per-assignment property independent of slot collisions.
	for _, a := range draft {
		room, hasRoom := ref.Rooms[a.RoomID]
		batch, hasBatch := ref.Batches[a.BatchID]
		if !hasRoom || !hasBatch {
			continue
		}
		if room.Capacity < batch.StudentCount {
			result[a.ID] = append(result[a.ID], models.Conflict{
				Kind:          models.ConflictCapacity,
				Message:       fmt.Sprintf("room %s seats %d but batch %s has %d students", room.Name, room.Capacity, batch.Name, batch.StudentCount),
				AssignmentIDs: []string{a.ID},
			})
		}
	}

	if len(result) > 0 {
		s.logger.Debug("conflicts detected", zap.Int("draft_size", len(draft)), zap.Int("flagged", len(result)))
	}
	return result
}

// overlappingFaculty returns the sorted intersection of two faculty id sets.
func overlappingFaculty(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	var shared []string
	seen := make(map[string]bool)
	for _, id := range b {
		if set[id] && !seen[id] {
			shared = append(shared, id)
			seen[id] = true
		}
	}
	sort.Strings(shared)
	return shared
}
