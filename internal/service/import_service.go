package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/pkg/config"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

// Canonical id prefixes per entity type. An id already carrying its type's
// prefix is kept as-is; everything else is re-keyed during import.
const (
	prefixDepartment = "dept"
	prefixRoom       = "room"
	prefixSubject    = "sub"
	prefixFaculty    = "fac"
	prefixBatch      = "batch"
	prefixAssignment = "asg"
)

type departmentReplacer interface {
	ReplaceAll(ctx context.Context, departments []models.Department, chunkSize int) error
}

type roomReplacer interface {
	ReplaceAll(ctx context.Context, rooms []models.Room, chunkSize int) error
}

type subjectReplacer interface {
	ReplaceAll(ctx context.Context, subjects []models.Subject, chunkSize int) error
}

type facultyReplacer interface {
	ReplaceAll(ctx context.Context, faculty []models.Faculty, chunkSize int) error
}

type batchReplacer interface {
	ReplaceAll(ctx context.Context, batches []models.Batch, chunkSize int) error
}

type availabilityReplacer interface {
	ReplaceAll(ctx context.Context, records []models.FacultyAvailability, chunkSize int) error
}

type scheduleSaver interface {
	SaveSchedule(ctx context.Context, assignments []models.ClassAssignment, targetScope string) error
}

// ImportService canonicalises bulk snapshots and replays them through the
// entity stores and the schedule synchronizer.
type ImportService struct {
	departments  departmentReplacer
	rooms        roomReplacer
	subjects     subjectReplacer
	faculty      facultyReplacer
	batches      batchReplacer
	availability availabilityReplacer
	sync         scheduleSaver
	schedule     config.ScheduleConfig
	logger       *zap.Logger
}

// NewImportService instantiates ImportService.
func NewImportService(
	departments departmentReplacer,
	rooms roomReplacer,
	subjects subjectReplacer,
	faculty facultyReplacer,
	batches batchReplacer,
	availability availabilityReplacer,
	sync scheduleSaver,
	schedule config.ScheduleConfig,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		departments:  departments,
		rooms:        rooms,
		subjects:     subjects,
		faculty:      faculty,
		batches:      batches,
		availability: availability,
		sync:         sync,
		schedule:     schedule,
		logger:       logger,
	}
}

// ImportSnapshot canonicalises the snapshot and persists every collection
// through chunked whole-set replacement. The returned snapshot is the
// canonical form, whether or not persistence succeeded.
func (s *ImportService) ImportSnapshot(ctx context.Context, raw models.Snapshot) (models.Snapshot, error) {
	if err := s.schedule.Validate(); err != nil {
		return models.Snapshot{}, err
	}

	canonical := s.Canonicalize(raw)

	chunk := s.schedule.ChunkSize
	if err := s.departments.ReplaceAll(ctx, canonical.Departments, chunk); err != nil {
		return canonical, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to import departments")
	}
	if err := s.rooms.ReplaceAll(ctx, canonical.Rooms, chunk); err != nil {
		return canonical, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to import rooms")
	}
	if err := s.subjects.ReplaceAll(ctx, canonical.Subjects, chunk); err != nil {
		return canonical, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to import subjects")
	}
	if err := s.faculty.ReplaceAll(ctx, canonical.Faculty, chunk); err != nil {
		return canonical, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to import faculty")
	}
	if err := s.batches.ReplaceAll(ctx, canonical.Batches, chunk); err != nil {
		return canonical, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to import batches")
	}
	if err := s.availability.ReplaceAll(ctx, canonical.Availability, chunk); err != nil {
		return canonical, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to import availability")
	}
	if err := s.sync.SaveSchedule(ctx, canonical.Assignments, ""); err != nil {
		return canonical, err
	}

	s.logger.Info("snapshot imported",
		zap.Int("departments", len(canonical.Departments)),
		zap.Int("rooms", len(canonical.Rooms)),
		zap.Int("subjects", len(canonical.Subjects)),
		zap.Int("faculty", len(canonical.Faculty)),
		zap.Int("batches", len(canonical.Batches)),
		zap.Int("assignments", len(canonical.Assignments)))
	return canonical, nil
}

// Canonicalize re-keys every entity onto the canonical id convention and
// rewrites cross-entity references through per-type remap tables.
//
// Entity types process in dependency order because later rewrites consume
// earlier remap tables. A referenced id that no remap table resolves is kept
// unchanged: the resulting dangling reference surfaces as "Unknown" in
// conflict messages and views instead of silently dropping data.
func (s *ImportService) Canonicalize(raw models.Snapshot) models.Snapshot {
	out := models.Snapshot{
		Departments:  make([]models.Department, len(raw.Departments)),
		Rooms:        make([]models.Room, len(raw.Rooms)),
		Subjects:     make([]models.Subject, len(raw.Subjects)),
		Faculty:      make([]models.Faculty, len(raw.Faculty)),
		Batches:      make([]models.Batch, len(raw.Batches)),
		Availability: make([]models.FacultyAvailability, len(raw.Availability)),
		Assignments:  make([]models.ClassAssignment, len(raw.Assignments)),
	}

	departmentMap := make(map[string]string)
	for i, d := range raw.Departments {
		d.ID = canonicalID(prefixDepartment, d.ID, firstNonEmpty(d.Code, d.Name), departmentMap)
		out.Departments[i] = d
	}

	roomMap := make(map[string]string)
	for i, r := range raw.Rooms {
		r.ID = canonicalID(prefixRoom, r.ID, r.Name, roomMap)
		out.Rooms[i] = r
	}

	subjectMap := make(map[string]string)
	for i, sub := range raw.Subjects {
		sub.ID = canonicalID(prefixSubject, sub.ID, firstNonEmpty(sub.Code, sub.Name), subjectMap)
		out.Subjects[i] = sub
	}

	facultyMap := make(map[string]string)
	for i, f := range raw.Faculty {
		f.ID = canonicalID(prefixFaculty, f.ID, f.Name, facultyMap)
		f.DepartmentID = remapOptional(f.DepartmentID, departmentMap)
		f.SubjectIDs = remapList(f.SubjectIDs, subjectMap)
		out.Faculty[i] = f
	}

	batchMap := make(map[string]string)
	for i, b := range raw.Batches {
		b.ID = canonicalID(prefixBatch, b.ID, b.Name, batchMap)
		b.DepartmentID = remapOptional(b.DepartmentID, departmentMap)
		b.FixedRoomID = remapOptional(b.FixedRoomID, roomMap)
		b.SubjectIDs = remapList(b.SubjectIDs, subjectMap)
		assignments := make(models.BatchSubjectAssignments, len(b.SubjectAssignments))
		for j, sa := range b.SubjectAssignments {
			sa.SubjectID = remap(sa.SubjectID, subjectMap)
			sa.FacultyIDs = remapList(sa.FacultyIDs, facultyMap)
			assignments[j] = sa
		}
		b.SubjectAssignments = assignments
		out.Batches[i] = b
	}

	for i, rec := range raw.Availability {
		rec.FacultyID = remap(rec.FacultyID, facultyMap)
		out.Availability[i] = rec
	}

	var dangling int
	for i, a := range raw.Assignments {
		if !strings.HasPrefix(a.ID, prefixAssignment+"-") {
			a.ID = newCanonicalID(prefixAssignment, "class")
		}
		a.BatchID = remapCounting(a.BatchID, batchMap, &dangling)
		a.RoomID = remapCounting(a.RoomID, roomMap, &dangling)
		a.SubjectID = remapCounting(a.SubjectID, subjectMap, &dangling)
		a.FacultyIDs = remapListCounting(a.FacultyIDs, facultyMap, &dangling)
		out.Assignments[i] = a
	}

	if dangling > 0 {
		s.logger.Warn("import left unresolvable references unchanged", zap.Int("count", dangling))
	}
	return out
}

// canonicalID keeps an id that already carries the type prefix, otherwise
// synthesizes one and records the old id in the remap table. Every record
// with a colliding legacy id still receives its own distinct canonical id;
// the remap table keeps the first occurrence, so ambiguous references
// resolve deterministically.
func canonicalID(prefix, id, label string, remapTable map[string]string) string {
	if strings.HasPrefix(id, prefix+"-") {
		remapTable[id] = id
		return id
	}
	fresh := newCanonicalID(prefix, label)
	if id != "" {
		if _, exists := remapTable[id]; !exists {
			remapTable[id] = fresh
		}
	}
	return fresh
}

func newCanonicalID(prefix, label string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return prefix + "-" + slugify(label) + "-" + suffix
}

// slugify reduces a natural name or code to a lowercase hyphenated token.
func slugify(raw string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "item"
	}
	return slug
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func remap(id string, table map[string]string) string {
	if mapped, ok := table[id]; ok {
		return mapped
	}
	return id
}

func remapCounting(id string, table map[string]string, dangling *int) string {
	if id == "" {
		return id
	}
	if mapped, ok := table[id]; ok {
		return mapped
	}
	*dangling++
	return id
}

func remapOptional(id *string, table map[string]string) *string {
	if id == nil {
		return nil
	}
	mapped := remap(*id, table)
	return &mapped
}

func remapList(ids []string, table map[string]string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = remap(id, table)
	}
	return out
}

func remapListCounting(ids []string, table map[string]string, dangling *int) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = remapCounting(id, table, dangling)
	}
	return out
}
