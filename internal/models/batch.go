package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// BatchSubjectAssignment pairs a subject with the faculty members expected to
// teach it for a batch. Shared sessions list every faculty id.
type BatchSubjectAssignment struct {
	SubjectID  string   `json:"subject_id"`
	FacultyIDs []string `json:"faculty_ids"`
}

// BatchSubjectAssignments is the JSONB-persisted collection form.
type BatchSubjectAssignments []BatchSubjectAssignment

// Value serialises the assignments as JSONB.
func (a BatchSubjectAssignments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// Scan deserialises the assignments from JSONB.
func (a *BatchSubjectAssignments) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported subject assignments type %T", src)
	}
	return json.Unmarshal(raw, a)
}

// Batch represents a cohort of students sharing a curriculum and schedule.
//
// SubjectIDs is the legacy flat list kept for older datasets; the structured
// SubjectAssignments form supersedes it and both survive import rewriting.
type Batch struct {
	ID                 string                  `db:"id" json:"id"`
	Name               string                  `db:"name" json:"name"`
	DepartmentID       *string                 `db:"department_id" json:"department_id,omitempty"`
	StudentCount       int                     `db:"student_count" json:"student_count"`
	SubjectIDs         pq.StringArray          `db:"subject_ids" json:"subject_ids"`
	SubjectAssignments BatchSubjectAssignments `db:"subject_assignments" json:"subject_assignments"`
	FixedRoomID        *string                 `db:"fixed_room_id" json:"fixed_room_id,omitempty"`
	CreatedAt          time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time               `db:"updated_at" json:"updated_at"`
}

// BatchFilter captures supported filters for listing batches.
type BatchFilter struct {
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
