package models

import (
	"time"

	"github.com/lib/pq"
)

// Faculty represents an instructor who may teach a set of subjects.
type Faculty struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	DepartmentID *string        `db:"department_id" json:"department_id,omitempty"`
	SubjectIDs   pq.StringArray `db:"subject_ids" json:"subject_ids"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// FacultyFilter captures supported filters for listing faculty.
type FacultyFilter struct {
	DepartmentID string
	SubjectID    string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
