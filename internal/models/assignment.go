package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassAssignment places a batch, subject, room, and one or more faculty
// members at a (day, slot) cell of the weekly grid. Identity is the id;
// uniqueness of (day, slot, batch) is a property the conflict detector
// validates, not a constraint enforced at construction.
type ClassAssignment struct {
	ID         string         `db:"id" json:"id"`
	Day        int            `db:"day" json:"day"`
	Slot       int            `db:"slot" json:"slot"`
	SubjectID  string         `db:"subject_id" json:"subject_id"`
	FacultyIDs pq.StringArray `db:"faculty_ids" json:"faculty_ids"`
	RoomID     string         `db:"room_id" json:"room_id"`
	BatchID    string         `db:"batch_id" json:"batch_id"`
	Locked     bool           `db:"locked" json:"locked"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// ConflictKind names the constraint an assignment pair violates.
type ConflictKind string

const (
	ConflictFaculty  ConflictKind = "FACULTY"
	ConflictRoom     ConflictKind = "ROOM"
	ConflictBatch    ConflictKind = "BATCH"
	ConflictCapacity ConflictKind = "CAPACITY"
)

// Conflict describes one violated constraint and the assignments involved.
type Conflict struct {
	Kind          ConflictKind `json:"kind"`
	Message       string       `json:"message"`
	AssignmentIDs []string     `json:"assignment_ids"`
}

// ConflictMap maps draft assignment ids to the conflicts touching them.
// An id with no conflicts is absent from the map, never present with an
// empty list.
type ConflictMap map[string][]Conflict
