package models

import "time"

// SubjectCategory classifies a subject and implies the room category its
// sessions must be held in.
type SubjectCategory string

const (
	SubjectTheory    SubjectCategory = "THEORY"
	SubjectPractical SubjectCategory = "PRACTICAL"
	SubjectWorkshop  SubjectCategory = "WORKSHOP"
)

// Subject represents an academic subject.
type Subject struct {
	ID        string          `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Name      string          `db:"name" json:"name"`
	Category  SubjectCategory `db:"category" json:"category"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// RequiredRoomCategory maps the subject category to the room category a
// session of this subject needs.
func (s Subject) RequiredRoomCategory() RoomCategory {
	switch s.Category {
	case SubjectPractical:
		return RoomLab
	case SubjectWorkshop:
		return RoomWorkshop
	default:
		return RoomLectureHall
	}
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Category  SubjectCategory
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
