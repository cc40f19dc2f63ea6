package models

import "time"

// RoomCategory classifies teaching spaces.
type RoomCategory string

const (
	RoomLectureHall RoomCategory = "LECTURE_HALL"
	RoomLab         RoomCategory = "LAB"
	RoomWorkshop    RoomCategory = "WORKSHOP"
)

// Room represents a teaching space with a seating capacity.
type Room struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Category  RoomCategory `db:"category" json:"category"`
	Capacity  int          `db:"capacity" json:"capacity"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures supported filters for listing rooms.
type RoomFilter struct {
	Category    RoomCategory
	MinCapacity int
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
