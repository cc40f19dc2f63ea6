package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AvailabilityDays maps a day index to the slot indices a faculty member has
// declared themselves available for. A day with no entry carries no
// restriction for that day.
type AvailabilityDays map[int][]int

// Value serialises the day map as JSONB.
func (d AvailabilityDays) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan deserialises the day map from JSONB.
func (d *AvailabilityDays) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported availability days type %T", src)
	}
	return json.Unmarshal(raw, d)
}

// Allows reports whether the declared table permits teaching at (day, slot).
// A day without a declared entry is unrestricted.
func (d AvailabilityDays) Allows(day, slot int) bool {
	slots, declared := d[day]
	if !declared {
		return true
	}
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

// FacultyAvailability stores the declared availability table for one faculty
// member. Faculty without a record are assumed always available.
type FacultyAvailability struct {
	ID        string           `db:"id" json:"id"`
	FacultyID string           `db:"faculty_id" json:"faculty_id"`
	Days      AvailabilityDays `db:"days" json:"days"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AvailabilityTable indexes declared availability by faculty id.
type AvailabilityTable map[string]AvailabilityDays

// BuildAvailabilityTable folds availability records into a lookup table.
func BuildAvailabilityTable(records []FacultyAvailability) AvailabilityTable {
	table := make(AvailabilityTable, len(records))
	for _, rec := range records {
		table[rec.FacultyID] = rec.Days
	}
	return table
}
