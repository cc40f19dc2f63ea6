package service

import "github.com/noah-isme/tabula-api/internal/models"

// Availability predicates are pure and side-effect-free. They answer "is this
// resource free at (day, slot)" against a snapshot of assignments, and are
// used standalone when filtering candidate rooms or faculty during manual
// placement, as well as forming the semantic basis of the conflict detector.

// FacultyAvailable reports whether a faculty member can teach at (day, slot).
// A declared availability entry for the day that omits the slot makes the
// faculty unavailable; faculty without a declared entry are limited only by
// occupancy.
func FacultyAvailable(facultyID string, day, slot int, assignments []models.ClassAssignment, availability models.AvailabilityTable) bool {
	if days, declared := availability[facultyID]; declared {
		if !days.Allows(day, slot) {
			return false
		}
	}
	for _, a := range assignments {
		if a.Day != day || a.Slot != slot {
			continue
		}
		for _, fid := range a.FacultyIDs {
			if fid == facultyID {
				return false
			}
		}
	}
	return true
}

// RoomAvailable reports whether a room can host a session of the given
// subject for the given batch at (day, slot). Capacity and category are
// checked before occupancy.
func RoomAvailable(roomID string, day, slot int, batch models.Batch, subject models.Subject, room models.Room, assignments []models.ClassAssignment) bool {
	if room.Capacity < batch.StudentCount {
		return false
	}
	if room.Category != subject.RequiredRoomCategory() {
		return false
	}
	for _, a := range assignments {
		if a.Day == day && a.Slot == slot && a.RoomID == roomID {
			return false
		}
	}
	return true
}

// BatchAvailable reports whether a batch is free at (day, slot). A batch
// cannot attend two sessions at once.
func BatchAvailable(batchID string, day, slot int, assignments []models.ClassAssignment) bool {
	for _, a := range assignments {
		if a.Day == day && a.Slot == slot && a.BatchID == batchID {
			return false
		}
	}
	return true
}
