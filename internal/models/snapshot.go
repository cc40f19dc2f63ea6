package models

// Snapshot is a bulk dump of every entity collection, as produced by an
// export or by an older system generation with legacy identifiers. The
// importer canonicalises ids and rewrites every cross-entity reference
// before the snapshot is loaded.
type Snapshot struct {
	Departments  []Department          `json:"departments"`
	Rooms        []Room                `json:"rooms"`
	Subjects     []Subject             `json:"subjects"`
	Faculty      []Faculty             `json:"faculty"`
	Batches      []Batch               `json:"batches"`
	Availability []FacultyAvailability `json:"availability"`
	Assignments  []ClassAssignment     `json:"assignments"`
}
