package model

import "time"

// PatientRecord is the durable patient-visit entity. The id is assigned by the
// record store on create and never changes afterwards. Transcript and summary
// are always written together: both empty, or both populated.
type PatientRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PatientAge  string    `json:"patientAge,omitempty"`
	VisitDate   string    `json:"visitDate,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Transcript  string    `json:"transcript,omitempty"`
	AudioURL    string    `json:"audioUrl,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecordRef distinguishes a brand-new record from an edit of an existing one.
// The save coordinator branches on this variant, not on id presence, so the
// skip-reprocessing policy stays an explicit decision.
type RecordRef struct {
	id string
}

func NewRecord() RecordRef {
	return RecordRef{}
}

func ExistingRecord(id string) RecordRef {
	return RecordRef{id: id}
}

// Existing reports the record id and true when the ref points at a persisted
// record.
func (r RecordRef) Existing() (string, bool) {
	return r.id, r.id != ""
}

// VisitForm is the manually entered metadata that accompanies a save. Summary
// carries the clinician's edited summary text, if any; it only applies to
// edits of existing records.
type VisitForm struct {
	Name        string
	PatientAge  string
	VisitDate   string
	Title       string
	Description string
	Summary     string
}
