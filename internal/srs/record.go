package srs

import "time"

// ReviewRecord is the per-card memory state the scheduler reads and writes.
// The scheduler is the only component that mutates these fields; everything
// else treats a record as read-only.
type ReviewRecord struct {
	EaseFactor     float64    `json:"ease_factor"`     // >= MinEase after every update.
	IntervalDays   int        `json:"interval_days"`   // >= 0; 0 means "repeat this sitting".
	Due            time.Time  `json:"due"`
	ReviewCount    int        `json:"review_count"`    // Completed reviews; never decreases.
	LapseCount     int        `json:"lapse_count"`     // Post-graduation failures; never decreases.
	State          CardState  `json:"state"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"` // nil before the first review.
}

// NewRecord returns the state of a freshly created card: New, due
// immediately, with the conventional starting ease.
func NewRecord(now time.Time) ReviewRecord {
	return ReviewRecord{
		EaseFactor: InitialEase,
		State:      New,
		Due:        now,
	}
}

// clone returns a deep copy of the record. Pointer fields are copied by value.
func (r ReviewRecord) clone() ReviewRecord {
	out := r
	if r.LastReviewedAt != nil {
		v := *r.LastReviewedAt
		out.LastReviewedAt = &v
	}
	return out
}
