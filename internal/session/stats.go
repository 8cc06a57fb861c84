package session

import "time"

// Stats accumulates per-session counters. Owned by the Session for its
// lifetime; callers read it only through Finalize's Summary snapshot.
type Stats struct {
	Attempted   int
	Correct     int // Any grade other than Again.
	Again       int
	Hard        int
	Good        int
	Easy        int
	StartedAt   time.Time
	CompletedAt *time.Time // nil until the session is finalized.
}

// Summary is the immutable end-of-session report returned to the host UI.
type Summary struct {
	Attempted   int       `json:"attempted"`
	Correct     int       `json:"correct"`
	Again       int       `json:"again"`
	Hard        int       `json:"hard"`
	Good        int       `json:"good"`
	Easy        int       `json:"easy"`
	Accuracy    float64   `json:"accuracy"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Finalize turns a stats accumulator into a Summary. It is a pure
// function: finalizing already-finalized stats yields the same summary,
// since a set CompletedAt takes precedence over now.
func Finalize(stats Stats, now time.Time) Summary {
	completed := now
	if stats.CompletedAt != nil {
		completed = *stats.CompletedAt
	}
	var accuracy float64
	if stats.Attempted > 0 {
		accuracy = float64(stats.Correct) / float64(stats.Attempted)
	}
	return Summary{
		Attempted:   stats.Attempted,
		Correct:     stats.Correct,
		Again:       stats.Again,
		Hard:        stats.Hard,
		Good:        stats.Good,
		Easy:        stats.Easy,
		Accuracy:    accuracy,
		StartedAt:   stats.StartedAt,
		CompletedAt: completed,
	}
}
