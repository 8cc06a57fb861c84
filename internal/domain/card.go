package domain

import "time"

// Card is a single flashcard. Front and Back hold the prompt and the
// expected recall; Notes carries optional supporting context (the journal
// excerpt or scan the card was generated from).
type Card struct {
	Front string
	Back  string
	Notes string
	Hash  string
}

// ReviewEvent records one grading of a card. Grade values follow the
// four-step scale: 1 Again, 2 Hard, 3 Good, 4 Easy.
type ReviewEvent struct {
	CardHash string
	Grade    int
	At       time.Time
}
