// Package session builds and runs one bounded study sitting: it selects
// and orders the cards to present, feeds grades through the srs
// scheduler, and tracks per-session statistics.
package session

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cardgenie/cardgenie/internal/srs"
)

// Config constrains a session. The zero value is a due-only session with
// no caps.
type Config struct {
	Mode           Mode
	MaxNewCards    int // <= 0 means no cap.
	MaxReviewCards int // <= 0 means no cap.
	// Seed, when set, makes new-card shuffling reproducible and is
	// forwarded to the scheduler's interval fuzz.
	Seed *int64
}

// Entry pairs a card's identity with its current review record.
type Entry struct {
	CardID string
	Record srs.ReviewRecord
}

// newCardStride places a new card at every third queue slot so a mixed
// session never front-loads all-new or all-review blocks.
const newCardStride = 3

// requeueLookahead is how many cards later a still-learning card
// reappears within the same sitting.
const requeueLookahead = 3

// Session is one active study sitting. All methods are safe for use from
// a single caller at a time; the internal mutex guards against hosts that
// touch a session from more than one goroutine.
type Session struct {
	mu      sync.Mutex
	sched   *srs.Scheduler
	queue   []string
	records map[string]srs.ReviewRecord
	stats   Stats
}

// Build selects and orders cards from the pool according to cfg.
//
// Due cards (past their due date, not New) come oldest-overdue first with
// card ID as the tie-break; new cards follow a deterministic order (seeded
// shuffle when cfg.Seed is set, card ID otherwise) and are interleaved at
// every third slot. Returns ErrEmptyPool if nothing qualifies.
func Build(pool []Entry, cfg Config, sched *srs.Scheduler, now time.Time) (*Session, error) {
	if sched == nil {
		sched = srs.NewScheduler(srs.Config{Seed: cfg.Seed})
	}

	var due, fresh []Entry
	for _, e := range pool {
		switch {
		case e.Record.State == srs.New:
			if cfg.Mode != DueOnly {
				fresh = append(fresh, e)
			}
		default:
			if cfg.Mode != NewOnly && !e.Record.Due.After(now) {
				due = append(due, e)
			}
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].Record.Due.Equal(due[j].Record.Due) {
			return due[i].Record.Due.Before(due[j].Record.Due)
		}
		return due[i].CardID < due[j].CardID
	})
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].CardID < fresh[j].CardID })
	if cfg.Seed != nil {
		rng := rand.New(rand.NewSource(*cfg.Seed))
		rng.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
	}

	if cfg.MaxReviewCards > 0 && len(due) > cfg.MaxReviewCards {
		due = due[:cfg.MaxReviewCards]
	}
	if cfg.MaxNewCards > 0 && len(fresh) > cfg.MaxNewCards {
		fresh = fresh[:cfg.MaxNewCards]
	}

	if len(due) == 0 && len(fresh) == 0 {
		return nil, ErrEmptyPool
	}

	s := &Session{
		sched:   sched,
		records: make(map[string]srs.ReviewRecord, len(due)+len(fresh)),
		stats:   Stats{StartedAt: now},
	}
	s.queue = make([]string, 0, len(due)+len(fresh))
	di, ni := 0, 0
	for di < len(due) || ni < len(fresh) {
		newSlot := len(s.queue)%newCardStride == newCardStride-1
		if ni < len(fresh) && (newSlot || di >= len(due)) {
			s.queue = append(s.queue, fresh[ni].CardID)
			ni++
		} else {
			s.queue = append(s.queue, due[di].CardID)
			di++
		}
	}
	for _, e := range due {
		s.records[e.CardID] = e.Record
	}
	for _, e := range fresh {
		s.records[e.CardID] = e.Record
	}
	return s, nil
}

// Next returns the card to present, without advancing the queue.
// ok is false once the session is complete.
func (s *Session) Next() (cardID string, rec srs.ReviewRecord, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", srs.ReviewRecord{}, false
	}
	id := s.queue[0]
	return id, s.records[id], true
}

// Remaining reports how many presentations are left, counting requeued
// repeats.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Queue returns a copy of the pending card order.
func (s *Session) Queue() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queue))
	copy(out, s.queue)
	return out
}

// Grade records the learner's grade for a card in the session. The
// scheduler computes the card's next review record, the session counters
// advance, and a card that is still being learned (Learning/Relearning
// with a zero interval) is reinserted a few slots ahead so it comes back
// this sitting.
//
// The update is all-or-nothing: ErrUnknownCard and srs.ErrInvalidGrade
// leave the queue, the record and the stats untouched. done reports
// whether the queue is now empty.
func (s *Session) Grade(cardID string, grade srs.Grade, now time.Time) (updated srs.ReviewRecord, done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := -1
	for i, id := range s.queue {
		if id == cardID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return srs.ReviewRecord{}, false, ErrUnknownCard
	}

	rec := s.records[cardID]
	out, err := s.sched.Schedule(cardID, rec, grade, now)
	if err != nil {
		return srs.ReviewRecord{}, false, err
	}

	s.queue = append(s.queue[:pos], s.queue[pos+1:]...)
	s.records[cardID] = out

	s.stats.Attempted++
	switch grade {
	case srs.Again:
		s.stats.Again++
	case srs.Hard:
		s.stats.Hard++
		s.stats.Correct++
	case srs.Good:
		s.stats.Good++
		s.stats.Correct++
	case srs.Easy:
		s.stats.Easy++
		s.stats.Correct++
	}

	if (out.State == srs.Learning || out.State == srs.Relearning) && out.IntervalDays == 0 {
		at := requeueLookahead
		if at > len(s.queue) {
			at = len(s.queue)
		}
		s.queue = append(s.queue, "")
		copy(s.queue[at+1:], s.queue[at:])
		s.queue[at] = cardID
	}

	return out, len(s.queue) == 0, nil
}

// Finalize stamps the completion time (first call wins) and returns the
// session summary. Safe to call more than once.
func (s *Session) Finalize(now time.Time) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats.CompletedAt == nil {
		t := now
		s.stats.CompletedAt = &t
	}
	return Finalize(s.stats, now)
}
