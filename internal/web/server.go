// Package web exposes the study engine over HTTP as a small JSON API:
// deck statistics, source management, sync, and the session lifecycle
// (start, next, grade, finish).
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cardgenie/cardgenie/internal/deck"
	"github.com/cardgenie/cardgenie/internal/session"
	"github.com/cardgenie/cardgenie/internal/srs"
	"github.com/cardgenie/cardgenie/internal/storage"
)

// SessionDefaults are the session parameters used when a start request
// does not override them.
type SessionDefaults struct {
	Mode           session.Mode
	MaxNewCards    int
	MaxReviewCards int
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	sched    *srs.Scheduler
	defaults SessionDefaults
	reposDir string
	router   *http.ServeMux
	now      func() time.Time

	mu      sync.Mutex
	active  *session.Session
	cards   map[string]storage.CardRow // cards in the active session, by hash
}

// NewServer creates and configures a new server. now may be nil, in
// which case the wall clock is used.
func NewServer(db *storage.DB, sched *srs.Scheduler, defaults SessionDefaults, reposDir string, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{
		db:       db,
		sched:    sched,
		defaults: defaults,
		reposDir: reposDir,
		router:   http.NewServeMux(),
		now:      now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /deck", s.handleGetDeck())
	s.router.HandleFunc("GET /sources", s.handleGetSources())
	s.router.HandleFunc("POST /sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())

	s.router.HandleFunc("POST /session", s.handleStartSession())
	s.router.HandleFunc("GET /session/next", s.handleNextCard())
	s.router.HandleFunc("POST /session/grade", s.handleGrade())
	s.router.HandleFunc("POST /session/finish", s.handleFinishSession())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleGetDeck reports how many cards are waiting.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		due, fresh, err := s.db.DueCounts(s.now())
		if err != nil {
			slog.Error("deck counts failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"due": due, "new": fresh})
	}
}

func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.GetAllSources()
		if err != nil {
			slog.Error("listing sources failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		type sourceJSON struct {
			ID          int64      `json:"id"`
			Path        string     `json:"path"`
			Type        string     `json:"type"`
			LastScanned *time.Time `json:"last_scanned"`
		}
		out := make([]sourceJSON, 0, len(sources))
		for _, src := range sources {
			sj := sourceJSON{ID: src.ID, Path: src.Path, Type: src.Type}
			if src.LastScanned.Valid {
				t := src.LastScanned.Time
				sj.LastScanned = &t
			}
			out = append(out, sj)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handlePostSource() http.HandlerFunc {
	type request struct {
		Path string `json:"path"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Path) == "" {
			writeError(w, http.StatusBadRequest, errors.New("path is required"))
			return
		}
		id, err := s.db.InsertSource(req.Path, deck.DetectType(req.Path))
		if err != nil {
			slog.Error("adding source failed", "path", req.Path, "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id, "path": req.Path})
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid source id"))
			return
		}
		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("deleting source failed", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deck.SyncAll(s.db, s.reposDir, s.now()); err != nil {
			slog.Error("sync failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
	}
}

// handleStartSession builds a session from the stored pool. Body fields
// override the configured defaults.
func (s *Server) handleStartSession() http.HandlerFunc {
	type request struct {
		Mode           *string `json:"mode"`
		MaxNewCards    *int    `json:"max_new_cards"`
		MaxReviewCards *int    `json:"max_review_cards"`
		Seed           *int64  `json:"seed"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := session.Config{
			Mode:           s.defaults.Mode,
			MaxNewCards:    s.defaults.MaxNewCards,
			MaxReviewCards: s.defaults.MaxReviewCards,
		}
		var req request
		// An empty body means "use the defaults".
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if req.Mode != nil {
			mode, err := session.ParseMode(*req.Mode)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			cfg.Mode = mode
		}
		if req.MaxNewCards != nil {
			cfg.MaxNewCards = *req.MaxNewCards
		}
		if req.MaxReviewCards != nil {
			cfg.MaxReviewCards = *req.MaxReviewCards
		}
		cfg.Seed = req.Seed

		rows, err := s.db.LoadPool()
		if err != nil {
			slog.Error("loading pool failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		pool := make([]session.Entry, 0, len(rows))
		cards := make(map[string]storage.CardRow, len(rows))
		for _, row := range rows {
			pool = append(pool, session.Entry{CardID: row.Card.Hash, Record: row.Record})
			cards[row.Card.Hash] = row
		}

		sess, err := session.Build(pool, cfg, s.sched, s.now())
		if err != nil {
			if errors.Is(err, session.ErrEmptyPool) {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		s.mu.Lock()
		s.active = sess
		s.cards = cards
		s.mu.Unlock()

		writeJSON(w, http.StatusCreated, map[string]any{
			"queue":     sess.Queue(),
			"remaining": sess.Remaining(),
		})
	}
}

func (s *Server) activeSession() (*session.Session, map[string]storage.CardRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.cards, s.active != nil
}

func (s *Server) handleNextCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, cards, ok := s.activeSession()
		if !ok {
			writeError(w, http.StatusConflict, errors.New("no active session"))
			return
		}
		id, rec, ok := sess.Next()
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"done": true})
			return
		}
		row := cards[id]
		writeJSON(w, http.StatusOK, map[string]any{
			"card_id":   id,
			"front":     row.Card.Front,
			"back":      row.Card.Back,
			"notes":     row.Card.Notes,
			"state":     rec.State,
			"remaining": sess.Remaining(),
		})
	}
}

func (s *Server) handleGrade() http.HandlerFunc {
	type request struct {
		CardID string    `json:"card_id"`
		Grade  srs.Grade `json:"grade"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sess, cards, ok := s.activeSession()
		if !ok {
			writeError(w, http.StatusConflict, errors.New("no active session"))
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		prev, known := cards[req.CardID]
		if !known {
			writeError(w, http.StatusNotFound, session.ErrUnknownCard)
			return
		}

		now := s.now()
		updated, done, err := sess.Grade(req.CardID, req.Grade, now)
		switch {
		case errors.Is(err, session.ErrUnknownCard):
			writeError(w, http.StatusNotFound, err)
			return
		case errors.Is(err, srs.ErrInvalidGrade):
			writeError(w, http.StatusBadRequest, err)
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		if err := s.db.SaveReview(req.CardID, prev.Record, updated, req.Grade, now); err != nil {
			if errors.Is(err, storage.ErrStaleRecord) {
				writeError(w, http.StatusConflict, err)
				return
			}
			slog.Error("persisting review failed", "card", req.CardID, "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		s.mu.Lock()
		row := s.cards[req.CardID]
		row.Record = updated
		s.cards[req.CardID] = row
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"record": updated,
			"done":   done,
		})
	}
}

func (s *Server) handleFinishSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _, ok := s.activeSession()
		if !ok {
			writeError(w, http.StatusConflict, errors.New("no active session"))
			return
		}
		summary := sess.Finalize(s.now())

		s.mu.Lock()
		s.active = nil
		s.cards = nil
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, summary)
	}
}
