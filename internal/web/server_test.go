package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/cardgenie/cardgenie/internal/domain"
	"github.com/cardgenie/cardgenie/internal/session"
	"github.com/cardgenie/cardgenie/internal/srs"
	"github.com/cardgenie/cardgenie/internal/storage"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, cards int) *Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sourceID, err := db.InsertSource("/notes", "local")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}
	for i := 0; i < cards; i++ {
		card := domain.Card{
			Hash:  string(rune('a' + i)),
			Front: "front",
			Back:  "back",
		}
		if err := db.InsertCard(card, sourceID, t0); err != nil {
			t.Fatalf("InsertCard: %v", err)
		}
	}

	sched := srs.NewScheduler(srs.Config{DisableFuzz: true})
	defaults := SessionDefaults{Mode: session.Mixed, MaxNewCards: 20, MaxReviewCards: 200}
	return NewServer(db, sched, defaults, t.TempDir(), func() time.Time { return t0 })
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestDeckCounts(t *testing.T) {
	s := newTestServer(t, 3)
	w := doJSON(t, s, http.MethodGet, "/deck", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var counts map[string]int
	decodeBody(t, w, &counts)
	if counts["new"] != 3 || counts["due"] != 0 {
		t.Errorf("counts = %v, want 3 new, 0 due", counts)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, 2)

	w := doJSON(t, s, http.MethodPost, "/session", map[string]any{"mode": "newonly"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", w.Code, w.Body)
	}
	var started struct {
		Queue     []string `json:"queue"`
		Remaining int      `json:"remaining"`
	}
	decodeBody(t, w, &started)
	if started.Remaining != 2 {
		t.Fatalf("remaining = %d, want 2", started.Remaining)
	}

	w = doJSON(t, s, http.MethodGet, "/session/next", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("next status = %d", w.Code)
	}
	var next struct {
		CardID string `json:"card_id"`
		Front  string `json:"front"`
	}
	decodeBody(t, w, &next)
	if next.CardID != started.Queue[0] || next.Front != "front" {
		t.Errorf("next = %+v", next)
	}

	for i, id := range started.Queue {
		w = doJSON(t, s, http.MethodPost, "/session/grade", map[string]any{"card_id": id, "grade": "Good"})
		if w.Code != http.StatusOK {
			t.Fatalf("grade status = %d: %s", w.Code, w.Body)
		}
		var graded struct {
			Record srs.ReviewRecord `json:"record"`
			Done   bool             `json:"done"`
		}
		decodeBody(t, w, &graded)
		if graded.Record.State != srs.Review {
			t.Errorf("state = %v, want Review", graded.Record.State)
		}
		if wantDone := i == len(started.Queue)-1; graded.Done != wantDone {
			t.Errorf("done = %v at card %d", graded.Done, i)
		}
	}

	w = doJSON(t, s, http.MethodPost, "/session/finish", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finish status = %d", w.Code)
	}
	var summary session.Summary
	decodeBody(t, w, &summary)
	if summary.Attempted != 2 || summary.Correct != 2 || summary.Accuracy != 1.0 {
		t.Errorf("summary = %+v", summary)
	}

	// Session is gone after finishing.
	w = doJSON(t, s, http.MethodGet, "/session/next", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("next after finish status = %d, want 409", w.Code)
	}
}

func TestStartSessionEmptyPool(t *testing.T) {
	s := newTestServer(t, 0)
	w := doJSON(t, s, http.MethodPost, "/session", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for empty pool", w.Code)
	}
}

func TestGradeUnknownCard(t *testing.T) {
	s := newTestServer(t, 1)
	if w := doJSON(t, s, http.MethodPost, "/session", nil); w.Code != http.StatusCreated {
		t.Fatalf("start status = %d", w.Code)
	}
	w := doJSON(t, s, http.MethodPost, "/session/grade", map[string]any{"card_id": "ghost", "grade": "Good"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for unknown card", w.Code)
	}
}

func TestGradeInvalidGrade(t *testing.T) {
	s := newTestServer(t, 1)
	var started struct {
		Queue []string `json:"queue"`
	}
	w := doJSON(t, s, http.MethodPost, "/session", nil)
	decodeBody(t, w, &started)

	w = doJSON(t, s, http.MethodPost, "/session/grade", map[string]any{"card_id": started.Queue[0], "grade": "Perfect"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid grade", w.Code)
	}
}

func TestSources(t *testing.T) {
	s := newTestServer(t, 0)

	w := doJSON(t, s, http.MethodPost, "/sources", map[string]string{"path": "https://example.com/deck.git"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add source status = %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/sources", nil)
	var sources []struct {
		ID   int64  `json:"id"`
		Path string `json:"path"`
		Type string `json:"type"`
	}
	decodeBody(t, w, &sources)
	// newTestServer seeds one source; ours is the git one.
	var found bool
	for _, src := range sources {
		if src.Path == "https://example.com/deck.git" && src.Type == "git" {
			found = true
			w = doJSON(t, s, http.MethodDelete, "/sources/"+strconv.FormatInt(src.ID, 10), nil)
			if w.Code != http.StatusNoContent {
				t.Errorf("delete status = %d", w.Code)
			}
		}
	}
	if !found {
		t.Fatalf("git source missing from %+v", sources)
	}
}
