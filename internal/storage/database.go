// Package storage persists cards, review records and review history in
// sqlite. It is the durable collaborator behind the in-memory session
// engine: sessions are built from LoadPool and every grading event is
// written back through SaveReview.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cardgenie/cardgenie/internal/domain"
	"github.com/cardgenie/cardgenie/internal/srs"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// ErrStaleRecord is returned when a review write loses an optimistic
// concurrency race: the card's record changed since it was read.
var ErrStaleRecord = errors.New("storage: review record changed since read")

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CardRow is a stored card: content plus its review record.
type CardRow struct {
	Card     domain.Card
	Record   srs.ReviewRecord
	SourceID sql.NullInt64
}

// InsertCard stores a new card with the default review record for a card
// created at now.
func (db *DB) InsertCard(card domain.Card, sourceID int64, now time.Time) error {
	rec := srs.NewRecord(now)
	_, err := db.conn.Exec(`
		INSERT INTO cards (hash, front, back, notes, ease_factor, interval_days, due_date, review_count, lapse_count, state, last_reviewed_at, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)
	`,
		card.Hash,
		card.Front,
		card.Back,
		card.Notes,
		rec.EaseFactor,
		rec.IntervalDays,
		rec.Due,
		rec.ReviewCount,
		rec.LapseCount,
		int(rec.State),
		sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.Hash, err)
	}
	return nil
}

func scanCardRow(scan func(dest ...any) error) (*CardRow, error) {
	var (
		row          CardRow
		state        int
		lastReviewed sql.NullTime
	)
	err := scan(
		&row.Card.Hash,
		&row.Card.Front,
		&row.Card.Back,
		&row.Card.Notes,
		&row.Record.EaseFactor,
		&row.Record.IntervalDays,
		&row.Record.Due,
		&row.Record.ReviewCount,
		&row.Record.LapseCount,
		&state,
		&lastReviewed,
		&row.SourceID,
	)
	if err != nil {
		return nil, err
	}
	row.Record.State = srs.CardState(state)
	if lastReviewed.Valid {
		t := lastReviewed.Time
		row.Record.LastReviewedAt = &t
	}
	return &row, nil
}

const cardColumns = `hash, front, back, notes, ease_factor, interval_days, due_date, review_count, lapse_count, state, last_reviewed_at, source_id`

// FindCardByHash retrieves a card by its content hash. Returns (nil, nil)
// when the card does not exist.
func (db *DB) FindCardByHash(hash string) (*CardRow, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE hash = ?`, hash)
	out, err := scanCardRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by hash %s: %w", hash, err)
	}
	return out, nil
}

func (db *DB) queryCards(query string, args ...any) ([]CardRow, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CardRow
	for rows.Next() {
		row, err := scanCardRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

// LoadPool returns every stored card with its review record, the full
// pool a session is built from.
func (db *DB) LoadPool() ([]CardRow, error) {
	out, err := db.queryCards(`SELECT ` + cardColumns + ` FROM cards`)
	if err != nil {
		return nil, fmt.Errorf("failed to load card pool: %w", err)
	}
	return out, nil
}

// GetCardsBySourceID retrieves all cards associated with a source.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]CardRow, error) {
	out, err := db.queryCards(`SELECT `+cardColumns+` FROM cards WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	return out, nil
}

// DueCounts reports how many cards are past due and how many are new.
func (db *DB) DueCounts(now time.Time) (due, fresh int, err error) {
	row := db.conn.QueryRow(`
		SELECT
			COUNT(CASE WHEN state != 0 AND due_date <= ? THEN 1 END),
			COUNT(CASE WHEN state = 0 THEN 1 END)
		FROM cards
	`, now)
	if err := row.Scan(&due, &fresh); err != nil {
		return 0, 0, fmt.Errorf("failed to count due cards: %w", err)
	}
	return due, fresh, nil
}

// SaveReview persists one grading event: the card's updated review record
// and a review_logs row, in a single transaction. The write is guarded by
// an optimistic check on review_count so two racing grades for the same
// card cannot silently overwrite one another; the loser gets
// ErrStaleRecord.
func (db *DB) SaveReview(hash string, prev, next srs.ReviewRecord, grade srs.Grade, at time.Time) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE cards
		SET ease_factor = ?, interval_days = ?, due_date = ?, review_count = ?, lapse_count = ?, state = ?, last_reviewed_at = ?
		WHERE hash = ? AND review_count = ?
	`,
		next.EaseFactor,
		next.IntervalDays,
		next.Due,
		next.ReviewCount,
		next.LapseCount,
		int(next.State),
		next.LastReviewedAt,
		hash,
		prev.ReviewCount,
	)
	if err != nil {
		return fmt.Errorf("failed to update review record for %s: %w", hash, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review update for %s: %w", hash, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: card %s", ErrStaleRecord, hash)
	}

	if _, err := tx.Exec(`
		INSERT INTO review_logs (card_hash, grade, reviewed_at)
		VALUES (?, ?, ?)
	`, hash, int(grade), at); err != nil {
		return fmt.Errorf("failed to log review for %s: %w", hash, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review for %s: %w", hash, err)
	}
	return nil
}

// ReviewHistory returns the stored grading events for a card, oldest first.
func (db *DB) ReviewHistory(hash string) ([]domain.ReviewEvent, error) {
	rows, err := db.conn.Query(`
		SELECT card_hash, grade, reviewed_at
		FROM review_logs WHERE card_hash = ?
		ORDER BY reviewed_at, id
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get review history for %s: %w", hash, err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		var ev domain.ReviewEvent
		if err := rows.Scan(&ev.CardHash, &ev.Grade, &ev.At); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DeleteCardByHash removes a card and its review history.
func (db *DB) DeleteCardByHash(hash string) error {
	if _, err := db.conn.Exec(`DELETE FROM review_logs WHERE card_hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete review logs for %s: %w", hash, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM cards WHERE hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete card with hash %s: %w", hash, err)
	}
	return nil
}

// Source is a card origin, either a local path or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource stores a new source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path. Returns (nil, nil)
// when the source does not exist.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source and all of its cards.
func (db *DB) DeleteSource(id int64) error {
	cards, err := db.GetCardsBySourceID(id)
	if err != nil {
		return err
	}
	for _, c := range cards {
		if err := db.DeleteCardByHash(c.Card.Hash); err != nil {
			return err
		}
	}
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned stamps the source's last reconciliation time.
func (db *DB) UpdateSourceLastScanned(sourceID int64, at time.Time) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, at, sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
