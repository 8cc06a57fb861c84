package storage

const schema = `
-- One row per flashcard, carrying the card content and its full
-- spaced-repetition review record.
CREATE TABLE IF NOT EXISTS cards (
    hash TEXT PRIMARY KEY,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    ease_factor REAL NOT NULL,
    interval_days INTEGER NOT NULL DEFAULT 0,
    due_date DATETIME NOT NULL,
    review_count INTEGER NOT NULL DEFAULT 0,
    lapse_count INTEGER NOT NULL DEFAULT 0,
    state INTEGER NOT NULL DEFAULT 0, -- 0: New, 1: Learning, 2: Review, 3: Relearning
    last_reviewed_at DATETIME,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- One row per grading event, the host's durable review history.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_hash TEXT NOT NULL,
    grade INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,

    FOREIGN KEY(card_hash) REFERENCES cards(hash)
);

-- Where cards come from: a local notes directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);
`
