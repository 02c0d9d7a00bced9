package siteserver

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MessageStore persists contact-form submissions to SQLite. Mail relays
// fail; the database copy means a submission is never lost with the failure.
type MessageStore struct {
	db *sql.DB
}

// newMessageStore opens (or creates) the SQLite database at path, ensures
// the data directory exists, and runs schema migrations.
func newMessageStore(path string) (*MessageStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write, busy timeout so writers wait instead of
	// returning SQLITE_BUSY immediately.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &MessageStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *MessageStore) Close() error {
	return s.db.Close()
}

func (s *MessageStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    service TEXT NOT NULL,
    body TEXT NOT NULL,
    received_at TEXT NOT NULL
);
`)
	return err
}

// Message is one contact-form submission.
type Message struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Service    string `json:"service"`
	Body       string `json:"message"`
	ReceivedAt string `json:"received_at"`
}

// Save inserts a submission and returns its id. ReceivedAt is assigned here.
func (s *MessageStore) Save(m Message) (int64, error) {
	receivedAt := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO messages (name, email, service, body, received_at) VALUES (?, ?, ?, ?, ?)`,
		m.Name, m.Email, m.Service, m.Body, receivedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns the most recent submissions, newest first.
func (s *MessageStore) List(limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, name, email, service, body, received_at FROM messages ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Service, &m.Body, &m.ReceivedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
