// ABOUTME: SQLite-backed dead-letter store for webhook deliveries that failed.
// ABOUTME: Rows keep the exact payload bytes so a delivery can be inspected or replayed by hand.
package webhook

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DeadLetters is a FailureSink that persists failures in SQLite.
type DeadLetters struct {
	db *sql.DB
}

// OpenDeadLetters opens or creates the dead-letter database at path.
func OpenDeadLetters(path string) (*DeadLetters, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Deliveries record from many goroutines; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS dead_letters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			webhook_id TEXT NOT NULL,
			url TEXT NOT NULL,
			event TEXT NOT NULL,
			status_code INTEGER NOT NULL,
			error TEXT NOT NULL,
			payload BLOB NOT NULL,
			failed_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS dead_letters_webhook ON dead_letters(webhook_id);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DeadLetters{db: db}, nil
}

// Close closes the database.
func (d *DeadLetters) Close() error {
	return d.db.Close()
}

// Record stores a failure. Storage errors are logged; the failure itself is
// still logged through LogSink so nothing is lost silently.
func (d *DeadLetters) Record(f Failure) {
	LogSink{}.Record(f)
	if err := d.Insert(f); err != nil {
		log.Printf("component=board.webhook action=dead_letter_insert_failed webhook=%s err=%v", f.WebhookID, err)
	}
}

// Insert stores a failure and returns its error, if any.
func (d *DeadLetters) Insert(f Failure) error {
	if f.At.IsZero() {
		f.At = time.Now().UTC()
	}
	payload := f.Payload
	if payload == nil {
		payload = []byte{}
	}
	_, err := d.db.Exec(
		`INSERT INTO dead_letters (webhook_id, url, event, status_code, error, payload, failed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.WebhookID, f.URL, f.Event, f.StatusCode, f.Err, payload,
		f.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// List returns the newest failures first. limit <= 0 returns all of them.
func (d *DeadLetters) List(limit int) ([]Failure, error) {
	query := `SELECT id, webhook_id, url, event, status_code, error, payload, failed_at
		FROM dead_letters ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Failure
	for rows.Next() {
		var f Failure
		var at string
		if err := rows.Scan(&f.ID, &f.WebhookID, &f.URL, &f.Event, &f.StatusCode, &f.Err, &f.Payload, &at); err != nil {
			return nil, fmt.Errorf("scan dead letter: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			f.At = t
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dead letters: %w", err)
	}
	return out, nil
}

// Purge deletes every stored failure and returns how many were removed.
func (d *DeadLetters) Purge() (int64, error) {
	res, err := d.db.Exec("DELETE FROM dead_letters")
	if err != nil {
		return 0, fmt.Errorf("purge dead letters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge dead letters: %w", err)
	}
	return n, nil
}
