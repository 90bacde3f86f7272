// Package eventlog keeps an append-only audit trail of session lifecycle
// events in SQLite. The log is purely historical: nothing reads it to
// decide whether a session exists, so a missing or stale database never
// affects live behavior.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// Event types recorded over a session's lifetime.
const (
	TypeCreated     = "created"
	TypeMessageSent = "message_sent"
	TypeCompleted   = "completed"
	TypeTimedOut    = "timed_out"
	TypeLost        = "lost"
	TypeKilled      = "killed"
)

// Event is one audit record.
type Event struct {
	ID        string
	Type      string
	Session   string
	Detail    string
	CreatedAt time.Time
}

// QueryOpts filters Query results. Zero values mean no filter.
type QueryOpts struct {
	Session string
	Type    string
	Since   *time.Time
	Limit   int
}

// timeFormat is RFC3339 with a fixed-width fraction so that string
// comparison in SQL matches chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	session    TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session, created_at);
`

// Log is an open event log. Safe for concurrent use; SQLite serializes
// writers via the busy timeout.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the event log at path with WAL journal
// mode and a 5-second busy timeout, and verifies the connection with a
// ping before returning.
func Open(ctx context.Context, path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create events schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close releases the database connection. Safe to call on a nil Log so
// callers that run without an event log need no guard.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends one event. Nil receivers are a no-op for the same reason
// Close tolerates them.
func (l *Log) Record(ctx context.Context, typ, session, detail string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO events (id, type, session, detail, created_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), typ, session, detail,
		time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("record %s event for %s: %w", typ, session, err)
	}
	return nil
}

// Query returns events matching opts, newest first.
func (l *Log) Query(ctx context.Context, opts QueryOpts) ([]Event, error) {
	query, args := buildQuery(opts)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Type, &e.Session, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.CreatedAt, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func buildQuery(opts QueryOpts) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if opts.Session != "" {
		conds = append(conds, "session = ?")
		args = append(args, opts.Session)
	}
	if opts.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, opts.Type)
	}
	if opts.Since != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, opts.Since.UTC().Format(timeFormat))
	}

	query := "SELECT id, type, session, detail, created_at FROM events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	return query, args
}
