// Package trace persists tool loop observations to SQLite. The Store
// implements the loop's observation contract; the loop swallows Record
// failures, so a broken trace store degrades a run's observability, never
// its outcome.
package trace

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"agentcore/pkg/logx"
	"agentcore/pkg/toolloop"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	tool_name  TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL DEFAULT '',
	iteration  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, created_at);
`

// Store is a SQLite-backed observation sink.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (creating if needed) the trace database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace db %s: %w", path, err)
	}
	// modernc sqlite serializes access through one connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply trace schema: %w", err)
	}
	return &Store{db: db, logger: logx.NewLogger("trace")}, nil
}

// Record persists one event.
func (s *Store) Record(ev toolloop.Event) error {
	at := ev.Time
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO events (id, run_id, kind, tool_name, payload, iteration, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), ev.RunID, ev.Kind, ev.ToolName, ev.Payload, ev.Iteration, at,
	)
	if err != nil {
		return fmt.Errorf("failed to record event for run %s: %w", ev.RunID, err)
	}
	return nil
}

// EventsForRun returns a run's events in insertion order.
func (s *Store) EventsForRun(runID string) ([]toolloop.Event, error) {
	rows, err := s.db.Query(
		`SELECT run_id, kind, tool_name, payload, iteration, created_at
		 FROM events WHERE run_id = ? ORDER BY created_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for run %s: %w", runID, err)
	}
	defer rows.Close()

	var events []toolloop.Event
	for rows.Next() {
		var ev toolloop.Event
		if err := rows.Scan(&ev.RunID, &ev.Kind, &ev.ToolName, &ev.Payload, &ev.Iteration, &ev.Time); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
