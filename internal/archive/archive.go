// Package archive persists terminal workflow runs to a local SQLite
// database. The live store is rebuilt from REST on every page load; the
// archive is the only state that survives a restart, and it backs the
// CLI's offline session listing.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/theanh9911/agno-console/internal/run"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	archived_at INTEGER NOT NULL,
	run_input  TEXT,
	content    TEXT,
	payload    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id, created_at);
`

// Archive is a SQLite-backed store of finished runs.
type Archive struct {
	db *sql.DB
}

// Open creates or opens the archive database at path.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// ArchiveRun upserts a terminal run. Re-archiving the same run id (e.g.
// after a REST snapshot refines final fields) replaces the stored row.
func (a *Archive) ArchiveRun(ctx context.Context, r *run.WorkflowRun) error {
	if r == nil || r.RunID == "" {
		return nil
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding run %s: %w", r.RunID, err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, session_id, status, created_at, archived_at, run_input, content, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			archived_at = excluded.archived_at,
			content = excluded.content,
			payload = excluded.payload`,
		r.RunID, r.SessionID, string(r.Status), r.CreatedAt, time.Now().Unix(),
		r.RunInput, r.Content, string(payload))
	if err != nil {
		return fmt.Errorf("archiving run %s: %w", r.RunID, err)
	}
	return nil
}

// SessionSummary is one row of the offline session listing.
type SessionSummary struct {
	SessionID string
	RunCount  int
	LastRunAt int64
}

// Sessions lists archived sessions, most recent first.
func (a *Archive) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MAX(created_at)
		FROM runs GROUP BY session_id ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.SessionID, &s.RunCount, &s.LastRunAt); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Runs returns the archived runs of a session, oldest first.
func (a *Archive) Runs(ctx context.Context, sessionID string) ([]*run.WorkflowRun, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT payload FROM runs WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing runs for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []*run.WorkflowRun
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		var r run.WorkflowRun
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			// A corrupt row should not hide the rest of the history.
			continue
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
