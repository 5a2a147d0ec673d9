package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focusmate/internal/modules/focus/domain"

	_ "modernc.org/sqlite"
)

// Fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteJournal keeps one row per finished focus session.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	journal := &SQLiteJournal{db: db}
	if err := journal.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return journal, nil
}

func (s *SQLiteJournal) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  remote_session_id TEXT,
  config_summary TEXT NOT NULL,
  subject TEXT NOT NULL,
  duration_minutes INTEGER NOT NULL,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL,
  outcome TEXT NOT NULL,
  pauses INTEGER NOT NULL,
  frames_sent INTEGER NOT NULL,
  suggestions_received INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) Save(ctx context.Context, run domain.Run) error {
	const stmt = `
INSERT INTO runs (id, remote_session_id, config_summary, subject, duration_minutes, started_at, ended_at, outcome, pauses, frames_sent, suggestions_received)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  remote_session_id=excluded.remote_session_id,
  ended_at=excluded.ended_at,
  outcome=excluded.outcome,
  pauses=excluded.pauses,
  frames_sent=excluded.frames_sent,
  suggestions_received=excluded.suggestions_received;
`
	_, err := s.db.ExecContext(ctx, stmt,
		run.ID,
		run.RemoteSessionID,
		run.ConfigSummary,
		run.Subject,
		run.DurationMinutes,
		run.StartedAt.UTC().Format(timeLayout),
		run.EndedAt.UTC().Format(timeLayout),
		string(run.Outcome),
		run.Pauses,
		run.FramesSent,
		run.SuggestionsReceived,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// List returns the most recent runs first.
func (s *SQLiteJournal) List(ctx context.Context, limit int) ([]domain.Run, error) {
	const query = `
SELECT id, remote_session_id, config_summary, subject, duration_minutes, started_at, ended_at, outcome, pauses, frames_sent, suggestions_received
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?;
`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var (
			run            domain.Run
			remoteID       sql.NullString
			started, ended string
			outcome        string
		)
		if err := rows.Scan(&run.ID, &remoteID, &run.ConfigSummary, &run.Subject, &run.DurationMinutes,
			&started, &ended, &outcome, &run.Pauses, &run.FramesSent, &run.SuggestionsReceived); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.RemoteSessionID = remoteID.String
		run.Outcome = domain.Outcome(outcome)
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.EndedAt, err = time.Parse(timeLayout, ended); err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
