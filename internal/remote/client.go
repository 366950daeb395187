// Package remote mirrors recorded sessions and stats to an optional hosted
// Postgres database.
package remote

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/balkashynov/tomate/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	type             TEXT NOT NULL,
	break_kind       TEXT NOT NULL DEFAULT '',
	duration_seconds INTEGER NOT NULL,
	completed        BOOLEAN NOT NULL,
	skipped          BOOLEAN NOT NULL DEFAULT FALSE,
	started_at       TIMESTAMPTZ NOT NULL,
	completed_at     TIMESTAMPTZ NOT NULL,
	task_title       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS sessions_completed_at_idx ON sessions (completed_at);
CREATE TABLE IF NOT EXISTS stats (
	id                  INTEGER PRIMARY KEY,
	total_focus_seconds BIGINT NOT NULL,
	total_tasks         INTEGER NOT NULL,
	completed_tasks     INTEGER NOT NULL,
	total_sessions      INTEGER NOT NULL,
	current_streak      INTEGER NOT NULL,
	longest_streak      INTEGER NOT NULL,
	computed_at         TIMESTAMPTZ NOT NULL
);`

// Client talks to the hosted database
type Client struct {
	db *sql.DB
}

// Open connects to the Postgres database at dsn
func Open(ctx context.Context, dsn string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping remote database: %w", err)
	}
	return &Client{db: db}, nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.db.Close()
}

// EnsureSchema creates the sessions and stats tables if missing
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create remote schema: %w", err)
	}
	return nil
}

// PushSession inserts a session. Sessions are immutable, so a second push
// of the same id is a no-op.
func (c *Client) PushSession(ctx context.Context, s models.PomodoroSession) error {
	query := `INSERT INTO sessions (id, type, break_kind, duration_seconds, completed, skipped, started_at, completed_at, task_title)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              ON CONFLICT (id) DO NOTHING`
	var title string
	if s.Task != nil {
		title = s.Task.Title
	}
	_, err := c.db.ExecContext(ctx, query,
		s.ID, s.Type, s.BreakKind, s.DurationSeconds, s.Completed, s.Skipped, s.StartedAt, s.CompletedAt, title)
	if err != nil {
		return fmt.Errorf("failed to push session %s: %w", s.ID, err)
	}
	return nil
}

// PushStats replaces the single stats row
func (c *Client) PushStats(ctx context.Context, st models.Stats) error {
	query := `INSERT INTO stats (id, total_focus_seconds, total_tasks, completed_tasks, total_sessions, current_streak, longest_streak, computed_at)
              VALUES (1, $1, $2, $3, $4, $5, $6, $7)
              ON CONFLICT (id) DO UPDATE SET
                  total_focus_seconds = EXCLUDED.total_focus_seconds,
                  total_tasks = EXCLUDED.total_tasks,
                  completed_tasks = EXCLUDED.completed_tasks,
                  total_sessions = EXCLUDED.total_sessions,
                  current_streak = EXCLUDED.current_streak,
                  longest_streak = EXCLUDED.longest_streak,
                  computed_at = EXCLUDED.computed_at`
	_, err := c.db.ExecContext(ctx, query,
		st.TotalFocusSeconds, st.TotalTasks, st.CompletedTasks, st.TotalSessions, st.CurrentStreak, st.LongestStreak, st.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to push stats: %w", err)
	}
	return nil
}

// CountSessions returns the number of sessions stored remotely
func (c *Client) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
