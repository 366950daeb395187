package models

import "time"

// Session types
const (
	SessionWork  = "work"
	SessionBreak = "break"
)

// Break kinds
const (
	BreakShort = "short"
	BreakLong  = "long"
)

// PomodoroSession is a finished work or break interval. Rows are written
// once when the timer completes or skips a session and never updated.
type PomodoroSession struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Type            string    `gorm:"not null;index" json:"type"` // work, break
	BreakKind       string    `json:"break_kind,omitempty"`       // short, long
	DurationSeconds int       `json:"duration_seconds"`           // planned duration of the interval
	Completed       bool      `json:"completed"`
	Skipped         bool      `json:"skipped"`
	StartedAt       time.Time `gorm:"not null" json:"started_at"`
	CompletedAt     time.Time `gorm:"not null;index" json:"completed_at"`

	// Relationships
	TaskID *uint `gorm:"index" json:"task_id"`
	Task   *Task `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"task,omitempty"`
}

// TableName keeps the table name shared with the hosted backend
func (PomodoroSession) TableName() string {
	return "sessions"
}

// IsFocus reports whether the session counts towards focus time
func (s PomodoroSession) IsFocus() bool {
	return s.Type == SessionWork && s.Completed
}

// Duration returns the recorded duration
func (s PomodoroSession) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}
