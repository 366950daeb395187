package models

import "time"

// Stats is the aggregate counter row. It is always recomputed from the
// session and task history; a single row with ID 1 caches the latest result.
type Stats struct {
	ID uint `gorm:"primarykey" json:"-"`

	TotalFocusSeconds int64     `json:"total_focus_seconds"`
	TodayFocusSeconds int64     `json:"today_focus_seconds"`
	TotalTasks        int       `json:"total_tasks"`
	CompletedTasks    int       `json:"completed_tasks"`
	TotalSessions     int       `json:"total_sessions"`
	CurrentStreak     int       `json:"current_streak"`
	LongestStreak     int       `json:"longest_streak"`
	ComputedAt        time.Time `json:"computed_at"`
}

// TableName keeps the table name shared with the hosted backend
func (Stats) TableName() string {
	return "stats"
}
