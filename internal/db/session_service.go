package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/tomate/internal/models"
)

// ErrSessionExists is returned when a session id is already stored
var ErrSessionExists = errors.New("session already recorded")

// RecordSession stores a finished pomodoro session. Sessions are
// write-once; recording an existing id returns ErrSessionExists.
func RecordSession(session *models.PomodoroSession) error {
	switch session.Type {
	case models.SessionWork:
		session.BreakKind = ""
	case models.SessionBreak:
		if session.BreakKind != models.BreakShort && session.BreakKind != models.BreakLong {
			return fmt.Errorf("invalid break kind %q", session.BreakKind)
		}
	default:
		return fmt.Errorf("invalid session type %q", session.Type)
	}
	if session.DurationSeconds <= 0 {
		return fmt.Errorf("session duration must be positive, got %d", session.DurationSeconds)
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	res := DB.Clauses(clause.OnConflict{DoNothing: true}).Create(session)
	if res.Error != nil {
		return fmt.Errorf("failed to record session %s: %w", session.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionExists
	}
	return nil
}

// GetSessions returns the most recent sessions first; limit <= 0 means all
func GetSessions(limit int) ([]models.PomodoroSession, error) {
	var sessions []models.PomodoroSession

	q := preloadSessionTask(DB).Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSessionsInRange returns all sessions completed within the range
func GetSessionsInRange(startTime, endTime time.Time) ([]models.PomodoroSession, error) {
	var sessions []models.PomodoroSession

	err := preloadSessionTask(DB).
		Where("completed_at >= ? AND completed_at <= ?", startTime, endTime).
		Order("completed_at ASC").
		Find(&sessions).Error

	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// GetAllSessions returns the full history in completion order
func GetAllSessions() ([]models.PomodoroSession, error) {
	var sessions []models.PomodoroSession
	if err := DB.Order("completed_at ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// preloadSessionTask loads the task even if it was deleted later, so
// history keeps its titles
func preloadSessionTask(q *gorm.DB) *gorm.DB {
	return q.Preload("Task", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}
