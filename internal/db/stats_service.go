package db

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/stats"
)

const statsRowID = 1

// RefreshStats recomputes the aggregate from the full history and stores it
func RefreshStats(now time.Time) (*models.Stats, error) {
	sessions, err := GetAllSessions()
	if err != nil {
		return nil, err
	}
	total, completed, err := CountTasks()
	if err != nil {
		return nil, err
	}

	st := stats.Compute(sessions, stats.TaskCounts{Total: int(total), Completed: int(completed)}, now)
	st.ID = statsRowID
	if err := DB.Save(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// GetStats returns the cached aggregate, computing it on first use
func GetStats() (*models.Stats, error) {
	var st models.Stats
	err := DB.First(&st, statsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RefreshStats(time.Now())
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
