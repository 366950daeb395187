package focus

import (
	"errors"
	"time"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/models"
)

// Pusher forwards recorded data to the hosted backend
type Pusher interface {
	PushSession(session models.PomodoroSession)
	PushStats(stats models.Stats)
}

// DBSink records sessions in the local database, refreshes the stats row
// and forwards both to Remote when set
type DBSink struct {
	Remote Pusher
}

// Record implements Sink
func (d DBSink) Record(session *models.PomodoroSession) error {
	err := db.RecordSession(session)
	if errors.Is(err, db.ErrSessionExists) {
		return ErrAlreadyRecorded
	}
	if err != nil {
		return err
	}
	st, err := db.RefreshStats(time.Now())
	if err != nil {
		return err
	}

	if d.Remote != nil {
		d.Remote.PushSession(*session)
		d.Remote.PushStats(*st)
	}
	return nil
}

// TaskExists checks a task id against the local database
func TaskExists(id uint) error {
	_, err := db.GetTaskByID(id)
	return err
}
