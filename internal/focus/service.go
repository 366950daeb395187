// Package focus runs the Pomodoro timer for the CLI, TUI and HTTP API:
// it persists every state change to the local store and records finished
// sessions.
package focus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/balkashynov/tomate/internal/localstore"
	"github.com/balkashynov/tomate/internal/logger"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/timer"
)

// ErrAlreadyRecorded is returned by a Sink for a session id it already
// holds, typically one completed by another process sharing the state file
var ErrAlreadyRecorded = errors.New("session already recorded")

// Sink stores a finished session
type Sink interface {
	Record(session *models.PomodoroSession) error
}

// Options configures a Service. Store and Sink are optional.
type Options struct {
	Clock  timer.Clock
	Store  *localstore.Store
	Sink   Sink
	Logger *logrus.Entry
	// TaskExists validates ids passed to SetTask; nil accepts any id
	TaskExists func(id uint) error
}

// Service owns one timer machine. Several processes may run a Service
// over the same state file; each action first adopts whatever another
// process persisted since this one last saved.
type Service struct {
	machine    *timer.Machine
	store      *localstore.Store
	sink       Sink
	log        *logrus.Entry
	taskExists func(id uint) error

	// op serializes sync-then-act
	op sync.Mutex

	mu         sync.Mutex
	lastSaved  *timer.Snapshot
	onChange   []func(timer.Snapshot)
	onComplete []func(models.PomodoroSession)
}

// New creates a service around a fresh idle machine. Call Load to resume
// the persisted state.
func New(cfg timer.Config, opts Options) (*Service, error) {
	s := &Service{
		store:      opts.Store,
		sink:       opts.Sink,
		log:        opts.Logger,
		taskExists: opts.TaskExists,
	}
	if s.log == nil {
		s.log = logger.Component("focus")
	}

	m, err := timer.New(cfg, opts.Clock, timer.Hooks{
		OnChange:   s.changed,
		OnComplete: s.completed,
	})
	if err != nil {
		return nil, err
	}
	s.machine = m
	return s, nil
}

// Load restores the persisted timer state. A running session keeps
// counting while the process is gone; if it ran out meanwhile it is
// recorded now. A missing or unreadable state starts fresh.
func (s *Service) Load() error {
	if s.store == nil {
		return nil
	}

	var snap timer.Snapshot
	err := s.store.Get(localstore.KeyTimerState, &snap)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.log.WithError(err).Warn("discarding unreadable timer state")
		return s.discardState()
	}

	if err := s.machine.Restore(snap); err != nil {
		s.log.WithError(err).Warn("discarding invalid timer state")
		return s.discardState()
	}
	return nil
}

// discardState drops the timer key, or the whole file when it cannot be
// parsed at all
func (s *Service) discardState() error {
	if err := s.store.Delete(localstore.KeyTimerState); err == nil {
		return nil
	}
	return s.store.Clear()
}

// OnChange registers fn to receive every state change
func (s *Service) OnChange(fn func(timer.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// OnComplete registers fn to receive every recorded session
func (s *Service) OnComplete(fn func(models.PomodoroSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = append(s.onComplete, fn)
}

func (s *Service) Start() { s.do(s.machine.Start) }
func (s *Service) Pause() { s.do(s.machine.Pause) }
func (s *Service) Reset() { s.do(s.machine.Reset) }
func (s *Service) Skip()  { s.do(s.machine.Skip) }
func (s *Service) Tick()  { s.do(s.machine.Tick) }

func (s *Service) do(fn func()) {
	s.op.Lock()
	defer s.op.Unlock()
	s.sync()
	fn()
}

// sync restores the persisted state when it differs from what this
// service last wrote
func (s *Service) sync() {
	if s.store == nil {
		return
	}
	var stored timer.Snapshot
	if err := s.store.Get(localstore.KeyTimerState, &stored); err != nil {
		return
	}

	s.mu.Lock()
	last := s.lastSaved
	s.mu.Unlock()
	if last != nil && stored.Equal(*last) {
		return
	}

	if err := s.machine.Restore(stored); err != nil {
		s.log.WithError(err).Warn("ignoring invalid timer state")
	}
}
// Snapshot returns the current timer state
func (s *Service) Snapshot() timer.Snapshot {
	return s.machine.Snapshot()
}

// Config returns the active timer configuration
func (s *Service) Config() timer.Config {
	return s.machine.Config()
}

// UpdateConfig applies new durations to the running machine
func (s *Service) UpdateConfig(cfg timer.Config) error {
	s.op.Lock()
	defer s.op.Unlock()
	s.sync()
	return s.machine.UpdateConfig(cfg)
}

// SetTask attaches the task to sessions recorded from now on; nil detaches
func (s *Service) SetTask(taskID *uint) error {
	if taskID != nil && s.taskExists != nil {
		if err := s.taskExists(*taskID); err != nil {
			return err
		}
	}
	s.do(func() { s.machine.SetTask(taskID) })
	return nil
}

// Run ticks the machine every interval until ctx ends
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	return timer.NewRunner(s, interval).Run(ctx)
}

func (s *Service) changed(snap timer.Snapshot) {
	if s.store != nil {
		if err := s.store.Set(localstore.KeyTimerState, snap); err != nil {
			s.log.WithError(err).Error("failed to persist timer state")
		}
	}

	s.mu.Lock()
	s.lastSaved = &snap
	listeners := append([]func(timer.Snapshot){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Service) completed(c timer.Completion) {
	session := SessionFromCompletion(c)
	log := s.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"type":       c.Kind,
		"skipped":    c.Skipped,
	})
	if session.TaskID != nil {
		log = log.WithField("task_id", *session.TaskID)
	}

	if s.sink != nil {
		err := s.sink.Record(&session)
		if errors.Is(err, ErrAlreadyRecorded) {
			log.Debug("session already recorded by another process")
			return
		}
		if err != nil {
			log.WithError(err).Error("failed to record session")
			return
		}
	}
	log.Info("session completed")

	s.mu.Lock()
	listeners := append([]func(models.PomodoroSession){}, s.onComplete...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(session)
	}
}

// SessionFromCompletion maps a timer completion to its stored record
func SessionFromCompletion(c timer.Completion) models.PomodoroSession {
	session := models.PomodoroSession{
		ID:              c.ID,
		Type:            models.SessionWork,
		DurationSeconds: int(c.Duration / time.Second),
		Completed:       true,
		Skipped:         c.Skipped,
		StartedAt:       c.StartedAt,
		CompletedAt:     c.CompletedAt,
		TaskID:          c.TaskID,
	}
	switch c.Kind {
	case timer.KindShortBreak:
		session.Type = models.SessionBreak
		session.BreakKind = models.BreakShort
	case timer.KindLongBreak:
		session.Type = models.SessionBreak
		session.BreakKind = models.BreakLong
	}
	return session
}
