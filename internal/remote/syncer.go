package remote

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/balkashynov/tomate/internal/models"
)

// Backend is the subset of Client the syncer needs
type Backend interface {
	PushSession(ctx context.Context, s models.PomodoroSession) error
	PushStats(ctx context.Context, st models.Stats) error
}

// Syncer pushes data in the background with retries. Failures are logged
// and dropped; `tomate sync` can push the full history later.
type Syncer struct {
	backend Backend
	policy  RetryPolicy
	timeout time.Duration
	log     *logrus.Entry

	wg sync.WaitGroup
}

// NewSyncer creates a syncer; timeout bounds each push including retries
func NewSyncer(backend Backend, policy RetryPolicy, timeout time.Duration, log *logrus.Entry) *Syncer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Syncer{backend: backend, policy: policy, timeout: timeout, log: log}
}

// PushSession sends s asynchronously
func (s *Syncer) PushSession(session models.PomodoroSession) {
	log := s.log.WithField("session_id", session.ID)
	s.goPush(log, func(ctx context.Context) error {
		return s.backend.PushSession(ctx, session)
	})
}

// PushStats sends st asynchronously
func (s *Syncer) PushStats(st models.Stats) {
	s.goPush(s.log.WithField("kind", "stats"), func(ctx context.Context) error {
		return s.backend.PushStats(ctx, st)
	})
}

func (s *Syncer) goPush(log *logrus.Entry, op func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := retry(ctx, s.policy, log, op); err != nil {
			log.WithError(err).Error("remote push failed")
			return
		}
		log.Debug("pushed to remote")
	}()
}

// Wait blocks until every pending push has finished
func (s *Syncer) Wait() {
	s.wg.Wait()
}

// SyncAll pushes the full session history and the stats row synchronously.
// It returns the number of sessions pushed before the first failure.
func SyncAll(ctx context.Context, backend Backend, policy RetryPolicy, log *logrus.Entry, sessions []models.PomodoroSession, st *models.Stats) (int, error) {
	for i, session := range sessions {
		err := retry(ctx, policy, log.WithField("session_id", session.ID), func(ctx context.Context) error {
			return backend.PushSession(ctx, session)
		})
		if err != nil {
			return i, err
		}
	}
	if st != nil {
		if err := retry(ctx, policy, log, func(ctx context.Context) error {
			return backend.PushStats(ctx, *st)
		}); err != nil {
			return len(sessions), err
		}
	}
	return len(sessions), nil
}
