package remote

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/balkashynov/tomate/internal/models"
)

type flakyBackend struct {
	mu       sync.Mutex
	failures int // calls to fail before succeeding
	calls    int
	sessions []string
	stats    []models.Stats
}

func (f *flakyBackend) attempt() error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("connection refused")
	}
	return nil
}

func (f *flakyBackend) PushSession(_ context.Context, s models.PomodoroSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.attempt(); err != nil {
		return err
	}
	f.sessions = append(f.sessions, s.ID)
	return nil
}

func (f *flakyBackend) PushStats(_ context.Context, st models.Stats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.attempt(); err != nil {
		return err
	}
	f.stats = append(f.stats, st)
	return nil
}

func fastPolicy(tries uint) RetryPolicy {
	return RetryPolicy{MaxTries: tries, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestSyncerRetriesUntilSuccess(t *testing.T) {
	backend := &flakyBackend{failures: 2}
	s := NewSyncer(backend, fastPolicy(5), time.Second, quietLog())

	s.PushSession(models.PomodoroSession{ID: "a"})
	s.Wait()

	if len(backend.sessions) != 1 || backend.sessions[0] != "a" {
		t.Errorf("sessions = %v", backend.sessions)
	}
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
}

func TestSyncerGivesUp(t *testing.T) {
	backend := &flakyBackend{failures: 100}
	s := NewSyncer(backend, fastPolicy(3), time.Second, quietLog())

	s.PushStats(models.Stats{TotalSessions: 4})
	s.Wait()

	if len(backend.stats) != 0 {
		t.Errorf("stats pushed despite failures: %v", backend.stats)
	}
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
}

func TestSyncAll(t *testing.T) {
	backend := &flakyBackend{failures: 1}
	sessions := []models.PomodoroSession{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	n, err := SyncAll(context.Background(), backend, fastPolicy(3), quietLog(), sessions, &models.Stats{TotalSessions: 3})
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if n != 3 || len(backend.sessions) != 3 || len(backend.stats) != 1 {
		t.Errorf("n=%d sessions=%v stats=%d", n, backend.sessions, len(backend.stats))
	}
}

func TestSyncAllStopsOnFailure(t *testing.T) {
	backend := &flakyBackend{failures: 100}
	n, err := SyncAll(context.Background(), backend, fastPolicy(2), quietLog(), []models.PomodoroSession{{ID: "a"}}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 0 {
		t.Errorf("n = %d", n)
	}
}

func TestSyncAllHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := &flakyBackend{failures: 100}
	policy := RetryPolicy{MaxTries: 50, InitialInterval: time.Second}

	start := time.Now()
	if _, err := SyncAll(ctx, backend, policy, quietLog(), []models.PomodoroSession{{ID: "a"}}, nil); err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("retry ignored the cancelled context")
	}
}

// TestClientRoundTrip needs a real Postgres: TOMATE_TEST_POSTGRES_DSN=postgres://...
func TestClientRoundTrip(t *testing.T) {
	dsn := os.Getenv("TOMATE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TOMATE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	c, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	before, err := c.CountSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	s := models.PomodoroSession{
		ID:              "test-" + now.Format("20060102150405.000000000"),
		Type:            models.SessionWork,
		DurationSeconds: 1500,
		Completed:       true,
		StartedAt:       now.Add(-25 * time.Minute),
		CompletedAt:     now,
	}
	for i := 0; i < 2; i++ {
		if err := c.PushSession(ctx, s); err != nil {
			t.Fatalf("PushSession: %v", err)
		}
	}
	after, _ := c.CountSessions(ctx)
	if after != before+1 {
		t.Errorf("count %d -> %d, want one new row", before, after)
	}

	if err := c.PushStats(ctx, models.Stats{TotalSessions: after, ComputedAt: now}); err != nil {
		t.Fatalf("PushStats: %v", err)
	}
}
