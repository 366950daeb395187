package focus

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/localstore"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/timer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memorySink struct {
	sessions []models.PomodoroSession
	err      error
}

func (m *memorySink) Record(s *models.PomodoroSession) error {
	if m.err != nil {
		return m.err
	}
	m.sessions = append(m.sessions, *s)
	return nil
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestService(t *testing.T, clock *fakeClock, store *localstore.Store, sink Sink) *Service {
	t.Helper()
	svc, err := New(timer.DefaultConfig(), Options{
		Clock:  clock,
		Store:  store,
		Sink:   sink,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func openStore(t *testing.T, dir string) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatalf("localstore.Open: %v", err)
	}
	return store
}

func TestSkipRecordsConfiguredDuration(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	sink := &memorySink{}
	svc := newTestService(t, clock, nil, sink)

	var notified []models.PomodoroSession
	svc.OnComplete(func(s models.PomodoroSession) { notified = append(notified, s) })

	svc.Start()
	clock.Advance(3 * time.Second)
	svc.Skip()

	if len(sink.sessions) != 1 {
		t.Fatalf("recorded %d sessions, want 1", len(sink.sessions))
	}
	s := sink.sessions[0]
	if s.Type != models.SessionWork || s.DurationSeconds != 1500 || !s.Completed || !s.Skipped {
		t.Errorf("session = %+v", s)
	}
	if s.ID == "" {
		t.Error("session id is empty")
	}
	if len(notified) != 1 || notified[0].ID != s.ID {
		t.Errorf("listeners got %+v", notified)
	}

	snap := svc.Snapshot()
	if snap.Kind != timer.KindShortBreak || snap.Status != timer.StatusIdle {
		t.Errorf("after skip: %+v", snap)
	}
}

func TestBreakSessionMapping(t *testing.T) {
	c := timer.Completion{ID: "x", Kind: timer.KindLongBreak, Duration: 15 * time.Minute}
	s := SessionFromCompletion(c)
	if s.Type != models.SessionBreak || s.BreakKind != models.BreakLong || s.DurationSeconds != 900 {
		t.Errorf("session = %+v", s)
	}
}

func TestFailedRecordSkipsListeners(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock, nil, &memorySink{err: errors.New("disk full")})

	called := false
	svc.OnComplete(func(models.PomodoroSession) { called = true })
	svc.Skip()

	if called {
		t.Error("listener called for a session that was not recorded")
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

	first := newTestService(t, clock, openStore(t, dir), nil)
	first.Start()
	clock.Advance(10 * time.Minute)
	first.Tick()

	// the process is gone for five minutes
	clock.Advance(5 * time.Minute)

	sink := &memorySink{}
	second := newTestService(t, clock, openStore(t, dir), sink)
	if err := second.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	snap := second.Snapshot()
	if snap.Status != timer.StatusRunning || snap.Kind != timer.KindWork {
		t.Fatalf("restored = %+v", snap)
	}
	if snap.Remaining != 10*time.Minute {
		t.Errorf("remaining = %v, want 10m", snap.Remaining)
	}
	if len(sink.sessions) != 0 {
		t.Errorf("unexpected sessions: %+v", sink.sessions)
	}
}

func TestExpiredStateCompletesOnLoad(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

	first := newTestService(t, clock, openStore(t, dir), nil)
	first.Start()

	clock.Advance(2 * time.Hour)

	sink := &memorySink{}
	second := newTestService(t, clock, openStore(t, dir), sink)
	if err := second.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	second.Tick()
	second.Tick()

	if len(sink.sessions) != 1 {
		t.Fatalf("recorded %d sessions, want exactly 1", len(sink.sessions))
	}
	if sink.sessions[0].Skipped || sink.sessions[0].DurationSeconds != 1500 {
		t.Errorf("session = %+v", sink.sessions[0])
	}
	if snap := second.Snapshot(); snap.Kind != timer.KindShortBreak || snap.Remaining != 5*time.Minute {
		t.Errorf("after restore = %+v", snap)
	}
}

func TestLoadDiscardsCorruptState(t *testing.T) {
	dir := t.TempDir()
	store := openStore(t, dir)
	if err := store.Set(localstore.KeyTimerState, "not a snapshot"); err != nil {
		t.Fatal(err)
	}

	clock := &fakeClock{now: time.Now()}
	svc := newTestService(t, clock, store, nil)
	if err := svc.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap := svc.Snapshot(); snap.Status != timer.StatusIdle || snap.Remaining != 25*time.Minute {
		t.Errorf("snapshot = %+v", snap)
	}

	var raw any
	if err := store.Get(localstore.KeyTimerState, &raw); !errors.Is(err, localstore.ErrNotFound) {
		t.Errorf("corrupt state not removed: %v", err)
	}
}

func TestSetTaskValidates(t *testing.T) {
	svc, err := New(timer.DefaultConfig(), Options{
		Logger: quietLogger(),
		TaskExists: func(id uint) error {
			if id != 7 {
				return db.ErrTaskNotFound
			}
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	bad := uint(3)
	if err := svc.SetTask(&bad); !errors.Is(err, db.ErrTaskNotFound) {
		t.Errorf("err = %v", err)
	}
	good := uint(7)
	if err := svc.SetTask(&good); err != nil {
		t.Fatal(err)
	}
	if snap := svc.Snapshot(); snap.TaskID == nil || *snap.TaskID != 7 {
		t.Errorf("task = %v", snap.TaskID)
	}
	if err := svc.SetTask(nil); err != nil || svc.Snapshot().TaskID != nil {
		t.Errorf("detach failed: %v", err)
	}
}

type recordingPusher struct {
	sessions []models.PomodoroSession
	stats    []models.Stats
}

func (p *recordingPusher) PushSession(s models.PomodoroSession) { p.sessions = append(p.sessions, s) }
func (p *recordingPusher) PushStats(s models.Stats)             { p.stats = append(p.stats, s) }

func TestDBSink(t *testing.T) {
	if err := db.Initialize(db.MemoryPath); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	task, err := db.CreateTask(db.CreateTaskRequest{Title: "deep work"})
	if err != nil {
		t.Fatal(err)
	}

	pusher := &recordingPusher{}
	clock := &fakeClock{now: time.Now()}
	svc, err := New(timer.DefaultConfig(), Options{
		Clock:      clock,
		Sink:       DBSink{Remote: pusher},
		Logger:     quietLogger(),
		TaskExists: TaskExists,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.SetTask(&task.ID); err != nil {
		t.Fatal(err)
	}
	svc.Start()
	clock.Advance(25 * time.Minute)
	svc.Tick()

	sessions, err := db.GetSessions(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].TaskID == nil || *sessions[0].TaskID != task.ID {
		t.Fatalf("sessions = %+v", sessions)
	}
	st, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalFocusSeconds != 1500 {
		t.Errorf("focus seconds = %d", st.TotalFocusSeconds)
	}
	if len(pusher.sessions) != 1 || len(pusher.stats) != 1 {
		t.Errorf("pushed %d sessions, %d stats", len(pusher.sessions), len(pusher.stats))
	}

	again := sessions[0]
	again.Task = nil
	if err := (DBSink{Remote: pusher}).Record(&again); !errors.Is(err, ErrAlreadyRecorded) {
		t.Errorf("re-record err = %v, want ErrAlreadyRecorded", err)
	}
	if len(pusher.sessions) != 1 {
		t.Errorf("repeat was pushed: %d sessions", len(pusher.sessions))
	}

	missing := uint(999)
	if err := svc.SetTask(&missing); !errors.Is(err, db.ErrTaskNotFound) {
		t.Errorf("err = %v", err)
	}
}

// sharedSink stands in for the database both processes write to
type sharedSink struct {
	mu       sync.Mutex
	sessions map[string]models.PomodoroSession
	repeats  int
}

func (s *sharedSink) Record(session *models.PomodoroSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = make(map[string]models.PomodoroSession)
	}
	if _, ok := s.sessions[session.ID]; ok {
		s.repeats++
		return ErrAlreadyRecorded
	}
	s.sessions[session.ID] = *session
	return nil
}

func TestActionFromOtherProcessSurvivesTick(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

	owner := newTestService(t, clock, openStore(t, dir), nil)
	owner.Start()
	clock.Advance(5 * time.Minute)
	owner.Tick()

	cli := newTestService(t, clock, openStore(t, dir), nil)
	if err := cli.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cli.Pause()

	clock.Advance(time.Second)
	owner.Tick()

	var stored timer.Snapshot
	if err := openStore(t, dir).Get(localstore.KeyTimerState, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.Status != timer.StatusPaused {
		t.Errorf("persisted status = %s, want paused", stored.Status)
	}
	if snap := owner.Snapshot(); snap.Status != timer.StatusPaused || snap.Remaining != 20*time.Minute {
		t.Errorf("owner = %+v", snap)
	}
}

func TestSessionRecordedOnceAcrossProcesses(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	sink := &sharedSink{}

	owner := newTestService(t, clock, openStore(t, dir), sink)
	owner.Start()
	clock.Advance(5 * time.Minute)
	owner.Tick()

	clock.Advance(25 * time.Minute)
	status := newTestService(t, clock, openStore(t, dir), sink)
	if err := status.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	owner.Tick()
	owner.Tick()

	if len(sink.sessions) != 1 || sink.repeats != 0 {
		t.Fatalf("recorded %d sessions with %d repeats, want 1", len(sink.sessions), sink.repeats)
	}
	if snap := owner.Snapshot(); snap.Kind != timer.KindShortBreak || snap.CompletedCycles != 1 {
		t.Errorf("owner = %+v", snap)
	}
}

func TestRepeatedCompletionSkipsListeners(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	started := clock.Now()
	snap := timer.Snapshot{
		Status:           timer.StatusRunning,
		Kind:             timer.KindWork,
		Remaining:        time.Minute,
		Total:            25 * time.Minute,
		SessionStartedAt: &started,
		SavedAt:          started,
	}
	clock.Advance(time.Hour)

	sink := &sharedSink{}
	var notified int
	for range 2 {
		dir := t.TempDir()
		store := openStore(t, dir)
		if err := store.Set(localstore.KeyTimerState, snap); err != nil {
			t.Fatal(err)
		}
		svc := newTestService(t, clock, store, sink)
		svc.OnComplete(func(models.PomodoroSession) { notified++ })
		if err := svc.Load(); err != nil {
			t.Fatal(err)
		}
	}

	if len(sink.sessions) != 1 || sink.repeats != 1 {
		t.Errorf("sessions %d, repeats %d", len(sink.sessions), sink.repeats)
	}
	if notified != 1 {
		t.Errorf("listeners notified %d times, want 1", notified)
	}
}
