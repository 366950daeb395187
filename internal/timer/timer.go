// Package timer implements the Pomodoro state machine: a countdown that
// alternates work and break sessions, classifies every Nth break as long,
// and can be persisted and resumed across process restarts.
package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the run state of the timer
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

func (s Status) valid() bool {
	return s == StatusIdle || s == StatusRunning || s == StatusPaused
}

// Kind is the type of the current session
type Kind string

const (
	KindWork       Kind = "work"
	KindShortBreak Kind = "short_break"
	KindLongBreak  Kind = "long_break"
)

// IsBreak reports whether the kind is a short or long break
func (k Kind) IsBreak() bool {
	return k == KindShortBreak || k == KindLongBreak
}

func (k Kind) valid() bool {
	return k == KindWork || k.IsBreak()
}

// Label returns a display name for the kind
func (k Kind) Label() string {
	switch k {
	case KindShortBreak:
		return "Short break"
	case KindLongBreak:
		return "Long break"
	default:
		return "Focus"
	}
}

// Completion describes a session that just ended, naturally or by skip.
// Duration is always the configured length of the session.
type Completion struct {
	ID              string
	Kind            Kind
	Duration        time.Duration
	Skipped         bool
	StartedAt       time.Time
	CompletedAt     time.Time
	TaskID          *uint
	CompletedCycles int
}

// Hooks are called after the machine has released its lock, so they may
// call back into the machine.
type Hooks struct {
	OnComplete      func(Completion)
	OnWorkComplete  func(Completion)
	OnBreakComplete func(Completion)
	// OnChange receives the state after every transition and tick. It runs
	// before the completion hooks of the same transition.
	OnChange func(Snapshot)
}

// Machine is the Pomodoro timer. It is safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	cfg   Config
	clock Clock
	hooks Hooks

	status          Status
	kind            Kind
	remaining       time.Duration
	completedCycles int
	sessionStart    *time.Time
	lastTick        time.Time
	taskID          *uint
}

// events collects what a transition produced while the lock was held
type events struct {
	snapshot    *Snapshot
	completions []Completion
}

// New creates an idle machine positioned on a fresh work session
func New(cfg Config, clock Clock, hooks Hooks) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timer config: %w", err)
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Machine{
		cfg:       cfg,
		clock:     clock,
		hooks:     hooks,
		status:    StatusIdle,
		kind:      KindWork,
		remaining: cfg.WorkDuration,
	}, nil
}

// Start moves an idle or paused timer to running. The session start time
// is recorded on the first start of a fresh session only.
func (m *Machine) Start() {
	m.mu.Lock()
	ev := m.startLocked(m.clock.Now())
	m.mu.Unlock()
	m.dispatch(ev)
}

func (m *Machine) startLocked(now time.Time) events {
	if m.status == StatusRunning {
		return events{}
	}
	if m.sessionStart == nil {
		started := now
		m.sessionStart = &started
	}
	m.status = StatusRunning
	m.lastTick = now
	return m.changedLocked(now)
}

// Pause stops the countdown and keeps the remaining time
func (m *Machine) Pause() {
	m.mu.Lock()
	ev := m.pauseLocked(m.clock.Now())
	m.mu.Unlock()
	m.dispatch(ev)
}

func (m *Machine) pauseLocked(now time.Time) events {
	if m.status != StatusRunning {
		return events{}
	}
	ev := m.advanceLocked(now)
	if m.status == StatusRunning {
		m.status = StatusPaused
	}
	snap := m.snapshotLocked(now)
	ev.snapshot = &snap
	return ev
}

// Reset returns to an idle work session with the full work duration.
// The completed cycle counter is kept.
func (m *Machine) Reset() {
	m.mu.Lock()
	now := m.clock.Now()
	m.status = StatusIdle
	m.kind = KindWork
	m.remaining = m.cfg.WorkDuration
	m.sessionStart = nil
	ev := m.changedLocked(now)
	m.mu.Unlock()
	m.dispatch(ev)
}

// Skip ends the current session immediately. The completion reports the
// configured duration of the session, not the time actually spent.
func (m *Machine) Skip() {
	m.mu.Lock()
	ev := m.completeLocked(m.clock.Now(), true)
	m.mu.Unlock()
	m.dispatch(ev)
}

// Tick advances a running countdown to the current time. It is meant to be
// called about once a second; reaching zero completes the session once.
func (m *Machine) Tick() {
	m.mu.Lock()
	ev := m.advanceLocked(m.clock.Now())
	m.mu.Unlock()
	m.dispatch(ev)
}

func (m *Machine) advanceLocked(now time.Time) events {
	if m.status != StatusRunning {
		return events{}
	}
	elapsed := now.Sub(m.lastTick)
	if elapsed < 0 {
		elapsed = 0
	}
	m.lastTick = now
	m.remaining -= elapsed
	if m.remaining <= 0 {
		m.remaining = 0
		return m.completeLocked(now, false)
	}
	return m.changedLocked(now)
}

func (m *Machine) completeLocked(now time.Time, skipped bool) events {
	started := now
	id := uuid.NewString()
	if m.sessionStart != nil {
		started = *m.sessionStart
		id = SessionID(m.kind, started)
	}
	c := Completion{
		ID:          id,
		Kind:        m.kind,
		Duration:    m.cfg.Duration(m.kind),
		Skipped:     skipped,
		StartedAt:   started,
		CompletedAt: now,
		TaskID:      copyUint(m.taskID),
	}

	var autoStart bool
	if m.kind == KindWork {
		m.completedCycles++
		m.kind = m.cfg.BreakAfter(m.completedCycles)
		autoStart = m.cfg.AutoStartBreaks
	} else {
		m.kind = KindWork
		autoStart = m.cfg.AutoStartWork
	}
	c.CompletedCycles = m.completedCycles

	m.remaining = m.cfg.Duration(m.kind)
	m.sessionStart = nil
	m.status = StatusIdle
	if autoStart {
		started := now
		m.sessionStart = &started
		m.status = StatusRunning
		m.lastTick = now
	}

	ev := m.changedLocked(now)
	ev.completions = append(ev.completions, c)
	return ev
}

// sessionNamespace scopes the name-based session ids
var sessionNamespace = uuid.MustParse("6f1c9a52-3b7e-4d0a-9c51-2e8f4b7d1a63")

// SessionID derives the id of a started session from its kind and start
// time. Every process that completes the same session derives the same
// id, so stores can drop the repeats on the primary key. Sessions skipped
// before they started get a random id instead.
func SessionID(kind Kind, started time.Time) string {
	name := string(kind) + "@" + started.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(sessionNamespace, []byte(name)).String()
}

// SetTask attaches a task to the sessions recorded from now on; nil detaches
func (m *Machine) SetTask(taskID *uint) {
	m.mu.Lock()
	m.taskID = copyUint(taskID)
	ev := m.changedLocked(m.clock.Now())
	m.mu.Unlock()
	m.dispatch(ev)
}

// UpdateConfig swaps durations and cycle settings. An idle timer picks up
// the new length of its session; a started one is clamped to it.
func (m *Machine) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid timer config: %w", err)
	}
	m.mu.Lock()
	m.cfg = cfg
	planned := cfg.Duration(m.kind)
	if m.status == StatusIdle || m.remaining > planned {
		m.remaining = planned
	}
	ev := m.changedLocked(m.clock.Now())
	m.mu.Unlock()
	m.dispatch(ev)
	return nil
}

// Config returns the active configuration
func (m *Machine) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Snapshot returns the current state
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(m.clock.Now())
}

func (m *Machine) changedLocked(now time.Time) events {
	snap := m.snapshotLocked(now)
	return events{snapshot: &snap}
}

func (m *Machine) dispatch(ev events) {
	if ev.snapshot != nil && m.hooks.OnChange != nil {
		m.hooks.OnChange(*ev.snapshot)
	}
	for _, c := range ev.completions {
		if m.hooks.OnComplete != nil {
			m.hooks.OnComplete(c)
		}
		if c.Kind == KindWork {
			if m.hooks.OnWorkComplete != nil {
				m.hooks.OnWorkComplete(c)
			}
		} else if m.hooks.OnBreakComplete != nil {
			m.hooks.OnBreakComplete(c)
		}
	}
}

func copyUint(v *uint) *uint {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
