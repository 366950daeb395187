package timer

import (
	"fmt"
	"time"
)

// Snapshot is the persisted form of the machine state. For a running timer
// Remaining is the value at SavedAt.
type Snapshot struct {
	Status           Status        `json:"status"`
	Kind             Kind          `json:"kind"`
	Remaining        time.Duration `json:"remaining"`
	Total            time.Duration `json:"total"`
	CompletedCycles  int           `json:"completed_cycles"`
	SessionStartedAt *time.Time    `json:"session_started_at,omitempty"`
	TaskID           *uint         `json:"task_id,omitempty"`
	SavedAt          time.Time     `json:"saved_at"`
}

// Progress returns the elapsed fraction of the current session in [0,1]
func (s Snapshot) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	p := 1 - float64(s.Remaining)/float64(s.Total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Equal reports whether two snapshots describe the same state. Times are
// compared as instants so a snapshot equals its decoded JSON copy.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Status == o.Status &&
		s.Kind == o.Kind &&
		s.Remaining == o.Remaining &&
		s.Total == o.Total &&
		s.CompletedCycles == o.CompletedCycles &&
		s.SavedAt.Equal(o.SavedAt) &&
		equalTime(s.SessionStartedAt, o.SessionStartedAt) &&
		equalUint(s.TaskID, o.TaskID)
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalUint(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *Machine) snapshotLocked(now time.Time) Snapshot {
	saved := now
	if m.status == StatusRunning {
		saved = m.lastTick
	}
	return Snapshot{
		Status:           m.status,
		Kind:             m.kind,
		Remaining:        m.remaining,
		Total:            m.cfg.Duration(m.kind),
		CompletedCycles:  m.completedCycles,
		SessionStartedAt: copyTime(m.sessionStart),
		TaskID:           copyUint(m.taskID),
		SavedAt:          saved,
	}
}

// Restore loads a persisted snapshot. A running snapshot is caught up with
// the wall-clock time elapsed since it was saved; if that exhausts the
// session it completes right away instead of counting below zero.
func (m *Machine) Restore(s Snapshot) error {
	if !s.Status.valid() {
		return fmt.Errorf("invalid timer status %q", s.Status)
	}
	if !s.Kind.valid() {
		return fmt.Errorf("invalid session kind %q", s.Kind)
	}
	if s.CompletedCycles < 0 {
		return fmt.Errorf("invalid completed cycles %d", s.CompletedCycles)
	}

	m.mu.Lock()
	now := m.clock.Now()
	m.status = s.Status
	m.kind = s.Kind
	m.completedCycles = s.CompletedCycles
	m.sessionStart = copyTime(s.SessionStartedAt)
	m.taskID = copyUint(s.TaskID)

	planned := m.cfg.Duration(s.Kind)
	m.remaining = s.Remaining
	if m.remaining > planned {
		m.remaining = planned
	}

	var ev events
	if m.status == StatusRunning {
		m.lastTick = s.SavedAt
		ev = m.advanceLocked(now)
	} else {
		if m.remaining <= 0 {
			m.remaining = planned
		}
		ev = m.changedLocked(now)
	}
	m.mu.Unlock()

	m.dispatch(ev)
	return nil
}
