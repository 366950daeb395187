package timer

import (
	"fmt"
	"time"
)

// Config holds the durations and cycle settings of the timer
type Config struct {
	WorkDuration          time.Duration
	ShortBreakDuration    time.Duration
	LongBreakDuration     time.Duration
	CyclesBeforeLongBreak int
	AutoStartBreaks       bool
	AutoStartWork         bool
}

// DefaultConfig returns the classic 25/5/15 setup with a long break every 4 cycles
func DefaultConfig() Config {
	return Config{
		WorkDuration:          25 * time.Minute,
		ShortBreakDuration:    5 * time.Minute,
		LongBreakDuration:     15 * time.Minute,
		CyclesBeforeLongBreak: 4,
	}
}

// Validate checks that every duration is at least one second and the
// cycle count is positive
func (c Config) Validate() error {
	if c.WorkDuration < time.Second {
		return fmt.Errorf("work duration must be at least 1s, got %s", c.WorkDuration)
	}
	if c.ShortBreakDuration < time.Second {
		return fmt.Errorf("short break must be at least 1s, got %s", c.ShortBreakDuration)
	}
	if c.LongBreakDuration < time.Second {
		return fmt.Errorf("long break must be at least 1s, got %s", c.LongBreakDuration)
	}
	if c.CyclesBeforeLongBreak < 1 {
		return fmt.Errorf("cycles before long break must be positive, got %d", c.CyclesBeforeLongBreak)
	}
	return nil
}

// Duration returns the configured length of a session kind
func (c Config) Duration(k Kind) time.Duration {
	switch k {
	case KindShortBreak:
		return c.ShortBreakDuration
	case KindLongBreak:
		return c.LongBreakDuration
	default:
		return c.WorkDuration
	}
}

// BreakAfter classifies the break that follows the given number of
// completed work cycles
func (c Config) BreakAfter(completedCycles int) Kind {
	if completedCycles > 0 && completedCycles%c.CyclesBeforeLongBreak == 0 {
		return KindLongBreak
	}
	return KindShortBreak
}
