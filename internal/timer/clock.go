package timer

import "time"

// Clock supplies wall-clock time to the machine
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns the system clock
func RealClock() Clock {
	return realClock{}
}
