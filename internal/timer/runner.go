package timer

import (
	"context"
	"time"
)

// Ticker is anything advanced by Tick, usually a Machine or a wrapper
// that syncs it first
type Ticker interface {
	Tick()
}

// Runner ticks a machine on a fixed interval until its context ends
type Runner struct {
	target   Ticker
	interval time.Duration
}

// NewRunner creates a runner; a non-positive interval means one second
func NewRunner(t Ticker, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{target: t, interval: interval}
}

// Run blocks, ticking the machine, and returns the context error on exit
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.target.Tick()
		}
	}
}
