// Package timeoutmon watches a set of running workers for two deadline
// types — a hard iteration deadline and an inactivity deadline — and
// fires a callback the moment either elapses, so the wave engine can
// SIGKILL the wave and transition to timeout cleanup (spec.md §4.10).
package timeoutmon

import (
	"context"
	"time"
)

// pollInterval matches spec.md §5's "timeout polls at ~2 Hz" discipline.
const pollInterval = 500 * time.Millisecond

// Worker is the subset of worker.Handle the monitor needs. Declared
// locally so this package has no import-time dependency on internal/worker.
type Worker interface {
	LastActivity() time.Time
	Exited() bool
}

// Deadline describes the two timeout types a wave enforces.
type Deadline struct {
	// StartedAt anchors the hard iteration deadline.
	StartedAt time.Time
	// MaxDuration is the hard wall-clock cap for the whole wave. Zero
	// disables the iteration deadline.
	MaxDuration time.Duration
	// InactivityTimeout fires if no worker produces output for this
	// long. Zero disables the inactivity deadline.
	InactivityTimeout time.Duration
}

// Reason identifies which deadline fired.
type Reason string

const (
	ReasonIteration  Reason = "iteration_timeout"
	ReasonInactivity Reason = "inactivity_timeout"
)

// Monitor polls a set of workers and reports the first deadline that
// elapses. Now is swappable for deterministic tests.
type Monitor struct {
	Now func() time.Time
}

// New returns a Monitor using the real wall clock.
func New() *Monitor {
	return &Monitor{Now: time.Now}
}

// Watch blocks until one of three things happens: the iteration
// deadline elapses, every worker has gone quiet past the inactivity
// deadline, or ctx is cancelled (all workers finished, or a manual stop
// was requested upstream). It returns the fired Reason, or "" if ctx
// was cancelled before any deadline fired.
func (m *Monitor) Watch(ctx context.Context, d Deadline, workers func() []Worker) Reason {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ""
		case <-ticker.C:
			if reason, fired := m.check(d, workers()); fired {
				return reason
			}
		}
	}
}

func (m *Monitor) check(d Deadline, workers []Worker) (Reason, bool) {
	now := m.Now()

	if d.MaxDuration > 0 && !d.StartedAt.IsZero() && now.Sub(d.StartedAt) >= d.MaxDuration {
		return ReasonIteration, true
	}

	if d.InactivityTimeout <= 0 {
		return "", false
	}

	for _, w := range workers {
		if w.Exited() {
			continue
		}
		if now.Sub(w.LastActivity()) < d.InactivityTimeout {
			return "", false
		}
	}
	// Every still-running worker (if any) has been quiet past the
	// inactivity deadline. A wave with zero live workers has nothing
	// to time out on inactivity grounds.
	if hasLiveWorker(workers) {
		return ReasonInactivity, true
	}
	return "", false
}

func hasLiveWorker(workers []Worker) bool {
	for _, w := range workers {
		if !w.Exited() {
			return true
		}
	}
	return false
}
