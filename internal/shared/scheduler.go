package shared

import (
	"sync"
	"time"
)

// Timer is a handle to a pending scheduled action.
type Timer interface {
	// Stop prevents the action from running, reporting whether it was still pending.
	Stop() bool
}

// Scheduler runs actions after a delay.
//
// Production code uses [RealScheduler]; tests substitute a manually advanced clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime timer heap via [time.AfterFunc].
type RealScheduler struct{}

// AfterFunc implements [Scheduler].
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer holds at most one pending action.
//
// Scheduling a new action invalidates the previous one, even if its timer already fired and the action is waiting to run.
type Debouncer struct {
	mu    sync.Mutex
	sched Scheduler
	timer Timer
	gen   uint64
}

// NewDebouncer creates a [Debouncer] on the given [Scheduler], defaulting to [RealScheduler].
func NewDebouncer(s Scheduler) *Debouncer {
	if s == nil {
		s = RealScheduler{}
	}
	return &Debouncer{sched: s}
}

// Schedule arranges for f to run after d, replacing any pending action.
func (d *Debouncer) Schedule(delay time.Duration, f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.sched.AfterFunc(delay, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		f()
	})
}

// Cancel drops the pending action, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether an action is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
