package player

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/vibe/internal/shared"
)

// DefaultPreviewLength is the length of a simulated preview clip.
const DefaultPreviewLength = 30 * time.Second

// SimulatedOutput stands in for an audio element: it "plays" a source for a fixed length, then reports the end.
//
// Pausing keeps the remaining time.
type SimulatedOutput struct {
	sched  shared.Scheduler
	length time.Duration
	now    func() time.Time

	mu        sync.Mutex
	src       string
	playing   bool
	remaining time.Duration
	started   time.Time
	timer     shared.Timer
	gen       uint64
	onEnded   func()
}

// NewSimulatedOutput creates a [SimulatedOutput]. A nil now uses [time.Now].
func NewSimulatedOutput(s shared.Scheduler, length time.Duration, now func() time.Time) *SimulatedOutput {
	if s == nil {
		s = shared.RealScheduler{}
	}
	if length <= 0 {
		length = DefaultPreviewLength
	}
	if now == nil {
		now = time.Now
	}
	return &SimulatedOutput{sched: s, length: length, now: now}
}

// OnEnded registers the callback fired when a source finishes.
func (o *SimulatedOutput) OnEnded(f func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onEnded = f
}

// Load assigns a new source, discarding the previous one.
func (o *SimulatedOutput) Load(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset()
	o.src = url
	o.remaining = o.length
	return nil
}

// Play starts or resumes the current source.
func (o *SimulatedOutput) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.src == "" {
		return shared.ErrNothingLoaded
	}
	if o.playing {
		return nil
	}
	if o.remaining <= 0 {
		o.remaining = o.length
	}

	o.playing = true
	o.started = o.now()
	gen := o.gen
	o.timer = o.sched.AfterFunc(o.remaining, func() { o.finish(gen) })
	return nil
}

// Pause stops the clock, keeping the remaining time.
func (o *SimulatedOutput) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.playing {
		return nil
	}

	o.gen++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.remaining -= o.now().Sub(o.started)
	o.playing = false
	return nil
}

// Stop unloads the source.
func (o *SimulatedOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset()
	o.src = ""
	return nil
}

// Source returns the loaded URL.
func (o *SimulatedOutput) Source() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.src
}

// Playing reports whether the clock is running.
func (o *SimulatedOutput) Playing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

// reset must be called with mu held.
func (o *SimulatedOutput) reset() {
	o.gen++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.playing = false
	o.remaining = 0
}

func (o *SimulatedOutput) finish(gen uint64) {
	o.mu.Lock()
	if gen != o.gen || !o.playing {
		o.mu.Unlock()
		return
	}
	o.playing = false
	o.remaining = 0
	o.timer = nil
	cb := o.onEnded
	o.mu.Unlock()

	if cb != nil {
		cb()
	}
}
