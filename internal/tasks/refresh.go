package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

// DefaultRefreshInterval is the period between refresh ticks.
const DefaultRefreshInterval = 5 * time.Minute

// Poller invokes an action on a fixed interval.
//
// The next tick is armed only after the action returns, so ticks never overlap. Start resets the interval and
// Stop guarantees no further ticks; the action's context is cancelled by either.
type Poller struct {
	sched    shared.Scheduler
	interval time.Duration
	action   func(ctx context.Context)

	mu     sync.Mutex
	gen    uint64
	timer  shared.Timer
	cancel context.CancelFunc
}

// NewPoller creates a stopped [Poller].
func NewPoller(s shared.Scheduler, interval time.Duration, action func(ctx context.Context)) *Poller {
	if s == nil {
		s = shared.RealScheduler{}
	}
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Poller{sched: s, interval: interval, action: action}
}

// Start (re)arms the poller so the first tick fires one full interval from now.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.halt()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.arm(ctx, p.gen)
}

// Stop cancels any pending tick.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.halt()
}

// Running reports whether a tick is scheduled or in progress.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// halt must be called with mu held.
func (p *Poller) halt() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// arm must be called with mu held.
func (p *Poller) arm(ctx context.Context, gen uint64) {
	p.timer = p.sched.AfterFunc(p.interval, func() { p.tick(ctx, gen) })
}

func (p *Poller) tick(ctx context.Context, gen uint64) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.mu.Unlock()

	p.action(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen == p.gen {
		p.arm(ctx, gen)
	}
}

// Inject prepends the new tracks of fresh to candidates and carries the playlist over to the new list.
//
// Existing playlist entries are shifted so they resolve to the same tracks, then the indices of the new tracks are
// appended in order while the playlist is shorter than limit. Nothing is reshuffled.
func Inject(candidates []models.Track, pl models.Playlist, fresh []models.Track, limit int) ([]models.Track, models.Playlist, []models.Track) {
	added := Diff(candidates, fresh)
	if len(added) == 0 {
		return candidates, pl, nil
	}

	next := make([]models.Track, 0, len(added)+len(candidates))
	next = append(next, added...)
	next = append(next, candidates...)

	k := len(added)
	out := make(models.Playlist, len(pl), len(pl)+k)
	for i, idx := range pl {
		out[i] = idx + k
	}
	for idx := 0; idx < k; idx++ {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, idx)
	}
	return next, out, added
}
