// Package player sequences playback through a playlist on a single [Output].
//
// # States
//
//	Idle -> Loaded -> Playing <-> Paused
//	                     |
//	                   Ended -> (next track after a short delay)
//
// A track with no playable URL opens its external link when it has one, and playback moves on after a short delay.
// Each link opens once per playlist. When every playlist entry has been skipped in a row, auto-advance stops and the
// state reports Halted.
//
// # Concurrency
//
// Loads are generation-guarded: a load whose secondary lookup completes after a newer load started is discarded.
// The sequencer never holds its state lock while calling the [Output], and output calls are serialized.
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

const (
	DefaultSkipDelay  = 600 * time.Millisecond
	DefaultEndedDelay = 400 * time.Millisecond
)

// Output is the playback resource driven by the [Sequencer].
type Output interface {
	Load(url string) error
	Play(ctx context.Context) error
	Pause() error
	Stop() error
}

// Options configures a [Sequencer].
type Options struct {
	Output       Output
	Resolver     Resolver      // Optional secondary lookup
	LookupSource models.Source // Tracks from this source go through the Resolver; defaults to iTunes
	Scheduler    shared.Scheduler
	SkipDelay    time.Duration
	EndedDelay   time.Duration
	Events       chan<- models.Event
	Open         func(url string) error // Opens external links; nil only reports them
	Logger       *log.Logger
}

// Sequencer owns the playback state and the [Output].
type Sequencer struct {
	output       Output
	resolver     Resolver
	lookupSource models.Source
	sched        shared.Scheduler
	skipDelay    time.Duration
	endedDelay   time.Duration
	events       chan<- models.Event
	open         func(url string) error
	logger       *log.Logger

	outMu sync.Mutex

	mu         sync.Mutex
	candidates []models.Track
	playlist   models.Playlist
	position   int
	status     models.Status
	playing    bool
	hasSource  bool
	history    map[string]struct{}
	order      []string
	skipped    map[string]struct{}
	halted     bool
	gen        uint64
	pending    shared.Timer
	skips      int
}

// NewSequencer creates an idle [Sequencer].
func NewSequencer(opts Options) *Sequencer {
	if opts.LookupSource == "" {
		opts.LookupSource = models.SourceITunes
	}
	if opts.Scheduler == nil {
		opts.Scheduler = shared.RealScheduler{}
	}
	if opts.SkipDelay <= 0 {
		opts.SkipDelay = DefaultSkipDelay
	}
	if opts.EndedDelay <= 0 {
		opts.EndedDelay = DefaultEndedDelay
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Sequencer{
		output:       opts.Output,
		resolver:     opts.Resolver,
		lookupSource: opts.LookupSource,
		sched:        opts.Scheduler,
		skipDelay:    opts.SkipDelay,
		endedDelay:   opts.EndedDelay,
		events:       opts.Events,
		open:         opts.Open,
		logger:       opts.Logger,
		position:     -1,
		history:      make(map[string]struct{}),
		skipped:      make(map[string]struct{}),
	}
}

// Reset replaces the candidate list and playlist, stopping the output and clearing position and history.
func (s *Sequencer) Reset(candidates []models.Track, pl models.Playlist) {
	s.mu.Lock()
	s.halt()
	s.candidates = candidates
	s.playlist = pl.Clone()
	s.position = -1
	s.status = models.StatusIdle
	s.playing = false
	s.hasSource = false
	s.history = make(map[string]struct{})
	s.order = nil
	s.skipped = make(map[string]struct{})
	s.skips = 0
	s.halted = false
	s.emitState()
	s.mu.Unlock()

	s.outMu.Lock()
	defer s.outMu.Unlock()
	if err := s.output.Stop(); err != nil {
		s.logger.Warn("failed to stop output", "err", err)
	}
}

// Update swaps the candidate list and playlist without touching position or history.
//
// The playlist must keep every entry up to the current position resolving to the same track.
func (s *Sequencer) Update(candidates []models.Track, pl models.Playlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = candidates
	s.playlist = pl.Clone()
}

// Playlist returns the current playlist and candidate list.
func (s *Sequencer) Playlist() ([]models.Track, models.Playlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates, s.playlist.Clone()
}

// LoadAt loads the playlist entry at position and starts playing it.
//
// Tracks from the lookup source first go through the [Resolver] for a substitute preview or artwork. A track with
// nothing to play is skipped after the skip delay.
func (s *Sequencer) LoadAt(ctx context.Context, position int) error {
	s.mu.Lock()
	n := len(s.playlist)
	if n == 0 {
		s.mu.Unlock()
		return shared.ErrNothingLoaded
	}
	if position < 0 || position >= n {
		s.mu.Unlock()
		return fmt.Errorf("%w: position %d out of range [0, %d)", shared.ErrInvalidArgument, position, n)
	}
	idx := s.playlist[position]
	if idx < 0 || idx >= len(s.candidates) {
		s.mu.Unlock()
		return fmt.Errorf("%w: playlist entry %d has no candidate", shared.ErrInvalidArgument, idx)
	}

	s.halt()
	gen := s.gen
	track := s.candidates[idx]
	s.position = position
	s.status = models.StatusLoaded
	s.playing = false
	s.hasSource = false
	s.halted = false
	s.emit(models.Event{Kind: models.NowPlayingChanged, Track: &track})
	s.mu.Unlock()

	url := track.PreviewURL
	artworkChanged := false
	if s.resolver != nil && track.Source == s.lookupSource {
		if sub, ok := s.resolver.Resolve(ctx, track); ok {
			if sub.PreviewURL != "" {
				url = sub.PreviewURL
			}
			if sub.ArtworkURL != "" && sub.ArtworkURL != track.ArtworkURL {
				track.ArtworkURL = sub.ArtworkURL
				artworkChanged = true
			}
		}
	}

	if url == "" {
		return s.skip(gen, track)
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded load", "track", track.ID)
		return nil
	}
	s.skips = 0
	if artworkChanged {
		s.emit(models.Event{Kind: models.NowPlayingChanged, Track: &track})
	}
	s.mu.Unlock()

	err := s.output.Load(url)
	if err == nil {
		err = s.output.Play(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.hasSource = true
	if err != nil {
		s.logger.Warn("playback failed", "track", track.ID, "err", err)
		s.status = models.StatusLoaded
		s.playing = false
	} else {
		s.status = models.StatusPlaying
		s.playing = true
		s.record(track.ID)
	}
	s.emitState()
	return nil
}

// skip handles a track with no playable URL.
func (s *Sequencer) skip(gen uint64, track models.Track) error {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}

	_, tried := s.skipped[track.ID]
	s.skipped[track.ID] = struct{}{}
	external := track.ExternalLink != "" && !tried
	if external {
		s.emit(models.Event{Kind: models.OpenedExternally, Track: &track})
	}

	s.skips++
	exhausted := s.skips >= len(s.playlist)
	if exhausted {
		s.status = models.StatusEnded
		s.halted = true
	} else {
		s.pending = s.sched.AfterFunc(s.skipDelay, func() { s.autoAdvance(gen) })
	}
	skips := s.skips
	s.emitState()
	s.mu.Unlock()

	if exhausted {
		s.logger.Warn("stopping auto-advance", "err", shared.ErrNoPlayableSource, "skipped", skips)
	}
	if external && s.open != nil {
		if err := s.open(track.ExternalLink); err != nil {
			s.logger.Warn("failed to open external link", "url", track.ExternalLink, "err", err)
		}
	}
	return nil
}

// AdvanceNext loads the next playlist entry not yet played or skipped, or simply the following one when all were.
func (s *Sequencer) AdvanceNext(ctx context.Context) error {
	s.mu.Lock()
	n := len(s.playlist)
	if n == 0 {
		s.mu.Unlock()
		return shared.ErrNothingLoaded
	}

	next := (s.position + 1) % n
	for i := 0; i < n; i++ {
		candidate := (s.position + 1 + i) % n
		idx := s.playlist[candidate]
		if idx < 0 || idx >= len(s.candidates) {
			continue
		}
		id := s.candidates[idx].ID
		_, played := s.history[id]
		_, skipped := s.skipped[id]
		if !played && !skipped {
			next = candidate
			break
		}
	}
	s.mu.Unlock()

	return s.LoadAt(ctx, next)
}

// AdvancePrev loads the previous playlist entry, wrapping around.
func (s *Sequencer) AdvancePrev(ctx context.Context) error {
	s.mu.Lock()
	n := len(s.playlist)
	if n == 0 {
		s.mu.Unlock()
		return shared.ErrNothingLoaded
	}
	prev := ((s.position-1)%n + n) % n
	s.mu.Unlock()

	return s.LoadAt(ctx, prev)
}

// Toggle pauses or resumes the output. No-op when no source is assigned.
func (s *Sequencer) Toggle(ctx context.Context) error {
	s.mu.Lock()
	if !s.hasSource {
		s.mu.Unlock()
		return nil
	}
	gen := s.gen
	wasPlaying := s.playing
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.mu.Unlock()

	s.outMu.Lock()
	var err error
	if wasPlaying {
		err = s.output.Pause()
	} else {
		err = s.output.Play(ctx)
	}
	s.outMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	switch {
	case err != nil:
		s.logger.Warn("toggle failed", "err", err)
		s.playing = false
		s.status = models.StatusLoaded
	case wasPlaying:
		s.playing = false
		s.status = models.StatusPaused
	default:
		s.playing = true
		s.status = models.StatusPlaying
		if t := s.current(); t != nil {
			s.record(t.ID)
		}
	}
	s.emitState()
	return err
}

// OnPlay reports that the output started playing on its own.
func (s *Sequencer) OnPlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSource {
		return
	}
	s.status = models.StatusPlaying
	s.playing = true
	s.emitState()
}

// OnPause reports that the output paused on its own.
func (s *Sequencer) OnPause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSource {
		return
	}
	s.status = models.StatusPaused
	s.playing = false
	s.emitState()
}

// OnEnded reports that the output reached the end of the source. The next track loads after the ended delay.
func (s *Sequencer) OnEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSource || (s.status != models.StatusPlaying && s.status != models.StatusPaused) {
		return
	}

	s.status = models.StatusEnded
	s.playing = false
	gen := s.gen
	if s.pending != nil {
		s.pending.Stop()
	}
	s.pending = s.sched.AfterFunc(s.endedDelay, func() { s.autoAdvance(gen) })
	s.emitState()
}

func (s *Sequencer) autoAdvance(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	if err := s.AdvanceNext(context.Background()); err != nil {
		s.logger.Debug("auto-advance stopped", "err", err)
	}
}

// Close cancels any pending auto-advance and stops the output.
func (s *Sequencer) Close() error {
	s.mu.Lock()
	s.halt()
	s.mu.Unlock()

	s.outMu.Lock()
	defer s.outMu.Unlock()
	return s.output.Stop()
}

// State returns a snapshot of the playback state.
func (s *Sequencer) State() models.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// History returns the ids played since the last [Sequencer.Reset], in play order.
func (s *Sequencer) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// halt invalidates in-flight loads and pending advances. Must be called with mu held.
func (s *Sequencer) halt() {
	s.gen++
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// record must be called with mu held.
func (s *Sequencer) record(id string) {
	if _, ok := s.history[id]; ok {
		return
	}
	s.history[id] = struct{}{}
	s.order = append(s.order, id)
}

// current must be called with mu held.
func (s *Sequencer) current() *models.Track {
	if s.position < 0 || s.position >= len(s.playlist) {
		return nil
	}
	idx := s.playlist[s.position]
	if idx < 0 || idx >= len(s.candidates) {
		return nil
	}
	t := s.candidates[idx]
	return &t
}

func (s *Sequencer) snapshot() models.PlaybackState {
	return models.PlaybackState{
		Position:  s.position,
		IsPlaying: s.playing,
		Status:    s.status,
		Track:     s.current(),
		Halted:    s.halted,
	}
}

func (s *Sequencer) emitState() {
	s.emit(models.Event{Kind: models.PlaybackStateChanged, State: s.snapshot()})
}

func (s *Sequencer) emit(ev models.Event) {
	models.Send(s.events, ev)
}
