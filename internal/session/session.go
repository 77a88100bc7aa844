// Package session wires search, playlist building, playback and refresh into one controller.
//
// A [Session] is the inbound surface used by the CLI and TUI. Everything it learns is pushed to the events channel
// as [models.Event] values; sends never block, so a slow consumer only misses events.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/player"
	"github.com/desertthunder/vibe/internal/playlist"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/desertthunder/vibe/internal/tasks"
)

const (
	DefaultDebounce    = 320 * time.Millisecond
	DefaultSuggestions = 12
)

// Options injects the collaborators of a [Session]. Zero values select the defaults.
type Options struct {
	Adapters        []services.Adapter
	Enabled         []models.Source
	Fallback        models.Source
	AdapterTimeout  time.Duration
	Output          player.Output
	Resolver        player.Resolver
	Scheduler       shared.Scheduler
	Rand            playlist.Rand
	PlaylistLimit   int
	Debounce        time.Duration
	RefreshInterval time.Duration
	Suggestions     int
	SkipDelay       time.Duration
	EndedDelay      time.Duration
	Events          chan<- models.Event
	Open            func(url string) error
	Logger          *log.Logger
}

// Session is the controller for one user's search and playback.
type Session struct {
	engine      *tasks.SearchEngine
	builder     *playlist.Builder
	seq         *player.Sequencer
	poller      *tasks.Poller
	debouncer   *shared.Debouncer
	events      chan<- models.Event
	debounce    time.Duration
	suggestions int
	logger      *log.Logger

	mu        sync.Mutex
	seedToken uint64 // search token the playlist was built from, 0 when none
}

// New creates a [Session].
func New(opts Options) *Session {
	if opts.Scheduler == nil {
		opts.Scheduler = shared.RealScheduler{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Suggestions <= 0 {
		opts.Suggestions = DefaultSuggestions
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = player.NewSimulatedOutput(opts.Scheduler, 0, nil)
	}

	s := &Session{
		engine: tasks.NewSearchEngine(tasks.EngineOpts{
			Adapters: opts.Adapters,
			Enabled:  opts.Enabled,
			Fallback: opts.Fallback,
			Timeout:  opts.AdapterTimeout,
			Logger:   shared.WithLogger(opts.Logger, "component", "search"),
		}),
		builder: playlist.NewBuilder(opts.Rand, opts.PlaylistLimit),
		seq: player.NewSequencer(player.Options{
			Output:     opts.Output,
			Resolver:   opts.Resolver,
			Scheduler:  opts.Scheduler,
			SkipDelay:  opts.SkipDelay,
			EndedDelay: opts.EndedDelay,
			Events:     opts.Events,
			Open:       opts.Open,
			Logger:     shared.WithLogger(opts.Logger, "component", "player"),
		}),
		debouncer:   shared.NewDebouncer(opts.Scheduler),
		events:      opts.Events,
		debounce:    opts.Debounce,
		suggestions: opts.Suggestions,
		logger:      opts.Logger,
	}
	s.poller = tasks.NewPoller(opts.Scheduler, opts.RefreshInterval, func(ctx context.Context) {
		if _, err := s.Refresh(ctx); err != nil {
			s.logger.Warn("refresh failed", "err", err)
		}
	})

	if so, ok := opts.Output.(*player.SimulatedOutput); ok {
		so.OnEnded(s.seq.OnEnded)
	}
	return s
}

// Close cancels pending searches and refreshes and stops playback.
func (s *Session) Close() error {
	s.debouncer.Cancel()
	s.poller.Stop()
	return s.seq.Close()
}

// Search runs query immediately. A successful search restarts the refresh poller; a blank query stops it.
func (s *Session) Search(ctx context.Context, query string) (*tasks.SearchResult, error) {
	res, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if res.Stale {
		return res, nil
	}

	if res.Query == "" {
		s.poller.Stop()
	} else {
		s.poller.Start()
	}

	s.emit(models.Event{Kind: models.SuggestionsUpdated, Query: res.Query, Tracks: s.head(res.Tracks)})
	s.emit(models.Event{Kind: models.ResultsUpdated, Query: res.Query, Tracks: res.Tracks})
	return res, nil
}

// SearchDebounced runs query after the debounce delay, replacing any search still waiting.
func (s *Session) SearchDebounced(query string) {
	s.debouncer.Schedule(s.debounce, func() {
		if _, err := s.Search(context.Background(), query); err != nil {
			s.logger.Warn("search failed", "query", query, "err", err)
		}
	})
}

// CancelSearch drops a debounced search that has not started.
func (s *Session) CancelSearch() {
	s.debouncer.Cancel()
}

// SelectSeed builds a playlist around the candidate at idx and starts playing it.
//
// The snapshot and the reset happen under the same lock as a refresh, so a refresh lands either before the snapshot
// or after the new playlist is in place.
func (s *Session) SelectSeed(ctx context.Context, idx int) error {
	s.mu.Lock()
	query, token, candidates := s.engine.Snapshot()
	pl, err := s.builder.Build(idx, candidates, query)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.seedToken = token
	s.seq.Reset(candidates, pl)
	s.mu.Unlock()

	s.logger.Debug("playlist built", "seed", candidates[idx].ID, "length", len(pl))
	return s.seq.LoadAt(ctx, 0)
}

// PlayPauseToggle pauses or resumes playback.
func (s *Session) PlayPauseToggle(ctx context.Context) error {
	return s.seq.Toggle(ctx)
}

// Next moves to the next unplayed playlist entry.
func (s *Session) Next(ctx context.Context) error {
	return s.seq.AdvanceNext(ctx)
}

// Prev moves to the previous playlist entry.
func (s *Session) Prev(ctx context.Context) error {
	return s.seq.AdvancePrev(ctx)
}

// OnPlay, OnPause and OnEnded forward events raised by an external [player.Output].
func (s *Session) OnPlay()  { s.seq.OnPlay() }
func (s *Session) OnPause() { s.seq.OnPause() }
func (s *Session) OnEnded() { s.seq.OnEnded() }

// SetEnabledSources selects which sources subsequent searches query.
func (s *Session) SetEnabledSources(sources ...models.Source) {
	s.engine.SetEnabledSources(sources...)
}

// EnabledSources returns the enabled sources in priority order.
func (s *Session) EnabledSources() []models.Source {
	return s.engine.EnabledSources()
}

// Refresh fetches the live query again and injects new tracks into the candidate list and, when it was built from
// the same search, the playlist. Returns the added tracks.
func (s *Session) Refresh(ctx context.Context) ([]models.Track, error) {
	query, token, _ := s.engine.Snapshot()
	if query == "" {
		return nil, nil
	}

	fresh, err := s.engine.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	added, candidates, ok := s.engine.Prepend(token, fresh)
	if !ok || len(added) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	if s.seedToken == token {
		current, pl := s.seq.Playlist()
		next, npl, _ := tasks.Inject(current, pl, added, s.builder.Limit())
		s.seq.Update(next, npl)
	}
	s.mu.Unlock()

	newIDs := make([]string, len(added))
	for i, t := range added {
		newIDs[i] = t.ID
	}
	s.logger.Info("refresh found new tracks", "query", query, "count", len(added))

	first := added[0]
	s.emit(models.Event{Kind: models.ResultsUpdated, Query: query, Tracks: candidates, NewIDs: newIDs})
	s.emit(models.Event{Kind: models.NewTrackToast, Query: query, Track: &first})
	return added, nil
}

// Candidates returns the current candidate list.
func (s *Session) Candidates() []models.Track {
	return s.engine.Candidates()
}

// Query returns the live search query.
func (s *Session) Query() string {
	q, _ := s.engine.CurrentQuery()
	return q
}

// Playlist returns the tracks of the current playlist in play order.
func (s *Session) Playlist() []models.Track {
	candidates, pl := s.seq.Playlist()
	return pl.Resolve(candidates)
}

// State returns the playback state.
func (s *Session) State() models.PlaybackState {
	return s.seq.State()
}

// History returns the ids played since the playlist was built.
func (s *Session) History() []string {
	return s.seq.History()
}

// Refreshing reports whether the refresh poller is armed.
func (s *Session) Refreshing() bool {
	return s.poller.Running()
}

func (s *Session) head(tracks []models.Track) []models.Track {
	if len(tracks) > s.suggestions {
		return tracks[:s.suggestions]
	}
	return tracks
}

func (s *Session) emit(ev models.Event) {
	models.Send(s.events, ev)
}
