package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/shared"
)

// DefaultAdapterTimeout bounds each adapter call when [EngineOpts.Timeout] is unset.
const DefaultAdapterTimeout = 8 * time.Second

// SearchResult describes the outcome of one [SearchEngine.Search] call.
type SearchResult struct {
	Query        string
	Token        uint64         // Generation token assigned to the search
	Tracks       []models.Track // Candidate list after the search; nil when stale
	Stale        bool           // A newer search was issued before this one settled
	UsedFallback bool           // The fallback source was queried because the merged list was empty
}

// EngineOpts configures a [SearchEngine].
type EngineOpts struct {
	Adapters []services.Adapter // In priority order
	Enabled  []models.Source    // Defaults to every adapter
	Fallback models.Source      // Queried alone when a search yields nothing; defaults to JioSaavn
	Timeout  time.Duration
	Logger   *log.Logger
}

// SearchEngine coordinates concurrent adapter calls and owns the candidate list.
//
// Every search takes a new generation token. Results of a search whose token is no longer live are discarded.
// In-flight calls are never cancelled by a newer search.
type SearchEngine struct {
	adapters []services.Adapter
	fallback models.Source
	timeout  time.Duration
	logger   *log.Logger

	mu         sync.Mutex
	enabled    map[models.Source]bool
	token      uint64
	query      string
	candidates []models.Track
}

// NewSearchEngine creates a [SearchEngine] with the given adapters.
func NewSearchEngine(opts EngineOpts) *SearchEngine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAdapterTimeout
	}
	if opts.Fallback == "" {
		opts.Fallback = models.SourceJioSaavn
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	e := &SearchEngine{
		adapters: opts.Adapters,
		fallback: opts.Fallback,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		enabled:  make(map[models.Source]bool),
	}

	if opts.Enabled == nil {
		for _, a := range opts.Adapters {
			e.enabled[a.Source()] = true
		}
	} else {
		e.SetEnabledSources(opts.Enabled...)
	}
	return e
}

// Search runs query against every enabled adapter and replaces the candidate list with the merged results.
//
// A blank query clears the candidate list without any network call.
func (e *SearchEngine) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)

	e.mu.Lock()
	e.token++
	token := e.token
	e.query = query
	if query == "" {
		e.candidates = nil
		e.mu.Unlock()
		return &SearchResult{Token: token, Tracks: []models.Track{}}, nil
	}
	adapters := e.enabledAdapters()
	e.mu.Unlock()

	merged := e.fetch(ctx, query, adapters)
	if e.isStale(token) {
		e.logger.Debug("discarding stale search", "query", query, "token", token)
		return &SearchResult{Query: query, Token: token, Stale: true}, nil
	}

	result := &SearchResult{Query: query, Token: token}
	if len(merged) == 0 && !e.IsEnabled(e.fallback) {
		if fb := e.adapter(e.fallback); fb != nil {
			result.UsedFallback = true
			merged = append(merged, e.fetch(ctx, query, []services.Adapter{fb})...)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if token != e.token {
		result.Stale = true
		return result, nil
	}
	e.candidates = merged
	result.Tracks = cloneTracks(merged)
	return result, nil
}

// Fetch queries the enabled adapters and merges the results without touching the engine state or token.
func (e *SearchEngine) Fetch(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidArgument)
	}

	e.mu.Lock()
	adapters := e.enabledAdapters()
	e.mu.Unlock()

	return e.fetch(ctx, query, adapters), nil
}

// fetch calls adapters concurrently and merges their results in adapter order.
//
// A failing adapter contributes nothing.
func (e *SearchEngine) fetch(ctx context.Context, query string, adapters []services.Adapter) []models.Track {
	results := make([][]models.Track, len(adapters))

	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a services.Adapter) {
			defer wg.Done()

			actx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			tracks, err := a.Search(actx, query)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(actx.Err(), context.DeadlineExceeded) {
					err = fmt.Errorf("%w: %v", shared.ErrTimeout, err)
				}
				e.logger.Warn("adapter failed", "source", a.Source(), "query", query, "err", err)
				return
			}
			results[i] = tracks
		}(i, a)
	}
	wg.Wait()

	return Merge(results...)
}

// Prepend adds the tracks of fresh that are new to the candidate list at its front, provided token is still live.
//
// Returns the added tracks and the resulting candidate list. ok is false when a newer search replaced the list.
func (e *SearchEngine) Prepend(token uint64, fresh []models.Track) (added, candidates []models.Track, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if token != e.token || e.query == "" {
		return nil, nil, false
	}

	added = Diff(e.candidates, fresh)
	if len(added) > 0 {
		next := make([]models.Track, 0, len(added)+len(e.candidates))
		next = append(next, added...)
		e.candidates = append(next, e.candidates...)
	}
	return added, cloneTracks(e.candidates), true
}

// SetEnabledSources replaces the set of sources queried by subsequent searches.
//
// Sources without a registered adapter are ignored.
func (e *SearchEngine) SetEnabledSources(sources ...models.Source) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.enabled = make(map[models.Source]bool, len(sources))
	for _, s := range sources {
		if e.adapter(s) != nil {
			e.enabled[s] = true
		}
	}
}

// EnabledSources returns the enabled sources in priority order.
func (e *SearchEngine) EnabledSources() []models.Source {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []models.Source
	for _, a := range e.adapters {
		if e.enabled[a.Source()] {
			out = append(out, a.Source())
		}
	}
	return out
}

// IsEnabled reports whether src is queried by searches.
func (e *SearchEngine) IsEnabled(src models.Source) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled[src]
}

// Adapter returns the registered adapter for src, or nil.
func (e *SearchEngine) Adapter(src models.Source) services.Adapter {
	return e.adapter(src)
}

// CurrentQuery returns the live query and its generation token.
func (e *SearchEngine) CurrentQuery() (string, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query, e.token
}

// Snapshot returns the live query, its token and a copy of the candidate list, read atomically.
func (e *SearchEngine) Snapshot() (query string, token uint64, candidates []models.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query, e.token, cloneTracks(e.candidates)
}

// Candidates returns a copy of the candidate list.
func (e *SearchEngine) Candidates() []models.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTracks(e.candidates)
}

func (e *SearchEngine) isStale(token uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return token != e.token
}

// enabledAdapters must be called with mu held.
func (e *SearchEngine) enabledAdapters() []services.Adapter {
	var out []services.Adapter
	for _, a := range e.adapters {
		if e.enabled[a.Source()] {
			out = append(out, a)
		}
	}
	return out
}

// adapter reads only the immutable adapter list.
func (e *SearchEngine) adapter(src models.Source) services.Adapter {
	for _, a := range e.adapters {
		if a.Source() == src {
			return a
		}
	}
	return nil
}

func cloneTracks(tracks []models.Track) []models.Track {
	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	return out
}
