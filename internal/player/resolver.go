package player

import (
	"context"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/shared"
)

// DefaultLookupThreshold is the minimum similarity accepted by [CrossSourceResolver].
const DefaultLookupThreshold = 0.5

// Substitute carries the replacement media found for a track on another source.
type Substitute struct {
	PreviewURL string
	ArtworkURL string
}

// Resolver finds substitute media for a track. Lookups are best-effort: ok is false when nothing usable was found.
type Resolver interface {
	Resolve(ctx context.Context, t models.Track) (sub Substitute, ok bool)
}

// CrossSourceResolver searches another source for "{title} {artist}" and takes the closest match.
//
// Results are ranked by Jaro-Winkler similarity of their "title artist" text to the track's.
type CrossSourceResolver struct {
	adapter   services.Adapter
	threshold float64
	timeout   time.Duration
	metric    *metrics.JaroWinkler
	logger    *log.Logger
}

// NewCrossSourceResolver creates a resolver querying adapter. A non-positive timeout defaults to 8s.
func NewCrossSourceResolver(adapter services.Adapter, threshold float64, timeout time.Duration, logger *log.Logger) *CrossSourceResolver {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	return &CrossSourceResolver{
		adapter:   adapter,
		threshold: threshold,
		timeout:   timeout,
		metric:    jw,
		logger:    logger,
	}
}

// Resolve implements [Resolver].
func (r *CrossSourceResolver) Resolve(ctx context.Context, t models.Track) (Substitute, bool) {
	query := t.LookupQuery()
	if query == "" || r.adapter == nil {
		return Substitute{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results, err := r.adapter.Search(ctx, query)
	if err != nil {
		r.logger.Debug("lookup failed", "source", r.adapter.Source(), "query", query, "err", err)
		return Substitute{}, false
	}

	best, score := r.best(query, results)
	if best == nil || score < r.threshold {
		r.logger.Debug("no close lookup match", "query", query, "results", len(results), "score", score)
		return Substitute{}, false
	}

	sub := Substitute{PreviewURL: best.PreviewURL, ArtworkURL: best.ArtworkURL}
	return sub, sub.PreviewURL != "" || sub.ArtworkURL != ""
}

// best returns the highest scoring result; the first one wins ties.
func (r *CrossSourceResolver) best(query string, results []models.Track) (*models.Track, float64) {
	var best *models.Track
	highest := -1.0
	for i := range results {
		cand := strings.TrimSpace(results[i].Title + " " + results[i].Artist)
		score := strutil.Similarity(query, cand, r.metric)
		if score > highest {
			highest = score
			best = &results[i]
		}
	}
	return best, highest
}
