// Package playlist builds the play order for a chosen seed track.
//
// Every candidate other than the seed is scored against the seed and the search query:
//   - +5 when it comes from the same source
//   - +4 for each query word found in its title and artist
//   - +3 for each word of the seed's title, artist and genre found likewise
//   - +3 when both genres are set and equal
//   - a random jitter in [0, 2) to break ties
//
// The highest scores fill the playlist after the seed, then everything past the seed is shuffled.
package playlist

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

// DefaultLimit is the maximum playlist length.
const DefaultLimit = 40

// Rand is the random source used for jitter and shuffling.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// Builder builds playlists from a candidate list.
type Builder struct {
	rand  Rand
	limit int
}

// NewBuilder creates a [Builder]. A nil r uses the global math/rand/v2 source; a non-positive limit uses [DefaultLimit].
func NewBuilder(r Rand, limit int) *Builder {
	if r == nil {
		r = globalRand{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Builder{rand: r, limit: limit}
}

// Limit returns the maximum playlist length.
func (b *Builder) Limit() int { return b.limit }

type scored struct {
	idx   int
	score float64
}

// Build returns a playlist starting with seed followed by up to limit-1 related candidates in shuffled order.
func (b *Builder) Build(seed int, candidates []models.Track, query string) (models.Playlist, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", shared.ErrInvalidArgument)
	}
	if seed < 0 || seed >= len(candidates) {
		return nil, fmt.Errorf("%w: seed %d out of range [0, %d)", shared.ErrInvalidArgument, seed, len(candidates))
	}

	primary := candidates[seed]
	queryWords := strings.Fields(strings.ToLower(query))
	seedTags := primary.Tags()

	ranked := make([]scored, 0, len(candidates)-1)
	for i, item := range candidates {
		if i == seed {
			continue
		}
		ranked = append(ranked, scored{idx: i, score: Score(primary, item, queryWords, seedTags) + b.rand.Float64()*2})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	pl := make(models.Playlist, 0, min(b.limit, len(candidates)))
	pl = append(pl, seed)
	for _, s := range ranked {
		if len(pl) >= b.limit {
			break
		}
		if pl.Contains(s.idx) {
			continue
		}
		pl = append(pl, s.idx)
	}

	if len(pl) > 2 {
		tail := pl[1:]
		for i := len(tail) - 1; i > 0; i-- {
			j := b.rand.IntN(i + 1)
			tail[i], tail[j] = tail[j], tail[i]
		}
	}
	return pl, nil
}

// Score rates how well item relates to the seed track, without jitter.
func Score(seed, item models.Track, queryWords, seedTags []string) float64 {
	var score float64
	if item.Source == seed.Source {
		score += 5
	}

	text := item.SearchText()
	for _, w := range queryWords {
		if strings.Contains(text, w) {
			score += 4
		}
	}
	for _, w := range seedTags {
		if strings.Contains(text, w) {
			score += 3
		}
	}

	if seed.Genre != "" && item.Genre != "" && item.Genre == seed.Genre {
		score += 3
	}
	return score
}
