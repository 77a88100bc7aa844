package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/desertthunder/vibe/internal/formatter"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/playlist"
	"github.com/desertthunder/vibe/internal/session"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/urfave/cli/v3"
)

func queryArg(cmd *cli.Command) (string, error) {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return "", fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	return query, nil
}

// searchOnce runs query through a throwaway session and returns the merged results.
func (r *Runner) searchOnce(ctx context.Context, cmd *cli.Command, opts sessionOpts) (*session.Session, []models.Track, error) {
	enabled, err := r.enabledSources(cmd.StringSlice("source"))
	if err != nil {
		return nil, nil, err
	}
	opts.enabled = enabled

	query, err := queryArg(cmd)
	if err != nil {
		return nil, nil, err
	}

	sess := r.newSession(opts)
	res, err := sess.Search(ctx, query)
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	if res.UsedFallback {
		r.logger.Info("enabled sources returned nothing, used fallback", "query", query, "fallback", r.config.Sources.Fallback)
	}
	return sess, res.Tracks, nil
}

// emit renders tracks to --output or stdout.
func (r *Runner) emit(cmd *cli.Command, title string, tracks []models.Track) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, format, title, tracks); err != nil {
			return err
		}
		r.logger.Info("export written", "path", path, "format", format, "tracks", len(tracks))
		return r.writePlain("Saved %d tracks to %s\n", len(tracks), path)
	}

	data, err := formatter.Export(format, title, tracks)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Search queries the enabled sources and prints the merged, deduplicated candidates.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	sess, tracks, err := r.searchOnce(ctx, cmd, sessionOpts{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if limit := cmd.Int("limit"); limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return r.emit(cmd, fmt.Sprintf("Results for %q", sess.Query()), tracks)
}

// Playlist builds a playlist around the --seed result and prints it in play order.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	sess, tracks, err := r.searchOnce(ctx, cmd, sessionOpts{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if len(tracks) == 0 {
		return fmt.Errorf("%w: no results for %q", shared.ErrTrackNotFound, sess.Query())
	}

	var rng playlist.Rand
	if seed := cmd.Uint64("rand-seed"); seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	builder := playlist.NewBuilder(rng, r.config.Playlist.MaxLength)
	pl, err := builder.Build(cmd.Int("seed"), tracks, sess.Query())
	if err != nil {
		return err
	}

	ordered := pl.Resolve(tracks)
	return r.emit(cmd, fmt.Sprintf("Playlist for %q seeded by %s", sess.Query(), ordered[0].Title), ordered)
}

// Play builds a playlist and sequences through it with the simulated output, printing each track as it starts.
//
// Stops after --tracks tracks, once playback wraps around to a track already started, or once every entry was
// skipped.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	events := make(chan models.Event, 64)
	sess, tracks, err := r.searchOnce(ctx, cmd, sessionOpts{
		events:  events,
		open:    cmd.Bool("open"),
		preview: cmd.Duration("preview"),
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	if len(tracks) == 0 {
		return fmt.Errorf("%w: no results for %q", shared.ErrTrackNotFound, sess.Query())
	}

	if err := sess.SelectSeed(ctx, cmd.Int("seed")); err != nil {
		return err
	}

	pl := sess.Playlist()
	r.writePlainHeader(fmt.Sprintf("Playing %d tracks for %q", len(pl), sess.Query()))

	limit := cmd.Int("tracks")
	started, last, loading := 0, "", false
	seen := map[string]bool{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			switch ev.Kind {
			case models.NowPlayingChanged:
				if ev.Track == nil {
					continue
				}
				// Resolved artwork re-announces the track being loaded.
				if loading && ev.Track.ID == last {
					continue
				}
				loading = true
				// Auto-advance wraps around once every entry was tried.
				if seen[ev.Track.ID] || (limit > 0 && started == limit) {
					return r.playSummary(started, sess)
				}
				last = ev.Track.ID
				seen[last] = true
				started++
				r.writePlain("%2d. ▶ %s - %s [%s]\n", started, ev.Track.Title, ev.Track.Artist, ev.Track.Source.Label())
			case models.OpenedExternally:
				if ev.Track != nil {
					r.writePlain("    ↗ no preview, external link: %s\n", ev.Track.ExternalLink)
				}
			case models.PlaybackStateChanged:
				loading = false
				if !ev.State.Halted {
					continue
				}
				if len(sess.History()) == 0 {
					r.logger.Warn("nothing to play", "err", shared.ErrNoPlayableSource)
					return r.writePlainln("No playable previews for %q", sess.Query())
				}
				return r.playSummary(started, sess)
			}
		}
	}
}

func (r *Runner) playSummary(started int, sess *session.Session) error {
	return r.writePlainln("Played %d of %d tracks", started, len(sess.Playlist()))
}
