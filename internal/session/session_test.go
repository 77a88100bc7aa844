package session

import (
	"context"
	"io"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/desertthunder/vibe/internal/tasks"
	tu "github.com/desertthunder/vibe/internal/testing"
)

func quietLogger() *log.Logger {
	l := shared.NewLogger(io.Discard)
	shared.SetLogLevel(l, log.FatalLevel)
	return l
}

func song(src models.Source, id, title, artist string) models.Track {
	return models.Track{
		ID:         src.String() + "::" + id,
		Title:      title,
		Artist:     artist,
		PreviewURL: "https://cdn.example/" + src.String() + "/" + id + ".mp3",
		Source:     src,
		Genre:      "Electronic",
	}
}

type fixture struct {
	session *Session
	itunes  *tu.MockAdapter
	jio     *tu.MockAdapter
	out     *tu.RecordingOutput
	sched   *tu.FakeScheduler
	events  chan models.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		itunes: tu.NewMockAdapter(models.SourceITunes, map[string][]models.Track{
			"daft punk": {
				song(models.SourceITunes, "1", "One More Time", "Daft Punk"),
				song(models.SourceITunes, "2", "Get Lucky", "Daft Punk"),
				song(models.SourceITunes, "3", "Around the World", "Daft Punk"),
			},
		}),
		jio: tu.NewMockAdapter(models.SourceJioSaavn, map[string][]models.Track{
			"daft punk": {
				song(models.SourceJioSaavn, "a", "Harder Better Faster Stronger", "Daft Punk"),
				song(models.SourceJioSaavn, "b", "harder better faster  stronger", "daft punk"),
			},
		}),
		out:    &tu.RecordingOutput{},
		sched:  tu.NewFakeScheduler(),
		events: make(chan models.Event, 512),
	}
	f.session = New(Options{
		Adapters:  []services.Adapter{f.itunes, f.jio},
		Output:    f.out,
		Scheduler: f.sched,
		Rand:      &tu.FixedRand{},
		Events:    f.events,
		Logger:    quietLogger(),
	})
	t.Cleanup(func() { f.session.Close() })
	return f
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("End To End", func(t *testing.T) {
		f := newFixture(t)
		s := f.session

		res, err := s.Search(ctx, "daft punk")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(res.Tracks) != 4 {
			t.Fatalf("expected 4 candidates after dedup, got %d", len(res.Tracks))
		}
		if !s.Refreshing() {
			t.Error("expected poller started by the search")
		}

		events := tu.Drain(f.events)
		if len(tu.FindEvents(events, models.SuggestionsUpdated)) != 1 || len(tu.FindEvents(events, models.ResultsUpdated)) != 1 {
			t.Errorf("expected suggestions and results events, got %v", events)
		}

		if err := s.SelectSeed(ctx, 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		pl := s.Playlist()
		if len(pl) != 4 {
			t.Fatalf("expected playlist of 4, got %d", len(pl))
		}
		if pl[0].ID != res.Tracks[0].ID {
			t.Errorf("expected seed first, got %s", pl[0].ID)
		}
		if state := s.State(); !state.IsPlaying || state.Position != 0 {
			t.Errorf("expected seed playing, got %+v", state)
		}

		for i := 2; i <= 4; i++ {
			s.OnEnded()
			f.sched.Advance(400 * time.Millisecond)
			if got := len(s.History()); got != i {
				t.Fatalf("expected history of %d after %d ended events, got %d", i, i-1, got)
			}
		}
		s.OnEnded()
		f.sched.Advance(400 * time.Millisecond)

		history := s.History()
		if len(history) != 4 {
			t.Errorf("expected history of 4, got %v", history)
		}
		seen := map[string]bool{}
		for _, id := range history {
			seen[id] = true
		}
		if len(seen) != 4 {
			t.Errorf("expected 4 distinct plays, got %v", history)
		}
	})

	t.Run("Refresh Injects Without Disruption", func(t *testing.T) {
		f := newFixture(t)
		s := f.session

		s.Search(ctx, "daft punk")
		s.SelectSeed(ctx, 0)
		s.OnEnded()
		f.sched.Advance(400 * time.Millisecond)

		before := s.State()
		beforePlaylist := s.Playlist()
		tu.Drain(f.events)

		f.itunes.Results["daft punk"] = append(f.itunes.Results["daft punk"], song(models.SourceITunes, "4", "Digital Love", "Daft Punk"))
		added, err := s.Refresh(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(added) != 1 || added[0].ID != "itunes::4" {
			t.Fatalf("expected one new track, got %v", added)
		}

		cands := s.Candidates()
		if len(cands) != 5 || cands[0].ID != "itunes::4" {
			t.Errorf("expected the new track prepended, got %d candidates", len(cands))
		}

		after := s.State()
		if after.Position != before.Position || after.Track.ID != before.Track.ID || !after.IsPlaying {
			t.Errorf("expected playback undisturbed, got %+v", after)
		}

		afterPlaylist := s.Playlist()
		if len(afterPlaylist) != len(beforePlaylist)+1 {
			t.Fatalf("expected playlist extended by one, got %d", len(afterPlaylist))
		}
		for i := range beforePlaylist {
			if afterPlaylist[i].ID != beforePlaylist[i].ID {
				t.Errorf("position %d changed from %s to %s", i, beforePlaylist[i].ID, afterPlaylist[i].ID)
			}
		}
		if afterPlaylist[len(afterPlaylist)-1].ID != "itunes::4" {
			t.Error("expected new track appended to the playlist")
		}

		events := tu.Drain(f.events)
		results := tu.FindEvents(events, models.ResultsUpdated)
		if len(results) != 1 || !reflect.DeepEqual(results[0].NewIDs, []string{"itunes::4"}) {
			t.Errorf("expected results event with new ids, got %v", results)
		}
		toasts := tu.FindEvents(events, models.NewTrackToast)
		if len(toasts) != 1 || toasts[0].Track.ID != "itunes::4" {
			t.Errorf("expected one toast for the new track, got %v", toasts)
		}

		if added, _ := s.Refresh(ctx); len(added) != 0 {
			t.Errorf("expected nothing new on a second refresh, got %v", added)
		}
	})

	t.Run("Poller Drives Refresh", func(t *testing.T) {
		f := newFixture(t)
		s := f.session
		s.Search(ctx, "daft punk")

		f.itunes.Results["daft punk"] = append(f.itunes.Results["daft punk"], song(models.SourceITunes, "5", "Aerodynamic", "Daft Punk"))
		f.sched.Advance(tasks.DefaultRefreshInterval)

		if got := len(s.Candidates()); got != 5 {
			t.Errorf("expected refresh tick to add a candidate, got %d", got)
		}
	})

	t.Run("Refresh Leaves Older Playlist Alone", func(t *testing.T) {
		f := newFixture(t)
		s := f.session
		f.itunes.Results["air"] = []models.Track{song(models.SourceITunes, "9", "La Femme d'Argent", "Air")}

		s.Search(ctx, "daft punk")
		s.SelectSeed(ctx, 0)
		s.Search(ctx, "air")

		f.itunes.Results["air"] = append(f.itunes.Results["air"], song(models.SourceITunes, "10", "Sexy Boy", "Air"))
		if _, err := s.Refresh(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := len(s.Candidates()); got != 2 {
			t.Errorf("expected candidates of the live search updated, got %d", got)
		}
		if got := len(s.Playlist()); got != 4 {
			t.Errorf("expected playlist from the earlier search untouched, got %d", got)
		}
	})

	t.Run("Seed Selection Racing A Refresh Keeps Lists In Step", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			f := newFixture(t)
			s := f.session
			s.Search(ctx, "daft punk")
			f.itunes.Results["daft punk"] = append(f.itunes.Results["daft punk"], song(models.SourceITunes, "4", "Digital Love", "Daft Punk"))

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				s.SelectSeed(ctx, 0)
			}()
			go func() {
				defer wg.Done()
				s.Refresh(ctx)
			}()
			wg.Wait()

			played, _ := s.seq.Playlist()
			if got, want := trackIDs(played), trackIDs(s.Candidates()); !reflect.DeepEqual(got, want) {
				t.Fatalf("iteration %d: sequencer candidates %v, engine candidates %v", i, got, want)
			}
		}
	})

	t.Run("Debounced Search", func(t *testing.T) {
		f := newFixture(t)
		s := f.session

		s.SearchDebounced("da")
		f.sched.Advance(100 * time.Millisecond)
		s.SearchDebounced("daft punk")
		f.sched.Advance(DefaultDebounce - time.Millisecond)
		if len(f.itunes.Calls()) != 0 {
			t.Fatal("expected no search before the debounce delay")
		}
		f.sched.Advance(time.Millisecond)

		if calls := f.itunes.Calls(); !reflect.DeepEqual(calls, []string{"daft punk"}) {
			t.Errorf("expected only the latest query searched, got %v", calls)
		}
		if s.Query() != "daft punk" {
			t.Errorf("expected live query 'daft punk', got %q", s.Query())
		}

		s.SearchDebounced("air")
		s.CancelSearch()
		f.sched.Advance(time.Second)
		if len(f.itunes.Calls()) != 1 {
			t.Errorf("expected cancelled search not to run, got %v", f.itunes.Calls())
		}
	})

	t.Run("Blank Search Stops Poller", func(t *testing.T) {
		f := newFixture(t)
		s := f.session

		s.Search(ctx, "daft punk")
		s.Search(ctx, "")

		if s.Refreshing() {
			t.Error("expected poller stopped")
		}
		if len(s.Candidates()) != 0 {
			t.Error("expected candidates cleared")
		}
		f.sched.Advance(2 * tasks.DefaultRefreshInterval)
		if len(f.itunes.Calls()) != 1 {
			t.Errorf("expected no refresh after stop, got %v", f.itunes.Calls())
		}
	})

	t.Run("Controls", func(t *testing.T) {
		f := newFixture(t)
		s := f.session

		if err := s.PlayPauseToggle(ctx); err != nil {
			t.Fatalf("expected toggle without source to be a no-op, got %v", err)
		}

		s.Search(ctx, "daft punk")
		s.SelectSeed(ctx, 0)

		s.PlayPauseToggle(ctx)
		if s.State().IsPlaying {
			t.Error("expected paused")
		}
		if err := s.Next(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pos := s.State().Position; pos != 1 {
			t.Errorf("expected position 1, got %d", pos)
		}
		if err := s.Prev(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if pos := s.State().Position; pos != 0 {
			t.Errorf("expected position 0, got %d", pos)
		}

		if err := s.SelectSeed(ctx, 99); err == nil {
			t.Error("expected error for an invalid seed")
		}

		s.SetEnabledSources(models.SourceJioSaavn)
		if got := s.EnabledSources(); !reflect.DeepEqual(got, []models.Source{models.SourceJioSaavn}) {
			t.Errorf("expected only jiosaavn enabled, got %v", got)
		}
	})
}

func trackIDs(tracks []models.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
