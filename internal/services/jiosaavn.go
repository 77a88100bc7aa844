// JioSaavn [Adapter] implementation
//
// JioSaavn has no official public API. The mirrors (saavn.me, saavn.dev, self-hosted proxies) disagree on the
// response shape and change it without notice, so mapping walks the document with field fallbacks instead of
// decoding into fixed structs.
package services

import (
	"context"
	"html"
	"net/url"
	"strings"

	"github.com/bitly/go-simplejson"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

const defaultJioSaavnBaseURL string = "https://saavn.me"

// JioSaavnService implements the [Adapter] interface for the unofficial JioSaavn API.
type JioSaavnService struct {
	api    *APIService
	logger *log.Logger
}

// NewJioSaavnService creates a new JioSaavn adapter.
func NewJioSaavnService(opts ServiceOpts) *JioSaavnService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultJioSaavnBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &JioSaavnService{
		api:    NewAPIService(opts.BaseURL, opts.HTTPClient, opts.RateLimit),
		logger: shared.WithLogger(opts.Logger, "source", models.SourceJioSaavn),
	}
}

// Source returns [models.SourceJioSaavn].
func (s *JioSaavnService) Source() models.Source {
	return models.SourceJioSaavn
}

// Search queries JioSaavn for songs.
//
// Calls GET /search/songs?query={query}.
func (s *JioSaavnService) Search(ctx context.Context, query string) ([]models.Track, error) {
	resp, err := s.api.Get(ctx, "/search/songs", url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}

	tracks := MapJioSaavn(resp.Body)
	s.logger.Debug("search complete", "query", query, "tracks", len(tracks))
	return tracks, nil
}

// MapJioSaavn converts a raw JioSaavn search response into tracks.
//
// The song list is read from results.songs, results, or data.results, whichever is an array first.
// Never fails: an unparseable body or an unknown shape yields an empty slice.
func MapJioSaavn(body []byte) []models.Track {
	doc, err := simplejson.NewJson(body)
	if err != nil {
		return []models.Track{}
	}

	songs := songList(doc)
	tracks := make([]models.Track, 0, len(songs))
	for _, song := range songs {
		if _, err := song.Map(); err != nil {
			continue
		}
		tracks = append(tracks, jioTrack(song))
	}
	return tracks
}

func songList(doc *simplejson.Json) []*simplejson.Json {
	for _, path := range [][]string{{"results", "songs"}, {"results"}, {"data", "results"}} {
		node := doc.GetPath(path...)
		arr, err := node.Array()
		if err != nil {
			continue
		}
		songs := make([]*simplejson.Json, len(arr))
		for i := range arr {
			songs[i] = node.GetIndex(i)
		}
		return songs
	}
	return nil
}

func jioTrack(song *simplejson.Json) models.Track {
	track := models.Track{
		Title:        text(song, "title", "song", "name"),
		Artist:       jioArtist(song),
		ArtworkURL:   jioArtwork(song),
		PreviewURL:   firstNonEmpty(str(song.Get("media_preview_url")), mediaLink(song.Get("downloadUrl")), str(song.Get("media_url"))),
		ExternalLink: firstNonEmpty(str(song.Get("perma_url")), str(song.Get("url"))),
		Source:       models.SourceJioSaavn,
		Genre:        str(song.Get("language")),
	}

	if id := firstNonEmpty(str(song.Get("sid")), str(song.Get("id"))); id != "" {
		track.ID = prefixID(models.SourceJioSaavn, id)
	} else {
		track.ID = prefixID(models.SourceJioSaavn, shared.GenerateID())
		track.Synthetic = true
	}

	return track
}

// jioArtist tries more_info.primary_artists, primaryArtists, subtitle, singers, then artists.
//
// artists may be a plain string, a list of {name}, or an object whose primary list holds {name} entries.
func jioArtist(song *simplejson.Json) string {
	if v := text(song.Get("more_info"), "primary_artists"); v != "" {
		return v
	}
	if v := text(song, "primaryArtists", "subtitle", "singers"); v != "" {
		return v
	}

	artists := song.Get("artists")
	if v := str(artists); v != "" {
		return html.UnescapeString(v)
	}
	if names := names(artists); names != "" {
		return names
	}
	return names(artists.Get("primary"))
}

// jioArtwork upgrades a 150x150 image string to 500x500, takes the last (largest) entry of an image list, and
// falls back to album_image.
func jioArtwork(song *simplejson.Json) string {
	image := song.Get("image")
	if v := str(image); v != "" {
		return upgradeArtwork(v, "150x150", "500x500")
	}
	if v := mediaLink(image); v != "" {
		return v
	}
	return str(song.Get("album_image"))
}

// mediaLink reads a string, or the link/url of the last entry of a quality list.
func mediaLink(node *simplejson.Json) string {
	if v := str(node); v != "" {
		return v
	}
	arr, err := node.Array()
	if err != nil || len(arr) == 0 {
		return ""
	}
	last := node.GetIndex(len(arr) - 1)
	return firstNonEmpty(str(last.Get("link")), str(last.Get("url")))
}

func names(node *simplejson.Json) string {
	arr, err := node.Array()
	if err != nil {
		return ""
	}
	var out []string
	for i := range arr {
		if name := str(node.GetIndex(i).Get("name")); name != "" {
			out = append(out, html.UnescapeString(name))
		}
	}
	return strings.Join(out, ", ")
}

// text returns the first non-empty string field among keys, with HTML entities decoded.
func text(node *simplejson.Json, keys ...string) string {
	for _, k := range keys {
		if v := str(node.Get(k)); v != "" {
			return html.UnescapeString(v)
		}
	}
	return ""
}

// str renders a string or numeric node; every other shape yields "".
func str(node *simplejson.Json) string {
	return strings.TrimSpace(scalarString(node.Interface()))
}
