// iTunes Search API [Adapter] implementation
//
// See https://performance-partners.apple.com/search-api
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

const (
	defaultITunesBaseURL string = "https://itunes.apple.com"
	defaultITunesLimit   int    = 30
)

// ITunesResult represents one entry of an iTunes search response.
//
// TrackID is left untyped since the API has returned both numbers and strings for it.
type ITunesResult struct {
	TrackID              any    `json:"trackId"`
	TrackName            string `json:"trackName"`
	TrackCensoredName    string `json:"trackCensoredName"`
	CollectionName       string `json:"collectionName"`
	ArtistName           string `json:"artistName"`
	CollectionArtistName string `json:"collectionArtistName"`
	ArtworkURL100        string `json:"artworkUrl100"`
	ArtworkURL60         string `json:"artworkUrl60"`
	PreviewURL           string `json:"previewUrl"`
	TrackViewURL         string `json:"trackViewUrl"`
	CollectionViewURL    string `json:"collectionViewUrl"`
	PrimaryGenreName     string `json:"primaryGenreName"`
}

// ITunesService implements the [Adapter] interface for the iTunes Search API.
type ITunesService struct {
	api    *APIService
	limit  int
	logger *log.Logger
}

// NewITunesService creates a new iTunes adapter.
func NewITunesService(opts ServiceOpts) *ITunesService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultITunesBaseURL
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultITunesLimit
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &ITunesService{
		api:    NewAPIService(opts.BaseURL, opts.HTTPClient, opts.RateLimit),
		limit:  opts.Limit,
		logger: shared.WithLogger(opts.Logger, "source", models.SourceITunes),
	}
}

// Source returns [models.SourceITunes].
func (s *ITunesService) Source() models.Source {
	return models.SourceITunes
}

// Search queries iTunes for songs.
//
// Calls GET /search?term={query}&entity=song&limit={limit}.
func (s *ITunesService) Search(ctx context.Context, query string) ([]models.Track, error) {
	params := url.Values{
		"term":   {query},
		"entity": {"song"},
		"limit":  {strconv.Itoa(s.limit)},
	}

	resp, err := s.api.Get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	tracks := MapITunes(resp.Body)
	s.logger.Debug("search complete", "query", query, "tracks", len(tracks))
	return tracks, nil
}

// MapITunes converts a raw iTunes search response into tracks.
//
// Never fails: an unparseable body yields an empty slice, and entries that cannot be decoded are skipped.
func MapITunes(body []byte) []models.Track {
	var envelope struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return []models.Track{}
	}

	tracks := make([]models.Track, 0, len(envelope.Results))
	for _, raw := range envelope.Results {
		var it ITunesResult
		if err := json.Unmarshal(raw, &it); err != nil {
			continue
		}
		tracks = append(tracks, it.toTrack())
	}
	return tracks
}

func (it ITunesResult) toTrack() models.Track {
	track := models.Track{
		Title:        firstNonEmpty(it.TrackName, it.TrackCensoredName, it.CollectionName),
		Artist:       firstNonEmpty(it.ArtistName, it.CollectionArtistName),
		PreviewURL:   it.PreviewURL,
		ExternalLink: firstNonEmpty(it.TrackViewURL, it.CollectionViewURL),
		Source:       models.SourceITunes,
		Genre:        it.PrimaryGenreName,
	}

	switch {
	case it.ArtworkURL100 != "":
		track.ArtworkURL = upgradeArtwork(it.ArtworkURL100, "100x100", "600x600")
	case it.ArtworkURL60 != "":
		track.ArtworkURL = upgradeArtwork(it.ArtworkURL60, "60x60", "600x600")
	}

	if id := scalarString(it.TrackID); id != "" {
		track.ID = prefixID(models.SourceITunes, id)
	} else {
		track.ID = prefixID(models.SourceITunes, shared.GenerateID())
		track.Synthetic = true
	}

	return track
}

// scalarString renders a decoded JSON scalar as a string; other shapes yield "".
func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func prefixID(src models.Source, id string) string {
	return fmt.Sprintf("%s::%s", src, id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
