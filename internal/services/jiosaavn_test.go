package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
)

const jioLegacyFixture = `{
  "results": [
    {
      "id": "abc123",
      "title": "Tum Hi Ho",
      "more_info": {"primary_artists": "Arijit Singh"},
      "image": "https://c.saavncdn.com/430/Aashiqui-2-150x150.jpg",
      "media_preview_url": "https://preview.saavncdn.com/430/a.mp4",
      "perma_url": "https://www.jiosaavn.com/song/tum-hi-ho/abc123",
      "language": "hindi"
    }
  ]
}`

const jioModernFixture = `{
  "success": true,
  "data": {
    "results": [
      {
        "id": "n1",
        "name": "Kesariya",
        "artists": {"primary": [{"name": "Arijit Singh"}, {"name": "Pritam"}]},
        "image": [
          {"quality": "50x50", "url": "https://c.saavncdn.com/k-50x50.jpg"},
          {"quality": "500x500", "url": "https://c.saavncdn.com/k-500x500.jpg"}
        ],
        "downloadUrl": [
          {"quality": "12kbps", "url": "https://aac.saavncdn.com/k_12.mp4"},
          {"quality": "320kbps", "url": "https://aac.saavncdn.com/k_320.mp4"}
        ],
        "url": "https://www.jiosaavn.com/song/kesariya/n1",
        "language": "hindi"
      }
    ]
  }
}`

func TestJioSaavnService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		srv := NewJioSaavnService(ServiceOpts{})

		if srv.api.baseURL != defaultJioSaavnBaseURL {
			t.Errorf("expected default base URL, got %s", srv.api.baseURL)
		}
		if srv.Source() != models.SourceJioSaavn {
			t.Errorf("expected source jiosaavn, got %s", srv.Source())
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Sends Query", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search/songs" {
					t.Errorf("expected path '/search/songs', got %s", r.URL.Path)
				}
				if q := r.URL.Query().Get("query"); q != "tum hi ho" {
					t.Errorf("expected query 'tum hi ho', got %s", q)
				}
				w.Write([]byte(jioLegacyFixture))
			}))
			defer server.Close()

			srv := NewJioSaavnService(ServiceOpts{BaseURL: server.URL})
			tracks, err := srv.Search(context.Background(), "tum hi ho")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 1 {
				t.Fatalf("expected 1 track, got %d", len(tracks))
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			srv := NewJioSaavnService(ServiceOpts{BaseURL: server.URL})
			_, err := srv.Search(context.Background(), "anything")

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})
}

func TestMapJioSaavn(t *testing.T) {
	t.Run("Legacy Shape", func(t *testing.T) {
		tracks := MapJioSaavn([]byte(jioLegacyFixture))
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}

		got := tracks[0]
		want := models.Track{
			ID:           "jiosaavn::abc123",
			Title:        "Tum Hi Ho",
			Artist:       "Arijit Singh",
			ArtworkURL:   "https://c.saavncdn.com/430/Aashiqui-2-500x500.jpg",
			PreviewURL:   "https://preview.saavncdn.com/430/a.mp4",
			ExternalLink: "https://www.jiosaavn.com/song/tum-hi-ho/abc123",
			Source:       models.SourceJioSaavn,
			Genre:        "hindi",
		}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("Modern Shape", func(t *testing.T) {
		tracks := MapJioSaavn([]byte(jioModernFixture))
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}

		got := tracks[0]
		if got.Title != "Kesariya" {
			t.Errorf("expected name as title, got %s", got.Title)
		}
		if got.Artist != "Arijit Singh, Pritam" {
			t.Errorf("expected joined primary artists, got %s", got.Artist)
		}
		if got.ArtworkURL != "https://c.saavncdn.com/k-500x500.jpg" {
			t.Errorf("expected last image entry, got %s", got.ArtworkURL)
		}
		if got.PreviewURL != "https://aac.saavncdn.com/k_320.mp4" {
			t.Errorf("expected last download entry, got %s", got.PreviewURL)
		}
		if got.ExternalLink != "https://www.jiosaavn.com/song/kesariya/n1" {
			t.Errorf("expected url as link, got %s", got.ExternalLink)
		}
	})

	t.Run("Songs Nested Under Results", func(t *testing.T) {
		body := `{"results":{"songs":[{"sid":12345,"song":"Tere &amp; Mere","singers":"Amaal Mallik","album_image":"https://c.saavncdn.com/t.jpg"}]}}`
		tracks := MapJioSaavn([]byte(body))
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}

		got := tracks[0]
		if got.ID != "jiosaavn::12345" {
			t.Errorf("expected numeric sid as id, got %s", got.ID)
		}
		if got.Title != "Tere & Mere" {
			t.Errorf("expected unescaped title, got %s", got.Title)
		}
		if got.Artist != "Amaal Mallik" {
			t.Errorf("expected singers as artist, got %s", got.Artist)
		}
		if got.ArtworkURL != "https://c.saavncdn.com/t.jpg" {
			t.Errorf("expected album image fallback, got %s", got.ArtworkURL)
		}
		if got.Playable() {
			t.Error("expected no preview")
		}
	})

	t.Run("Artist Fallbacks", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want string
		}{
			{"Primary Artists Key", `{"results":[{"id":"1","title":"a","primaryArtists":"Shreya Ghoshal"}]}`, "Shreya Ghoshal"},
			{"Subtitle", `{"results":[{"id":"1","title":"a","subtitle":"Lata Mangeshkar - Songs"}]}`, "Lata Mangeshkar - Songs"},
			{"Artists String", `{"results":[{"id":"1","title":"a","artists":"A.R. Rahman"}]}`, "A.R. Rahman"},
			{"Artists List", `{"results":[{"id":"1","title":"a","artists":[{"name":"KK"},{"name":"Shaan"}]}]}`, "KK, Shaan"},
			{"Escaped", `{"results":[{"id":"1","title":"a","more_info":{"primary_artists":"Vishal &amp; Shekhar"}}]}`, "Vishal & Shekhar"},
			{"None", `{"results":[{"id":"1","title":"a"}]}`, ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tracks := MapJioSaavn([]byte(tt.body))
				if len(tracks) != 1 {
					t.Fatalf("expected 1 track, got %d", len(tracks))
				}
				if tracks[0].Artist != tt.want {
					t.Errorf("expected %q, got %q", tt.want, tracks[0].Artist)
				}
			})
		}
	})

	t.Run("Synthesizes Missing IDs", func(t *testing.T) {
		tracks := MapJioSaavn([]byte(`{"results":[{"title":"No Id"}]}`))
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if !tracks[0].Synthetic || !strings.HasPrefix(tracks[0].ID, "jiosaavn::") {
			t.Errorf("expected synthetic prefixed id, got %+v", tracks[0])
		}
	})

	t.Run("Skips Non-Object Entries", func(t *testing.T) {
		tracks := MapJioSaavn([]byte(`{"results":[1,"x",null,{"id":"ok","title":"Fine"}]}`))
		if len(tracks) != 1 || tracks[0].ID != "jiosaavn::ok" {
			t.Errorf("expected only the object entry, got %+v", tracks)
		}
	})

	t.Run("Malformed Or Unknown Shape", func(t *testing.T) {
		for _, body := range []string{"", "<html>", `{"data":{}}`, `{"results":{"albums":[]}}`} {
			tracks := MapJioSaavn([]byte(body))
			if tracks == nil || len(tracks) != 0 {
				t.Errorf("expected empty non-nil slice for %q, got %v", body, tracks)
			}
		}
	})
}
