package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
)

// Adapter translates one external song-search API into normalized [models.Track] records.
type Adapter interface {
	// Source returns the tag stamped on every track this adapter produces.
	Source() models.Source

	// Search fetches and maps the results for a free-text query.
	// Transport failures and non-2xx statuses return an error; malformed bodies yield an empty slice.
	Search(ctx context.Context, query string) ([]models.Track, error)
}

// ServiceOpts contains configuration shared by the adapter constructors.
type ServiceOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	RateLimit  float64 // Requests per second, 0 disables limiting
	Limit      int     // Maximum results requested, where the API supports it
	Logger     *log.Logger
}

// upgradeArtwork swaps a known low-resolution size token for a high-resolution one; no-op when absent.
func upgradeArtwork(url, low, high string) string {
	if url == "" {
		return ""
	}
	return strings.Replace(url, low, high, 1)
}
