package models

import (
	"strings"
)

// Source identifies the adapter a [Track] was produced by.
type Source string

const (
	SourceITunes   Source = "itunes"
	SourceJioSaavn Source = "jiosaavn"
)

// Sources lists every known source in default priority order.
var Sources = []Source{SourceITunes, SourceJioSaavn}

func (s Source) String() string { return string(s) }

// Label returns a human-readable name for display.
func (s Source) Label() string {
	switch s {
	case SourceITunes:
		return "iTunes"
	case SourceJioSaavn:
		return "JioSaavn"
	default:
		return string(s)
	}
}

// ParseSource converts a configuration or flag value into a known [Source].
func ParseSource(v string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "itunes", "apple":
		return SourceITunes, true
	case "jiosaavn", "saavn", "jio":
		return SourceJioSaavn, true
	default:
		return "", false
	}
}

// Track represents a normalized song from any source.
type Track struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	ArtworkURL   string `json:"artwork_url,omitempty"`
	PreviewURL   string `json:"preview_url,omitempty"`   // Short playable audio source
	ExternalLink string `json:"external_link,omitempty"` // Page to open when no preview exists
	Source       Source `json:"source"`
	Genre        string `json:"genre,omitempty"`
	Synthetic    bool   `json:"-"` // ID was generated because the source provided none
}

// Playable reports whether the track carries an audio source.
func (t Track) Playable() bool {
	return t.PreviewURL != ""
}

// MetadataKey returns the source::title::artist identity key, lowercased with whitespace collapsed.
//
// Returns an empty string when the track has no title, since such tracks cannot be told apart by metadata.
func (t Track) MetadataKey() string {
	title := normalize(t.Title)
	if title == "" {
		return ""
	}
	return string(t.Source) + "::" + title + "::" + normalize(t.Artist)
}

// IdentityKey returns the id when it came from the source, otherwise the [Track.MetadataKey].
func (t Track) IdentityKey() string {
	if t.ID != "" && !t.Synthetic {
		return t.ID
	}
	return t.MetadataKey()
}

// SearchText is the lowercased "title artist" string used for word matching.
func (t Track) SearchText() string {
	return strings.ToLower(t.Title + " " + t.Artist)
}

// Tags returns the lowercased words of the title, artist and genre.
func (t Track) Tags() []string {
	return strings.Fields(strings.ToLower(t.Title + " " + t.Artist + " " + t.Genre))
}

// LookupQuery is the free-text query used to find the same song on another source.
func (t Track) LookupQuery() string {
	return strings.TrimSpace(t.Title + " " + t.Artist)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
