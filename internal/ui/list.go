package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/vibe/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
	fresh bool // Added by the latest refresh
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }
func (i trackItem) Title() string {
	if i.fresh {
		return "★ " + i.track.Title
	}
	return i.track.Title
}
func (i trackItem) Description() string {
	desc := i.track.Artist
	if desc == "" {
		desc = "Unknown artist"
	}
	desc = fmt.Sprintf("%s • %s", desc, i.track.Source.Label())
	if !i.track.Playable() {
		desc += " • opens externally"
	}
	return desc
}

// trackItems converts tracks into list items, marking those whose id is in fresh.
func trackItems(tracks []models.Track, fresh []string) []list.Item {
	isNew := make(map[string]bool, len(fresh))
	for _, id := range fresh {
		isNew[id] = true
	}

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, fresh: isNew[t.ID]}
	}
	return items
}
