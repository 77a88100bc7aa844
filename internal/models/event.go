package models

// EventKind enumerates the notifications emitted for the UI collaborator.
type EventKind int

const (
	SuggestionsUpdated EventKind = iota
	ResultsUpdated
	NowPlayingChanged
	PlaybackStateChanged
	NewTrackToast
	OpenedExternally
)

func (k EventKind) String() string {
	switch k {
	case SuggestionsUpdated:
		return "suggestions_updated"
	case ResultsUpdated:
		return "results_updated"
	case NowPlayingChanged:
		return "now_playing_changed"
	case PlaybackStateChanged:
		return "playback_state_changed"
	case NewTrackToast:
		return "new_track_toast"
	case OpenedExternally:
		return "opened_externally"
	default:
		return ""
	}
}

// Event is a single outbound notification.
//
// Only the fields relevant to Kind are set.
type Event struct {
	Kind   EventKind
	Query  string        // Query the tracks belong to
	Tracks []Track       // Suggestions or full candidate list
	NewIDs []string      // Ids added by a refresh
	Track  *Track        // Now playing, toast, or externally opened track
	State  PlaybackState // Playback snapshot
}

// Send delivers ev without blocking.
//
// A nil channel or a full buffer drops the event so the core never waits on its consumer.
func Send(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
