package models

// Playlist is an ordered sequence of indices into a candidate list.
//
// The first entry is always the seed track.
type Playlist []int

// Contains reports whether idx is already part of the playlist.
func (p Playlist) Contains(idx int) bool {
	for _, i := range p {
		if i == idx {
			return true
		}
	}
	return false
}

// Clone returns a copy that can be mutated independently.
func (p Playlist) Clone() Playlist {
	if p == nil {
		return nil
	}
	out := make(Playlist, len(p))
	copy(out, p)
	return out
}

// Resolve maps the playlist onto candidates, skipping indices that are out of range.
func (p Playlist) Resolve(candidates []Track) []Track {
	tracks := make([]Track, 0, len(p))
	for _, idx := range p {
		if idx >= 0 && idx < len(candidates) {
			tracks = append(tracks, candidates[idx])
		}
	}
	return tracks
}

// Status enumerates the playback sequencer states.
type Status int

const (
	StatusIdle Status = iota
	StatusLoaded
	StatusPlaying
	StatusPaused
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoaded:
		return "loaded"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	default:
		return ""
	}
}

// PlaybackState is a snapshot of the sequencer.
type PlaybackState struct {
	Position  int    `json:"position"` // Index into the playlist, -1 when nothing is loaded
	IsPlaying bool   `json:"is_playing"`
	Status    Status `json:"status"`
	Track     *Track `json:"track,omitempty"`
	Halted    bool   `json:"halted,omitempty"` // Auto-advance gave up after every entry was skipped
}
