package tasks

import "github.com/desertthunder/vibe/internal/models"

// seenSet tracks both identity keys of every kept track.
type seenSet struct {
	ids  map[string]struct{}
	keys map[string]struct{}
}

func newSeenSet(size int) *seenSet {
	return &seenSet{ids: make(map[string]struct{}, size), keys: make(map[string]struct{}, size)}
}

// has reports whether t duplicates a recorded track by non-synthetic id or by metadata key.
func (s *seenSet) has(t models.Track) bool {
	if t.ID != "" && !t.Synthetic {
		if _, ok := s.ids[t.ID]; ok {
			return true
		}
	}
	if key := t.MetadataKey(); key != "" {
		if _, ok := s.keys[key]; ok {
			return true
		}
	}
	return false
}

func (s *seenSet) add(t models.Track) {
	if t.ID != "" && !t.Synthetic {
		s.ids[t.ID] = struct{}{}
	}
	if key := t.MetadataKey(); key != "" {
		s.keys[key] = struct{}{}
	}
}

// Merge concatenates lists in priority order, keeping the first occurrence of each track.
//
// A track is a duplicate when its source-provided id or its metadata key was already kept.
func Merge(lists ...[]models.Track) []models.Track {
	size := 0
	for _, l := range lists {
		size += len(l)
	}

	seen := newSeenSet(size)
	merged := make([]models.Track, 0, size)
	for _, list := range lists {
		for _, t := range list {
			if seen.has(t) {
				continue
			}
			seen.add(t)
			merged = append(merged, t)
		}
	}
	return merged
}

// Diff returns the tracks of fresh that duplicate nothing in existing (or earlier in fresh), in order.
func Diff(existing, fresh []models.Track) []models.Track {
	seen := newSeenSet(len(existing) + len(fresh))
	for _, t := range existing {
		seen.add(t)
	}

	var added []models.Track
	for _, t := range fresh {
		if seen.has(t) {
			continue
		}
		seen.add(t)
		added = append(added, t)
	}
	return added
}
