// Package models defines the records shared by every layer of the player.
//
// The package contains three categories of types:
//
// 1. Catalogue records: normalized data produced by the source adapters
//   - [Track] : one song from any source, with preview and external link
//   - [Source] : tag identifying the adapter (iTunes, JioSaavn) a track came from
//
// 2. Queue records: the play order derived from a candidate list
//   - [Playlist] : indices into the candidate list, seed first
//   - [PlaybackState] : position, play/pause flag and status of the sequencer
//
// 3. Events: notifications the core emits for its UI collaborator
//   - [Event] : a [EventKind] plus its payload
//
// The persisted [Theme] preference lives here too, since both the UI and the repositories use it.
//
// Identity keys ([Track.MetadataKey]) decide when two tracks from heterogeneous API shapes describe the same song.
package models
