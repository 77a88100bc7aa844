// Package services defines the [Adapter] interface for song-search APIs and implements it for iTunes and JioSaavn.
//
// # Adapter Interface
//
// Every source turns a free-text query into normalized [models.Track] records, so the search coordinator can query
// them uniformly and merge the results.
//
// # iTunes Implementation
//
// [ITunesService] calls the public iTunes Search API. Artwork is upgraded from 100x100 to 600x600. Previews are
// usually present.
//
// # JioSaavn Implementation
//
// [JioSaavnService] calls an unofficial JioSaavn mirror. The schema differs between mirrors, so [MapJioSaavn] walks
// the document with [simplejson] and tries several field names for each property.
//
// # Error Handling
//
// Transport failures and non-2xx statuses surface as [shared.ErrAPIRequest]. Mapping never fails: a body that
// cannot be parsed maps to an empty slice, and entries missing an id get a generated one (marked Synthetic).
//
// # Rate Limiting
//
// [APIService] waits on a [rate.Limiter] before each request when a requests-per-second limit is configured.
package services
