// Package tasks coordinates searches across the song-search adapters and keeps the candidate list current.
//
// # Merging
//
// [Merge] concatenates adapter results in priority order and drops duplicates. Two tracks are duplicates when they
// share a source-provided id or the same source::title::artist key (case-insensitive, whitespace-collapsed).
// [Diff] applies the same rule to find the tracks of a fresh result that are not yet known.
//
// # Search Coordination
//
// [SearchEngine] owns the candidate list. Each [SearchEngine.Search]:
//  1. takes a new generation token and records the query
//  2. calls every enabled adapter concurrently, each under its own timeout
//  3. discards the merged result when a newer search was issued meanwhile
//  4. queries the fallback source alone when nothing was found and that source is disabled
//
// Adapter failures are logged and contribute an empty list.
//
// # Refresh
//
// [Poller] runs the refresh action on a fixed interval without overlapping ticks. The action fetches the live
// query again, and [Inject] prepends new tracks and extends the playlist without disturbing the current order.
package tasks
