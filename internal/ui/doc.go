// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// A single screen combines a search box with suggestions, the merged result list, a now-playing panel and a toast
// line for tracks found by the background refresh. Typing searches as you go through the session's debounced
// search; enter on a result builds a playlist from it and starts playback.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg
// union type. Session events flow through a channel and are read one at a time by a waiting command, so the core
// never blocks on rendering.
//
// Number keys toggle sources, t toggles the light/dark theme (persisted through a [ThemeStore]) and ? expands the
// help rendered via charmbracelet/bubbles/help.
package ui
