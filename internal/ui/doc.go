// Package ui implements the interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [SearchView] : Type a title; results follow the debounced [search.Session]
//  2. [DetailView] : Movie details under a header themed from the poster's dominant colour
//  3. [SavedView] : Browse and prune bookmarked movies
//
// The [Model] implements the standard Init/Update/View pattern and receives work results via the Msg union type.
// Search snapshots arrive on the session's subscription channel, so the view only ever renders the latest settled query.
//
// Keyboard navigation uses arrow keys, enter, tab, esc and single-letter actions (s, t, d) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
