// Package ui implements an interactive terminal dashboard using bubbletea's Elm architecture.
//
// The dashboard has three views:
//  1. [DashboardView] : Region states, the latest position and the ten most recent notifications
//  2. [PlaylistListView] : Browse the catalog's playlists
//  3. [TrackListView] : Songs saved to a playlist, with add (a) and remove (x)
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Positions are fed by a [WatchFunc] running in its own goroutine; its progress updates arrive over a buffered
// channel and are folded into the view one at a time, so a slow terminal never stalls the monitor.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, t, q) with contextual help displayed via
// charmbracelet/bubbles/help. Toggling the theme (t) goes through the shared [theme.Store], so any subscriber
// (such as the profile persistence wired by the CLI) sees the change.
package ui
