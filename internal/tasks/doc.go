// Package tasks hosts the long-running operations behind the CLI, server and dashboard, with real-time progress reporting.
//
// # Geofence Monitoring
//
// [Monitor] owns the single [geofence.Engine] for a process and serializes access to it.
//
//  1. [Monitor.Observe] : classify one position
//     - Updates the engine under a mutex
//     - Hands every transition to each [Sink] in order (repository, metrics, Redis)
//     - Joins sink errors; engine state is never rolled back
//
//  2. [Monitor.Run] : drain a [location.Source]
//     - Skips positions closer than the distance interval to the last accepted one
//     - Paces accepted positions with a token bucket when a rate is set
//     - Returns a [WatchResult] with counts, events and the final snapshot
//
// # Playlists
//
// [PlaylistEngine] reads a [catalog.Provider], caches tracks through a [TrackCacher] and keeps playlist membership in a [PlaylistStore].
// [PlaylistEngine.BulkExport] exports many playlists with a rate-limited worker pool and writes a manifest.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
