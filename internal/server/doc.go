// Package server provides the HTTP surface of soundfence: routing, middleware and JSON handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] patterns ("GET /playlists/{id}/tracks"), so
// method mismatches return 405 and path wildcards are read with [http.Request.PathValue].
//
// # Routes
//
//	GET    /healthz                      liveness
//	GET    /regions                      region snapshot (id, center, radius, inside)
//	POST   /positions                    {"latitude": .., "longitude": ..} → transitions + snapshot
//	GET    /playlists                    catalog playlists
//	GET    /playlists/{id}/tracks        catalog tracks of a playlist
//	GET    /playlists/{id}/saved         songs added to a playlist
//	POST   /playlists/{id}/saved         add the next song not yet present (409 when none remain)
//	DELETE /playlists/{id}/saved/{track} remove a song
//	GET    /events?region=&kind=&limit=  transition log
//	GET    /metrics                      Prometheus exposition
//
// # Lifecycle
//
// [Server] wraps [http.Server]; [Server.Run] serves until its context is cancelled and then shuts down
// within [ShutdownTimeout].
package server
