// Package repositories provides the SQLite persistence layer for soundfence.
//
// Each repository implements [models.Repository] for one entity type, handling
// CRUD operations, soft deletes, and sequence generation:
//   - [ProfileRepository] : profile_fields, plus key/value helpers
//   - [TrackRepository] : tracks cached from catalog providers
//   - [PlaylistTrackRepository] : playlist membership and ordering
//   - [TransitionRepository] : the geofence event log
//
// Lookups that miss wrap [shared.ErrNotFound]; unique violations wrap [shared.ErrDuplicate].
package repositories
