// Package models defines domain entities and persistence interfaces for soundfence.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing catalog data
//   - [Playlist] : Basic playlist metadata from a catalog provider
//   - [PlaylistExport] : Playlist with complete track listing
//   - [Track] : Song metadata
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [ProfileField] : One cached listener profile setting
//   - [PersistedTrack] : Cached tracks keyed by provider and provider id
//   - [PlaylistTrack] : Songs added to a playlist, with ordering
//   - [TransitionRecord] : Logged geofence enter/exit events
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
