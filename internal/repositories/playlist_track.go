package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

const playlistTrackColumns = "id, sequence, playlist_id, track_id, position, created_at, updated_at, deleted_at"

// ErrNoMoreTracks is returned by [PlaylistTrackRepository.NextMissing] when every candidate is already in the playlist.
var ErrNoMoreTracks = errors.New("no more songs to add")

// PlaylistTrackRepository implements models.Repository[*models.PlaylistTrack] for playlist membership.
type PlaylistTrackRepository struct {
	db *sql.DB
}

// NewPlaylistTrackRepository creates a new PlaylistTrackRepository with the given database connection
func NewPlaylistTrackRepository(db *sql.DB) *PlaylistTrackRepository {
	return &PlaylistTrackRepository{db: db}
}

// Create inserts a membership row with generated ID and sequence
func (r *PlaylistTrackRepository) Create(pt *models.PlaylistTrack) error {
	sequence, err := NextSequence(r.db, "playlist_tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	pt.SetID(shared.GenerateID())
	pt.SetSequence(sequence)

	if err := pt.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO playlist_tracks (id, sequence, playlist_id, track_id, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, pt.ID(), sequence, pt.PlaylistID(), pt.TrackID(), pt.Position(), pt.CreatedAt(), pt.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert playlist track: %w", err)
	}
	return nil
}

// Get retrieves a membership row by ID
func (r *PlaylistTrackRepository) Get(id string) (*models.PlaylistTrack, error) {
	query := "SELECT " + playlistTrackColumns + " FROM playlist_tracks WHERE id = ? AND deleted_at IS NULL"
	return r.scan(r.db.QueryRow(query, id))
}

// Update moves a membership row to its current position
func (r *PlaylistTrackRepository) Update(pt *models.PlaylistTrack) error {
	if err := pt.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	pt.SetUpdatedAt(now)

	result, err := r.db.Exec(
		"UPDATE playlist_tracks SET position = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		pt.Position(), now, pt.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist track: %w", err)
	}
	return requireAffected(result, "playlist track", pt.ID())
}

// Delete soft-deletes a membership row by ID
func (r *PlaylistTrackRepository) Delete(id string) error {
	return softDelete(r.db, "playlist_tracks", "playlist track", id)
}

// List retrieves live membership rows filtered by "playlist_id" and/or "track_id", ordered by playlist then position
func (r *PlaylistTrackRepository) List(criteria map[string]any) ([]*models.PlaylistTrack, error) {
	query := "SELECT " + playlistTrackColumns + " FROM playlist_tracks WHERE deleted_at IS NULL"
	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	if trackID, ok := criteria["track_id"].(string); ok && trackID != "" {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}

	query += " ORDER BY playlist_id ASC, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var items []*models.PlaylistTrack
	for rows.Next() {
		pt, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// Add appends trackID to the end of playlistID. Adding a track twice wraps [shared.ErrDuplicate].
func (r *PlaylistTrackRepository) Add(playlistID, trackID string) (*models.PlaylistTrack, error) {
	existing, err := r.List(map[string]any{"playlist_id": playlistID, "track_id": trackID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: track %s already in playlist %s", shared.ErrDuplicate, trackID, playlistID)
	}

	var next int
	err = r.db.QueryRow(
		"SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_tracks WHERE playlist_id = ? AND deleted_at IS NULL",
		playlistID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to compute next position: %w", err)
	}

	pt := models.NewPlaylistTrack(0, playlistID, trackID, next)
	if err := r.Create(pt); err != nil {
		return nil, err
	}
	return pt, nil
}

// Remove soft-deletes trackID from playlistID.
func (r *PlaylistTrackRepository) Remove(playlistID, trackID string) error {
	result, err := r.db.Exec(
		"UPDATE playlist_tracks SET deleted_at = ? WHERE playlist_id = ? AND track_id = ? AND deleted_at IS NULL",
		time.Now(), playlistID, trackID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove playlist track: %w", err)
	}
	return requireAffected(result, "playlist track", trackID)
}

// Tracks returns the cached tracks of playlistID in position order.
func (r *PlaylistTrackRepository) Tracks(playlistID string) ([]*models.PersistedTrack, error) {
	query := `
		SELECT t.id, t.sequence, t.service, t.service_id, t.title, t.artist, t.album, t.duration, t.created_at, t.updated_at, t.deleted_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ? AND pt.deleted_at IS NULL AND t.deleted_at IS NULL
		ORDER BY pt.position ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.PersistedTrack
	trackRepo := TrackRepository{db: r.db}
	for rows.Next() {
		t, err := trackRepo.scan(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// NextMissing returns the first candidate not already in playlistID, or [ErrNoMoreTracks].
func (r *PlaylistTrackRepository) NextMissing(playlistID string, candidates []*models.PersistedTrack) (*models.PersistedTrack, error) {
	members, err := r.List(map[string]any{"playlist_id": playlistID})
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(members))
	for _, m := range members {
		present[m.TrackID()] = true
	}

	for _, c := range candidates {
		if !present[c.ID()] {
			return c, nil
		}
	}
	return nil, ErrNoMoreTracks
}

func (r *PlaylistTrackRepository) scan(row scanner) (*models.PlaylistTrack, error) {
	var (
		id, playlistID, trackID string
		sequence, position      int
		createdAt, updatedAt    time.Time
		deletedAt               sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &playlistID, &trackID, &position, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, notFound(err, "playlist track")
	}

	pt := models.NewPlaylistTrack(sequence, playlistID, trackID, position)
	pt.SetID(id)
	pt.SetCreatedAt(createdAt)
	pt.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		pt.SetDeletedAt(&deletedAt.Time)
	}
	return pt, nil
}
