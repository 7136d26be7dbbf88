// Package catalog provides the playlist and song data shown alongside the geofence features.
//
// A [Provider] is the seam between commands and wherever the music data lives:
// [StaticProvider] serves the app's built-in sample library and [SpotifyProvider]
// reads public playlists over the Spotify Web API.
package catalog

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

// Provider defines the read-only music catalog.
type Provider interface {
	// FetchPlaylists lists every playlist the provider exposes.
	FetchPlaylists(ctx context.Context) ([]models.Playlist, error)

	// FetchTracks lists a playlist's tracks in order.
	// Unknown ids return an error wrapping [shared.ErrPlaylistNotFound].
	FetchTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// Name identifies the provider; it doubles as the service key for cached tracks.
	Name() string
}

// Export fetches a playlist and its tracks as one [models.PlaylistExport].
func Export(ctx context.Context, p Provider, playlistID string) (*models.PlaylistExport, error) {
	playlist, err := Find(ctx, p, playlistID)
	if err != nil {
		return nil, err
	}

	tracks, err := p.FetchTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &models.PlaylistExport{Playlist: *playlist, Tracks: tracks}, nil
}

// Find returns the playlist with the given id.
func Find(ctx context.Context, p Provider, playlistID string) (*models.Playlist, error) {
	playlists, err := p.FetchPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	for i := range playlists {
		if playlists[i].ID == playlistID {
			return &playlists[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
}
