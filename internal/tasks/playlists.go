package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundfence/internal/catalog"
	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

// TrackCacher persists provider tracks, returning the stored rows in input order.
type TrackCacher interface {
	CacheTracks(service string, tracks []models.Track) ([]*models.PersistedTrack, error)
}

// PlaylistStore keeps the user's own playlist membership.
type PlaylistStore interface {
	Add(playlistID, trackID string) (*models.PlaylistTrack, error)
	Remove(playlistID, trackID string) error
	Tracks(playlistID string) ([]*models.PersistedTrack, error)
	NextMissing(playlistID string, candidates []*models.PersistedTrack) (*models.PersistedTrack, error)
}

// PlaylistEngine combines the read-only catalog with locally saved playlist contents.
type PlaylistEngine struct {
	provider catalog.Provider
	cacher   TrackCacher
	store    PlaylistStore
	logger   *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine. cacher and store may be nil for catalog-only use.
func NewPlaylistEngine(provider catalog.Provider, cacher TrackCacher, store PlaylistStore) *PlaylistEngine {
	return &PlaylistEngine{provider: provider, cacher: cacher, store: store, logger: log.New(io.Discard)}
}

// SetLogger replaces the engine's logger; nil is ignored.
func (e *PlaylistEngine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

func (e *PlaylistEngine) Provider() catalog.Provider { return e.provider }

// Editable reports whether saved playlist contents can be changed.
func (e *PlaylistEngine) Editable() bool { return e.store != nil && e.cacher != nil }

// Playlists lists the catalog's playlists.
func (e *PlaylistEngine) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	return e.provider.FetchPlaylists(ctx)
}

// Export fetches a playlist with its catalog tracks. Tracks are cached on the way through when a
// cacher is configured; caching failures are logged and do not fail the export.
func (e *PlaylistEngine) Export(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) (*models.PlaylistExport, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, fetchingPlaylistUpdate(1, 1, playlistID))
	export, err := catalog.Export(ctx, e.provider, playlistID)
	if err != nil {
		return nil, err
	}

	if e.cacher != nil {
		if _, err := e.cacher.CacheTracks(e.provider.Name(), export.Tracks); err != nil {
			e.logger.Warn("failed to cache tracks", "playlist", playlistID, "err", err)
		}
	}

	sendProgress(progress, foundPlaylistUpdate(1, 1, export))
	return export, nil
}

// Saved returns the tracks added to playlistID, in the order they were added.
func (e *PlaylistEngine) Saved(playlistID string) ([]models.Track, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}

	persisted, err := e.store.Tracks(playlistID)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, len(persisted))
	for i, p := range persisted {
		tracks[i] = p.Track()
	}
	return tracks, nil
}

// AddNext appends the first catalog song not yet saved in playlistID.
//
// Returns an error wrapping repositories.ErrNoMoreTracks once every song is present.
func (e *PlaylistEngine) AddNext(ctx context.Context, playlistID string) (models.Track, error) {
	if e.store == nil || e.cacher == nil {
		return models.Track{}, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}

	export, err := e.Export(ctx, nil, playlistID)
	if err != nil {
		return models.Track{}, err
	}

	candidates, err := e.cacher.CacheTracks(e.provider.Name(), export.Tracks)
	if err != nil {
		return models.Track{}, fmt.Errorf("failed to cache tracks: %w", err)
	}

	next, err := e.store.NextMissing(playlistID, candidates)
	if err != nil {
		return models.Track{}, err
	}

	if _, err := e.store.Add(playlistID, next.ID()); err != nil {
		return models.Track{}, err
	}
	return next.Track(), nil
}

// Remove drops the saved song whose catalog id is trackID from playlistID.
func (e *PlaylistEngine) Remove(playlistID, trackID string) error {
	if e.store == nil {
		return fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}

	saved, err := e.store.Tracks(playlistID)
	if err != nil {
		return err
	}

	for _, t := range saved {
		if t.ServiceID() == trackID {
			return e.store.Remove(playlistID, t.ID())
		}
	}
	return fmt.Errorf("%w: %s in playlist %s", shared.ErrTrackNotFound, trackID, playlistID)
}
