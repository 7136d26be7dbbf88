package repositories

import (
	"errors"
	"fmt"

	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

// TrackCacheAdapter caches catalog tracks through a [TrackRepository].
//
// Deduplicates via the service+service_id constraint and refreshes metadata on repeat fetches.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack returns the stored row for (service, track.ID), creating it on first sight.
func (a *TrackCacheAdapter) CacheTrack(service string, track models.Track) (*models.PersistedTrack, error) {
	existing, err := a.repo.GetByServiceID(service, track.ID)
	if err == nil {
		if existing.Track() != track {
			existing.SetMetadata(track)
			if err := a.repo.Update(existing); err != nil {
				return nil, fmt.Errorf("failed to refresh cached track: %w", err)
			}
		}
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	persisted := models.NewPersistedTrack(0, service, track.ID, track)
	if err := a.repo.Create(persisted); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return a.repo.GetByServiceID(service, track.ID)
		}
		return nil, fmt.Errorf("failed to cache track: %w", err)
	}

	return persisted, nil
}

// CacheTracks caches every track in order.
func (a *TrackCacheAdapter) CacheTracks(service string, tracks []models.Track) ([]*models.PersistedTrack, error) {
	cached := make([]*models.PersistedTrack, 0, len(tracks))
	for _, t := range tracks {
		p, err := a.CacheTrack(service, t)
		if err != nil {
			return nil, err
		}
		cached = append(cached, p)
	}
	return cached, nil
}
