package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

// StaticName is the service key of [StaticProvider].
const StaticName = "static"

var samplePlaylists = []models.Playlist{
	{ID: "1", Title: "Coding Beats", Owner: "John Doe", Image: "https://picsum.photos/seed/coding/100"},
	{ID: "2", Title: "Morning Vibes", Owner: "Jane Smith", Image: "https://picsum.photos/seed/morning/100"},
	{ID: "3", Title: "Focus Flow", Owner: "LoFi Studio", Image: "https://picsum.photos/seed/focus/100"},
	{ID: "4", Title: "Synth Nights", Owner: "DJ Retro", Image: "https://picsum.photos/seed/synth/100"},
}

var sampleSongs = []models.Track{
	{ID: "1", Title: "Chill Mode", Artist: "LoFi DJ"},
	{ID: "2", Title: "Focus Flow", Artist: "Chillhop"},
	{ID: "3", Title: "Coding Vibes", Artist: "SynthwaveX"},
	{ID: "4", Title: "Morning Boost", Artist: "LoFi Chill"},
}

// StaticProvider serves a fixed in-memory library. Every playlist offers the same song list.
type StaticProvider struct {
	playlists []models.Playlist
	songs     []models.Track
}

// NewStaticProvider returns the built-in sample library.
func NewStaticProvider() *StaticProvider {
	return NewStaticProviderWith(samplePlaylists, sampleSongs)
}

// NewStaticProviderWith serves the given playlists and songs; TrackCount is filled from songs.
func NewStaticProviderWith(playlists []models.Playlist, songs []models.Track) *StaticProvider {
	p := &StaticProvider{playlists: slices.Clone(playlists), songs: slices.Clone(songs)}
	for i := range p.playlists {
		p.playlists[i].TrackCount = len(p.songs)
	}
	return p
}

func (p *StaticProvider) Name() string { return StaticName }

func (p *StaticProvider) FetchPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(p.playlists), nil
}

func (p *StaticProvider) FetchTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(p.playlists, func(pl models.Playlist) bool { return pl.ID == playlistID }) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	return slices.Clone(p.songs), nil
}
