package models

import "fmt"

// PersistedTrack is a [Track] cached from a catalog provider.
//
// Service names the provider ("static", "spotify") and ServiceID is the provider's own id.
type PersistedTrack struct {
	record
	service   string
	serviceID string
	title     string
	artist    string
	album     string
	duration  int
}

// NewPersistedTrack wraps a DTO for storage.
func NewPersistedTrack(sequence int, service, serviceID string, t Track) *PersistedTrack {
	return &PersistedTrack{
		record:    newRecord(sequence),
		service:   service,
		serviceID: serviceID,
		title:     t.Title,
		artist:    t.Artist,
		album:     t.Album,
		duration:  t.Duration,
	}
}

func (t *PersistedTrack) Service() string   { return t.service }
func (t *PersistedTrack) ServiceID() string { return t.serviceID }
func (t *PersistedTrack) Title() string     { return t.title }
func (t *PersistedTrack) Artist() string    { return t.artist }
func (t *PersistedTrack) Album() string     { return t.album }
func (t *PersistedTrack) Duration() int     { return t.duration }

// SetMetadata replaces the descriptive fields from a fresh fetch.
func (t *PersistedTrack) SetMetadata(dto Track) {
	t.title = dto.Title
	t.artist = dto.Artist
	t.album = dto.Album
	t.duration = dto.Duration
}

// Track converts back into the DTO, using the provider id as the track id.
func (t *PersistedTrack) Track() Track {
	return Track{ID: t.serviceID, Title: t.title, Artist: t.artist, Album: t.album, Duration: t.duration}
}

func (t *PersistedTrack) Validate() error {
	switch {
	case t.id == "":
		return fmt.Errorf("track ID is required")
	case t.service == "":
		return fmt.Errorf("track service is required")
	case t.serviceID == "":
		return fmt.Errorf("track service ID is required")
	case t.title == "":
		return fmt.Errorf("track title is required")
	case t.duration < 0:
		return fmt.Errorf("track duration must not be negative")
	}
	return nil
}
