package models

import "fmt"

// PlaylistTrack places a cached track at a position within a catalog playlist.
type PlaylistTrack struct {
	record
	playlistID string
	trackID    string
	position   int
}

func NewPlaylistTrack(sequence int, playlistID, trackID string, position int) *PlaylistTrack {
	return &PlaylistTrack{record: newRecord(sequence), playlistID: playlistID, trackID: trackID, position: position}
}

func (pt *PlaylistTrack) PlaylistID() string  { return pt.playlistID }
func (pt *PlaylistTrack) TrackID() string     { return pt.trackID }
func (pt *PlaylistTrack) Position() int       { return pt.position }
func (pt *PlaylistTrack) SetPosition(pos int) { pt.position = pos }

func (pt *PlaylistTrack) Validate() error {
	switch {
	case pt.id == "":
		return fmt.Errorf("playlist track ID is required")
	case pt.playlistID == "":
		return fmt.Errorf("playlist ID is required")
	case pt.trackID == "":
		return fmt.Errorf("track ID is required")
	case pt.position < 0:
		return fmt.Errorf("position must not be negative")
	}
	return nil
}
