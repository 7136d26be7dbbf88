package models

// Playlist is catalog playlist metadata.
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Owner       string `json:"owner"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	TrackCount  int    `json:"track_count"`
}

// Track is song metadata. Duration is in seconds.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration"`
}

// PlaylistExport is a playlist together with its full track listing.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}
