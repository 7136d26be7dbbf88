package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgWatchComplete
	MsgPlaylistsFetched
	MsgTracksFetched
	MsgSavedChanged
)

type watchOutcome struct {
	result *tasks.WatchResult
	err    error
}

type playlistsPayload struct {
	playlists []models.Playlist
	err       error
}

type tracksPayload struct {
	playlist *models.PlaylistExport
	saved    []models.Track
	err      error
}

type savedPayload struct {
	saved  []models.Track
	status string
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// watchCompleteMsg is the constructor for [MsgWatchComplete]
func watchCompleteMsg(result *tasks.WatchResult, err error) Msg {
	return Msg{kind: MsgWatchComplete, data: watchOutcome{result, err}}
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsPayload{playlists, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(playlist *models.PlaylistExport, saved []models.Track, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksPayload{playlist, saved, err}}
}

// savedChangedMsg is the constructor for [MsgSavedChanged]
func savedChangedMsg(saved []models.Track, status string, err error) Msg {
	return Msg{kind: MsgSavedChanged, data: savedPayload{saved, status, err}}
}
