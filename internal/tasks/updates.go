package tasks

import (
	"fmt"

	"github.com/desertthunder/soundfence/internal/formatter"
	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ObservePosition Phase = iota // Data is a [geofence.Position]
	Transition                   // Data is a [geofence.TransitionEvent]
	SkipPosition                 // Data is the skipped [geofence.Position]
	FetchPlaylist                // Data is a *[models.PlaylistExport] once found
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case ObservePosition:
		return "observe_position"
	case Transition:
		return "transition"
	case SkipPosition:
		return "skip_position"
	case FetchPlaylist:
		return "fetch_playlist"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func observeUpdate(step int, pos geofence.Position) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ObservePosition,
		Step:    step,
		Message: fmt.Sprintf("Position %s", pos),
		Data:    pos,
	}
}

func skipUpdate(step int, pos geofence.Position, moved float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SkipPosition,
		Step:    step,
		Message: fmt.Sprintf("Skipped %s (moved %.1fm)", pos, moved),
		Data:    pos,
	}
}

func transitionUpdate(step int, ev geofence.TransitionEvent) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transition,
		Step:    step,
		Message: formatter.Notification(ev),
		Data:    ev,
	}
}

func fetchingPlaylistUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching playlist %s...", id),
	}
}

func foundPlaylistUpdate(step, total int, export *models.PlaylistExport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", export.Playlist.Title, len(export.Tracks)),
		Data:    export,
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
