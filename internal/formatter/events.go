package formatter

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/models"
)

// Notification is the alert text for a transition: "You entered X" or "You left X".
func Notification(ev geofence.TransitionEvent) string {
	name := ev.Title
	if name == "" {
		name = ev.RegionID
	}

	switch ev.Kind {
	case geofence.Entered:
		return "You entered " + name
	case geofence.Exited:
		return "You left " + name
	default:
		return name
	}
}

// NotificationTitle is the alert heading: "Entered" or "Exited".
func NotificationTitle(k geofence.EventKind) string {
	switch k {
	case geofence.Entered:
		return "Entered"
	case geofence.Exited:
		return "Exited"
	default:
		return ""
	}
}

// EventsToCSV renders a transition log with columns Time, Region, Kind, Latitude, Longitude, Distance.
func EventsToCSV(records []*models.TransitionRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		pos := r.Position()
		rows = append(rows, []string{
			r.OccurredAt().UTC().Format(time.RFC3339),
			r.RegionID(),
			r.Kind().String(),
			formatFloat(pos.Latitude, 6),
			formatFloat(pos.Longitude, 6),
			formatFloat(r.Distance(), 1),
		})
	}
	return writeCSV([]string{"Time", "Region", "Kind", "Latitude", "Longitude", "Distance"}, rows)
}

// EventsToMarkdown renders a transition log as a Markdown table.
func EventsToMarkdown(records []*models.TransitionRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Geofence Events\n\n")
	fmt.Fprintf(&buf, "**Events**: %d\n\n", len(records))

	if len(records) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| Time | Region | Event | Position | Distance (m) |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, r := range records {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s |\n",
			r.OccurredAt().UTC().Format(time.RFC3339),
			r.RegionID(),
			Notification(r.Event()),
			r.Position(),
			formatFloat(r.Distance(), 1),
		)
	}

	return buf.Bytes(), nil
}

func formatFloat(f float64, prec int) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}
