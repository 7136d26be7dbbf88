package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/soundfence/internal/geofence"
)

// TransitionRecord is a logged [geofence.TransitionEvent].
type TransitionRecord struct {
	record
	regionID   string
	title      string
	kind       geofence.EventKind
	position   geofence.Position
	distance   float64
	occurredAt time.Time
}

// NewTransitionRecord captures ev as observed at occurredAt.
func NewTransitionRecord(sequence int, ev geofence.TransitionEvent, occurredAt time.Time) *TransitionRecord {
	return &TransitionRecord{
		record:     newRecord(sequence),
		regionID:   ev.RegionID,
		title:      ev.Title,
		kind:       ev.Kind,
		position:   ev.Position,
		distance:   ev.Distance,
		occurredAt: occurredAt,
	}
}

func (r *TransitionRecord) RegionID() string            { return r.regionID }
func (r *TransitionRecord) Title() string               { return r.title }
func (r *TransitionRecord) Kind() geofence.EventKind    { return r.kind }
func (r *TransitionRecord) Position() geofence.Position { return r.position }
func (r *TransitionRecord) Distance() float64           { return r.distance }
func (r *TransitionRecord) OccurredAt() time.Time       { return r.occurredAt }

// Event rebuilds the engine event.
func (r *TransitionRecord) Event() geofence.TransitionEvent {
	return geofence.TransitionEvent{
		RegionID: r.regionID,
		Title:    r.title,
		Kind:     r.kind,
		Position: r.position,
		Distance: r.distance,
	}
}

func (r *TransitionRecord) Validate() error {
	switch {
	case r.id == "":
		return fmt.Errorf("transition ID is required")
	case r.regionID == "":
		return fmt.Errorf("region ID is required")
	case r.kind != geofence.Entered && r.kind != geofence.Exited:
		return fmt.Errorf("invalid transition kind %d", r.kind)
	case r.occurredAt.IsZero():
		return fmt.Errorf("occurrence time is required")
	}
	return nil
}
