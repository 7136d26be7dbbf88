package geofence

import (
	"errors"
	"fmt"
	"math"
)

// DefaultRadiusMeters applies to regions constructed with a zero radius.
const DefaultRadiusMeters = 100.0

var (
	ErrInvalidRegion   = errors.New("invalid region")
	ErrDuplicateRegion = errors.New("duplicate region id")
)

// Coordinate is a latitude/longitude pair in degrees (WGS-84).
type Coordinate struct {
	Latitude  float64 `json:"latitude" toml:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" toml:"longitude" yaml:"longitude"`
}

// Position is an observer location as reported by a location source.
type Position = Coordinate

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.5f, %.5f)", c.Latitude, c.Longitude)
}

// Valid reports whether c lies within the latitude and longitude ranges. NaN is never valid.
func (c Coordinate) Valid() bool {
	return math.Abs(c.Latitude) <= 90 && math.Abs(c.Longitude) <= 180
}

// Region is a named circle of interest.
type Region struct {
	ID           string     `json:"id"`
	Title        string     `json:"title,omitempty"`
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}

// Name returns the title, falling back to the id.
func (r Region) Name() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

// Contains reports whether p lies within the region, boundary included.
func (r Region) Contains(p Position) bool {
	return Distance(p, r.Center) <= r.RadiusMeters
}

// EventKind is the direction of a containment change.
type EventKind int

const (
	Entered EventKind = iota + 1
	Exited
)

func (k EventKind) String() string {
	switch k {
	case Entered:
		return "entered"
	case Exited:
		return "exited"
	default:
		return ""
	}
}

// ParseEventKind is the inverse of [EventKind.String].
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "entered":
		return Entered, nil
	case "exited":
		return Exited, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

func (k EventKind) MarshalText() ([]byte, error) {
	if k != Entered && k != Exited {
		return nil, fmt.Errorf("unknown event kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	parsed, err := ParseEventKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TransitionEvent reports that the observer crossed a region boundary.
type TransitionEvent struct {
	RegionID string    `json:"region_id"`
	Title    string    `json:"title"`
	Kind     EventKind `json:"kind"`
	Position Position  `json:"position"`
	Distance float64   `json:"distance_meters"`
}

// RegionState pairs a region with its current containment flag.
type RegionState struct {
	Region Region `json:"region"`
	Inside bool   `json:"inside"`
}

// Engine tracks per-region containment and emits transitions when it changes.
//
// Not safe for concurrent use.
type Engine struct {
	regions []Region
	inside  []bool
	index   map[string]int
}

// NewEngine validates regions and returns an engine with every region outside.
//
// A zero radius becomes [DefaultRadiusMeters]. Negative or non-finite radii and empty ids
// fail with [ErrInvalidRegion]; repeated ids fail with [ErrDuplicateRegion].
func NewEngine(regions []Region) (*Engine, error) {
	e := &Engine{
		regions: make([]Region, 0, len(regions)),
		inside:  make([]bool, len(regions)),
		index:   make(map[string]int, len(regions)),
	}

	for i, r := range regions {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: region at index %d has no id", ErrInvalidRegion, i)
		}
		if _, ok := e.index[r.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRegion, r.ID)
		}

		switch {
		case math.IsNaN(r.RadiusMeters), math.IsInf(r.RadiusMeters, 0), r.RadiusMeters < 0:
			return nil, fmt.Errorf("%w: region %s has radius %v", ErrInvalidRegion, r.ID, r.RadiusMeters)
		case r.RadiusMeters == 0:
			r.RadiusMeters = DefaultRadiusMeters
		}

		e.index[r.ID] = i
		e.regions = append(e.regions, r)
	}

	return e, nil
}

// Update classifies pos against every region and returns the transitions it caused, in region order.
func (e *Engine) Update(pos Position) []TransitionEvent {
	var events []TransitionEvent

	for i, r := range e.regions {
		d := Distance(pos, r.Center)
		insideNow := d <= r.RadiusMeters

		if insideNow == e.inside[i] {
			continue
		}
		e.inside[i] = insideNow

		kind := Exited
		if insideNow {
			kind = Entered
		}
		events = append(events, TransitionEvent{
			RegionID: r.ID,
			Title:    r.Name(),
			Kind:     kind,
			Position: pos,
			Distance: d,
		})
	}

	return events
}

// Regions returns a copy of the configured regions in construction order.
func (e *Engine) Regions() []Region {
	out := make([]Region, len(e.regions))
	copy(out, e.regions)
	return out
}

// Inside reports the stored flag for id; ok is false for an unknown id.
func (e *Engine) Inside(id string) (inside, ok bool) {
	i, ok := e.index[id]
	if !ok {
		return false, false
	}
	return e.inside[i], true
}

// Snapshot returns every region with its flag, in construction order.
func (e *Engine) Snapshot() []RegionState {
	out := make([]RegionState, len(e.regions))
	for i, r := range e.regions {
		out[i] = RegionState{Region: r, Inside: e.inside[i]}
	}
	return out
}

// Len returns the number of regions.
func (e *Engine) Len() int {
	return len(e.regions)
}
