package geofence

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func sampleRegions() []Region {
	return []Region{
		{ID: "poi1", Title: "Clocktower Plaza", Center: Coordinate{14.5995, 120.9842}, RadiusMeters: 100},
		{ID: "poi2", Title: "Riverside Checkpoint", Center: Coordinate{14.6005, 120.9865}, RadiusMeters: 100},
		{ID: "poi3", Title: "Heritage Gate", Center: Coordinate{14.5982, 120.9820}, RadiusMeters: 100},
	}
}

func mustEngine(t *testing.T, regions []Region) *Engine {
	t.Helper()
	e, err := NewEngine(regions)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	t.Run("starts outside every region", func(t *testing.T) {
		e := mustEngine(t, sampleRegions())

		if e.Len() != 3 {
			t.Fatalf("expected 3 regions, got %d", e.Len())
		}
		for _, s := range e.Snapshot() {
			if s.Inside {
				t.Errorf("region %s should start outside", s.Region.ID)
			}
		}
	})

	t.Run("preserves construction order", func(t *testing.T) {
		e := mustEngine(t, sampleRegions())

		want := []string{"poi1", "poi2", "poi3"}
		for i, r := range e.Regions() {
			if r.ID != want[i] {
				t.Errorf("region %d = %s, want %s", i, r.ID, want[i])
			}
		}
	})

	t.Run("zero radius defaults", func(t *testing.T) {
		e := mustEngine(t, []Region{{ID: "a", Center: Coordinate{1, 1}}})

		if got := e.Regions()[0].RadiusMeters; got != DefaultRadiusMeters {
			t.Errorf("radius = %v, want %v", got, DefaultRadiusMeters)
		}
	})

	tc := []struct {
		name    string
		regions []Region
		wantErr error
	}{
		{
			name:    "duplicate id",
			regions: []Region{{ID: "poi1", RadiusMeters: 100}, {ID: "poi1", RadiusMeters: 50}},
			wantErr: ErrDuplicateRegion,
		},
		{
			name:    "negative radius",
			regions: []Region{{ID: "poi1", RadiusMeters: -1}},
			wantErr: ErrInvalidRegion,
		},
		{
			name:    "NaN radius",
			regions: []Region{{ID: "poi1", RadiusMeters: math.NaN()}},
			wantErr: ErrInvalidRegion,
		},
		{
			name:    "infinite radius",
			regions: []Region{{ID: "poi1", RadiusMeters: math.Inf(1)}},
			wantErr: ErrInvalidRegion,
		},
		{
			name:    "empty id",
			regions: []Region{{ID: "", RadiusMeters: 10}},
			wantErr: ErrInvalidRegion,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(tt.regions)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewEngine() error = %v, want %v", err, tt.wantErr)
			}
			if e != nil {
				t.Error("expected nil engine on error")
			}
		})
	}

	t.Run("empty region set", func(t *testing.T) {
		e := mustEngine(t, nil)
		if events := e.Update(Coordinate{0, 0}); len(events) != 0 {
			t.Errorf("expected no events, got %v", events)
		}
	})
}

func TestEngineUpdate(t *testing.T) {
	t.Run("enter then exit a single region", func(t *testing.T) {
		e := mustEngine(t, []Region{{ID: "poi1", Center: Coordinate{14.5995, 120.9842}, RadiusMeters: 100}})

		if events := e.Update(Coordinate{14.7, 121.1}); len(events) != 0 {
			t.Fatalf("far away: expected no events, got %v", events)
		}

		events := e.Update(Coordinate{14.5995, 120.9842})
		if len(events) != 1 || events[0].RegionID != "poi1" || events[0].Kind != Entered {
			t.Fatalf("at centre: expected [Entered(poi1)], got %v", events)
		}
		if events[0].Distance != 0 {
			t.Errorf("expected zero distance at centre, got %v", events[0].Distance)
		}

		events = e.Update(Coordinate{14.61, 120.99})
		if len(events) != 1 || events[0].RegionID != "poi1" || events[0].Kind != Exited {
			t.Fatalf("moved away: expected [Exited(poi1)], got %v", events)
		}
	})

	t.Run("only the containing region fires", func(t *testing.T) {
		e := mustEngine(t, sampleRegions())

		events := e.Update(Coordinate{14.5995, 120.9842})
		if len(events) != 1 {
			t.Fatalf("expected exactly one event, got %v", events)
		}
		if events[0].RegionID != "poi1" || events[0].Kind != Entered {
			t.Errorf("expected Entered(poi1), got %s(%s)", events[0].Kind, events[0].RegionID)
		}
		if events[0].Title != "Clocktower Plaza" {
			t.Errorf("expected title to be carried, got %q", events[0].Title)
		}

		for _, id := range []string{"poi2", "poi3"} {
			inside, ok := e.Inside(id)
			if !ok || inside {
				t.Errorf("%s: inside=%v ok=%v, want outside", id, inside, ok)
			}
		}
	})

	t.Run("repeated position does not refire", func(t *testing.T) {
		e := mustEngine(t, sampleRegions())
		pos := Coordinate{14.5995, 120.9842}

		if events := e.Update(pos); len(events) != 1 {
			t.Fatalf("first update: expected one event, got %v", events)
		}
		if events := e.Update(pos); len(events) != 0 {
			t.Fatalf("second update: expected no events, got %v", events)
		}
	})

	t.Run("events follow region order", func(t *testing.T) {
		regions := []Region{
			{ID: "z", Center: Coordinate{0, 0}, RadiusMeters: 1000},
			{ID: "a", Center: Coordinate{0, 0.001}, RadiusMeters: 1000},
			{ID: "m", Center: Coordinate{0.001, 0}, RadiusMeters: 1000},
		}
		e := mustEngine(t, regions)

		events := e.Update(Coordinate{0, 0})
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		for i, want := range []string{"z", "a", "m"} {
			if events[i].RegionID != want {
				t.Errorf("event %d = %s, want %s", i, events[i].RegionID, want)
			}
		}
	})

	t.Run("boundary counts as inside", func(t *testing.T) {
		center := Coordinate{14.5995, 120.9842}
		edge := Coordinate{14.6004, 120.9842}
		e := mustEngine(t, []Region{{ID: "edge", Center: center, RadiusMeters: Distance(edge, center)}})

		events := e.Update(edge)
		if len(events) != 1 || events[0].Kind != Entered {
			t.Fatalf("expected Entered on the boundary, got %v", events)
		}
	})

	t.Run("just past the boundary is outside", func(t *testing.T) {
		center := Coordinate{14.5995, 120.9842}
		edge := Coordinate{14.6004, 120.9842}
		e := mustEngine(t, []Region{{ID: "edge", Center: center, RadiusMeters: math.Nextafter(Distance(edge, center), 0)}})

		if events := e.Update(edge); len(events) != 0 {
			t.Fatalf("expected no events past the boundary, got %v", events)
		}
	})

	t.Run("NaN position exits a region that was inside", func(t *testing.T) {
		e := mustEngine(t, sampleRegions())
		e.Update(Coordinate{14.5995, 120.9842})

		events := e.Update(Coordinate{math.NaN(), 120.9842})
		if len(events) != 1 || events[0].RegionID != "poi1" || events[0].Kind != Exited {
			t.Fatalf("expected Exited(poi1) for NaN latitude, got %v", events)
		}
		if !math.IsNaN(events[0].Distance) {
			t.Errorf("expected NaN distance, got %v", events[0].Distance)
		}
	})

	t.Run("NaN position from outside is silent", func(t *testing.T) {
		e := mustEngine(t, sampleRegions())
		if events := e.Update(Coordinate{math.NaN(), math.NaN()}); len(events) != 0 {
			t.Fatalf("expected no events, got %v", events)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		e := mustEngine(t, sampleRegions())
		if _, ok := e.Inside("nope"); ok {
			t.Error("expected ok=false for an unknown region")
		}
	})
}

func TestEngineProperties(t *testing.T) {
	regions := sampleRegions()
	rng := rand.New(rand.NewSource(42))

	walk := make([]Coordinate, 500)
	for i := range walk {
		walk[i] = Coordinate{
			Latitude:  14.596 + rng.Float64()*0.008,
			Longitude: 120.980 + rng.Float64()*0.008,
		}
	}

	t.Run("idempotent from any state", func(t *testing.T) {
		e := mustEngine(t, regions)
		for i, pos := range walk {
			e.Update(pos)
			if events := e.Update(pos); len(events) != 0 {
				t.Fatalf("step %d: repeated update produced %v", i, events)
			}
		}
	})

	t.Run("enter and exit counts stay balanced", func(t *testing.T) {
		e := mustEngine(t, regions)
		balance := map[string]int{}

		for i, pos := range walk {
			for _, ev := range e.Update(pos) {
				switch ev.Kind {
				case Entered:
					balance[ev.RegionID]++
				case Exited:
					balance[ev.RegionID]--
				}
			}

			for _, r := range e.Regions() {
				b := balance[r.ID]
				if b != 0 && b != 1 {
					t.Fatalf("step %d: region %s balance %d", i, r.ID, b)
				}

				inside, _ := e.Inside(r.ID)
				if inside != r.Contains(pos) {
					t.Fatalf("step %d: region %s state %v disagrees with containment", i, r.ID, inside)
				}
				if inside != (b == 1) {
					t.Fatalf("step %d: region %s state %v disagrees with balance %d", i, r.ID, inside, b)
				}
			}
		}
	})
}

func TestEventKind(t *testing.T) {
	for _, k := range []EventKind{Entered, Exited} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", k, err)
		}

		var got EventKind
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) error = %v", text, err)
		}
		if got != k {
			t.Errorf("round trip %v -> %v", k, got)
		}
	}

	if _, err := EventKind(0).MarshalText(); err == nil {
		t.Error("expected error for zero kind")
	}
	if _, err := ParseEventKind("lingered"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestCoordinateValid(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinate
		want bool
	}{
		{"Origin", Coordinate{0, 0}, true},
		{"Poles and antimeridian", Coordinate{-90, 180}, true},
		{"Latitude out of range", Coordinate{90.5, 0}, false},
		{"Longitude out of range", Coordinate{0, -181}, false},
		{"NaN", Coordinate{math.NaN(), 0}, false},
		{"Inf", Coordinate{0, math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.want {
				t.Errorf("%v.Valid() = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}
