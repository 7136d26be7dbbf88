package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/location"
	th "github.com/desertthunder/soundfence/internal/testing"
)

var (
	atPlaza     = geofence.Position{Latitude: 14.5995, Longitude: 120.9842}
	nearPlaza   = geofence.Position{Latitude: 14.59951, Longitude: 120.9842}
	atRiverside = geofence.Position{Latitude: 14.6005, Longitude: 120.9865}
	farAway     = geofence.Position{Latitude: 0, Longitude: 0}
)

func newTestMonitor(t *testing.T, opts ...MonitorOption) *Monitor {
	t.Helper()
	m, err := NewMonitorFromRegions(location.SampleRegions(), opts...)
	if err != nil {
		t.Fatalf("NewMonitorFromRegions() error = %v", err)
	}
	return m
}

type countingObserver struct {
	mu sync.Mutex
	n  int
}

func (c *countingObserver) Observe(geofence.Position) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func TestMonitorObserve(t *testing.T) {
	t.Run("FansOutToSinks", func(t *testing.T) {
		first, second := &th.RecordingSink{}, &th.RecordingSink{}
		obs := &countingObserver{}
		m := newTestMonitor(t, WithSinks(first, second), WithObservers(obs))

		events, err := m.Observe(context.Background(), atPlaza, nil)
		if err != nil {
			t.Fatalf("Observe() error = %v", err)
		}
		if len(events) != 1 || events[0].RegionID != "poi1" || events[0].Kind != geofence.Entered {
			t.Fatalf("unexpected events %+v", events)
		}

		for i, s := range []*th.RecordingSink{first, second} {
			if got := s.Events(); len(got) != 1 || got[0] != events[0] {
				t.Errorf("sink %d got %+v", i, got)
			}
		}
		if obs.n != 1 {
			t.Errorf("observer called %d times, want 1", obs.n)
		}
		if inside, ok := m.Inside("poi1"); !inside || !ok {
			t.Errorf("poi1 should be inside")
		}
	})

	t.Run("SinkErrorsAreJoined", func(t *testing.T) {
		errA, errB := errors.New("redis down"), errors.New("disk full")
		after := &th.RecordingSink{}
		m := newTestMonitor(t, WithSinks(&th.RecordingSink{Err: errA}, &th.RecordingSink{Err: errB}, after))

		events, err := m.Observe(context.Background(), atPlaza, nil)
		if !errors.Is(err, errA) || !errors.Is(err, errB) {
			t.Fatalf("expected both sink errors, got %v", err)
		}
		if len(events) != 1 {
			t.Errorf("events should still be returned, got %d", len(events))
		}
		if len(after.Events()) != 1 {
			t.Errorf("later sinks should still run")
		}
		if inside, _ := m.Inside("poi1"); !inside {
			t.Errorf("sink failure must not undo the engine update")
		}
	})

	t.Run("SinkFunc", func(t *testing.T) {
		var got []string
		m := newTestMonitor(t, WithSinks(SinkFunc(func(ctx context.Context, ev geofence.TransitionEvent) error {
			got = append(got, ev.RegionID+":"+ev.Kind.String())
			return nil
		})))

		m.Observe(context.Background(), atPlaza, nil)
		m.Observe(context.Background(), atRiverside, nil)

		want := []string{"poi1:entered", "poi1:exited", "poi2:entered"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("Progress", func(t *testing.T) {
		m := newTestMonitor(t)
		progress := make(chan ProgressUpdate, 10)

		m.Observe(context.Background(), atPlaza, progress)
		close(progress)

		var updates []ProgressUpdate
		for u := range progress {
			updates = append(updates, u)
		}
		if len(updates) != 2 {
			t.Fatalf("expected 2 updates, got %d", len(updates))
		}
		if updates[0].Phase != ObservePosition || updates[0].Data.(geofence.Position) != atPlaza {
			t.Errorf("unexpected first update %+v", updates[0])
		}
		if updates[1].Phase != Transition || updates[1].Message != "You entered Clocktower Plaza" {
			t.Errorf("unexpected second update %+v", updates[1])
		}
	})

	t.Run("FullProgressChannelDoesNotBlock", func(t *testing.T) {
		m := newTestMonitor(t)
		progress := make(chan ProgressUpdate)

		done := make(chan struct{})
		go func() {
			m.Observe(context.Background(), atPlaza, progress)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Observe blocked on an unread progress channel")
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		sink := &th.RecordingSink{}
		m := newTestMonitor(t, WithSinks(sink))

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				pos := atPlaza
				if i%2 == 1 {
					pos = farAway
				}
				m.Observe(context.Background(), pos, nil)
			}(i)
		}
		wg.Wait()

		events := sink.Events()
		for i := 1; i < len(events); i++ {
			if events[i].Kind == events[i-1].Kind {
				t.Fatalf("transitions must alternate, got %v twice at %d", events[i].Kind, i)
			}
		}
	})
}

func TestMonitorRun(t *testing.T) {
	t.Run("DistanceInterval", func(t *testing.T) {
		sink := &th.RecordingSink{}
		m := newTestMonitor(t, WithSinks(sink))
		src := location.StaticSource{atPlaza, nearPlaza, atRiverside, farAway}

		result, err := m.Run(context.Background(), src, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.PositionsSeen != 4 || result.PositionsAccepted != 3 {
			t.Errorf("seen %d accepted %d, want 4 and 3", result.PositionsSeen, result.PositionsAccepted)
		}

		want := []struct {
			region string
			kind   geofence.EventKind
		}{
			{"poi1", geofence.Entered},
			{"poi1", geofence.Exited},
			{"poi2", geofence.Entered},
			{"poi2", geofence.Exited},
		}
		if len(result.Events) != len(want) {
			t.Fatalf("got %d events, want %d", len(result.Events), len(want))
		}
		for i, w := range want {
			if result.Events[i].RegionID != w.region || result.Events[i].Kind != w.kind {
				t.Errorf("event %d = %s %s, want %s %s", i, result.Events[i].RegionID, result.Events[i].Kind, w.region, w.kind)
			}
		}
		if len(sink.Events()) != len(want) {
			t.Errorf("sink saw %d events", len(sink.Events()))
		}

		for _, s := range result.Snapshot {
			if s.Inside {
				t.Errorf("%s should be outside at the end", s.Region.ID)
			}
		}
	})

	t.Run("IntervalDisabled", func(t *testing.T) {
		m := newTestMonitor(t, WithDistanceInterval(0))
		result, err := m.Run(context.Background(), location.StaticSource{atPlaza, atPlaza, atPlaza}, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.PositionsAccepted != 3 || len(result.Events) != 1 {
			t.Errorf("accepted %d with %d events", result.PositionsAccepted, len(result.Events))
		}
	})

	t.Run("SkipProgress", func(t *testing.T) {
		m := newTestMonitor(t)
		progress := make(chan ProgressUpdate, 16)

		m.Run(context.Background(), location.StaticSource{atPlaza, nearPlaza}, progress)
		close(progress)

		skipped := 0
		for u := range progress {
			if u.Phase == SkipPosition {
				skipped++
			}
		}
		if skipped != 1 {
			t.Errorf("expected 1 skip update, got %d", skipped)
		}
	})

	t.Run("Rate", func(t *testing.T) {
		m := newTestMonitor(t, WithRate(20), WithDistanceInterval(0))
		src := location.StaticSource{atPlaza, farAway, atPlaza, farAway, atPlaza}

		start := time.Now()
		result, err := m.Run(context.Background(), src, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
			t.Errorf("5 positions at 20/s finished in %v", elapsed)
		}
		if len(result.Events) != 5 {
			t.Errorf("expected 5 events, got %d", len(result.Events))
		}
	})

	t.Run("SinkErrorsCollected", func(t *testing.T) {
		m := newTestMonitor(t, WithSinks(&th.RecordingSink{Err: errors.New("nope")}))

		result, err := m.Run(context.Background(), location.StaticSource{atPlaza, farAway}, nil)
		if err != nil {
			t.Fatalf("sink errors should not fail the run, got %v", err)
		}
		if len(result.SinkErrors) != 2 {
			t.Errorf("expected 2 sink errors, got %d", len(result.SinkErrors))
		}
	})

	t.Run("SourceError", func(t *testing.T) {
		m := newTestMonitor(t)
		_, err := m.Run(context.Background(), location.FileSource{Path: "does-not-exist.csv"}, nil)
		if err == nil {
			t.Fatal("expected source error")
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		m := newTestMonitor(t, WithRate(1))
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		src := location.StaticSource{atPlaza, farAway, atPlaza, farAway}
		result, err := m.Run(ctx, src, nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected DeadlineExceeded, got %v", err)
		}
		if result.PositionsAccepted >= len(src) {
			t.Errorf("run should stop early, accepted %d", result.PositionsAccepted)
		}
		if len(result.Snapshot) != 3 {
			t.Errorf("snapshot should still be filled")
		}
	})
}
