package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/location"
	"golang.org/x/time/rate"
)

// DefaultDistanceInterval is the minimum movement, in meters, between positions accepted by [Monitor.Run].
const DefaultDistanceInterval = 5.0

// Sink receives every transition produced by a [Monitor].
type Sink interface {
	Handle(ctx context.Context, ev geofence.TransitionEvent) error
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, ev geofence.TransitionEvent) error

func (f SinkFunc) Handle(ctx context.Context, ev geofence.TransitionEvent) error { return f(ctx, ev) }

// PositionObserver is notified of every position the monitor classifies, before sinks run.
type PositionObserver interface {
	Observe(pos geofence.Position)
}

// Monitor serializes access to a [geofence.Engine] and fans its transitions out to sinks.
//
// Safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	engine    *geofence.Engine
	sinks     []Sink
	observers []PositionObserver
	interval  float64
	rate      float64
	logger    *log.Logger
	observed  int
}

// MonitorOption configures a [Monitor].
type MonitorOption func(*Monitor)

// WithSinks appends sinks; they are called in the order given.
func WithSinks(sinks ...Sink) MonitorOption {
	return func(m *Monitor) { m.sinks = append(m.sinks, sinks...) }
}

// WithObservers appends position observers.
func WithObservers(observers ...PositionObserver) MonitorOption {
	return func(m *Monitor) { m.observers = append(m.observers, observers...) }
}

// WithDistanceInterval sets the filter used by [Monitor.Run]; zero or less accepts every position.
func WithDistanceInterval(meters float64) MonitorOption {
	return func(m *Monitor) { m.interval = meters }
}

// WithRate paces [Monitor.Run] to at most perSecond positions; zero or less disables pacing.
func WithRate(perSecond float64) MonitorOption {
	return func(m *Monitor) { m.rate = perSecond }
}

func WithLogger(l *log.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor wraps engine. The engine must not be used directly afterwards.
func NewMonitor(engine *geofence.Engine, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		engine:   engine,
		interval: DefaultDistanceInterval,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMonitorFromRegions builds the engine and the monitor in one step.
func NewMonitorFromRegions(regions []geofence.Region, opts ...MonitorOption) (*Monitor, error) {
	engine, err := geofence.NewEngine(regions)
	if err != nil {
		return nil, err
	}
	return NewMonitor(engine, opts...), nil
}

// Observe classifies pos and hands each resulting transition to every sink.
//
// Observations are serialized, so sinks see transitions in the order the engine produced them; a sink must not
// call back into the monitor. Sink failures do not stop later sinks or undo the engine update; they are joined
// into the returned error alongside the events, which are always returned.
func (m *Monitor) Observe(ctx context.Context, pos geofence.Position, progress chan<- ProgressUpdate) ([]geofence.TransitionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := m.engine.Update(pos)
	m.observed++

	for _, o := range m.observers {
		o.Observe(pos)
	}
	sendProgress(progress, observeUpdate(m.observed, pos))

	var errs []error
	for _, ev := range events {
		m.logger.Info(ev.Kind.String()+" region", "region", ev.RegionID, "distance", fmt.Sprintf("%.1fm", ev.Distance))
		sendProgress(progress, transitionUpdate(m.observed, ev))

		for _, s := range m.sinks {
			if err := s.Handle(ctx, ev); err != nil {
				m.logger.Warn("sink failed", "region", ev.RegionID, "kind", ev.Kind, "err", err)
				errs = append(errs, err)
			}
		}
	}

	return events, errors.Join(errs...)
}

// Snapshot returns every region with its containment flag.
func (m *Monitor) Snapshot() []geofence.RegionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Snapshot()
}

// Inside reports the stored flag for id; ok is false for an unknown id.
func (m *Monitor) Inside(id string) (inside, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Inside(id)
}

// Regions returns the monitored regions in construction order.
func (m *Monitor) Regions() []geofence.Region {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Regions()
}

// WatchResult summarises a [Monitor.Run].
type WatchResult struct {
	PositionsSeen     int
	PositionsAccepted int
	Events            []geofence.TransitionEvent
	SinkErrors        []error
	Snapshot          []geofence.RegionState
}

// Run feeds every position from src through [Monitor.Observe] until the source is exhausted or ctx ends.
//
// A position is skipped when it lies closer than the distance interval to the last accepted one; the first
// position is always accepted. Sink failures are collected in the result and do not stop the run.
// The returned error is the source's error or ctx's.
func (m *Monitor) Run(parent context.Context, src location.Source, progress chan<- ProgressUpdate) (*WatchResult, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var limiter *rate.Limiter
	if m.rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(m.rate), 1)
	}

	positions, errc := src.Positions(ctx)
	result := &WatchResult{}

	var (
		last     geofence.Position
		accepted bool
		runErr   error
	)

	for pos := range positions {
		result.PositionsSeen++

		if accepted && m.interval > 0 {
			if moved := geofence.Distance(last, pos); moved < m.interval {
				m.logger.Debug("skipping position", "position", pos, "moved", moved)
				sendProgress(progress, skipUpdate(result.PositionsSeen, pos, moved))
				continue
			}
		}

		if limiter != nil {
			if err := waitFor(ctx, limiter); err != nil {
				runErr = err
				break
			}
		}

		last, accepted = pos, true
		result.PositionsAccepted++

		events, err := m.Observe(ctx, pos, progress)
		result.Events = append(result.Events, events...)
		if err != nil {
			result.SinkErrors = append(result.SinkErrors, err)
		}
	}

	cancel()
	for range positions {
	}
	srcErr := <-errc

	if runErr == nil {
		runErr = srcErr
	}
	if runErr == nil {
		runErr = parent.Err()
	}

	result.Snapshot = m.Snapshot()
	return result, runErr
}

// waitFor blocks until limiter allows one event or ctx ends, returning ctx's error in the latter case.
func waitFor(ctx context.Context, limiter *rate.Limiter) error {
	r := limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
