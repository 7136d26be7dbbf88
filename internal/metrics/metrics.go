// Package metrics exposes geofence and HTTP activity as Prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the soundfence metrics on a private registry.
//
// It satisfies tasks.Sink and tasks.PositionObserver.
type Collector struct {
	registry *prometheus.Registry

	Transitions *prometheus.CounterVec
	Inside      *prometheus.GaugeVec
	Positions   prometheus.Counter

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewCollector registers every metric against a fresh registry.
func NewCollector() (*Collector, error) {
	reg := prometheus.NewRegistry()

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundfence_geofence_transitions_total",
		Help: "Geofence transitions, labeled by region and kind (entered, exited).",
	}, []string{"region", "kind"})

	inside := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "soundfence_geofence_inside",
		Help: "1 while the observer is inside the region, 0 otherwise.",
	}, []string{"region"})

	positions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "soundfence_positions_total",
		Help: "Positions classified by the geofence monitor.",
	})

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "soundfence_http_requests_total",
		Help: "Handled HTTP requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "code"})

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "soundfence_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	for name, c := range map[string]prometheus.Collector{
		"soundfence_geofence_transitions_total":    transitions,
		"soundfence_geofence_inside":               inside,
		"soundfence_positions_total":               positions,
		"soundfence_http_requests_total":           requests,
		"soundfence_http_request_duration_seconds": durations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", name, err)
		}
	}

	return &Collector{
		registry:      reg,
		Transitions:   transitions,
		Inside:        inside,
		Positions:     positions,
		HTTPRequests:  requests,
		HTTPDurations: durations,
	}, nil
}

// Seed publishes an inside gauge for every region so outside regions report 0 before their first transition.
func (c *Collector) Seed(states []geofence.RegionState) {
	if c == nil {
		return
	}
	for _, s := range states {
		c.Inside.WithLabelValues(s.Region.ID).Set(boolGauge(s.Inside))
	}
}

// Observe counts one classified position.
func (c *Collector) Observe(geofence.Position) {
	if c == nil {
		return
	}
	c.Positions.Inc()
}

// Handle records a transition. It never fails.
func (c *Collector) Handle(_ context.Context, ev geofence.TransitionEvent) error {
	if c == nil {
		return nil
	}
	c.Transitions.WithLabelValues(ev.RegionID, ev.Kind.String()).Inc()
	c.Inside.WithLabelValues(ev.RegionID).Set(boolGauge(ev.Kind == geofence.Entered))
	return nil
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.HTTPDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Gatherer exposes the private registry.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.registry }

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
