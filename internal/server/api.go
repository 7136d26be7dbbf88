package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/metrics"
	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/repositories"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/desertthunder/soundfence/internal/tasks"
)

const maxBodyBytes = 1 << 20

// EventLister reads the persisted transition log.
type EventLister interface {
	List(criteria map[string]any) ([]*models.TransitionRecord, error)
}

// API holds the dependencies of the HTTP handlers. Monitor is required; nil optional fields disable their routes.
type API struct {
	Monitor   *tasks.Monitor
	Playlists *tasks.PlaylistEngine
	Events    EventLister
	Metrics   *metrics.Collector
	Logger    *log.Logger
}

// NewRouter registers every route of the API on a [BasicRouter] with recovery, logging and metrics middleware.
func NewRouter(api API) *BasicRouter {
	if api.Logger == nil {
		api.Logger = log.New(io.Discard)
	}

	r := NewBasicRouter()
	r.Use(Recover(api.Logger), Logging(api.Logger))
	if api.Metrics != nil {
		r.Use(Metrics(api.Metrics))
	}

	r.HandleFunc(http.MethodGet, "/healthz", api.health)
	r.HandleFunc(http.MethodGet, "/regions", api.regions)
	r.HandleFunc(http.MethodPost, "/positions", api.observe)

	if api.Playlists != nil {
		r.HandleFunc(http.MethodGet, "/playlists", api.playlists)
		r.HandleFunc(http.MethodGet, "/playlists/{id}/tracks", api.playlistTracks)
		r.HandleFunc(http.MethodGet, "/playlists/{id}/saved", api.savedTracks)
		r.HandleFunc(http.MethodPost, "/playlists/{id}/saved", api.addTrack)
		r.HandleFunc(http.MethodDelete, "/playlists/{id}/saved/{track}", api.removeTrack)
	}
	if api.Events != nil {
		r.HandleFunc(http.MethodGet, "/events", api.events)
	}
	if api.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", api.Metrics.Handler())
	}

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

// positionRequest is the body of POST /positions.
type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type positionResponse struct {
	Events  []geofence.TransitionEvent `json:"events"`
	Regions []geofence.RegionState     `json:"regions"`
}

// eventResponse is a logged transition; unknown coordinates and distances are null.
type eventResponse struct {
	ID         string             `json:"id"`
	RegionID   string             `json:"region_id"`
	Title      string             `json:"title"`
	Kind       geofence.EventKind `json:"kind"`
	Latitude   *float64           `json:"latitude"`
	Longitude  *float64           `json:"longitude"`
	Distance   *float64           `json:"distance_meters"`
	OccurredAt time.Time          `json:"occurred_at"`
}

func (a API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a API) regions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Monitor.Snapshot())
}

func (a API) observe(w http.ResponseWriter, r *http.Request) {
	var req positionRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid position: %v", err))
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, "invalid position: latitude and longitude are required")
		return
	}

	pos := geofence.Position{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if !pos.Valid() {
		writeError(w, http.StatusBadRequest, "invalid position: coordinates out of range")
		return
	}
	events, err := a.Monitor.Observe(r.Context(), pos, nil)
	if err != nil {
		a.Logger.Warn("transition sinks failed", "position", pos, "err", err)
	}
	if events == nil {
		events = []geofence.TransitionEvent{}
	}

	writeJSON(w, http.StatusOK, positionResponse{Events: events, Regions: a.Monitor.Snapshot()})
}

func (a API) playlists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.Playlists.Playlists(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

func (a API) playlistTracks(w http.ResponseWriter, r *http.Request) {
	export, err := a.Playlists.Export(r.Context(), nil, r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

func (a API) savedTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.Playlists.Saved(r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (a API) addTrack(w http.ResponseWriter, r *http.Request) {
	track, err := a.Playlists.AddNext(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

func (a API) removeTrack(w http.ResponseWriter, r *http.Request) {
	if err := a.Playlists.Remove(r.PathValue("id"), r.PathValue("track")); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a API) events(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}
	q := r.URL.Query()

	if region := q.Get("region"); region != "" {
		criteria["region_id"] = region
	}
	if kind := q.Get("kind"); kind != "" {
		criteria["kind"] = kind
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		criteria["limit"] = n
	}

	records, err := a.Events.List(criteria)
	if err != nil {
		a.fail(w, err)
		return
	}

	out := make([]eventResponse, 0, len(records))
	for _, rec := range records {
		pos := rec.Position()
		out = append(out, eventResponse{
			ID:         rec.ID(),
			RegionID:   rec.RegionID(),
			Title:      rec.Title(),
			Kind:       rec.Kind(),
			Latitude:   finite(pos.Latitude),
			Longitude:  finite(pos.Longitude),
			Distance:   finite(rec.Distance()),
			OccurredAt: rec.OccurredAt().UTC(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// fail maps domain errors onto HTTP status codes.
func (a API) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, shared.ErrPlaylistNotFound),
		errors.Is(err, shared.ErrTrackNotFound),
		errors.Is(err, shared.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, repositories.ErrNoMoreTracks), errors.Is(err, shared.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrAuthFailed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrNotAuthenticated):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		a.Logger.Error("request failed", "err", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode response: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	data, _ := json.Marshal(errorResponse{Error: msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}
