// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/models"
)

// MockProvider is an in-memory [catalog.Provider].
//
// Tracks are keyed by playlist id; Err, when set, is returned by every call.
type MockProvider struct {
	Playlists []models.Playlist
	Tracks    map[string][]models.Track
	Err       error

	mu    sync.Mutex
	calls int
}

func (m *MockProvider) FetchPlaylists(ctx context.Context) ([]models.Playlist, error) {
	m.record()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Playlists, nil
}

func (m *MockProvider) FetchTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	m.record()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tracks[playlistID], nil
}

func (m *MockProvider) Name() string { return "mock" }

// Calls returns how many fetches were made.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) record() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// RecordingSink collects every transition it is handed; Err is returned after recording.
type RecordingSink struct {
	Err error

	mu     sync.Mutex
	events []geofence.TransitionEvent
}

func (s *RecordingSink) Handle(ctx context.Context, ev geofence.TransitionEvent) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return s.Err
}

// Events returns a copy of the recorded transitions.
func (s *RecordingSink) Events() []geofence.TransitionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]geofence.TransitionEvent, len(s.events))
	copy(out, s.events)
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

// InDir switches into dir for the rest of the test and restores the working directory afterwards.
func InDir(t *testing.T, dir string) {
	t.Helper()
	wd := MustGetwd(t)
	MustChdir(t, dir)
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
