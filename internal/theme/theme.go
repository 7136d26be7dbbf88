// Package theme holds the light/dark colour scheme as an explicit, shareable store.
package theme

import (
	"fmt"
	"strings"
	"sync"
)

// Mode selects a colour scheme.
type Mode int

const (
	Dark Mode = iota
	Light
)

func (m Mode) String() string {
	if m == Light {
		return "light"
	}
	return "dark"
}

// ParseMode accepts "dark" or "light" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark":
		return Dark, nil
	case "light":
		return Light, nil
	default:
		return Dark, fmt.Errorf("unknown theme %q", s)
	}
}

// Palette is the set of hex colours a screen needs.
type Palette struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	InputBg    string `json:"input_bg"`
	Primary    string `json:"primary"`
	Tint       string `json:"tint"`
}

var (
	DarkPalette = Palette{
		Background: "#0e0f13",
		Text:       "#ffffff",
		InputBg:    "#1c1c22",
		Primary:    "#1db954",
		Tint:       "#1db954",
	}
	LightPalette = Palette{
		Background: "#ffffff",
		Text:       "#000000",
		InputBg:    "#eeeeee",
		Primary:    "#007AFF",
		Tint:       "#007AFF",
	}
)

// PaletteFor returns the colours of m.
func PaletteFor(m Mode) Palette {
	if m == Light {
		return LightPalette
	}
	return DarkPalette
}

// Listener is told about every mode change.
type Listener func(Mode, Palette)

// Store is the current theme plus its subscribers. The zero value is a dark store.
type Store struct {
	mu        sync.Mutex
	mode      Mode
	nextID    int
	listeners map[int]Listener
}

// NewStore starts in mode.
func NewStore(mode Mode) *Store {
	return &Store{mode: mode}
}

func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Store) Palette() Palette {
	return PaletteFor(s.Mode())
}

// Set switches to mode and notifies listeners if it changed.
func (s *Store) Set(mode Mode) {
	s.mu.Lock()
	if s.mode == mode {
		s.mu.Unlock()
		return
	}
	s.mode = mode
	listeners := s.snapshot()
	s.mu.Unlock()

	s.notify(listeners, mode)
}

// Toggle flips between dark and light and returns the new mode.
func (s *Store) Toggle() Mode {
	s.mu.Lock()
	if s.mode == Dark {
		s.mode = Light
	} else {
		s.mode = Dark
	}
	mode := s.mode
	listeners := s.snapshot()
	s.mu.Unlock()

	s.notify(listeners, mode)
	return mode
}

// Subscribe registers fn and returns a function that removes it.
// Listeners run synchronously on the goroutine that changed the mode, in subscription order.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]Listener)
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// snapshot copies listeners in id order; callers hold mu.
func (s *Store) snapshot() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (s *Store) notify(listeners []Listener, mode Mode) {
	p := PaletteFor(mode)
	for _, fn := range listeners {
		fn(mode, p)
	}
}
