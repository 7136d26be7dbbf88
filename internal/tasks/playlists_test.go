package tasks

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundfence/internal/catalog"
	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/repositories"
	"github.com/desertthunder/soundfence/internal/shared"
	th "github.com/desertthunder/soundfence/internal/testing"
)

func newLibraryEngine(t *testing.T) *PlaylistEngine {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cacher := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
	return NewPlaylistEngine(catalog.NewStaticProvider(), cacher, repositories.NewPlaylistTrackRepository(db))
}

func TestPlaylistEngine_AddNext(t *testing.T) {
	ctx := context.Background()
	engine := newLibraryEngine(t)

	saved, err := engine.Saved("1")
	if err != nil {
		t.Fatalf("Saved() error = %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("new playlist should be empty, got %d tracks", len(saved))
	}

	want := []string{"Chill Mode", "Focus Flow", "Coding Vibes", "Morning Boost"}
	for _, title := range want {
		track, err := engine.AddNext(ctx, "1")
		if err != nil {
			t.Fatalf("AddNext() error = %v", err)
		}
		if track.Title != title {
			t.Errorf("AddNext() added %q, want %q", track.Title, title)
		}
	}

	if _, err := engine.AddNext(ctx, "1"); !errors.Is(err, repositories.ErrNoMoreTracks) {
		t.Errorf("expected ErrNoMoreTracks, got %v", err)
	}

	saved, _ = engine.Saved("1")
	if len(saved) != len(want) {
		t.Fatalf("expected %d saved tracks, got %d", len(want), len(saved))
	}
	for i, tr := range saved {
		if tr.Title != want[i] {
			t.Errorf("saved[%d] = %q, want %q", i, tr.Title, want[i])
		}
	}

	other, _ := engine.Saved("2")
	if len(other) != 0 {
		t.Errorf("playlists should not share tracks, got %d in playlist 2", len(other))
	}
}

func TestPlaylistEngine_Remove(t *testing.T) {
	ctx := context.Background()
	engine := newLibraryEngine(t)

	first, _ := engine.AddNext(ctx, "1")
	second, _ := engine.AddNext(ctx, "1")

	if err := engine.Remove("1", first.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	saved, _ := engine.Saved("1")
	if len(saved) != 1 || saved[0].ID != second.ID {
		t.Errorf("expected only %s to remain, got %+v", second.ID, saved)
	}

	if err := engine.Remove("1", first.ID); !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}

	again, err := engine.AddNext(ctx, "1")
	if err != nil {
		t.Fatalf("AddNext() error = %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("removed song should be offered again, got %s", again.ID)
	}
}

func TestPlaylistEngine_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownPlaylist", func(t *testing.T) {
		engine := newLibraryEngine(t)
		if _, err := engine.AddNext(ctx, "404"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("CatalogOnly", func(t *testing.T) {
		engine := NewPlaylistEngine(catalog.NewStaticProvider(), nil, nil)

		if _, err := engine.AddNext(ctx, "1"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("AddNext: expected ErrServiceUnavailable, got %v", err)
		}
		if _, err := engine.Saved("1"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("Saved: expected ErrServiceUnavailable, got %v", err)
		}
		if err := engine.Remove("1", "1"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("Remove: expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("ProviderFailure", func(t *testing.T) {
		boom := errors.New("boom")
		engine := NewPlaylistEngine(&th.MockProvider{Err: boom}, nil, nil)

		if _, err := engine.Playlists(ctx); !errors.Is(err, boom) {
			t.Errorf("Playlists: expected boom, got %v", err)
		}
		if _, err := engine.Export(ctx, nil, "1"); !errors.Is(err, boom) {
			t.Errorf("Export: expected boom, got %v", err)
		}
	})
}

func TestPlaylistEngine_ExportProgress(t *testing.T) {
	engine := NewPlaylistEngine(catalog.NewStaticProvider(), nil, nil)
	progress := make(chan ProgressUpdate, 4)

	export, err := engine.Export(context.Background(), progress, "2")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if export.Playlist.Title != "Morning Vibes" {
		t.Errorf("unexpected playlist %q", export.Playlist.Title)
	}

	close(progress)
	var phases []Phase
	for u := range progress {
		phases = append(phases, u.Phase)
	}
	if len(phases) != 2 || phases[0] != FetchPlaylist || phases[1] != FetchPlaylist {
		t.Errorf("unexpected phases %v", phases)
	}
}

type failingCacher struct{ err error }

func (c failingCacher) CacheTracks(string, []models.Track) ([]*models.PersistedTrack, error) {
	return nil, c.err
}

func TestPlaylistEngine_ExportCacheFailure(t *testing.T) {
	var buf bytes.Buffer
	engine := NewPlaylistEngine(catalog.NewStaticProvider(), failingCacher{err: errors.New("disk full")}, nil)
	engine.SetLogger(log.New(&buf))

	export, err := engine.Export(context.Background(), nil, "2")
	if err != nil {
		t.Fatalf("Export() should not fail on cache errors, got %v", err)
	}
	if len(export.Tracks) == 0 {
		t.Error("expected catalog tracks in the export")
	}

	out := buf.String()
	for _, want := range []string{"failed to cache tracks", "disk full", "playlist=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output %q", want, out)
		}
	}
}
