package repositories

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func cacheSongs(t *testing.T, db *sql.DB, songs ...models.Track) []*models.PersistedTrack {
	t.Helper()
	cached, err := NewTrackCacheAdapter(NewTrackRepository(db)).CacheTracks("static", songs)
	if err != nil {
		t.Fatalf("failed to cache tracks: %v", err)
	}
	return cached
}

var sampleSongs = []models.Track{
	{ID: "1", Title: "Chill Mode", Artist: "LoFi DJ", Duration: 185},
	{ID: "2", Title: "Focus Flow", Artist: "Chillhop", Duration: 201},
	{ID: "3", Title: "Coding Vibes", Artist: "SynthwaveX", Duration: 176},
	{ID: "4", Title: "Morning Boost", Artist: "LoFi Chill", Duration: 194},
}

func TestProfileRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProfileRepository(db)

		field := models.NewProfileField(0, models.ProfileName, "Ada")
		if err := repo.Create(field); err != nil {
			t.Fatalf("failed to create profile field: %v", err)
		}

		if field.ID() == "" {
			t.Error("field ID should be set after creation")
		}

		retrieved, err := repo.Get(field.ID())
		if err != nil {
			t.Fatalf("failed to get profile field: %v", err)
		}
		if retrieved.Name() != models.ProfileName || retrieved.Value() != "Ada" {
			t.Errorf("unexpected field %s=%s", retrieved.Name(), retrieved.Value())
		}
	})

	t.Run("Set upserts", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProfileRepository(db)

		first, err := repo.Set(models.ProfileTheme, "dark")
		if err != nil {
			t.Fatalf("failed to set theme: %v", err)
		}

		second, err := repo.Set(models.ProfileTheme, "light")
		if err != nil {
			t.Fatalf("failed to update theme: %v", err)
		}

		if first.ID() != second.ID() {
			t.Errorf("expected upsert to keep id %s, got %s", first.ID(), second.ID())
		}

		value, err := repo.Value(models.ProfileTheme)
		if err != nil {
			t.Fatalf("failed to read theme: %v", err)
		}
		if value != "light" {
			t.Errorf("expected light, got %s", value)
		}
	})

	t.Run("Set after Delete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProfileRepository(db)

		field, err := repo.Set(models.ProfileBio, "old")
		if err != nil {
			t.Fatalf("failed to set bio: %v", err)
		}
		if err := repo.Delete(field.ID()); err != nil {
			t.Fatalf("failed to delete bio: %v", err)
		}

		if _, err := repo.Value(models.ProfileBio); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}

		if _, err := repo.Set(models.ProfileBio, "new"); err != nil {
			t.Fatalf("failed to set bio after delete: %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewProfileRepository(db)

		for _, kv := range [][2]string{{models.ProfileName, "Ada"}, {models.ProfileEmail, "ada@example.com"}} {
			if _, err := repo.Set(kv[0], kv[1]); err != nil {
				t.Fatalf("failed to set %s: %v", kv[0], err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list profile: %v", err)
		}
		if len(all) != 2 || all[0].Name() != models.ProfileName {
			t.Errorf("expected name then email, got %d fields", len(all))
		}

		filtered, err := repo.List(map[string]any{"name": models.ProfileEmail})
		if err != nil {
			t.Fatalf("failed to list profile: %v", err)
		}
		if len(filtered) != 1 {
			t.Errorf("expected 1 field, got %d", len(filtered))
		}
	})
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create & Get", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		track := models.NewPersistedTrack(0, "spotify", "spotify123", models.Track{
			ID:       "spotify123",
			Title:    "Test Song",
			Artist:   "Test Artist",
			Album:    "Test Album",
			Duration: 180,
		})

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.GetByServiceID("spotify", "spotify123")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Title() != "Test Song" {
			t.Errorf("expected title 'Test Song', got %s", retrieved.Title())
		}
		if retrieved.Track().Duration != 180 {
			t.Errorf("expected duration 180, got %d", retrieved.Track().Duration)
		}
	})

	t.Run("Update & Delete", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTrackRepository(db)

		track := models.NewPersistedTrack(0, "static", "1", sampleSongs[0])
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		track.SetMetadata(models.Track{ID: "1", Title: "Chill Mode (Remix)", Artist: "LoFi DJ"})
		if err := repo.Update(track); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		retrieved, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if retrieved.Title() != "Chill Mode (Remix)" {
			t.Errorf("expected updated title, got %s", retrieved.Title())
		}

		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}
		if _, err := repo.Get(track.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("List by service", func(t *testing.T) {
		db := setupTestDB(t)
		cacheSongs(t, db, sampleSongs...)

		repo := NewTrackRepository(db)
		if err := repo.Create(models.NewPersistedTrack(0, "spotify", "x", models.Track{ID: "x", Title: "Other"})); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		static, err := repo.List(map[string]any{"service": "static"})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(static) != len(sampleSongs) {
			t.Errorf("expected %d static tracks, got %d", len(sampleSongs), len(static))
		}
	})
}

func TestTrackCacheAdapter_CacheTrack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTrackRepository(db)
	adapter := NewTrackCacheAdapter(repo)

	first, err := adapter.CacheTrack("spotify", sampleSongs[1])
	if err != nil {
		t.Fatalf("failed to cache track: %v", err)
	}

	again, err := adapter.CacheTrack("spotify", sampleSongs[1])
	if err != nil {
		t.Fatalf("caching duplicate track should not error: %v", err)
	}
	if again.ID() != first.ID() {
		t.Errorf("expected cached id %s, got %s", first.ID(), again.ID())
	}

	renamed := sampleSongs[1]
	renamed.Album = "Study Session"
	refreshed, err := adapter.CacheTrack("spotify", renamed)
	if err != nil {
		t.Fatalf("failed to refresh track: %v", err)
	}
	if refreshed.Album() != "Study Session" {
		t.Errorf("expected refreshed album, got %q", refreshed.Album())
	}

	all, err := repo.List(nil)
	if err != nil {
		t.Fatalf("failed to list tracks: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected a single cached row, got %d", len(all))
	}
}

func TestPlaylistTrackRepository(t *testing.T) {
	t.Run("Add appends in order", func(t *testing.T) {
		db := setupTestDB(t)
		songs := cacheSongs(t, db, sampleSongs...)
		repo := NewPlaylistTrackRepository(db)

		for _, s := range []*models.PersistedTrack{songs[2], songs[0]} {
			if _, err := repo.Add("p1", s.ID()); err != nil {
				t.Fatalf("failed to add %s: %v", s.Title(), err)
			}
		}

		tracks, err := repo.Tracks("p1")
		if err != nil {
			t.Fatalf("failed to load tracks: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].Title() != "Coding Vibes" || tracks[1].Title() != "Chill Mode" {
			t.Errorf("unexpected order: %s, %s", tracks[0].Title(), tracks[1].Title())
		}
	})

	t.Run("Add rejects duplicates", func(t *testing.T) {
		db := setupTestDB(t)
		songs := cacheSongs(t, db, sampleSongs[0])
		repo := NewPlaylistTrackRepository(db)

		if _, err := repo.Add("p1", songs[0].ID()); err != nil {
			t.Fatalf("failed to add: %v", err)
		}
		if _, err := repo.Add("p1", songs[0].ID()); !errors.Is(err, shared.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
		if _, err := repo.Add("p2", songs[0].ID()); err != nil {
			t.Errorf("same track in another playlist should be allowed: %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		db := setupTestDB(t)
		songs := cacheSongs(t, db, sampleSongs[:2]...)
		repo := NewPlaylistTrackRepository(db)

		for _, s := range songs {
			if _, err := repo.Add("p1", s.ID()); err != nil {
				t.Fatalf("failed to add: %v", err)
			}
		}

		if err := repo.Remove("p1", songs[0].ID()); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}
		if err := repo.Remove("p1", songs[0].ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second remove, got %v", err)
		}

		tracks, err := repo.Tracks("p1")
		if err != nil {
			t.Fatalf("failed to load tracks: %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID() != songs[1].ID() {
			t.Errorf("expected only %s to remain", songs[1].Title())
		}

		if _, err := repo.Add("p1", songs[0].ID()); err != nil {
			t.Errorf("re-adding a removed track should work: %v", err)
		}
	})

	t.Run("NextMissing", func(t *testing.T) {
		db := setupTestDB(t)
		songs := cacheSongs(t, db, sampleSongs...)
		repo := NewPlaylistTrackRepository(db)

		for _, s := range songs[:2] {
			if _, err := repo.Add("p1", s.ID()); err != nil {
				t.Fatalf("failed to add: %v", err)
			}
		}

		next, err := repo.NextMissing("p1", songs)
		if err != nil {
			t.Fatalf("NextMissing failed: %v", err)
		}
		if next.Title() != "Coding Vibes" {
			t.Errorf("expected Coding Vibes, got %s", next.Title())
		}

		for _, s := range songs[2:] {
			if _, err := repo.Add("p1", s.ID()); err != nil {
				t.Fatalf("failed to add: %v", err)
			}
		}

		if _, err := repo.NextMissing("p1", songs); !errors.Is(err, ErrNoMoreTracks) {
			t.Errorf("expected ErrNoMoreTracks, got %v", err)
		}
	})
}

func TestTransitionRepository(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	newRepo := func(t *testing.T) *TransitionRepository {
		repo := NewTransitionRepository(setupTestDB(t))
		repo.now = func() time.Time { return at }
		return repo
	}

	entered := geofence.TransitionEvent{
		RegionID: "poi1",
		Title:    "Clocktower Plaza",
		Kind:     geofence.Entered,
		Position: geofence.Position{Latitude: 14.5995, Longitude: 120.9842},
		Distance: 0,
	}

	t.Run("Record & Get", func(t *testing.T) {
		repo := newRepo(t)

		rec, err := repo.Record(entered)
		if err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.Event() != entered {
			t.Errorf("expected %+v, got %+v", entered, got.Event())
		}
		if !got.OccurredAt().Equal(at) {
			t.Errorf("expected occurred_at %v, got %v", at, got.OccurredAt())
		}
	})

	t.Run("NaN position round trips", func(t *testing.T) {
		repo := newRepo(t)

		ev := geofence.TransitionEvent{
			RegionID: "poi1",
			Kind:     geofence.Exited,
			Position: geofence.Position{Latitude: math.NaN(), Longitude: 120.9842},
			Distance: math.NaN(),
		}

		rec, err := repo.Record(ev)
		if err != nil {
			t.Fatalf("failed to record NaN exit: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if !math.IsNaN(got.Position().Latitude) || !math.IsNaN(got.Distance()) {
			t.Errorf("expected NaN latitude and distance, got %v / %v", got.Position(), got.Distance())
		}
		if got.Position().Longitude != 120.9842 {
			t.Errorf("expected longitude preserved, got %v", got.Position().Longitude)
		}
	})

	t.Run("List filters", func(t *testing.T) {
		repo := newRepo(t)

		exited := entered
		exited.Kind = geofence.Exited
		other := entered
		other.RegionID = "poi2"

		for _, ev := range []geofence.TransitionEvent{entered, exited, other} {
			if _, err := repo.Record(ev); err != nil {
				t.Fatalf("failed to record: %v", err)
			}
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     int
		}{
			{"all", nil, 3},
			{"region", map[string]any{"region_id": "poi1"}, 2},
			{"kind", map[string]any{"kind": geofence.Entered}, 2},
			{"kind string", map[string]any{"kind": "exited"}, 1},
			{"both", map[string]any{"region_id": "poi2", "kind": "entered"}, 1},
			{"limit", map[string]any{"limit": 2}, 2},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("List failed: %v", err)
				}
				if len(got) != tt.want {
					t.Errorf("expected %d records, got %d", tt.want, len(got))
				}
			})
		}

		recent, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if recent[0].Kind() != geofence.Exited || recent[1].RegionID() != "poi2" {
			t.Error("limit should keep the most recent records in order")
		}

		if _, err := repo.List(map[string]any{"kind": "lingered"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for unknown kind, got %v", err)
		}
	})

	t.Run("Handle honours context", func(t *testing.T) {
		repo := newRepo(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := repo.Handle(ctx, entered); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}

		if err := repo.Handle(context.Background(), entered); err != nil {
			t.Fatalf("Handle failed: %v", err)
		}

		all, _ := repo.List(nil)
		if len(all) != 1 {
			t.Errorf("expected exactly one recorded event, got %d", len(all))
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	seq1, err := NextSequence(db, "geofence_events")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}

	if seq1 != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq1)
	}

	seq2, err := NextSequence(db, "geofence_events")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if seq2 != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq2)
	}

	trackSeq, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get track sequence: %v", err)
	}

	if trackSeq != 1 {
		t.Errorf("expected first track sequence to be 1, got %d", trackSeq)
	}
}
