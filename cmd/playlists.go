package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/desertthunder/soundfence/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistsList lists catalog playlists with optional limit.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	engine := tasks.NewPlaylistEngine(r.provider, nil, nil)

	r.logger.Debugf("listing %s playlists with limit %v", r.provider.Name(), limit)

	playlists, err := engine.Playlists(ctx)
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, pl := range playlists {
		r.writePlain("%-6s %-24s %-16s %d tracks\n", pl.ID, pl.Title, pl.Owner, pl.TrackCount)
	}
	return nil
}

// PlaylistsTracks lists the catalog tracks of --id.
func (r *Runner) PlaylistsTracks(ctx context.Context, cmd *cli.Command) error {
	engine := tasks.NewPlaylistEngine(r.provider, nil, nil)

	export, err := engine.Export(ctx, nil, cmd.String("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(export, cmd.Bool("pretty"))
	}

	r.writePlainHeader(export.Playlist.Title)
	r.writeTracks(export.Tracks)
	return nil
}

// PlaylistsSaved lists the songs added to --id, in the order they were added.
func (r *Runner) PlaylistsSaved(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.playlistEngine()
	if err != nil {
		return err
	}

	tracks, err := engine.Saved(cmd.String("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		r.writePlain("No songs saved to playlist %s\n", cmd.String("id"))
		return nil
	}
	r.writeTracks(tracks)
	return nil
}

// PlaylistsAdd appends the next catalog song not already saved to --id.
func (r *Runner) PlaylistsAdd(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.playlistEngine()
	if err != nil {
		return err
	}

	track, err := engine.AddNext(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	r.logger.Info("added track", "playlist", cmd.String("id"), "track", track.ID)
	r.writePlain("✓ Added %s - %s\n", track.Artist, track.Title)
	return nil
}

// PlaylistsRemove removes --track from the songs saved to --id.
func (r *Runner) PlaylistsRemove(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.playlistEngine()
	if err != nil {
		return err
	}

	if err := engine.Remove(cmd.String("id"), cmd.String("track")); err != nil {
		return err
	}

	r.writePlain("✓ Removed track %s\n", cmd.String("track"))
	return nil
}

// PlaylistsExport writes one or more playlists to files concurrently, followed by a manifest.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	engine := tasks.NewPlaylistEngine(r.provider, nil, nil)

	ids := cmd.StringSlice("id")
	if cmd.Bool("all") {
		playlists, err := engine.Playlists(ctx)
		if err != nil {
			return err
		}
		ids = nil
		for _, pl := range playlists {
			ids = append(ids, pl.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: --id or --all is required", shared.ErrMissingArgument)
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := engine.BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate-limit"),
		Covers:     cmd.Bool("covers"),
	})
	close(progress)
	wg.Wait()

	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("✗ %s: %v\n", res.PlaylistName, res.Error)
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

func (r *Runner) writeTracks(tracks []models.Track) {
	for i, t := range tracks {
		r.writePlain("%2d. %-6s %s - %s", i+1, t.ID, t.Artist, t.Title)
		if t.Duration > 0 {
			r.writePlain(" [%s]", shared.FormatDuration(t.Duration))
		}
		r.writePlain("\n")
	}
}
