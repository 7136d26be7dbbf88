package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/desertthunder/soundfence/internal/formatter"
	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/repositories"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/urfave/cli/v3"
)

// eventJSON is the list --json form of a [models.TransitionRecord].
type eventJSON struct {
	ID         string   `json:"id"`
	RegionID   string   `json:"region_id"`
	Title      string   `json:"title"`
	Kind       string   `json:"kind"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Distance   *float64 `json:"distance_meters"`
	OccurredAt string   `json:"occurred_at"`
}

// finite drops NaN and infinite values, which JSON cannot carry.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func (r *Runner) listEvents(cmd *cli.Command) ([]*models.TransitionRecord, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	if limit := cmd.Int("limit"); limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", shared.ErrInvalidArgument)
	}

	return repositories.NewTransitionRepository(db).List(map[string]any{
		"region_id": cmd.String("region"),
		"kind":      cmd.String("kind"),
		"limit":     cmd.Int("limit"),
	})
}

// EventsList prints recorded transitions, oldest first.
func (r *Runner) EventsList(ctx context.Context, cmd *cli.Command) error {
	records, err := r.listEvents(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]eventJSON, len(records))
		for i, rec := range records {
			out[i] = eventJSON{
				ID:         rec.ID(),
				RegionID:   rec.RegionID(),
				Title:      rec.Title(),
				Kind:       rec.Kind().String(),
				Latitude:   finite(rec.Position().Latitude),
				Longitude:  finite(rec.Position().Longitude),
				Distance:   finite(rec.Distance()),
				OccurredAt: rec.OccurredAt().UTC().Format(time.RFC3339),
			}
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if len(records) == 0 {
		r.writePlain("No events recorded\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Events (%d)", len(records)))
	for _, rec := range records {
		r.writePlain("%s  %-8s %s\n", rec.OccurredAt().Local().Format("2006-01-02 15:04:05"),
			formatter.NotificationTitle(rec.Kind()), formatter.Notification(rec.Event()))
	}
	return nil
}

// EventsExport writes recorded transitions as CSV or markdown to --output or stdout.
func (r *Runner) EventsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	records, err := r.listEvents(cmd)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case formatter.FormatCSV:
		data, err = formatter.EventsToCSV(records)
	case formatter.FormatMarkdown:
		data, err = formatter.EventsToMarkdown(records)
	default:
		return fmt.Errorf("%w: events export supports csv and markdown, got %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		_, err := r.output.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.logger.Info("exported events", "count", len(records), "path", path)
	return nil
}
