package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/urfave/cli/v3"
)

// regionCheck is one row of [Runner.Check] output.
type regionCheck struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	RadiusMeters   float64 `json:"radius_meters"`
	DistanceMeters float64 `json:"distance_meters"`
	Inside         bool    `json:"inside"`
}

// RegionsList prints the region set after validation and radius defaulting.
func (r *Runner) RegionsList(ctx context.Context, cmd *cli.Command) error {
	regions, err := r.regions(cmd)
	if err != nil {
		return err
	}

	engine, err := geofence.NewEngine(regions)
	if err != nil {
		return err
	}
	regions = engine.Regions()

	if cmd.Bool("json") {
		return r.writeJSON(regions, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Regions (%d)", len(regions)))
	for _, rg := range regions {
		r.writePlain("%-8s %-24s %s  r=%.0fm\n", rg.ID, rg.Name(), rg.Center, rg.RadiusMeters)
	}
	return nil
}

// Check reports each region's distance from --lat/--lon and whether the position is inside.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	pos := geofence.Position{Latitude: cmd.Float("lat"), Longitude: cmd.Float("lon")}
	if !pos.Valid() {
		return fmt.Errorf("%w: position %s out of range", shared.ErrInvalidArgument, pos)
	}

	regions, err := r.regions(cmd)
	if err != nil {
		return err
	}

	engine, err := geofence.NewEngine(regions)
	if err != nil {
		return err
	}

	rows := make([]regionCheck, 0, engine.Len())
	for _, rg := range engine.Regions() {
		rows = append(rows, regionCheck{
			ID:             rg.ID,
			Title:          rg.Name(),
			RadiusMeters:   rg.RadiusMeters,
			DistanceMeters: geofence.Distance(pos, rg.Center),
			Inside:         rg.Contains(pos),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Position %s", pos))
	inside := 0
	for _, row := range rows {
		marker := "○"
		if row.Inside {
			marker = "●"
			inside++
		}
		r.writePlain("%s %-8s %-24s %8.1fm / %.0fm\n", marker, row.ID, row.Title, row.DistanceMeters, row.RadiusMeters)
	}
	r.writePlainln("Inside %d of %d regions", inside, len(rows))
	return nil
}
