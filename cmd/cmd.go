// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func regionsFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Regions file (.toml, .yaml, .json); defaults to the config's regions",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print output",
		Value: true,
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// regionsCommand inspects the region set.
func regionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "regions",
		Usage: "Geofence region operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the monitored regions",
				Flags:  []cli.Flag{regionsFileFlag(), jsonFlag(), prettyFlag()},
				Action: r.RegionsList,
			},
		},
	}
}

// checkCommand evaluates a single position against every region.
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Show distance and containment of a position for each region",
		Flags: []cli.Flag{
			&cli.FloatFlag{Name: "lat", Usage: "Latitude in degrees", Required: true},
			&cli.FloatFlag{Name: "lon", Usage: "Longitude in degrees", Required: true},
			regionsFileFlag(),
			jsonFlag(),
			prettyFlag(),
		},
		Action: r.Check,
	}
}

// watchCommand feeds a recorded position stream through the monitor.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Replay a position feed and report region transitions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "positions",
				Aliases:  []string{"p"},
				Usage:    "CSV file of latitude,longitude rows",
				Required: true,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Positions per second, 0 for as fast as possible (default from config)",
			},
			&cli.FloatFlag{
				Name:  "interval",
				Usage: "Minimum movement in meters before a position is evaluated (default from config)",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show the interactive dashboard",
			},
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Persist transitions to the event log",
				Value: true,
			},
			regionsFileFlag(),
		},
		Action: r.Watch,
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (default from config)"},
			regionsFileFlag(),
		},
		Action: r.Serve,
	}
}

// playlistsCommand handles catalog and saved playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	idFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "id", Usage: "Playlist ID", Required: true}
	}

	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List catalog playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.PlaylistsList,
			},
			{
				Name:   "tracks",
				Usage:  "List a playlist's catalog tracks",
				Flags:  []cli.Flag{idFlag(), jsonFlag(), prettyFlag()},
				Action: r.PlaylistsTracks,
			},
			{
				Name:   "saved",
				Usage:  "List songs saved to a playlist",
				Flags:  []cli.Flag{idFlag(), jsonFlag(), prettyFlag()},
				Action: r.PlaylistsSaved,
			},
			{
				Name:   "add",
				Usage:  "Add the next catalog song not yet in the playlist",
				Flags:  []cli.Flag{idFlag()},
				Action: r.PlaylistsAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a saved song from a playlist",
				Flags: []cli.Flag{
					idFlag(),
					&cli.StringFlag{Name: "track", Usage: "Track ID", Required: true},
				},
				Action: r.PlaylistsRemove,
			},
			{
				Name:  "export",
				Usage: "Export playlists to files",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Playlist ID to export (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every catalog playlist",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: json, csv, markdown, txt",
						Value: "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: soundfence_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate-limit",
						Usage: "Catalog requests per second",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "covers",
						Usage: "Download cover images (markdown only)",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// eventsCommand reads the transition log
func eventsCommand(r *Runner) *cli.Command {
	filters := func(extra ...cli.Flag) []cli.Flag {
		return append([]cli.Flag{
			&cli.StringFlag{Name: "region", Usage: "Only events for this region ID"},
			&cli.StringFlag{Name: "kind", Usage: "Only entered or exited events"},
			&cli.IntFlag{Name: "limit", Usage: "Only the most recent N events"},
		}, extra...)
	}

	return &cli.Command{
		Name:  "events",
		Usage: "Geofence event log",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List recorded transitions",
				Flags:  filters(jsonFlag(), prettyFlag()),
				Action: r.EventsList,
			},
			{
				Name:  "export",
				Usage: "Export recorded transitions",
				Flags: filters(
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv or markdown",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				),
				Action: r.EventsExport,
			},
		},
	}
}

// profileCommand manages cached listener settings
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Listener profile",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show profile fields",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.ProfileShow,
			},
			{
				Name:  "set",
				Usage: "Set a profile field",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "Field name (name, email, bio, theme, avatar)", Required: true},
					&cli.StringFlag{Name: "value", Usage: "Field value"},
				},
				Action: r.ProfileSet,
			},
		},
	}
}

// themeCommand reads and flips the persisted colour scheme
func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Light/dark theme",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current theme and palette",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.ThemeShow,
			},
			{
				Name:   "toggle",
				Usage:  "Switch between light and dark",
				Action: r.ThemeToggle,
			},
		},
	}
}
