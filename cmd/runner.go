package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundfence/internal/catalog"
	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/location"
	"github.com/desertthunder/soundfence/internal/repositories"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/desertthunder/soundfence/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	provider   catalog.Provider
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	ownsDB     bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Provider   catalog.Provider
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // opened lazily from Config.Database when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Provider == nil {
		opts.Provider = catalog.NewStaticProvider()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		provider:   opts.Provider,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, regionsCommand, checkCommand, watchCommand, serveCommand,
		playlistsCommand, eventsCommand, profileCommand, themeCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the configured database on first use and applies pending migrations.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
	}
	r.db, r.ownsDB = db, true
	return db, nil
}

// regions resolves the region set: --file, then the config file, then the built-in samples.
func (r *Runner) regions(cmd *cli.Command) ([]geofence.Region, error) {
	if path := cmd.String("file"); path != "" {
		return location.LoadRegions(path)
	}
	if regions := r.config.Regions(); len(regions) > 0 {
		return regions, nil
	}
	r.logger.Debug("no regions configured, using samples")
	return location.SampleRegions(), nil
}

// playlistEngine builds the catalog plus local playlist storage.
func (r *Runner) playlistEngine() (*tasks.PlaylistEngine, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	cacher := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
	engine := tasks.NewPlaylistEngine(r.provider, cacher, repositories.NewPlaylistTrackRepository(db))
	engine.SetLogger(shared.WithLogger(r.logger, "component", "playlists"))
	return engine, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
