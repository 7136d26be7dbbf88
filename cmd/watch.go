package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/soundfence/internal/adapters/redis"
	"github.com/desertthunder/soundfence/internal/formatter"
	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/location"
	"github.com/desertthunder/soundfence/internal/repositories"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/desertthunder/soundfence/internal/tasks"
	"github.com/urfave/cli/v3"
)

// tuiLogPath receives log output while the dashboard owns the terminal.
const tuiLogPath = "./tmp/soundfence-tui.log"

// Watch replays a CSV position feed through the geofence monitor, printing each notification as it fires.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("tui") {
		// Redirect logs to file to avoid interfering with TUI rendering
		fileLogger, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	regions, err := r.regions(cmd)
	if err != nil {
		return err
	}
	src := location.FileSource{Path: cmd.String("positions")}

	sinks, release, err := r.transitionSinks(ctx, cmd.Bool("record"))
	if err != nil {
		return err
	}
	defer release()

	if !cmd.Bool("tui") {
		sinks = append(sinks, tasks.SinkFunc(r.printTransition))
	}

	opts, err := r.monitorOptions(cmd, sinks...)
	if err != nil {
		return err
	}
	monitor, err := tasks.NewMonitorFromRegions(regions, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("tui") {
		return r.watchTUI(ctx, monitor, src)
	}

	r.logger.Info("watching positions", "file", src.Path, "regions", len(regions))
	result, err := monitor.Run(ctx, src, nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.reportWatch(result)
	return nil
}

func (r *Runner) printTransition(_ context.Context, ev geofence.TransitionEvent) error {
	return r.writePlain("%-8s %s at %s\n", formatter.NotificationTitle(ev.Kind), formatter.Notification(ev), ev.Position)
}

func (r *Runner) reportWatch(result *tasks.WatchResult) {
	for _, err := range result.SinkErrors {
		r.logger.Warn("transition sink failed", "error", err)
	}

	r.writePlainln("Positions: %d seen, %d evaluated", result.PositionsSeen, result.PositionsAccepted)
	r.writePlain("Transitions: %d\n", len(result.Events))
	for _, s := range result.Snapshot {
		if s.Inside {
			r.writePlain("Inside: %s\n", s.Region.Name())
		}
	}
}

// monitorOptions reads --rate and --interval, falling back to the [watch] config section.
func (r *Runner) monitorOptions(cmd *cli.Command, sinks ...tasks.Sink) ([]tasks.MonitorOption, error) {
	rate := r.config.Watch.Rate
	if cmd.IsSet("rate") {
		rate = cmd.Float("rate")
	}
	interval := r.config.Watch.DistanceIntervalMeters
	if cmd.IsSet("interval") {
		interval = cmd.Float("interval")
	}
	if rate < 0 || interval < 0 {
		return nil, fmt.Errorf("%w: rate and interval must not be negative", shared.ErrInvalidArgument)
	}

	return []tasks.MonitorOption{
		tasks.WithSinks(sinks...),
		tasks.WithRate(rate),
		tasks.WithDistanceInterval(interval),
		tasks.WithLogger(shared.WithLogger(r.logger, "component", "monitor")),
	}, nil
}

// transitionSinks assembles the event log and, when configured and reachable, the Redis publisher.
// The returned func releases them.
func (r *Runner) transitionSinks(ctx context.Context, record bool) ([]tasks.Sink, func(), error) {
	var sinks []tasks.Sink
	release := func() {}

	if record {
		db, err := r.database()
		if err != nil {
			return nil, release, err
		}
		sinks = append(sinks, repositories.NewTransitionRepository(db))
	}

	if cfg := r.config.Redis; cfg.Enabled() {
		pub := redis.New(cfg.Addr, cfg.Password, cfg.DB, redis.WithChannel(cfg.Channel), redis.WithPrefix(cfg.KeyPrefix))
		if err := pub.Ping(ctx); err != nil {
			pub.Close()
			r.logger.Warn("redis unavailable, transitions will not be published", "addr", cfg.Addr, "error", err)
		} else {
			r.logger.Info("publishing transitions", "addr", cfg.Addr, "channel", pub.Channel())
			sinks = append(sinks, pub)
			release = func() {
				if err := pub.Close(); err != nil {
					r.logger.Warn("failed to close redis client", "error", err)
				}
			}
		}
	}

	return sinks, release, nil
}
