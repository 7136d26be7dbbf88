package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/soundfence/internal/metrics"
	"github.com/desertthunder/soundfence/internal/repositories"
	"github.com/desertthunder/soundfence/internal/server"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/desertthunder/soundfence/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted. Positions posted to the API drive a single shared monitor whose
// transitions are logged, counted in metrics, and published to Redis when configured.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	regions, err := r.regions(cmd)
	if err != nil {
		return err
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		return fmt.Errorf("failed to create metrics collector: %w", err)
	}

	sinks, release, err := r.transitionSinks(ctx, true)
	if err != nil {
		return err
	}
	defer release()

	monitor, err := tasks.NewMonitorFromRegions(regions,
		tasks.WithSinks(append(sinks, collector)...),
		tasks.WithObservers(collector),
		tasks.WithLogger(shared.WithLogger(r.logger, "component", "monitor")),
	)
	if err != nil {
		return err
	}
	collector.Seed(monitor.Snapshot())

	engine, err := r.playlistEngine()
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	router := server.NewRouter(server.API{
		Monitor:   monitor,
		Playlists: engine,
		Events:    repositories.NewTransitionRepository(db),
		Metrics:   collector,
		Logger:    shared.WithLogger(r.logger, "component", "http"),
	})

	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("serving", "addr", ln.Addr().String(), "regions", len(regions), "catalog", r.provider.Name())
	return server.NewServer(cfg.Addr(), router, r.logger).Run(ctx, ln)
}
