package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundfence/internal/location"
	"github.com/desertthunder/soundfence/internal/tasks"
	"github.com/desertthunder/soundfence/internal/ui"
)

// watchTUI runs the monitor behind the interactive dashboard. Quitting the dashboard stops the feed.
func (r *Runner) watchTUI(ctx context.Context, monitor *tasks.Monitor, src location.Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, stopTheme, err := r.themeStore()
	if err != nil {
		return err
	}
	defer stopTheme()

	engine, err := r.playlistEngine()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Regions: monitor.Snapshot(),
		Watch: func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.WatchResult, error) {
			return monitor.Run(ctx, src, progress)
		},
		Engine: engine,
		Theme:  store,
		Buffer: r.config.Watch.Buffer,
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
