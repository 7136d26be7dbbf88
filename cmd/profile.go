package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/soundfence/internal/models"
	"github.com/desertthunder/soundfence/internal/repositories"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/desertthunder/soundfence/internal/theme"
	"github.com/urfave/cli/v3"
)

func (r *Runner) profiles() (*repositories.ProfileRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewProfileRepository(db), nil
}

// ProfileShow prints every profile field; unset fields are empty.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	profiles, err := r.profiles()
	if err != nil {
		return err
	}

	values := make(map[string]string, len(models.ProfileKeys))
	for _, key := range models.ProfileKeys {
		value, err := profiles.Value(key)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		values[key] = value
	}

	if cmd.Bool("json") {
		return r.writeJSON(values, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Profile")
	for _, key := range models.ProfileKeys {
		r.writePlain("%-8s %s\n", key+":", values[key])
	}
	return nil
}

// ProfileSet stores --value under --key. Theme values must name a known mode.
func (r *Runner) ProfileSet(ctx context.Context, cmd *cli.Command) error {
	key, value := cmd.String("key"), cmd.String("value")

	if key == models.ProfileTheme {
		mode, err := theme.ParseMode(value)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		value = mode.String()
	}

	profiles, err := r.profiles()
	if err != nil {
		return err
	}
	if _, err := profiles.Set(key, value); err != nil {
		return err
	}

	r.writePlain("✓ %s set\n", key)
	return nil
}

// themeStore starts a [theme.Store] at the persisted mode and writes every later change back to the profile.
// The returned stop func ends persistence and reports any writes that failed.
func (r *Runner) themeStore() (*theme.Store, func() error, error) {
	profiles, err := r.profiles()
	if err != nil {
		return nil, nil, err
	}

	mode, err := r.currentTheme(profiles)
	if err != nil {
		return nil, nil, err
	}

	var errs []error
	store := theme.NewStore(mode)
	unsubscribe := store.Subscribe(func(m theme.Mode, _ theme.Palette) {
		if _, err := profiles.Set(models.ProfileTheme, m.String()); err != nil {
			r.logger.Warn("failed to persist theme", "theme", m, "error", err)
			errs = append(errs, fmt.Errorf("failed to persist theme %s: %w", m, err))
		}
	})

	stop := func() error {
		unsubscribe()
		return errors.Join(errs...)
	}
	return store, stop, nil
}

// currentTheme reads the profile's theme, falling back to the configured default.
func (r *Runner) currentTheme(profiles *repositories.ProfileRepository) (theme.Mode, error) {
	value, err := profiles.Value(models.ProfileTheme)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		value = r.config.Theme.Default
	case err != nil:
		return theme.Dark, err
	}

	if value == "" {
		return theme.Dark, nil
	}
	mode, err := theme.ParseMode(value)
	if err != nil {
		return theme.Dark, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	return mode, nil
}

// ThemeShow prints the current theme and its palette.
func (r *Runner) ThemeShow(ctx context.Context, cmd *cli.Command) error {
	store, stop, err := r.themeStore()
	if err != nil {
		return err
	}
	defer stop()

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"mode":    store.Mode().String(),
			"palette": store.Palette(),
		}, cmd.Bool("pretty"))
	}

	p := store.Palette()
	r.writePlain("Theme: %s\n", store.Mode())
	r.writePlain("  background %s\n  text       %s\n  input      %s\n  primary    %s\n  tint       %s\n",
		p.Background, p.Text, p.InputBg, p.Primary, p.Tint)
	return nil
}

// ThemeToggle flips between light and dark and persists the result.
func (r *Runner) ThemeToggle(ctx context.Context, cmd *cli.Command) error {
	store, stop, err := r.themeStore()
	if err != nil {
		return err
	}

	mode := store.Toggle()
	if err := stop(); err != nil {
		return err
	}
	r.writePlain("✓ Theme set to %s\n", mode)
	return nil
}
