package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/repositories"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/urfave/cli/v3"
)

// ThemeGet prints the saved theme, or "unset" when none was saved.
func (r *Runner) ThemeGet(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	theme, err := repositories.NewPreferenceRepository(db).Theme()
	switch {
	case errors.Is(err, shared.ErrPreferenceNotFound):
		if cmd.Bool("json") {
			return r.writeJSON(map[string]any{"theme": nil, "saved": false}, false)
		}
		return r.writePlain("unset (follows the terminal background)\n")
	case err != nil:
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"theme": theme, "saved": true}, false)
	}
	return r.writePlain("%s\n", theme)
}

// ThemeSet validates and saves the theme.
func (r *Runner) ThemeSet(ctx context.Context, cmd *cli.Command) error {
	value := cmd.StringArg("theme")
	if value == "" {
		return fmt.Errorf("%w: theme", shared.ErrMissingArgument)
	}
	theme, ok := models.ParseTheme(value)
	if !ok {
		return fmt.Errorf("%w: theme must be light or dark, got %q", shared.ErrInvalidArgument, value)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewPreferenceRepository(db).SetTheme(theme); err != nil {
		return err
	}
	r.logger.Debug("theme saved", "theme", theme)
	return r.writePlain("✓ Theme set to %s\n", theme)
}
