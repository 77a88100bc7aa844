package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/repositories"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/desertthunder/vibe/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive search and playback UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	var themes ui.ThemeStore
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("theme preference unavailable", "error", err)
	} else {
		defer db.Close()
		themes = repositories.NewPreferenceRepository(db)
	}

	events := make(chan models.Event, 128)
	sess := r.newSession(sessionOpts{events: events, open: true})
	defer sess.Close()

	model := ui.NewModel(ctx, sess, events, themes)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
