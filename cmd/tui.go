package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/desertthunder/moviex/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for movie search.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}
	store, err := r.store()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.ModelOpts{
		Movies:    r.movies,
		Bookmarks: store,
		Policy:    r.policy(),
		OpenURL:   r.openURL,
		Logger:    fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		model.Session().Dispose()
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
