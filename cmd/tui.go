package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songlinks/internal/links"
	"github.com/desertthunder/songlinks/internal/shared"
	"github.com/desertthunder/songlinks/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/songlinks-tui.log"

// TUI launches the interactive terminal UI over the links in a file.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireEngine(); err != nil {
		return err
	}

	text, err := r.readInput(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	if err := os.MkdirAll("./tmp", 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	fileLogger, f, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	r.logger = fileLogger
	if err := r.wire(); err != nil {
		return err
	}

	model := ui.NewModel(ctx, links.Extract(text).Apple, r.engine, r.builder)
	model.SetPlaylistName(cmd.String("name"))

	if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
