package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/elsanchez/tubefetch/internal/app"
	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/logger"
	"github.com/elsanchez/tubefetch/internal/tui/download"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive download form",
	Args:  cobra.NoArgs,
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	tier, err := cfg.Download.Quality()
	if err != nil {
		return err
	}

	// La consola pertenece a la TUI: los logs solo van al archivo
	uiLog := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: "json",
		Dir:    cfg.Logging.Dir,
		Output: io.Discard,
	})
	defer uiLog.Close()

	engine, err := app.NewEngine(cfg, app.Options{Workers: 1, SkipRecovery: true}, uiLog.Logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Start(cmd.Context()); err != nil {
		return err
	}

	submit := func(ctx context.Context, req domain.DownloadRequest) (download.Waiter, error) {
		handle, err := engine.Queue.Submit(ctx, req)
		if err != nil {
			return nil, err
		}
		return handle, nil
	}

	p := tea.NewProgram(download.NewModel(submit, cfg.Paths.OutputDir, tier))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
