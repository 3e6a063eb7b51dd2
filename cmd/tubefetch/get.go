package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/elsanchez/tubefetch/internal/app"
	"github.com/elsanchez/tubefetch/internal/domain"
)

var (
	getQuality string
	getOutput  string
	getVerbose bool
)

var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Download a video in-process and wait for it",
	Example: `  tubefetch get https://youtu.be/dQw4w9WgXcQ
  tubefetch get https://www.youtube.com/watch?v=dQw4w9WgXcQ -q 720p -o ~/Videos`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getQuality, "quality", "q", "", "quality tier: 1080p, 720p, 480p, 360p, 240p, 144p (default from config)")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "output directory (default from config)")
	getCmd.Flags().BoolVarP(&getVerbose, "verbose", "v", false, "show debug logs and full error details")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(args[0], getQuality, getOutput)
	if err != nil {
		return err
	}

	l := log.Logger
	if getVerbose {
		l = l.Level(zerolog.DebugLevel)
	} else {
		l = l.Level(zerolog.WarnLevel)
	}

	engine, err := app.NewEngine(cfg, app.Options{Workers: 1, SkipRecovery: true}, l)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx); err != nil {
		return err
	}

	handle, err := engine.Queue.Submit(ctx, req)
	if err != nil {
		return fmt.Errorf("submit download: %w", err)
	}

	fmt.Printf("Downloading %s (%s)...\n", req.Link(), req.Quality())

	outcome, err := handle.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Cancelled")
		}
		return err
	}

	return printOutcome(outcome, getVerbose)
}

// buildRequest aplica los defaults de la config a los flags vacíos
func buildRequest(link, quality, output string) (domain.DownloadRequest, error) {
	tier, err := cfg.Download.Quality()
	if err != nil {
		return domain.DownloadRequest{}, err
	}
	if quality != "" {
		tier, err = domain.ParseQualityTier(quality)
		if err != nil {
			return domain.DownloadRequest{}, fmt.Errorf("invalid quality: %w", err)
		}
	}
	if output == "" {
		output = cfg.Paths.OutputDir
	}
	return domain.NewDownloadRequest(link, tier, output), nil
}

func printOutcome(outcome domain.DownloadOutcome, verbose bool) error {
	if outcome.Succeeded() {
		fmt.Printf("✓ Saved to %s\n", outcome.Path)
		fmt.Printf("  Quality: %s (%s)\n", outcome.Tier, outcome.Plan)
		if outcome.Bytes > 0 {
			fmt.Printf("  Size:    %s\n", humanize.Bytes(uint64(outcome.Bytes)))
		}
		fmt.Printf("  Took:    %s\n", outcome.Duration.Round(100*time.Millisecond))
		return nil
	}

	fmt.Printf("✗ %s\n", outcome.Kind().UserMessage())
	if verbose || outcome.Kind() == domain.KindUnknownFailure {
		fmt.Println()
		fmt.Println(outcome.Err.Diagnostic())
	}
	return fmt.Errorf("download failed: %s", outcome.Kind())
}
