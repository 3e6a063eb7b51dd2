package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/elsanchez/tubefetch/internal/downloader"
	"github.com/elsanchez/tubefetch/internal/repository"
)

// Task IDs
const (
	TaskPruneHistory    = "prune-history"
	TaskSweepWorkspaces = "sweep-workspaces"
)

// PruneHistoryTask deletes finished downloads older than retention.
func PruneHistoryTask(repo repository.DownloadRepository, retention time.Duration, logger zerolog.Logger) TaskFunc {
	return func(ctx context.Context) error {
		removed, err := repo.DeleteFinishedBefore(ctx, time.Now().Add(-retention))
		if err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
		if removed > 0 {
			logger.Info().Int64("removed", removed).Msg("history pruned")
		}
		return nil
	}
}

// SweepWorkspacesTask removes workspaces left behind by processes that died mid-run.
func SweepWorkspacesTask(parent string, maxAge time.Duration, logger zerolog.Logger) TaskFunc {
	return func(ctx context.Context) error {
		removed, err := downloader.SweepWorkspaces(parent, maxAge)
		if err != nil {
			return fmt.Errorf("sweep workspaces: %w", err)
		}
		if removed > 0 {
			logger.Info().Int("removed", removed).Msg("stale workspaces removed")
		}
		return nil
	}
}
