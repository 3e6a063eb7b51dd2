package scheduler

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/downloader"
	"github.com/elsanchez/tubefetch/internal/repository/sqlite"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop() })
	return s
}

func TestScheduler_RegisterAndRunNow(t *testing.T) {
	s := newTestScheduler(t)

	var calls atomic.Int32
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:   "count",
		Name: "Count",
		Cron: "0 0 1 1 *",
		Func: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		},
	}))

	err := s.RegisterTask(TaskConfig{ID: "count", Cron: "0 0 1 1 *", Func: func(context.Context) error { return nil }})
	assert.Error(t, err)

	s.Start()
	require.NoError(t, s.RunNow("count"))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	info, err := s.GetTask("count")
	require.NoError(t, err)
	assert.Equal(t, "0 0 1 1 *", info.Cron)
	assert.NotNil(t, info.NextRun)

	assert.Error(t, s.RunNow("missing"))
}

func TestScheduler_RunOnStartRecordsError(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:         "fail",
		Cron:       "0 0 1 1 *",
		RunOnStart: true,
		Func:       func(ctx context.Context) error { return errors.New("disk full") },
	}))
	s.Start()

	require.Eventually(t, func() bool {
		info, err := s.GetTask("fail")
		return err == nil && info.LastRun != nil && info.LastErr == "disk full"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_EmptyCronDisablesTask(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.RegisterTask(TaskConfig{ID: "off", Func: func(context.Context) error { return nil }}))
	_, err := s.GetTask("off")
	assert.Error(t, err)
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := newTestScheduler(t)

	err := s.RegisterTask(TaskConfig{ID: "bad", Cron: "every tuesday", Func: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestPruneHistoryTask(t *testing.T) {
	db, err := sqlite.NewDatabase(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	id, err := db.DownloadRepo.Create(ctx, &domain.Download{RunID: "old", URL: "u", Quality: "720p", OutputDir: "/d"})
	require.NoError(t, err)
	require.NoError(t, db.DownloadRepo.Complete(ctx, id, domain.Success("/d/x.mp4")))

	// Negative retention puts every finished row outside the window
	require.NoError(t, PruneHistoryTask(db.DownloadRepo, -time.Hour, zerolog.Nop())(ctx))

	total, err := db.DownloadRepo.CountTotal(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSweepWorkspacesTask(t *testing.T) {
	parent := t.TempDir()

	ws, err := downloader.NewWorkspace(parent)
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(ws.Dir(), old, old))

	require.NoError(t, SweepWorkspacesTask(parent, time.Hour, zerolog.Nop())(context.Background()))
	assert.NoDirExists(t, ws.Dir())
}
