package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/tubefetch/internal/config"
	"github.com/elsanchez/tubefetch/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Paths: config.PathsConfig{
			DataDir:      filepath.Join(dir, "data"),
			OutputDir:    filepath.Join(dir, "out"),
			CookiesDir:   filepath.Join(dir, "cookies"),
			WorkspaceDir: filepath.Join(dir, "work"),
		},
		Download: config.DownloadConfig{
			DefaultQuality: "720p",
			Backend:        "youtube",
			Timeout:        5 * time.Second,
			Workers:        2,
		},
	}
}

func TestNewEngine_CreatesDirectories(t *testing.T) {
	cfg := testConfig(t)

	engine, err := NewEngine(cfg, Options{SkipToolCheck: true}, zerolog.Nop())
	require.NoError(t, err)
	defer engine.Close()

	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.OutputDir, cfg.Paths.CookiesDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestNewEngine_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Download.Backend = "torrent"

	_, err := NewEngine(cfg, Options{SkipToolCheck: true}, zerolog.Nop())
	assert.Error(t, err)
}

func TestEngine_InvalidLinkEndsAsInvalidInput(t *testing.T) {
	cfg := testConfig(t)

	engine, err := NewEngine(cfg, Options{SkipToolCheck: true, NoSideEffects: true}, zerolog.Nop())
	require.NoError(t, err)
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, engine.Start(ctx))

	req := domain.NewDownloadRequest("not a link", domain.Tier720p, cfg.Paths.OutputDir)
	handle, err := engine.Queue.Submit(ctx, req)
	require.NoError(t, err)

	outcome, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.Equal(t, domain.KindInvalidInput, outcome.Kind())

	dl, err := engine.DB.DownloadRepo.GetByID(ctx, handle.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, dl.Status)
}
