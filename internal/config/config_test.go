package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elsanchez/tubefetch/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "1080p", cfg.Download.DefaultQuality)
	assert.Equal(t, "mp4", cfg.Download.Container)
	assert.Equal(t, "youtube", cfg.Download.Backend)
	assert.Equal(t, 3, cfg.Download.Workers)
	assert.Equal(t, 30*time.Second, cfg.Download.Timeout)
	assert.Equal(t, "ffmpeg", cfg.Tools.FFmpeg)
	assert.Equal(t, 30, cfg.Maintenance.HistoryRetentionDays)
	assert.Equal(t, 6*time.Hour, cfg.Maintenance.WorkspaceMaxAge)
	assert.NotEmpty(t, cfg.Paths.OutputDir)

	tier, err := cfg.Download.Quality()
	require.NoError(t, err)
	assert.Equal(t, domain.Tier1080p, tier)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubefetch.yaml")
	content := `
download:
  default_quality: 480p
  backend: ytdlp
  workers: 5
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("TUBEFETCH_DOWNLOAD_WORKERS", "2")
	t.Setenv("TUBEFETCH_PATHS_OUTPUT_DIR", "/srv/videos")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "480p", cfg.Download.DefaultQuality)
	assert.Equal(t, "ytdlp", cfg.Download.Backend)
	assert.Equal(t, 2, cfg.Download.Workers)
	assert.Equal(t, "/srv/videos", cfg.Paths.OutputDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	badQuality := filepath.Join(dir, "q.yaml")
	require.NoError(t, os.WriteFile(badQuality, []byte("download:\n  default_quality: 4k\n"), 0644))
	_, err := Load(badQuality)
	assert.ErrorContains(t, err, "default_quality")

	badBackend := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(badBackend, []byte("download:\n  backend: vlc\n"), 0644))
	_, err = Load(badBackend)
	assert.ErrorContains(t, err, "backend")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultOutputDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, home, DefaultOutputDir())

	require.NoError(t, os.Mkdir(filepath.Join(home, "Downloads"), 0755))
	assert.Equal(t, filepath.Join(home, "Downloads"), DefaultOutputDir())
}
