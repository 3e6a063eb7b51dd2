package downloader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceLifecycle(t *testing.T) {
	parent := t.TempDir()

	ws, err := NewWorkspace(parent)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(ws.Dir()), WorkspacePrefix))
	assert.Equal(t, filepath.Join(ws.Dir(), "video.mp4"), ws.VideoPath())
	assert.Equal(t, filepath.Join(ws.Dir(), "audio.mp4"), ws.AudioPath())

	require.NoError(t, os.WriteFile(ws.VideoPath(), []byte("v"), 0644))
	require.NoError(t, os.WriteFile(ws.AudioPath(), []byte("a"), 0644))

	require.NoError(t, ws.Release())
	_, err = os.Stat(ws.Dir())
	assert.True(t, os.IsNotExist(err))

	// Segunda liberación no falla
	assert.NoError(t, ws.Release())
}

func TestWorkspacesAreIsolated(t *testing.T) {
	parent := t.TempDir()

	a, err := NewWorkspace(parent)
	require.NoError(t, err)
	defer a.Release()

	b, err := NewWorkspace(parent)
	require.NoError(t, err)
	defer b.Release()

	assert.NotEqual(t, a.Dir(), b.Dir())
}

func TestSweepWorkspaces(t *testing.T) {
	parent := t.TempDir()

	stale, err := NewWorkspace(parent)
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale.Dir(), old, old))

	fresh, err := NewWorkspace(parent)
	require.NoError(t, err)
	defer fresh.Release()

	unrelated := filepath.Join(parent, "keep-me")
	require.NoError(t, os.Mkdir(unrelated, 0755))
	require.NoError(t, os.Chtimes(unrelated, old, old))

	removed, err := SweepWorkspaces(parent, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(stale.Dir())
	assert.True(t, os.IsNotExist(err))
	assert.DirExists(t, fresh.Dir())
	assert.DirExists(t, unrelated)
}

func TestSweepWorkspacesMissingParent(t *testing.T) {
	removed, err := SweepWorkspaces(filepath.Join(t.TempDir(), "missing"), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
