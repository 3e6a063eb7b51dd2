package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARNING "))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestNew_JSONAndFile(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()

	log := New(Config{Level: "info", Format: "json", Dir: dir, Output: &buf})
	queueLog := log.WithComponent("queue")
	queueLog.Info().Str("run_id", "r1").Msg("download queued")
	log.Debug().Msg("hidden")
	require.NoError(t, log.Close())

	assert.Contains(t, buf.String(), `"component":"queue"`)
	assert.Contains(t, buf.String(), `"run_id":"r1"`)
	assert.NotContains(t, buf.String(), "hidden")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "download queued")
}
