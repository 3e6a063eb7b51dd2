package postprocessor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeFixture = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
    {"codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 180},
    {"codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"duration": "212.091", "bit_rate": "2500000"}
}`

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput([]byte(probeFixture))
	require.NoError(t, err)

	assert.True(t, info.HasVideo)
	assert.True(t, info.HasAudio)
	assert.Equal(t, "h264", info.VideoCodec)
	assert.Equal(t, "aac", info.AudioCodec)
	assert.Equal(t, 1080, info.Height)
	assert.InDelta(t, 29.97, info.FrameRate, 0.01)
	assert.InDelta(t, 212.091, info.Duration, 0.001)
	assert.Equal(t, int64(2500000), info.Bitrate)
}

func TestParseProbeOutputAudioOnly(t *testing.T) {
	info, err := parseProbeOutput([]byte(`{"streams":[{"codec_type":"audio","codec_name":"opus"}],"format":{}}`))
	require.NoError(t, err)
	assert.False(t, info.HasVideo)
	assert.True(t, info.HasAudio)

	_, err = parseProbeOutput([]byte("garbage"))
	assert.Error(t, err)
}

func TestBuildMuxArgs(t *testing.T) {
	args := buildMuxArgs("/ws/video.mp4", "/ws/audio.mp4", "/out/Clip.mp4", Metadata{Title: "Clip", Artist: "Someone"})

	assert.Equal(t, []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "/ws/video.mp4",
		"-i", "/ws/audio.mp4",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
		"-metadata", "title=Clip",
		"-metadata", "artist=Someone",
		"-movflags", "+faststart",
		"-y", "/out/Clip.mp4",
	}, args)

	webm := buildMuxArgs("v", "a", "out.webm", Metadata{})
	assert.NotContains(t, webm, "-movflags")
	assert.Equal(t, "out.webm", webm[len(webm)-1])
}

func TestCombineRejectsMissingProbe(t *testing.T) {
	muxer := NewFFmpegMuxer("ffmpeg", filepath.Join(t.TempDir(), "no-ffprobe"), zerolog.Nop())

	err := muxer.Combine(context.Background(), "v.mp4", "a.mp4", filepath.Join(t.TempDir(), "out.mp4"), Metadata{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe video")
}

// Integración real: solo corre si ffmpeg está instalado
func TestCombineWithFFmpeg(t *testing.T) {
	if err := CheckFFmpegInstalled("", ""); err != nil {
		t.Skip("ffmpeg not installed")
	}

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "video.mp4")
	audioPath := filepath.Join(dir, "audio.mp4")
	outputPath := filepath.Join(dir, "out.mp4")

	gen := func(args ...string) {
		out, err := exec.Command("ffmpeg", append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)...).CombinedOutput()
		require.NoError(t, err, string(out))
	}
	gen("-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=10", "-c:v", "mpeg4", videoPath)
	gen("-f", "lavfi", "-i", "sine=duration=1", "-c:a", "aac", audioPath)

	muxer := NewFFmpegMuxer("", "", zerolog.Nop())
	require.NoError(t, muxer.Combine(context.Background(), videoPath, audioPath, outputPath, Metadata{Title: "test"}))

	info, err := muxer.Probe(context.Background(), outputPath)
	require.NoError(t, err)
	assert.True(t, info.HasVideo)
	assert.True(t, info.HasAudio)

	// Entradas invertidas: el "video" no tiene video
	err = muxer.Combine(context.Background(), audioPath, audioPath, outputPath, Metadata{})
	assert.True(t, errors.Is(err, ErrIncompatibleStreams))

	_, statErr := os.Stat(outputPath)
	assert.NoError(t, statErr)
}
