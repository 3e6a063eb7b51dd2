package postprocessor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// FFmpegMuxer implementa Muxer con ffmpeg/ffprobe
type FFmpegMuxer struct {
	ffmpeg  string
	ffprobe string
	logger  zerolog.Logger
}

// NewFFmpegMuxer crea un muxer; rutas vacías usan el PATH
func NewFFmpegMuxer(ffmpegPath, ffprobePath string, logger zerolog.Logger) *FFmpegMuxer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegMuxer{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		logger:  logger.With().Str("component", "ffmpeg").Logger(),
	}
}

// MediaInfo contiene información del archivo
type MediaInfo struct {
	Width      int
	Height     int
	VideoCodec string
	AudioCodec string
	Duration   float64
	Bitrate    int64
	FrameRate  float64
	HasVideo   bool
	HasAudio   bool
}

// Combine verifica las entradas y copia video+audio sin recodificar
func (f *FFmpegMuxer) Combine(ctx context.Context, videoPath, audioPath, outputPath string, meta Metadata) error {
	video, err := f.Probe(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("probe video: %w", err)
	}
	if !video.HasVideo {
		return fmt.Errorf("%w: %s has no video stream", ErrIncompatibleStreams, videoPath)
	}

	audio, err := f.Probe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("probe audio: %w", err)
	}
	if !audio.HasAudio {
		return fmt.Errorf("%w: %s has no audio stream", ErrIncompatibleStreams, audioPath)
	}

	args := buildMuxArgs(videoPath, audioPath, outputPath, meta)

	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("ffmpeg mux failed: %w\nOutput: %s", err, output)
	}

	f.logger.Debug().
		Str("video_codec", video.VideoCodec).
		Str("audio_codec", audio.AudioCodec).
		Str("output", outputPath).
		Msg("streams combined")

	return nil
}

// buildMuxArgs arma: ffmpeg -i video -i audio -map 0:v:0 -map 1:a:0 -c copy -y out
func buildMuxArgs(videoPath, audioPath, outputPath string, meta Metadata) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
	}

	if meta.Title != "" {
		args = append(args, "-metadata", "title="+meta.Title)
	}
	if meta.Artist != "" {
		args = append(args, "-metadata", "artist="+meta.Artist)
	}

	if strings.HasSuffix(strings.ToLower(outputPath), ".mp4") {
		args = append(args, "-movflags", "+faststart")
	}

	return append(args, "-y", outputPath)
}

// Probe obtiene información del archivo usando ffprobe
func (f *FFmpegMuxer) Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobe, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeOutput(output)
}

func parseProbeOutput(output []byte) (*MediaInfo, error) {
	var result struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			RFrameRate string `json:"r_frame_rate"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			BitRate  string `json:"bit_rate"`
		} `json:"format"`
	}

	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}

	for _, stream := range result.Streams {
		switch stream.CodecType {
		case "video":
			// Portadas (mjpeg/png) no cuentan como video
			if stream.CodecName == "mjpeg" || stream.CodecName == "png" {
				continue
			}
			info.HasVideo = true
			info.VideoCodec = stream.CodecName
			info.Width = stream.Width
			info.Height = stream.Height

			// Formato: "30/1" o "30000/1001"
			if num, den, ok := strings.Cut(stream.RFrameRate, "/"); ok {
				n, _ := strconv.ParseFloat(num, 64)
				d, _ := strconv.ParseFloat(den, 64)
				if d > 0 {
					info.FrameRate = n / d
				}
			}
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
		}
	}

	if result.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(result.Format.Duration, 64)
	}
	if result.Format.BitRate != "" {
		info.Bitrate, _ = strconv.ParseInt(result.Format.BitRate, 10, 64)
	}

	return info, nil
}

// CheckFFmpegInstalled verifica si ffmpeg y ffprobe están instalados
func CheckFFmpegInstalled(ffmpegPath, ffprobePath string) error {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if _, err := exec.LookPath(ffprobePath); err != nil {
		return fmt.Errorf("ffprobe not found: %w", err)
	}

	return nil
}
