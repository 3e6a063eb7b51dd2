package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// YtDlp implementa Catalog usando el binario yt-dlp
type YtDlp struct {
	binary      string
	maxRate     int64
	accountRepo AccountGetter
	logger      zerolog.Logger
}

// NewYtDlp crea un catálogo respaldado por yt-dlp
func NewYtDlp(binary string, maxRate int64, accountRepo AccountGetter, logger zerolog.Logger) *YtDlp {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlp{
		binary:      binary,
		maxRate:     maxRate,
		accountRepo: accountRepo,
		logger:      logger.With().Str("component", "ytdlp").Logger(),
	}
}

// ytdlpInfo es el subconjunto de `yt-dlp -J` que usamos
type ytdlpInfo struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Uploader string        `json:"uploader"`
	Formats  []ytdlpFormat `json:"formats"`
}

type ytdlpFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	FormatNote     string  `json:"format_note"`
	TBR            float64 `json:"tbr"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	Protocol       string  `json:"protocol"`
}

// ListStreams ejecuta `yt-dlp -J` y convierte los formatos
func (y *YtDlp) ListStreams(ctx context.Context, link string) (*domain.StreamCatalog, error) {
	args := []string{"-J", "--no-playlist", "--no-warnings"}
	args = append(args, y.cookieArgs(ctx)...)
	args = append(args, link)

	cmd := exec.CommandContext(ctx, y.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w%s", err, stderrOf(err))
	}

	return parseYtDlpCatalog(output)
}

// Transfer descarga un format_id exacto a destPath
func (y *YtDlp) Transfer(ctx context.Context, stream domain.StreamDescriptor, destPath string) (int64, error) {
	args := []string{
		"-f", stream.Handle,
		"-o", destPath,
		"--no-playlist",
		"--no-part",
		"--force-overwrites",
		"--no-warnings",
		"--quiet",
	}
	if y.maxRate > 0 {
		args = append(args, "--limit-rate", strconv.FormatInt(y.maxRate, 10))
	}
	args = append(args, y.cookieArgs(ctx)...)
	args = append(args, stream.Source)

	cmd := exec.CommandContext(ctx, y.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(destPath)
		return 0, fmt.Errorf("yt-dlp failed: %w\nOutput: %s", err, output)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return 0, fmt.Errorf("stat transferred file: %w", err)
	}

	y.logger.Debug().Str("format", stream.Handle).Int64("bytes", info.Size()).Msg("stream transferred")
	return info.Size(), nil
}

// cookieArgs agrega --cookies con la cuenta activa de YouTube
func (y *YtDlp) cookieArgs(ctx context.Context) []string {
	if y.accountRepo == nil {
		return nil
	}
	account, err := y.accountRepo.GetActive(ctx, domain.PlatformYouTube)
	if err == nil && account != nil && account.CookiePath != "" {
		return []string{"--cookies", account.CookiePath}
	}
	return nil
}

// parseYtDlpCatalog convierte la salida JSON de yt-dlp en un catálogo
func parseYtDlpCatalog(data []byte) (*domain.StreamCatalog, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode yt-dlp json: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("%w: yt-dlp returned no id", ErrVideoNotFound)
	}

	catalog := &domain.StreamCatalog{
		VideoID: info.ID,
		Title:   info.Title,
		Author:  info.Uploader,
	}

	for _, f := range info.Formats {
		// Manifiestos HLS/DASH y storyboards no son transferibles como archivo
		if strings.HasPrefix(f.Protocol, "m3u8") || f.Protocol == "http_dash_segments" || f.Ext == "mhtml" {
			continue
		}

		hasVideo := f.VCodec != "" && f.VCodec != "none"
		hasAudio := f.ACodec != "" && f.ACodec != "none"

		s := domain.StreamDescriptor{
			Handle:    f.FormatID,
			Source:    info.ID,
			Container: ytdlpContainer(f.Ext),
			Bitrate:   int(f.TBR * 1000),
			Size:      f.Filesize,
		}
		if s.Size == 0 {
			s.Size = f.FilesizeApprox
		}

		switch {
		case hasVideo && hasAudio:
			s.Kind = domain.KindProgressive
			s.VideoCodec, s.AudioCodec = f.VCodec, f.ACodec
		case hasVideo:
			s.Kind = domain.KindVideoOnly
			s.VideoCodec = f.VCodec
		case hasAudio:
			s.Kind = domain.KindAudioOnly
			s.AudioCodec = f.ACodec
		default:
			continue
		}

		if hasVideo {
			s.Tier = ytdlpTier(f)
			if !s.Tier.Valid() {
				continue
			}
		}

		s.DefaultFilename = DefaultFilename(info.Title, s.Container)
		catalog.Streams = append(catalog.Streams, s)
	}

	return catalog, nil
}

// ytdlpTier usa la etiqueta de yt-dlp ("1080p60"); si no la hay, las dimensiones
func ytdlpTier(f ytdlpFormat) domain.QualityTier {
	if tier, err := domain.ParseQualityTier(f.FormatNote); err == nil {
		return tier
	}
	return domain.TierFromSize(f.Width, f.Height)
}

// ytdlpContainer normaliza extensiones: m4a es audio en contenedor mp4
func ytdlpContainer(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "m4a" {
		return "mp4"
	}
	return ext
}

func stderrOf(err error) string {
	if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
		return "\nOutput: " + strings.TrimSpace(string(exitErr.Stderr))
	}
	return ""
}

// CheckYtDlpInstalled verifica si yt-dlp está instalado
func CheckYtDlpInstalled(binary string) error {
	if binary == "" {
		binary = "yt-dlp"
	}
	cmd := exec.Command(binary, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp not found: %w (install: pip install yt-dlp)", err)
	}
	return nil
}
