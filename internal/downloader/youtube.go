package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/elsanchez/tubefetch/internal/cookies"
	"github.com/elsanchez/tubefetch/internal/domain"
)

// YouTubeCatalog implementa Catalog con github.com/kkdai/youtube
type YouTubeCatalog struct {
	accountRepo AccountGetter
	limiter     *rate.Limiter
	timeout     time.Duration
	logger      zerolog.Logger

	// videos guarda el *youtube.Video de cada ListStreams para la transferencia
	videos sync.Map
}

// YouTubeOptions configura el catálogo
type YouTubeOptions struct {
	AccountRepo AccountGetter
	MaxRate     int64         // bytes/s, 0 = sin límite
	Timeout     time.Duration // timeout de requests de metadata
}

// NewYouTubeCatalog crea un catálogo respaldado por la API de YouTube
func NewYouTubeCatalog(opts YouTubeOptions, logger zerolog.Logger) *YouTubeCatalog {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &YouTubeCatalog{
		accountRepo: opts.AccountRepo,
		limiter:     NewLimiter(opts.MaxRate),
		timeout:     opts.Timeout,
		logger:      logger.With().Str("component", "youtube").Logger(),
	}
}

// ListStreams obtiene los formatos del video y los convierte a descriptores
func (y *YouTubeCatalog) ListStreams(ctx context.Context, link string) (*domain.StreamCatalog, error) {
	client := y.newClient(ctx, true)

	video, err := client.GetVideoContext(ctx, link)
	if err != nil {
		return nil, classifyYouTubeError(err)
	}

	y.videos.Store(video.ID, video)

	catalog := &domain.StreamCatalog{
		VideoID: video.ID,
		Title:   video.Title,
		Author:  video.Author,
		Streams: formatsToStreams(video),
	}

	y.logger.Debug().
		Str("video_id", video.ID).
		Int("formats", len(video.Formats)).
		Int("streams", len(catalog.Streams)).
		Msg("catalog loaded")

	return catalog, nil
}

// Transfer descarga el formato indicado por stream.Handle
func (y *YouTubeCatalog) Transfer(ctx context.Context, stream domain.StreamDescriptor, destPath string) (int64, error) {
	// Los streams no usan el timeout de metadata: pueden durar minutos
	client := y.newClient(ctx, false)

	video, err := y.lookupVideo(ctx, client, stream.Source)
	if err != nil {
		return 0, err
	}

	format, err := findFormat(video, stream.Handle)
	if err != nil {
		return 0, err
	}

	reader, size, err := client.GetStreamContext(ctx, video, format)
	if err != nil {
		return 0, fmt.Errorf("open stream %s: %w", stream.Handle, err)
	}
	defer reader.Close()

	started := time.Now()
	written, err := writeStream(ctx, reader, destPath, y.limiter)
	if err != nil {
		return written, err
	}

	if size > 0 && written != size {
		return written, fmt.Errorf("short transfer: got %d of %d bytes", written, size)
	}

	y.logger.Info().
		Str("itag", stream.Handle).
		Str("size", humanize.Bytes(uint64(written))).
		Dur("elapsed", time.Since(started)).
		Msg("stream transferred")

	return written, nil
}

func (y *YouTubeCatalog) lookupVideo(ctx context.Context, client *youtube.Client, videoID string) (*youtube.Video, error) {
	if cached, ok := y.videos.Load(videoID); ok {
		return cached.(*youtube.Video), nil
	}

	video, err := client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("reload video %s: %w", videoID, err)
	}
	y.videos.Store(video.ID, video)
	return video, nil
}

// newClient arma un cliente con las cookies de la cuenta activa (si existe)
func (y *YouTubeCatalog) newClient(ctx context.Context, withTimeout bool) *youtube.Client {
	httpClient := &http.Client{}
	if withTimeout {
		httpClient.Timeout = y.timeout
	}

	if y.accountRepo != nil {
		account, err := y.accountRepo.GetActive(ctx, domain.PlatformYouTube)
		if err == nil && account != nil && account.CookiePath != "" {
			jar, err := cookies.LoadJar(account.CookiePath)
			if err != nil {
				y.logger.Warn().Err(err).Str("account", account.Name).Msg("ignoring unreadable cookie file")
			} else {
				httpClient.Jar = jar
			}
		}
	}

	return &youtube.Client{HTTPClient: httpClient}
}

// formatsToStreams convierte los formatos de la API en descriptores inmutables
func formatsToStreams(video *youtube.Video) []domain.StreamDescriptor {
	streams := make([]domain.StreamDescriptor, 0, len(video.Formats))

	for i := range video.Formats {
		f := &video.Formats[i]

		mediaType, params, err := mime.ParseMediaType(f.MimeType)
		if err != nil {
			continue
		}
		major, container, ok := strings.Cut(strings.ToLower(mediaType), "/")
		if !ok {
			continue
		}

		s := domain.StreamDescriptor{
			Handle:    fmt.Sprintf("%d", f.ItagNo),
			Source:    video.ID,
			Container: container,
			Bitrate:   f.Bitrate,
			Size:      f.ContentLength,
		}
		if s.Bitrate == 0 {
			s.Bitrate = f.AverageBitrate
		}

		codecs := splitCodecs(params["codecs"])

		switch {
		case major == "audio":
			s.Kind = domain.KindAudioOnly
			if len(codecs) > 0 {
				s.AudioCodec = codecs[0]
			}
		case major == "video" && f.AudioChannels > 0:
			s.Kind = domain.KindProgressive
			if len(codecs) > 0 {
				s.VideoCodec = codecs[0]
			}
			if len(codecs) > 1 {
				s.AudioCodec = codecs[1]
			}
		case major == "video":
			s.Kind = domain.KindVideoOnly
			if len(codecs) > 0 {
				s.VideoCodec = codecs[0]
			}
		default:
			continue
		}

		if s.HasVideo() {
			s.Tier = formatTier(f)
			if !s.Tier.Valid() {
				continue
			}
		}

		s.DefaultFilename = DefaultFilename(video.Title, container)
		streams = append(streams, s)
	}

	return streams
}

func formatTier(f *youtube.Format) domain.QualityTier {
	if f.QualityLabel != "" {
		if tier, err := domain.ParseQualityTier(f.QualityLabel); err == nil {
			return tier
		}
	}
	return domain.TierFromSize(f.Width, f.Height)
}

func splitCodecs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func findFormat(video *youtube.Video, handle string) (*youtube.Format, error) {
	for i := range video.Formats {
		if fmt.Sprintf("%d", video.Formats[i].ItagNo) == handle {
			return &video.Formats[i], nil
		}
	}
	return nil, fmt.Errorf("%w: itag %s", ErrStreamNotListed, handle)
}

// classifyYouTubeError traduce errores de la librería a los errores del paquete
func classifyYouTubeError(err error) error {
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate):
		return fmt.Errorf("%w: %v", ErrVideoPrivate, err)
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return fmt.Errorf("%w: %v", ErrLoginRequired, err)
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return fmt.Errorf("%w: %v", ErrVideoNotFound, err)
	}

	var statusErr *youtube.ErrPlayabiltyStatus
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %v", ErrVideoNotFound, err)
	}

	return fmt.Errorf("get video: %w", err)
}
