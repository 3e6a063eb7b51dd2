package downloader

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Backends de catálogo soportados
const (
	BackendYouTube = "youtube"
	BackendYtDlp   = "ytdlp"
)

// CatalogConfig selecciona y configura el backend
type CatalogConfig struct {
	Backend     string
	YtDlpPath   string
	MaxRate     int64
	Timeout     time.Duration
	AccountRepo AccountGetter
}

// NewCatalog crea el Catalog para el backend configurado
func NewCatalog(cfg CatalogConfig, logger zerolog.Logger) (Catalog, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendYouTube:
		return NewYouTubeCatalog(YouTubeOptions{
			AccountRepo: cfg.AccountRepo,
			MaxRate:     cfg.MaxRate,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case BackendYtDlp:
		return NewYtDlp(cfg.YtDlpPath, cfg.MaxRate, cfg.AccountRepo, logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog backend: %s", cfg.Backend)
	}
}

// CheckDependencies verifica que las herramientas externas del backend estén instaladas
func CheckDependencies(cfg CatalogConfig) error {
	if strings.ToLower(cfg.Backend) == BackendYtDlp {
		if err := CheckYtDlpInstalled(cfg.YtDlpPath); err != nil {
			return fmt.Errorf("yt-dlp check: %w", err)
		}
	}
	return nil
}
