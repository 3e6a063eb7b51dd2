package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// DownloadStatus representa los estados posibles de una descarga
type DownloadStatus string

const (
	StatusPending     DownloadStatus = "pending"
	StatusDownloading DownloadStatus = "downloading"
	StatusProcessing  DownloadStatus = "processing"
	StatusCompleted   DownloadStatus = "completed"
	StatusFailed      DownloadStatus = "failed"
)

// StatusForState mapea la etapa de ejecución al estado persistido
func StatusForState(state RunState) DownloadStatus {
	switch state {
	case StateValidating, StateResolvingCatalog, StatePlanning, StateTransferring:
		return StatusDownloading
	case StateMuxing:
		return StatusProcessing
	default:
		return StatusPending
	}
}

// DownloadRequest es una petición inmutable de descarga.
// Para reintentar se crea una petición nueva.
type DownloadRequest struct {
	link      string
	quality   QualityTier
	outputDir string
}

// NewDownloadRequest construye una petición; la validación ocurre en el orquestador
func NewDownloadRequest(link string, quality QualityTier, outputDir string) DownloadRequest {
	dir := strings.TrimSpace(outputDir)
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	return DownloadRequest{
		link:      strings.TrimSpace(link),
		quality:   quality,
		outputDir: dir,
	}
}

func (r DownloadRequest) Link() string         { return r.link }
func (r DownloadRequest) Quality() QualityTier { return r.quality }
func (r DownloadRequest) OutputDir() string    { return r.outputDir }

// Download es el registro histórico de una descarga
type Download struct {
	ID              int64
	RunID           string
	URL             string
	Platform        string
	Quality         string
	OutputDir       string
	Status          DownloadStatus
	Plan            PlanKind
	ResolvedQuality string
	OutputPath      string
	Bytes           int64
	ErrorKind       ErrorKind
	ErrorMessage    string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Request reconstruye la petición original del registro
func (d *Download) Request() (DownloadRequest, error) {
	tier, err := ParseQualityTier(d.Quality)
	if err != nil {
		return DownloadRequest{}, err
	}
	return NewDownloadRequest(d.URL, tier, d.OutputDir), nil
}

// IsCompleted retorna true si la descarga está completa o falló
func (d *Download) IsCompleted() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}

// IsActive retorna true si la descarga está en proceso
func (d *Download) IsActive() bool {
	return d.Status == StatusDownloading || d.Status == StatusProcessing
}
