package repository

import (
	"context"
	"time"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// DownloadRepository define las operaciones sobre el historial de descargas
type DownloadRepository interface {
	// CRUD básico
	Create(ctx context.Context, dl *domain.Download) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Download, error)
	GetByRunID(ctx context.Context, runID string) (*domain.Download, error)
	Delete(ctx context.Context, id int64) error

	// Queries especializadas
	GetPending(ctx context.Context) ([]*domain.Download, error)
	GetActive(ctx context.Context) ([]*domain.Download, error)
	GetRecent(ctx context.Context, limit int) ([]*domain.Download, error)
	GetByStatus(ctx context.Context, status domain.DownloadStatus) ([]*domain.Download, error)

	// Updates parciales
	UpdateStatus(ctx context.Context, id int64, status domain.DownloadStatus) error
	Complete(ctx context.Context, id int64, outcome domain.DownloadOutcome) error

	// Estadísticas
	CountByStatus(ctx context.Context, status domain.DownloadStatus) (int, error)
	CountTotal(ctx context.Context) (int, error)

	// Mantenimiento
	DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
}
