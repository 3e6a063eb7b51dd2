package downloader

import (
	"context"
	"errors"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// Catalog define el acceso a la plataforma: listar streams y transferirlos
type Catalog interface {
	// ListStreams obtiene el catálogo de streams del video
	ListStreams(ctx context.Context, link string) (*domain.StreamCatalog, error)

	// Transfer escribe el stream completo en destPath y retorna los bytes escritos
	Transfer(ctx context.Context, stream domain.StreamDescriptor, destPath string) (int64, error)
}

// AccountGetter define la interfaz para obtener cuentas (evita dependencia circular)
type AccountGetter interface {
	GetActive(ctx context.Context, platform string) (*domain.Account, error)
}

// Errores de catálogo que permiten un detalle más preciso al usuario
var (
	ErrVideoPrivate    = errors.New("video is private")
	ErrLoginRequired   = errors.New("login required")
	ErrVideoNotFound   = errors.New("video not found")
	ErrStreamNotListed = errors.New("stream not in catalog")
)
